package market

import (
	"context"
	"errors"
	"strconv"

	"github.com/demigunkan/marketstatus/internal/config"
	"github.com/demigunkan/marketstatus/internal/interfaces"
	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/demigunkan/marketstatus/pkg/router"
	"github.com/ethereum/go-ethereum/event"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrFeedClosed = errors.New("delta feed closed")

var _ router.Unit = &Worker{}

const (
	deltaBuffer   = 4096
	symbolBuffer  = 1024
	requestBuffer = 256
)

// Worker is an independent replica: its own books and syncers, fed from its
// own subscription to the delta stream, answering queries on its own loop.
type Worker struct {
	id     int
	market *Market
	logger zerolog.Logger

	requests chan router.Request
	deltas   chan types.Delta
	sub      event.Subscription
}

func NewWorker(id int, pairs []config.Pair, source interfaces.SnapshotSource, feed interfaces.DeltaFeed, logger zerolog.Logger) *Worker {
	name := strconv.Itoa(id)
	logger = logger.With().Int("worker", id).Logger()

	w := &Worker{
		id:       id,
		market:   New(name, pairs, source, logger),
		logger:   logger,
		requests: make(chan router.Request, requestBuffer),
		deltas:   make(chan types.Delta, deltaBuffer),
	}
	w.sub = feed.SubscribeDeltas(w.deltas)

	return w
}

func (w *Worker) Market() *Market {
	return w.market
}

func (w *Worker) Dispatch(ctx context.Context, req router.Request) error {
	select {
	case w.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts one syncer per pair and serves deltas and requests until ctx is
// done or the feed subscription ends.
func (w *Worker) Run(ctx context.Context) error {
	defer w.sub.Unsubscribe()

	g, gctx := errgroup.WithContext(ctx)

	perSymbol := make(map[string]chan types.Delta, len(w.market.pairs))
	for _, pair := range w.market.pairs {
		ch := make(chan types.Delta, symbolBuffer)
		perSymbol[pair] = ch
		s := w.market.syncers[pair]
		g.Go(func() error {
			return s.Run(gctx, ch)
		})
	}

	g.Go(func() error {
		w.logger.Info().Strs("pairs", w.market.pairs).Msg("worker started")
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case err := <-w.sub.Err():
				if err == nil {
					err = ErrFeedClosed
				}
				return err
			case d := <-w.deltas:
				ch, ok := perSymbol[d.MarketSymbol]
				if !ok {
					w.logger.Trace().Str("symbol", d.MarketSymbol).Msg("delta for unconfigured pair")
					continue
				}
				if d.Depth != 0 && d.Depth != w.market.books[d.MarketSymbol].Depth() {
					continue
				}
				select {
				case ch <- d:
				case <-gctx.Done():
					return gctx.Err()
				}
			case req := <-w.requests:
				w.logger.Debug().Uint64("id", req.ID).Str("method", string(req.Query.Method)).Msg("query")
				resp := router.Response{ID: req.ID, Reply: w.market.Process(req.Query)}
				select {
				case req.Reply <- resp:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		}
	})

	return g.Wait()
}
