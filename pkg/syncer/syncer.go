// Package syncer keeps one order book consistent with the exchange by merging
// the live delta stream with a REST snapshot under the feed's sequence numbers.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/demigunkan/marketstatus/internal/interfaces"
	"github.com/demigunkan/marketstatus/internal/metrics"
	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/demigunkan/marketstatus/pkg/orderbook"
	"github.com/rs/zerolog"
)

type Phase uint8

const (
	PhaseNotSynced Phase = iota
	PhaseFetching
	PhaseSynced
)

func (p Phase) String() string {
	switch p {
	case PhaseNotSynced:
		return "not_synced"
	case PhaseFetching:
		return "fetching"
	case PhaseSynced:
		return "synced"
	}
	return "unknown"
}

type State struct {
	Phase        Phase
	Pending      int
	LastSequence int64
	HasSequence  bool
}

type fetchResult struct {
	snapshot *types.Snapshot
	err      error
}

// Syncer is the only writer of its order book. Deltas must be fed from a
// single goroutine through Run; snapshot fetches run in the background and
// are folded back into the same loop.
type Syncer struct {
	book   interfaces.Orderbook
	source interfaces.SnapshotSource
	logger zerolog.Logger
	worker string

	fetched chan fetchResult

	mu      sync.RWMutex
	phase   Phase
	pending []types.Delta
	lastSeq int64
	hasSeq  bool
}

func New(book interfaces.Orderbook, source interfaces.SnapshotSource, logger zerolog.Logger, worker string) *Syncer {
	s := &Syncer{
		book:    book,
		source:  source,
		logger:  logger.With().Str("symbol", book.CurrencyPair()).Str("worker", worker).Logger(),
		worker:  worker,
		fetched: make(chan fetchResult, 1),
	}
	s.setPhase(PhaseNotSynced)

	return s
}

func (s *Syncer) Book() interfaces.Orderbook {
	return s.book
}

// Run processes deltas in arrival order until ctx is done or deltas is closed.
func (s *Syncer) Run(ctx context.Context, deltas <-chan types.Delta) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deltas:
			if !ok {
				return nil
			}
			_ = s.handleDelta(ctx, d)
		case res := <-s.fetched:
			_ = s.handleSnapshot(res)
		}
	}
}

func (s *Syncer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return State{
		Phase:        s.phase,
		Pending:      len(s.pending),
		LastSequence: s.lastSeq,
		HasSequence:  s.hasSeq,
	}
}

func (s *Syncer) handleDelta(ctx context.Context, d types.Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Trace().Int64("sequence", d.Sequence).Msg("delta received")
	s.pending = append(s.pending, d)

	switch s.phase {
	case PhaseFetching:
		return nil
	case PhaseSynced:
		return s.drain()
	}

	s.setPhase(PhaseFetching)
	go s.fetch(ctx)

	return nil
}

func (s *Syncer) fetch(ctx context.Context) {
	snapshot, err := s.source.Snapshot(ctx, s.book.CurrencyPair(), s.book.Depth())
	select {
	case s.fetched <- fetchResult{snapshot: snapshot, err: err}:
	case <-ctx.Done():
	}
}

func (s *Syncer) handleSnapshot(res fetchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.err == nil && res.snapshot == nil {
		res.err = errors.New("empty snapshot")
	}
	if res.err != nil {
		metrics.SnapshotsTotal.WithLabelValues(s.book.CurrencyPair(), "error").Inc()
		return s.reset(fmt.Errorf("%w: %v", ErrSnapshotFetchFailed, res.err))
	}

	snapshot := res.snapshot
	if len(s.pending) > 0 && snapshot.Sequence < s.pending[0].Sequence {
		metrics.SnapshotsTotal.WithLabelValues(s.book.CurrencyPair(), "stale").Inc()
		s.setPhase(PhaseNotSynced)
		s.logger.Info().
			Int64("sequence", snapshot.Sequence).
			Int64("oldest_pending", s.pending[0].Sequence).
			Msg("discarding order book snapshot, sequence too old")
		return ErrStaleSnapshot
	}

	if err := s.book.Init(snapshot.Bid, snapshot.Ask); err != nil {
		metrics.SnapshotsTotal.WithLabelValues(s.book.CurrencyPair(), "invalid").Inc()
		return s.reset(err)
	}
	metrics.SnapshotsTotal.WithLabelValues(s.book.CurrencyPair(), "ok").Inc()

	s.lastSeq, s.hasSeq = snapshot.Sequence, true
	s.prune(snapshot.Sequence)
	s.setPhase(PhaseSynced)
	s.logger.Debug().Int64("sequence", snapshot.Sequence).Int("pending", len(s.pending)).Msg("order book initialized")

	return s.drain()
}

// prune drops queued deltas already contained in a snapshot at seq.
func (s *Syncer) prune(seq int64) {
	kept := s.pending[:0]
	for _, d := range s.pending {
		if d.Sequence > seq {
			kept = append(kept, d)
		}
	}
	s.pending = kept
}

func (s *Syncer) drain() error {
	for _, d := range s.pending {
		if s.hasSeq && d.Sequence != s.lastSeq+1 {
			return s.reset(fmt.Errorf("%w: got %d after %d", ErrNonSequentialUpdate, d.Sequence, s.lastSeq))
		}
		if err := s.book.Update(d.BidDeltas, d.AskDeltas); err != nil {
			return s.reset(err)
		}
		s.lastSeq, s.hasSeq = d.Sequence, true
		metrics.DeltasAppliedTotal.WithLabelValues(s.book.CurrencyPair()).Inc()
	}
	s.pending = s.pending[:0]

	return nil
}

// reset drops all sync state and empties the book, so queries report an
// empty book until the next snapshot; the next delta triggers that fetch.
func (s *Syncer) reset(err error) error {
	s.logger.Error().
		Err(err).
		Str("phase", s.phase.String()).
		Int64("last_sequence", s.lastSeq).
		Int("pending", len(s.pending)).
		Msg("order book out of sync, resetting")
	metrics.ResyncsTotal.WithLabelValues(s.book.CurrencyPair(), reason(err)).Inc()

	s.setPhase(PhaseNotSynced)
	s.pending = nil
	s.lastSeq, s.hasSeq = 0, false
	s.book.Clear()

	return err
}

func (s *Syncer) setPhase(p Phase) {
	s.phase = p
	metrics.SyncPhase.WithLabelValues(s.worker, s.book.CurrencyPair()).Set(float64(p))
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrNonSequentialUpdate):
		return "non_sequential"
	case errors.Is(err, ErrSnapshotFetchFailed):
		return "snapshot_failed"
	case errors.Is(err, orderbook.ErrInconsistentUpdate):
		return "inconsistent_update"
	case errors.Is(err, orderbook.ErrBadKeys):
		return "bad_keys"
	case errors.Is(err, orderbook.ErrBadDepth):
		return "bad_depth"
	}
	return "other"
}
