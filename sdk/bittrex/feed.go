package bittrex

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/demigunkan/marketstatus/internal/interfaces"
	"github.com/demigunkan/marketstatus/internal/metrics"
	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lxzan/gws"
	"github.com/rs/zerolog"
)

var (
	ErrNotConnected = errors.New("bittrex feed not connected")
	ErrAuthFailed   = errors.New("bittrex authentication failed")
)

var _ interfaces.FeedSource = &Feed{}

const callTimeout = 10 * time.Second

// Feed is the websocket side of the exchange. Decoded order book deltas are
// fanned out to every subscriber in arrival order.
type Feed struct {
	opts    Options
	logger  zerolog.Logger
	signalR *signalR
	deltas  event.FeedOf[types.Delta]

	nextID    atomic.Uint64
	heartbeat atomic.Bool

	mu       sync.Mutex
	conn     *gws.Conn
	calls    map[string]chan Frame
	channels []string
}

func NewFeed(opts Options, logger zerolog.Logger) *Feed {
	opts = opts.withDefaults(Mainnet)
	return &Feed{
		opts:    opts,
		logger:  logger.With().Str("exchange", "bittrex").Str("component", "feed").Logger(),
		signalR: newSignalR(opts.SocketURL, opts.Hub),
		calls:   make(map[string]chan Frame),
	}
}

func (f *Feed) SubscribeDeltas(ch chan<- types.Delta) event.Subscription {
	return f.deltas.Subscribe(ch)
}

// Connect negotiates a session, opens the socket and authenticates when
// keys are configured.
func (f *Feed) Connect(ctx context.Context) error {
	neg, err := f.signalR.negotiate(ctx)
	if err != nil {
		return err
	}

	socket, _, err := gws.NewClient(f, &gws.ClientOption{
		Addr: f.signalR.connectURL(neg.ConnectionToken),
		PermessageDeflate: gws.PermessageDeflate{
			Enabled:               true,
			ServerContextTakeover: true,
			ClientContextTakeover: true,
		},
	})
	if err != nil {
		return fmt.Errorf("signalr connect: %w", err)
	}

	f.mu.Lock()
	f.conn = socket
	f.mu.Unlock()
	go socket.ReadLoop()

	if err := f.signalR.start(ctx, neg.ConnectionToken); err != nil {
		_ = f.Close()
		return err
	}
	f.heartbeat.Store(true)
	f.logger.Info().Str("connection_id", neg.ConnectionID).Msg("connected")

	if f.opts.APIKey == "" || f.opts.APISecret == "" {
		f.logger.Warn().Msg("API key was not provided, staying on public streams")
		return nil
	}

	return f.Authenticate(ctx)
}

func (f *Feed) Authenticate(ctx context.Context) error {
	timestamp := time.Now().UnixMilli()
	randomContent := uuid.NewString()

	raw, err := f.Call(ctx, MethodAuthenticate, f.opts.APIKey, timestamp, randomContent, Sign(f.opts.APISecret, timestamp, randomContent))
	if err != nil {
		return err
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return fmt.Errorf("authenticate response: %w", err)
	}
	if !res.Success {
		f.logger.Error().Str("error_code", res.ErrorCode).Msg("authentication failed")
		return fmt.Errorf("%w: %s", ErrAuthFailed, res.ErrorCode)
	}

	f.logger.Info().Msg("authenticated")
	return nil
}

// Subscribe subscribes channels plus the heartbeat and remembers them for
// reconnects. Per-channel rejections are logged, not returned.
func (f *Feed) Subscribe(ctx context.Context, channels []string) error {
	channels = withHeartbeat(channels)

	f.mu.Lock()
	f.channels = channels
	f.mu.Unlock()

	f.logger.Debug().Strs("channels", channels).Msg("subscribe")
	raw, err := f.Call(ctx, MethodSubscribe, channels)
	if err != nil {
		return err
	}

	var results []Result
	if err := json.Unmarshal(raw, &results); err != nil {
		return fmt.Errorf("subscribe response: %w", err)
	}
	for i, ch := range channels {
		if i < len(results) && results[i].Success {
			f.logger.Info().Str("channel", ch).Msg("subscription successful")
			continue
		}
		code := "missing result"
		if i < len(results) {
			code = results[i].ErrorCode
		}
		f.logger.Error().Str("channel", ch).Str("error_code", code).Msg("subscription failed")
	}

	return nil
}

// Call invokes a hub method and waits for the response with the same id.
func (f *Feed) Call(ctx context.Context, method Method, args ...any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	id := strconv.FormatUint(f.nextID.Add(1), 10)
	ch := make(chan Frame, 1)

	f.mu.Lock()
	socket := f.conn
	if socket == nil {
		f.mu.Unlock()
		return nil, ErrNotConnected
	}
	f.calls[id] = ch
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.calls, id)
		f.mu.Unlock()
	}()

	if args == nil {
		args = []any{}
	}
	inv := &Invocation{Hub: f.opts.Hub, Method: method, Args: args, ID: id}
	if err := socket.WriteMessage(gws.OpcodeText, inv.Pack()); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	select {
	case frame := <-ch:
		if frame.Error != "" {
			return nil, fmt.Errorf("%s: %s", method, frame.Error)
		}
		return frame.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run connects, subscribes and then watches the heartbeat: a watchdog
// period without one forces a reconnect and resubscription. A failed first
// connect is retried the same way.
func (f *Feed) Run(ctx context.Context, channels []string) error {
	f.mu.Lock()
	f.channels = withHeartbeat(channels)
	f.mu.Unlock()
	defer f.Close()

	if err := f.reconnect(ctx); err != nil {
		f.heartbeat.Store(false)
		f.logger.Error().Err(err).Dur("retry_in", f.opts.Watchdog).Msg("connect failed")
	}

	ticker := time.NewTicker(f.opts.Watchdog)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if f.heartbeat.Swap(false) {
				f.logger.Trace().Msg("heartbeat checked")
				continue
			}

			f.logger.Warn().Msg("heartbeat missing, reconnecting")
			metrics.WSReconnectsTotal.WithLabelValues("heartbeat").Inc()
			if err := f.reconnect(ctx); err != nil {
				f.logger.Error().Err(err).Msg("reconnect failed")
			}
		}
	}
}

func (f *Feed) reconnect(ctx context.Context) error {
	_ = f.Close()

	f.mu.Lock()
	channels := f.channels
	f.mu.Unlock()

	if err := f.Connect(ctx); err != nil {
		return err
	}
	return f.Subscribe(ctx, channels)
}

func (f *Feed) Close() error {
	f.mu.Lock()
	socket := f.conn
	f.conn = nil
	f.failCalls()
	f.mu.Unlock()

	if socket != nil {
		socket.WriteClose(1000, nil)
	}
	return nil
}

// failCalls answers every pending call with an error. f.mu must be held.
func (f *Feed) failCalls() {
	for id, ch := range f.calls {
		select {
		case ch <- Frame{ID: id, Error: "connection closed"}:
		default:
		}
	}
}

func (f *Feed) OnOpen(socket *gws.Conn) {
	f.logger.Debug().Msg("socket open")
}

func (f *Feed) OnClose(socket *gws.Conn, err error) {
	f.mu.Lock()
	if f.conn == socket {
		f.conn = nil
		f.failCalls()
	}
	f.mu.Unlock()

	f.logger.Warn().Err(err).Msg("socket closed")
}

func (f *Feed) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.WritePong(payload)
}

func (f *Feed) OnPong(socket *gws.Conn, payload []byte) {
}

func (f *Feed) OnMessage(socket *gws.Conn, message *gws.Message) {
	// the buffer goes back to gws on Close
	data := append([]byte(nil), message.Bytes()...)
	message.Close()

	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		f.logger.Error().Err(err).Msg("bad frame")
		return
	}

	if frame.ID != "" {
		f.mu.Lock()
		ch, ok := f.calls[frame.ID]
		f.mu.Unlock()
		if ok {
			select {
			case ch <- frame:
			default:
			}
		}
		return
	}

	for _, push := range frame.Messages {
		f.handlePush(push)
	}
}

func (f *Feed) handlePush(push Push) {
	switch {
	case strings.EqualFold(push.Method, string(EventOrderBook)):
		for _, arg := range push.Args {
			delta, err := DecodeOrderBook(arg)
			if err != nil {
				f.logger.Error().Err(err).Msg("orderBook decode failed")
				continue
			}
			f.logger.Trace().Str("symbol", delta.MarketSymbol).Int64("sequence", delta.Sequence).Msg("orderBook")
			f.deltas.Send(delta)
		}
	case strings.EqualFold(push.Method, string(EventHeartbeat)):
		f.heartbeat.Store(true)
	case strings.EqualFold(push.Method, string(EventAuthenticationExpiring)):
		f.logger.Info().Msg("authentication expiring")
		go func() {
			if err := f.Authenticate(context.Background()); err != nil {
				f.logger.Error().Err(err).Msg("re-authentication failed")
			}
		}()
	default:
		f.logger.Trace().Str("method", push.Method).Msg("unhandled push")
	}
}

func withHeartbeat(channels []string) []string {
	out := make([]string, 0, len(channels)+1)
	for _, ch := range channels {
		if ch != string(ChannelHeartbeat) {
			out = append(out, ch)
		}
	}
	return append(out, string(ChannelHeartbeat))
}
