package bittrex

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/demigunkan/marketstatus/internal/fixtures"
	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/goccy/go-json"
	"github.com/lxzan/gws"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/BTC-USD/orderbook", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("depth"))

		body, _ := json.Marshal(types.Snapshot{Bid: fixtures.BTCUSDBids(), Ask: fixtures.BTCUSDAsks()})
		w.Header().Set("Sequence", "3107")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	b := New(Options{RestURL: srv.URL}, zerolog.Nop())

	snapshot, err := b.Snapshot(context.Background(), "BTC-USD", 25)
	require.NoError(t, err)
	assert.Equal(t, int64(3107), snapshot.Sequence)
	assert.Equal(t, fixtures.BTCUSDBids(), snapshot.Bid)
	assert.Equal(t, fixtures.BTCUSDAsks(), snapshot.Ask)
}

func TestSnapshot_MissingSequence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"bid":[],"ask":[]}`)
	}))
	defer srv.Close()

	_, err := New(Options{RestURL: srv.URL}, zerolog.Nop()).Snapshot(context.Background(), "BTC-USD", 25)
	assert.Error(t, err)
}

func TestSnapshot_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b := New(Options{RestURL: srv.URL, SnapshotRate: 1000, SnapshotBurst: 10, BreakerFailures: 2, BreakerCooldown: time.Minute}, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := b.Snapshot(context.Background(), "BTC-USD", 25)
		require.Error(t, err)
	}
	_, err := b.Snapshot(context.Background(), "BTC-USD", 25)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), hits.Load())
}

func TestSign(t *testing.T) {
	assert.Equal(t,
		"9BDE21255787319729497A5DA07891B8088B78C34CDFAC00424599082E40FE676AACB2D091D7328D8C2861BA23D0A16DD298F56BEBA7B8BCF472B720D3C21444",
		Sign("secret", 1700000000000, "abc"))
	assert.NotEqual(t, Sign("secret", 1700000000000, "abc"), Sign("secret", 1700000000001, "abc"))
}

func TestOrderBookRoundTrip(t *testing.T) {
	in := types.Delta{
		MarketSymbol: "BTC-USD",
		Depth:        25,
		Sequence:     9,
		BidDeltas:    []types.Level{{Quantity: "0", Rate: "29936.90800000"}},
		AskDeltas:    []types.Level{{Quantity: "0.00984084", Rate: "30095.41400000"}},
	}

	payload, err := EncodeOrderBook(in)
	require.NoError(t, err)
	arg, _ := json.Marshal(payload)

	out, err := DecodeOrderBook(arg)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = DecodeOrderBook(json.RawMessage(`"not base64!"`))
	assert.Error(t, err)
}

func TestWithHeartbeat(t *testing.T) {
	assert.Equal(t, []string{"orderbook_BTC-USD_25", "heartbeat"}, withHeartbeat([]string{"heartbeat", "orderbook_BTC-USD_25"}))
	assert.Equal(t, "orderbook_ETH-USD_500", string(OrderbookChannel("ETH-USD", 500)))
}

// hubServer is a minimal SignalR endpoint: it accepts Authenticate and
// Subscribe, and after a subscription pushes one orderBook message.
type hubServer struct {
	gws.BuiltinEventHandler
	t      *testing.T
	secret string
	delta  types.Delta
	authed atomic.Bool

	// negotiate requests answered with 503 before the hub comes up
	unavailable atomic.Int32
	negotiated  atomic.Int32
}

func (h *hubServer) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	var raw struct {
		H string            `json:"H"`
		M string            `json:"M"`
		A []json.RawMessage `json:"A"`
		I string            `json:"I"`
	}
	if !assert.NoError(h.t, json.Unmarshal(message.Bytes(), &raw)) {
		return
	}

	reply := func(result any) {
		r, _ := json.Marshal(result)
		b, _ := json.Marshal(Frame{ID: raw.I, Result: r})
		_ = socket.WriteMessage(gws.OpcodeText, b)
	}

	switch Method(raw.M) {
	case MethodAuthenticate:
		var key, content, sig string
		var ts int64
		_ = json.Unmarshal(raw.A[0], &key)
		_ = json.Unmarshal(raw.A[1], &ts)
		_ = json.Unmarshal(raw.A[2], &content)
		_ = json.Unmarshal(raw.A[3], &sig)
		ok := key == "key" && sig == Sign(h.secret, ts, content)
		h.authed.Store(ok)
		reply(Result{Success: ok})
	case MethodSubscribe:
		var channels []string
		_ = json.Unmarshal(raw.A[0], &channels)
		results := make([]Result, len(channels))
		for i := range results {
			results[i].Success = true
		}
		reply(results)

		payload, _ := EncodeOrderBook(h.delta)
		arg, _ := json.Marshal(payload)
		push, _ := json.Marshal(Frame{Cursor: "d-1", Messages: []Push{
			{Hub: "C3", Method: "heartbeat"},
			{Hub: "C3", Method: "orderBook", Args: []json.RawMessage{arg}},
		}})
		_ = socket.WriteMessage(gws.OpcodeText, push)
	}
}

func newHub(t *testing.T, h *hubServer) *httptest.Server {
	upgrader := gws.NewUpgrader(h, &gws.ServerOption{})

	mux := http.NewServeMux()
	mux.HandleFunc("/signalr/negotiate", func(w http.ResponseWriter, r *http.Request) {
		h.negotiated.Add(1)
		if h.unavailable.Add(-1) >= 0 {
			http.Error(w, "hub starting", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"ConnectionToken":"token","ConnectionId":"conn-1","ProtocolVersion":"1.5","TryWebSockets":true}`)
	})
	mux.HandleFunc("/signalr/start", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token", r.URL.Query().Get("connectionToken"))
		_, _ = io.WriteString(w, `{"Response":"started"}`)
	})
	mux.HandleFunc("/signalr/connect", func(w http.ResponseWriter, r *http.Request) {
		socket, err := upgrader.Upgrade(w, r)
		if err != nil {
			return
		}
		go socket.ReadLoop()
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFeed(t *testing.T) {
	want := types.Delta{
		MarketSymbol: "BTC-USD",
		Depth:        25,
		Sequence:     77,
		AskDeltas:    []types.Level{{Quantity: "0.00400000", Rate: "29978.84700000"}},
	}
	hub := &hubServer{t: t, secret: "secret", delta: want}
	srv := newHub(t, hub)

	feed := NewFeed(Options{SocketURL: srv.URL + "/signalr", APIKey: "key", APISecret: "secret"}, zerolog.Nop())
	deltas := make(chan types.Delta, 1)
	sub := feed.SubscribeDeltas(deltas)
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, feed.Connect(ctx))
	defer feed.Close()
	assert.True(t, hub.authed.Load())

	require.NoError(t, feed.Subscribe(ctx, []string{string(OrderbookChannel("BTC-USD", 25))}))

	select {
	case got := <-deltas:
		assert.Equal(t, want, got)
	case <-ctx.Done():
		t.Fatal("no delta received")
	}
}

func TestFeed_RunRetriesFailedConnect(t *testing.T) {
	want := types.Delta{MarketSymbol: "BTC-USD", Depth: 25, Sequence: 5}
	hub := &hubServer{t: t, delta: want}
	hub.unavailable.Store(2)
	srv := newHub(t, hub)

	feed := NewFeed(Options{SocketURL: srv.URL + "/signalr", Watchdog: 20 * time.Millisecond}, zerolog.Nop())
	deltas := make(chan types.Delta, 64)
	sub := feed.SubscribeDeltas(deltas)
	defer sub.Unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx, []string{string(OrderbookChannel("BTC-USD", 25))}) }()

	select {
	case got := <-deltas:
		assert.Equal(t, want, got)
	case err := <-done:
		t.Fatalf("Run returned before the hub came up: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no delta received")
	}
	assert.GreaterOrEqual(t, hub.negotiated.Load(), int32(3))

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestFeed_CallWithoutConnection(t *testing.T) {
	feed := NewFeed(Options{}, zerolog.Nop())

	_, err := feed.Call(context.Background(), MethodSubscribe, []string{"heartbeat"})
	assert.ErrorIs(t, err, ErrNotConnected)
}
