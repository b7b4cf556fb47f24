package router

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoUnit answers every request immediately with its own name.
type echoUnit struct {
	name string

	mu  sync.Mutex
	ids []uint64
}

func (u *echoUnit) Dispatch(_ context.Context, req Request) error {
	u.mu.Lock()
	u.ids = append(u.ids, req.ID)
	u.mu.Unlock()

	go func() {
		req.Reply <- Response{ID: req.ID, Reply: types.Reply{Status: types.StatusSuccess, Message: u.name}}
	}()
	return nil
}

func (u *echoUnit) seen() []uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]uint64(nil), u.ids...)
}

// heldUnit hands requests to the test instead of answering them.
type heldUnit struct {
	requests chan Request
}

func (u *heldUnit) Dispatch(ctx context.Context, req Request) error {
	select {
	case u.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func supported(pair string) bool { return pair == "BTC-USD" }

func calcPrice(amount string) types.Query {
	return types.Query{Method: types.MethodCalcPrice, CurrencyPair: "BTC-USD", Operation: types.OperationBuy, Amount: amount}
}

func startRouter(t *testing.T, units ...Unit) *Router {
	t.Helper()
	r := New(units, supported, zerolog.Nop())
	go func() { _ = r.Run(context.Background()) }()
	t.Cleanup(r.Close)
	return r
}

func TestRoute_RoundRobin(t *testing.T) {
	units := []*echoUnit{{name: "a"}, {name: "b"}, {name: "c"}}
	r := startRouter(t, units[0], units[1], units[2])

	for i := 0; i < 6; i++ {
		reply, err := r.Route(context.Background(), calcPrice(fmt.Sprintf("%d", i+1)))
		require.NoError(t, err)
		assert.Equal(t, units[i%3].name, reply.Message)
	}

	assert.Equal(t, []uint64{0, 3}, units[0].seen())
	assert.Equal(t, []uint64{1, 4}, units[1].seen())
	assert.Equal(t, []uint64{2, 5}, units[2].seen())
}

func TestRoute_CoalescesConcurrentDuplicates(t *testing.T) {
	unit := &heldUnit{requests: make(chan Request, 4)}
	r := startRouter(t, unit)
	ctx := context.Background()

	results := make(chan types.Reply, 2)
	go func() {
		reply, _ := r.Route(ctx, calcPrice("1.5"))
		results <- reply
	}()
	req := <-unit.requests

	// same query, different spelling
	dup := calcPrice("1.50")
	dup.Operation = "BUY"
	dup.Cap = " "
	go func() {
		reply, _ := r.Route(ctx, dup)
		results <- reply
	}()
	require.Eventually(t, func() bool { return r.waiting(req.Query.Key()) == 2 }, time.Second, time.Millisecond)

	want := types.Reply{Status: types.StatusSuccess, Message: "shared"}
	req.Reply <- Response{ID: req.ID, Reply: want}

	assert.Equal(t, want, <-results)
	assert.Equal(t, want, <-results)
	assert.Empty(t, unit.requests, "duplicate must not be dispatched")
	assert.Equal(t, 0, r.waiting(req.Query.Key()))
}

func TestRoute_NoReuseAfterResolve(t *testing.T) {
	unit := &echoUnit{name: "a"}
	r := startRouter(t, unit)

	for i := 0; i < 2; i++ {
		_, err := r.Route(context.Background(), calcPrice("1"))
		require.NoError(t, err)
	}
	assert.Len(t, unit.seen(), 2)
}

func TestRoute_InvalidQueries(t *testing.T) {
	unit := &echoUnit{name: "a"}
	r := startRouter(t, unit)

	tests := []struct {
		name    string
		query   types.Query
		message string
	}{
		{
			name:    "unknown pair",
			query:   types.Query{Method: types.MethodGetTips, CurrencyPair: "DOGE-USD"},
			message: "For the moment we are not working with [DOGE-USD] currency pair",
		},
		{
			name:    "bad operation",
			query:   types.Query{Method: types.MethodCalcPrice, CurrencyPair: "BTC-USD", Operation: "hold", Amount: "1"},
			message: types.ErrInvalidOperation.Error(),
		},
		{
			name:    "zero amount",
			query:   calcPrice("0"),
			message: types.ErrInvalidAmount.Error(),
		},
		{
			name:    "bad cap",
			query:   types.Query{Method: types.MethodCalcPrice, CurrencyPair: "BTC-USD", Operation: "sell", Amount: "1", Cap: "x"},
			message: types.ErrInvalidCap.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := r.Route(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, types.StatusError, reply.Status)
			assert.Equal(t, tt.message, reply.Message)
		})
	}
	assert.Empty(t, unit.seen())
}

func TestRoute_CallerTimeout(t *testing.T) {
	unit := &heldUnit{requests: make(chan Request, 1)}
	r := startRouter(t, unit)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Route(ctx, calcPrice("1"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRoute_DispatchBoundedByCaller(t *testing.T) {
	unit := &heldUnit{requests: make(chan Request)}
	r := startRouter(t, unit)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	returned := make(chan struct{})
	go func() {
		defer close(returned)
		reply, err := r.Route(ctx, calcPrice("1"))
		if err == nil {
			assert.Equal(t, types.StatusError, reply.Status)
		}
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Route blocked past its deadline while the unit was not accepting")
	}

	nq, err := calcPrice("1").Normalize(supported)
	require.NoError(t, err)
	assert.Equal(t, 0, r.waiting(nq.Key()))
}

func TestRoute_FailedDispatchReleasesDuplicates(t *testing.T) {
	unit := &heldUnit{requests: make(chan Request)}
	r := startRouter(t, unit)

	nq, err := calcPrice("1").Normalize(supported)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _, _ = r.Route(ctx, calcPrice("1")) }()
	require.Eventually(t, func() bool { return r.waiting(nq.Key()) == 1 }, time.Second, time.Millisecond)

	results := make(chan types.Reply, 1)
	go func() {
		reply, _ := r.Route(context.Background(), calcPrice("1"))
		results <- reply
	}()
	require.Eventually(t, func() bool { return r.waiting(nq.Key()) == 2 }, time.Second, time.Millisecond)

	cancel()

	select {
	case reply := <-results:
		assert.Equal(t, types.StatusError, reply.Status)
		assert.Equal(t, context.Canceled.Error(), reply.Message)
	case <-time.After(time.Second):
		t.Fatal("joined query was not released after the dispatch failed")
	}
	assert.Equal(t, 0, r.waiting(nq.Key()))
}

func TestRun_StopAnswersInflight(t *testing.T) {
	unit := &heldUnit{requests: make(chan Request, 1)}
	r := New([]Unit{unit}, supported, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- r.Run(ctx) }()

	results := make(chan types.Reply, 1)
	go func() {
		reply, _ := r.Route(context.Background(), calcPrice("1"))
		results <- reply
	}()
	<-unit.requests

	cancel()
	assert.ErrorIs(t, <-stopped, context.Canceled)

	reply := <-results
	assert.Equal(t, types.StatusError, reply.Status)
	assert.Equal(t, ErrStopped.Error(), reply.Message)
}

func TestRoute_AfterClose(t *testing.T) {
	unit := &heldUnit{requests: make(chan Request, 1)}
	r := New([]Unit{unit}, supported, zerolog.Nop())
	r.Close()

	reply, err := r.Route(context.Background(), calcPrice("1"))
	require.NoError(t, err)
	assert.Equal(t, types.StatusError, reply.Status)
	assert.Equal(t, ErrStopped.Error(), reply.Message)
	assert.Empty(t, unit.requests)
}
