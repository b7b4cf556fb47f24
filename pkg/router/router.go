// Package router spreads queries over a fixed pool of worker units and
// coalesces identical queries that are in flight at the same time.
package router

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/demigunkan/marketstatus/internal/metrics"
	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/rs/zerolog"
)

var ErrStopped = errors.New("router stopped")

// Request is what a unit receives. The unit answers exactly once on Reply,
// echoing ID.
type Request struct {
	ID    uint64
	Query types.Query
	Reply chan<- Response
}

type Response struct {
	ID    uint64
	Reply types.Reply
}

type Unit interface {
	Dispatch(ctx context.Context, req Request) error
}

type call struct {
	id      uint64
	key     string
	done    chan struct{}
	reply   types.Reply
	waiters int
}

type Router struct {
	units     []Unit
	supported func(string) bool
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	counter   atomic.Uint64
	responses chan Response

	mu       sync.Mutex
	pending  map[string]*call
	inflight map[uint64]*call
}

func New(units []Unit, supported func(string) bool, logger zerolog.Logger) *Router {
	ctx, cancel := context.WithCancel(context.Background())
	return &Router{
		units:     units,
		supported: supported,
		logger:    logger.With().Str("component", "router").Logger(),
		ctx:       ctx,
		cancel:    cancel,
		responses: make(chan Response, len(units)*16),
		pending:   make(map[string]*call),
		inflight:  make(map[uint64]*call),
	}
}

// Run delivers unit responses to their callers until ctx is done or Close
// is called. Calls still in flight are then answered with an error reply.
func (r *Router) Run(ctx context.Context) error {
	defer r.failAll()

	for {
		select {
		case <-ctx.Done():
			r.cancel()
			return ctx.Err()
		case <-r.ctx.Done():
			return nil
		case resp := <-r.responses:
			r.resolve(resp)
		}
	}
}

func (r *Router) Close() {
	r.cancel()
}

// Route answers q. Invalid queries are answered without reaching a unit.
// A query identical to one already in flight waits for that call's reply.
// ctx only bounds this caller's wait; the underlying call keeps running for
// any other waiters.
func (r *Router) Route(ctx context.Context, q types.Query) (types.Reply, error) {
	nq, err := q.Normalize(r.supported)
	if err != nil {
		return types.ErrorReply(err.Error()), nil
	}
	if r.ctx.Err() != nil {
		return types.ErrorReply(ErrStopped.Error()), nil
	}

	c, dispatch := r.join(nq.Key())
	if dispatch {
		unit := r.units[c.id%uint64(len(r.units))]
		req := Request{ID: c.id, Query: nq, Reply: r.responses}
		if err := r.dispatch(ctx, unit, req); err != nil {
			r.logger.Error().Err(err).Uint64("id", c.id).Msg("dispatch failed")
			r.resolve(Response{ID: c.id, Reply: types.ErrorReply(err.Error())})
		}
	}

	select {
	case <-c.done:
		return c.reply, nil
	case <-ctx.Done():
		return types.Reply{}, ctx.Err()
	}
}

// dispatch hands req to unit, giving up when either the caller or the
// router is done.
func (r *Router) dispatch(ctx context.Context, unit Unit, req Request) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(r.ctx, cancel)
	defer stop()

	return unit.Dispatch(ctx, req)
}

// join returns the in-flight call for key, creating it when there is none.
// dispatch reports whether the caller created it.
func (r *Router) join(key string) (*call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.pending[key]; ok {
		c.waiters++
		metrics.CoalescedTotal.Inc()
		return c, false
	}

	c := &call{
		id:      r.counter.Add(1) - 1,
		key:     key,
		done:    make(chan struct{}),
		waiters: 1,
	}
	r.pending[key] = c
	r.inflight[c.id] = c
	metrics.InflightQueries.Inc()

	return c, true
}

func (r *Router) resolve(resp Response) {
	r.mu.Lock()
	c, ok := r.inflight[resp.ID]
	if ok {
		delete(r.inflight, resp.ID)
		delete(r.pending, c.key)
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Warn().Uint64("id", resp.ID).Msg("response for unknown request")
		return
	}

	metrics.InflightQueries.Dec()
	c.reply = resp.Reply
	close(c.done)
}

func (r *Router) failAll() {
	r.mu.Lock()
	ids := make([]uint64, 0, len(r.inflight))
	for id := range r.inflight {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.resolve(Response{ID: id, Reply: types.ErrorReply(ErrStopped.Error())})
	}
}

func (r *Router) waiting(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.pending[key]; ok {
		return c.waiters
	}
	return 0
}
