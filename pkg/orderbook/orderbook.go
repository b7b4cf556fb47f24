package orderbook

import (
	"fmt"
	"sync"

	"github.com/demigunkan/marketstatus/internal/interfaces"
	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/google/btree"
)

var _ interfaces.Orderbook = &Orderbook{}

// Orderbook keeps a fixed-depth ladder per side for one currency pair.
// After every successful Init or Update both sides hold exactly depth
// levels with unique rates; any other outcome leaves the book empty.
type Orderbook struct {
	currencyPair string
	depth        int

	mu    sync.RWMutex
	sides map[types.Side]*side
}

func New(currencyPair string, depth int) *Orderbook {
	orderbook := &Orderbook{
		currencyPair: currencyPair,
		depth:        depth,
		sides:        make(map[types.Side]*side),
	}
	orderbook.sides[types.Side__ASK] = newSide(types.Side__ASK)
	orderbook.sides[types.Side__BID] = newSide(types.Side__BID)

	return orderbook
}

func (o *Orderbook) CurrencyPair() string {
	return o.currencyPair
}

func (o *Orderbook) Depth() int {
	return o.depth
}

// Init replaces both ladders.
func (o *Orderbook) Init(bids []types.Level, asks []types.Level) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.clear()

	if len(bids) != o.depth || len(asks) != o.depth {
		return fmt.Errorf("%w: depth %d, got %d bids and %d asks", ErrBadDepth, o.depth, len(bids), len(asks))
	}

	bidLevels, err := parseLevels(bids)
	if err != nil {
		return err
	}
	askLevels, err := parseLevels(asks)
	if err != nil {
		return err
	}

	for _, l := range bidLevels {
		o.sides[types.Side__BID].tree.ReplaceOrInsert(l)
	}
	for _, l := range askLevels {
		o.sides[types.Side__ASK].tree.ReplaceOrInsert(l)
	}

	// duplicate rates collapse in the tree
	if o.sides[types.Side__BID].tree.Len() != o.depth || o.sides[types.Side__ASK].tree.Len() != o.depth {
		o.clear()
		return fmt.Errorf("%w: duplicate rates in snapshot", ErrBadDepth)
	}

	return nil
}

// Update applies deltas to each side. A zero quantity removes the rate,
// anything else inserts or replaces it. If either side ends up with a
// length other than depth the whole book is cleared.
func (o *Orderbook) Update(bidDeltas []types.Level, askDeltas []types.Level) error {
	bidLevels, err := parseLevels(bidDeltas)
	if err != nil {
		o.Clear()
		return err
	}
	askLevels, err := parseLevels(askDeltas)
	if err != nil {
		o.Clear()
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.sides[types.Side__BID].apply(bidLevels)
	o.sides[types.Side__ASK].apply(askLevels)

	bids, asks := o.sides[types.Side__BID].tree.Len(), o.sides[types.Side__ASK].tree.Len()
	if bids != o.depth || asks != o.depth {
		o.clear()
		return fmt.Errorf("%w: depth %d, got %d bids and %d asks", ErrInconsistentUpdate, o.depth, bids, asks)
	}

	return nil
}

// Levels returns a copy of one side, best price first.
func (o *Orderbook) Levels(side types.Side) []interfaces.Level {
	levels := make([]interfaces.Level, 0, o.depth)
	o.Iterate(side, func(item interfaces.Level) bool {
		levels = append(levels, item)
		return true
	})

	return levels
}

// Iterate walks one side from the best price outward while holding the
// read lock; fn must not call back into the book.
func (o *Orderbook) Iterate(side types.Side, fn func(item interfaces.Level) bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	walk := func(item *level) bool { return fn(item) }
	if side == types.Side__BID {
		o.sides[side].tree.Descend(walk)
	} else {
		o.sides[side].tree.Ascend(walk)
	}
}

func (o *Orderbook) Top(side types.Side) interfaces.Level {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var (
		l  *level
		ok bool
	)
	if side == types.Side__BID {
		l, ok = o.sides[side].tree.Max()
	} else {
		l, ok = o.sides[side].tree.Min()
	}
	if !ok {
		return nil
	}

	return l
}

// Tips reads both best levels under one lock. Either is nil when its side is empty.
func (o *Orderbook) Tips() (interfaces.Level, interfaces.Level) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var bid, ask interfaces.Level
	if l, ok := o.sides[types.Side__BID].tree.Max(); ok {
		bid = l
	}
	if l, ok := o.sides[types.Side__ASK].tree.Min(); ok {
		ask = l
	}

	return bid, ask
}

func (o *Orderbook) Len(side types.Side) int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.sides[side].tree.Len()
}

func (o *Orderbook) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.clear()
}

func (o *Orderbook) clear() {
	for _, s := range o.sides {
		s.tree.Clear(false)
	}
}

type side struct {
	tree *btree.BTreeG[*level]
}

// Both sides are ordered by ascending rate; Iterate picks the direction.
func newSide(s types.Side) *side {
	return &side{
		tree: btree.NewG(8, func(a, b *level) bool {
			return a.rate.LessThan(b.rate)
		}),
	}
}

func (s *side) apply(deltas []*level) {
	for _, l := range deltas {
		if l.quantity.IsZero() {
			s.tree.Delete(l)
			continue
		}
		s.tree.ReplaceOrInsert(l)
	}
}
