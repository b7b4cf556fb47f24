// Package market holds one worker's replica of every configured order book
// and answers queries against it.
package market

import (
	"fmt"

	"github.com/demigunkan/marketstatus/internal/config"
	"github.com/demigunkan/marketstatus/internal/interfaces"
	"github.com/demigunkan/marketstatus/internal/metrics"
	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/demigunkan/marketstatus/pkg/orderbook"
	"github.com/demigunkan/marketstatus/pkg/price"
	"github.com/demigunkan/marketstatus/pkg/syncer"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Market struct {
	pairs   []string
	books   map[string]*orderbook.Orderbook
	syncers map[string]*syncer.Syncer
	logger  zerolog.Logger
}

func New(worker string, pairs []config.Pair, source interfaces.SnapshotSource, logger zerolog.Logger) *Market {
	m := &Market{
		books:   make(map[string]*orderbook.Orderbook, len(pairs)),
		syncers: make(map[string]*syncer.Syncer, len(pairs)),
		logger:  logger,
	}
	for _, p := range pairs {
		book := orderbook.New(p.Pair, p.Depth)
		m.pairs = append(m.pairs, p.Pair)
		m.books[p.Pair] = book
		m.syncers[p.Pair] = syncer.New(book, source, logger, worker)
	}

	return m
}

func (m *Market) Supported(pair string) bool {
	_, ok := m.books[pair]
	return ok
}

func (m *Market) Book(pair string) *orderbook.Orderbook {
	return m.books[pair]
}

func (m *Market) Syncer(pair string) *syncer.Syncer {
	return m.syncers[pair]
}

func (m *Market) Pairs() []string {
	return m.pairs
}

// Process answers a query; every outcome is a reply, never an error.
func (m *Market) Process(q types.Query) types.Reply {
	nq, err := q.Normalize(m.Supported)
	if err != nil {
		return m.count(q.Method, types.ErrorReply(err.Error()))
	}

	var reply types.Reply
	switch nq.Method {
	case types.MethodGetTips:
		reply = m.ProcessTips(nq.CurrencyPair)
	case types.MethodCalcPrice:
		reply = m.ProcessCalcPrice(nq.CurrencyPair, nq.Operation, nq.Amount, nq.Cap)
	}

	return m.count(nq.Method, reply)
}

func (m *Market) ProcessTips(pair string) types.Reply {
	book, ok := m.books[pair]
	if !ok {
		return types.ErrorReply((&types.UnsupportedPairError{CurrencyPair: pair}).Error())
	}

	tips := price.GetTips(book)
	if tips.Status != price.StatusSuccess {
		return types.ErrorReply(tips.Message)
	}

	return types.Reply{
		Status:       types.StatusSuccess,
		CurrencyPair: pair,
		Data:         types.TipsData{Bid: tips.Bid, Ask: tips.Ask},
	}
}

// ProcessCalcPrice expects amount and cap already validated; an empty cap
// disables the limit for op.
func (m *Market) ProcessCalcPrice(pair string, op types.Operation, amount, limit string) types.Reply {
	book, ok := m.books[pair]
	if !ok {
		return types.ErrorReply((&types.UnsupportedPairError{CurrencyPair: pair}).Error())
	}

	qty, err := decimal.NewFromString(amount)
	if err != nil || !qty.IsPositive() {
		return types.ErrorReply(types.ErrInvalidAmount.Error())
	}

	isBuy := op == types.OperationBuy
	bound := price.NoSellCap
	if isBuy {
		bound = price.NoBuyCap
	}
	if limit != "" {
		c, err := decimal.NewFromString(limit)
		if err != nil {
			return types.ErrorReply(types.ErrInvalidCap.Error())
		}
		bound = c.InexactFloat64()
	}

	impact := price.PriceImpact(book, qty.InexactFloat64(), bound, isBuy)
	switch impact.Status {
	case price.StatusFailed:
		return types.ErrorReply(fmt.Sprintf("The amount to %s is greater than the available", op))
	case price.StatusEmpty:
		return types.ErrorReply(impact.Message)
	}

	capReached := impact.Status == price.StatusCapReached
	return types.Reply{
		Status:     types.StatusSuccess,
		CapReached: &capReached,
		Data:       types.PriceData{EffectivePrice: impact.EffectivePrice, Amount: impact.Amount},
	}
}

func (m *Market) count(method types.Method, reply types.Reply) types.Reply {
	metrics.QueriesTotal.WithLabelValues(string(method), reply.Status).Inc()
	return reply
}
