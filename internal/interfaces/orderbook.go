package interfaces

import "github.com/demigunkan/marketstatus/internal/types"

type Orderbook interface {
	CurrencyPair() string
	Depth() int
	Init(bids []types.Level, asks []types.Level) error
	Update(bidDeltas []types.Level, askDeltas []types.Level) error
	Levels(types.Side) []Level
	Iterate(types.Side, func(Level) bool)
	Top(types.Side) Level
	Tips() (bid Level, ask Level)
	Len(types.Side) int
	Clear()
}
