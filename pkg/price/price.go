// Package price answers read-only queries over an order book: best tips and
// the weighted average price of filling an amount, optionally capped.
package price

import (
	"math"

	"github.com/demigunkan/marketstatus/internal/interfaces"
	"github.com/demigunkan/marketstatus/internal/types"
)

type Status string

const (
	StatusSuccess    Status = "Success"
	StatusCapReached Status = "CapReached"
	StatusFailed     Status = "Failed"
	StatusEmpty      Status = "Empty"
)

const EmptyMessage = "Empty Order book, try in a while"

var (
	NoBuyCap  = math.Inf(1)
	NoSellCap = 0.0
)

type Tips struct {
	Status  Status
	Message string
	Bid     types.Level
	Ask     types.Level
}

func GetTips(ob interfaces.Orderbook) Tips {
	bid, ask := ob.Tips()
	if bid == nil || ask == nil {
		return Tips{Status: StatusEmpty, Message: EmptyMessage}
	}

	return Tips{
		Status: StatusSuccess,
		Bid:    bid.Wire(),
		Ask:    ask.Wire(),
	}
}

type Impact struct {
	Status         Status
	Message        string
	Amount         float64
	EffectivePrice float64
}

func BuyPrice(ob interfaces.Orderbook, amount, limit float64) Impact {
	return PriceImpact(ob, amount, limit, true)
}

func SellPrice(ob interfaces.Orderbook, amount, limit float64) Impact {
	return PriceImpact(ob, amount, limit, false)
}

// PriceImpact walks asks when buying and bids when selling, best level first,
// keeping a running weighted average. When absorbing a level would push the
// average past limit, the fill is cut at the amount that averages exactly limit.
func PriceImpact(ob interfaces.Orderbook, amount, limit float64, isBuy bool) Impact {
	if ob.Len(types.Side__BID) == 0 || ob.Len(types.Side__ASK) == 0 {
		return Impact{Status: StatusEmpty, Message: EmptyMessage}
	}

	side := types.Side__BID
	if isBuy {
		side = types.Side__ASK
	}

	var (
		curAmount float64
		curPrice  float64
		visited   int
		result    = Impact{Status: StatusFailed}
	)
	ob.Iterate(side, func(l interfaces.Level) bool {
		visited++
		rate := l.Rate().InexactFloat64()
		quantity := l.Quantity().InexactFloat64()

		toFill := math.Min(quantity, amount-curAmount)
		last := curAmount+quantity >= amount
		newPrice := (curAmount*curPrice + toFill*rate) / (curAmount + toFill)

		if (isBuy && newPrice > limit) || (!isBuy && newPrice < limit) {
			x := curAmount * (curPrice - limit) / (limit - rate)
			result = Impact{
				Status:         StatusCapReached,
				Amount:         curAmount + x,
				EffectivePrice: limit,
			}
			return false
		}

		curAmount += toFill
		curPrice = newPrice
		if last {
			result = Impact{
				Status:         StatusSuccess,
				Amount:         curAmount,
				EffectivePrice: curPrice,
			}
			return false
		}

		return true
	})

	// cleared by a resync between the length check and the walk
	if visited == 0 {
		return Impact{Status: StatusEmpty, Message: EmptyMessage}
	}

	return result
}
