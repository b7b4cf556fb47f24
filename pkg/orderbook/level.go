package orderbook

import (
	"fmt"

	"github.com/demigunkan/marketstatus/internal/interfaces"
	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/shopspring/decimal"
)

var _ interfaces.Level = &level{}

// level is immutable once stored; updates replace the tree item.
type level struct {
	rate     decimal.Decimal
	quantity decimal.Decimal
	raw      types.Level
}

func newLevel(l types.Level) (*level, error) {
	if l.Rate == "" || l.Quantity == "" {
		return nil, fmt.Errorf("%w: rate=%q quantity=%q", ErrBadKeys, l.Rate, l.Quantity)
	}
	rate, err := decimal.NewFromString(l.Rate)
	if err != nil {
		return nil, fmt.Errorf("%w: rate %q: %v", ErrBadKeys, l.Rate, err)
	}
	quantity, err := decimal.NewFromString(l.Quantity)
	if err != nil {
		return nil, fmt.Errorf("%w: quantity %q: %v", ErrBadKeys, l.Quantity, err)
	}

	return &level{rate: rate, quantity: quantity, raw: l}, nil
}

func parseLevels(in []types.Level) ([]*level, error) {
	out := make([]*level, 0, len(in))
	for _, l := range in {
		parsed, err := newLevel(l)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}

	return out, nil
}

func (l *level) Rate() decimal.Decimal {
	return l.rate
}

func (l *level) Quantity() decimal.Decimal {
	return l.quantity
}

func (l *level) Wire() types.Level {
	return l.raw
}
