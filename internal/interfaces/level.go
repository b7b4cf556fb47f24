package interfaces

import (
	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/shopspring/decimal"
)

type Level interface {
	Rate() decimal.Decimal
	Quantity() decimal.Decimal
	Wire() types.Level
}
