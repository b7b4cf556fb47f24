package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodGetTips   Method = "getTips"
	MethodCalcPrice Method = "calcPrice"
)

type Operation string

const (
	OperationBuy  Operation = "buy"
	OperationSell Operation = "sell"
)

// Query is a read request against one currency pair. Amount and Cap are
// decimal strings; an empty Cap means no cap.
type Query struct {
	Method       Method    `json:"method"`
	CurrencyPair string    `json:"currencyPair"`
	Operation    Operation `json:"operation,omitempty"`
	Amount       string    `json:"amount,omitempty"`
	Cap          string    `json:"cap,omitempty"`
}

var (
	ErrInvalidOperation = errors.New("The only 2 permitted operations are buy or sell")
	ErrInvalidAmount    = errors.New("The amount must be greater than 0")
	ErrInvalidCap       = errors.New("The cap must be a number")
	ErrInvalidMethod    = errors.New("invalid method call")
)

// UnsupportedPairError is returned for pairs the process was not configured with.
type UnsupportedPairError struct {
	CurrencyPair string
}

func (e *UnsupportedPairError) Error() string {
	return fmt.Sprintf("For the moment we are not working with [%s] currency pair", e.CurrencyPair)
}

// Normalize validates q and returns its canonical form: lower-case operation,
// amount and cap rewritten as canonical decimals, cap dropped for getTips.
// Two queries asking the same thing normalize to the same value.
func (q Query) Normalize(supported func(string) bool) (Query, error) {
	if !supported(q.CurrencyPair) {
		return Query{}, &UnsupportedPairError{CurrencyPair: q.CurrencyPair}
	}

	switch q.Method {
	case MethodGetTips:
		return Query{Method: q.Method, CurrencyPair: q.CurrencyPair}, nil
	case MethodCalcPrice:
	default:
		return Query{}, ErrInvalidMethod
	}

	op := Operation(strings.ToLower(strings.TrimSpace(string(q.Operation))))
	if op != OperationBuy && op != OperationSell {
		return Query{}, ErrInvalidOperation
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(q.Amount))
	if err != nil || !amount.IsPositive() {
		return Query{}, ErrInvalidAmount
	}

	var capValue string
	if c := strings.TrimSpace(q.Cap); c != "" {
		d, err := decimal.NewFromString(c)
		if err != nil {
			return Query{}, ErrInvalidCap
		}
		capValue = d.String()
	}

	return Query{
		Method:       q.Method,
		CurrencyPair: q.CurrencyPair,
		Operation:    op,
		Amount:       amount.String(),
		Cap:          capValue,
	}, nil
}

// Key is the coalescing key of a normalized query.
func (q Query) Key() string {
	return strings.Join([]string{string(q.Method), q.CurrencyPair, string(q.Operation), q.Amount, q.Cap}, "|")
}
