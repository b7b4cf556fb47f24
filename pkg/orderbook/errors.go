package orderbook

import "errors"

var (
	ErrBadDepth           = errors.New("bids and/or asks length not equal to depth of order book")
	ErrBadKeys            = errors.New("all levels must have rate and quantity keys")
	ErrInconsistentUpdate = errors.New("inconsistent update, order book reset, please init again")
)
