package types

type Side uint8

const (
	Side__BID Side = iota
	Side__ASK
)

func (s Side) String() string {
	switch s {
	case Side__BID:
		return "bid"
	case Side__ASK:
		return "ask"
	default:
		return "unknown"
	}
}
