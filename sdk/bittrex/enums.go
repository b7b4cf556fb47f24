package bittrex

import "fmt"

type Method string

const (
	MethodAuthenticate Method = "Authenticate"
	MethodSubscribe    Method = "Subscribe"
)

type Event string

const (
	EventOrderBook              Event = "orderBook"
	EventHeartbeat              Event = "heartbeat"
	EventAuthenticationExpiring Event = "authenticationExpiring"
)

type Channel string

const (
	ChannelHeartbeat Channel = "heartbeat"
)

func OrderbookChannel(symbol string, depth int) Channel {
	return Channel(fmt.Sprintf("orderbook_%s_%d", symbol, depth))
}
