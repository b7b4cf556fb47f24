package bittrex

type env uint

const (
	Mainnet env = iota
)

type envConfig struct {
	rest   string
	socket string
	hub    string
}

var envs = map[env]envConfig{
	Mainnet: {
		rest:   "https://api.bittrex.com/v3",
		socket: "https://socket-v3.bittrex.com/signalr",
		hub:    "c3",
	},
}
