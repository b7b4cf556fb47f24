package types

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Reply struct {
	Status       string `json:"status"`
	CurrencyPair string `json:"currencyPair,omitempty"`
	CapReached   *bool  `json:"capReached,omitempty"`
	Message      string `json:"message,omitempty"`
	Data         any    `json:"data,omitempty"`
}

type TipsData struct {
	Bid Level `json:"bid"`
	Ask Level `json:"ask"`
}

type PriceData struct {
	EffectivePrice float64 `json:"efectivePrice"`
	Amount         float64 `json:"amount"`
}

func ErrorReply(message string) Reply {
	return Reply{Status: StatusError, Message: message}
}
