package types

// Level is a price level as carried by the exchange, decimals kept as strings.
type Level struct {
	Quantity string `json:"quantity"`
	Rate     string `json:"rate"`
}
