package types

// Delta is one decoded order book message from the live feed.
type Delta struct {
	MarketSymbol string  `json:"marketSymbol"`
	Depth        int     `json:"depth"`
	Sequence     int64   `json:"sequence"`
	BidDeltas    []Level `json:"bidDeltas"`
	AskDeltas    []Level `json:"askDeltas"`
}

// Snapshot is a full ladder replacement. Sequence travels out of band
// (response header) and is filled in by the source.
type Snapshot struct {
	Sequence int64   `json:"-"`
	Bid      []Level `json:"bid"`
	Ask      []Level `json:"ask"`
}
