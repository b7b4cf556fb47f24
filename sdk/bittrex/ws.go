package bittrex

import (
	"github.com/goccy/go-json"
)

// Invocation is a client to hub call.
type Invocation struct {
	Hub    string `json:"H"`
	Method Method `json:"M"`
	Args   []any  `json:"A"`
	ID     string `json:"I"`
}

func (i *Invocation) Pack() []byte {
	b, _ := json.Marshal(i)
	return b
}

// Frame is anything the server writes. Responses carry I; pushes carry M;
// keep-alives are empty objects.
type Frame struct {
	ID       string          `json:"I,omitempty"`
	Result   json.RawMessage `json:"R,omitempty"`
	Error    string          `json:"E,omitempty"`
	Cursor   string          `json:"C,omitempty"`
	Init     int             `json:"S,omitempty"`
	Messages []Push          `json:"M,omitempty"`
}

type Push struct {
	Hub    string            `json:"H"`
	Method string            `json:"M"`
	Args   []json.RawMessage `json:"A"`
}

type Result struct {
	Success   bool   `json:"Success"`
	ErrorCode string `json:"ErrorCode"`
}

type negotiateResponse struct {
	ConnectionToken  string  `json:"ConnectionToken"`
	ConnectionID     string  `json:"ConnectionId"`
	KeepAliveTimeout float64 `json:"KeepAliveTimeout"`
	ProtocolVersion  string  `json:"ProtocolVersion"`
	TryWebSockets    bool    `json:"TryWebSockets"`
}

type startResponse struct {
	Response string `json:"Response"`
}
