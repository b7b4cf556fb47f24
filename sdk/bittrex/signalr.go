package bittrex

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/demigunkan/marketstatus/pkg/http"
	"github.com/goccy/go-json"
)

const clientProtocol = "1.5"

// signalR speaks the classic SignalR 1.5 handshake: negotiate and start are
// plain HTTP, the session itself runs over a websocket at /connect.
type signalR struct {
	base string
	hub  string
	http *http.HTTP
}

func newSignalR(base string, hub string) *signalR {
	base = strings.TrimRight(base, "/")
	return &signalR{base: base, hub: hub, http: http.New(base)}
}

func (s *signalR) connectionData() string {
	b, _ := json.Marshal([]map[string]string{{"name": s.hub}})
	return string(b)
}

func (s *signalR) query(token string) url.Values {
	q := url.Values{}
	q.Set("clientProtocol", clientProtocol)
	q.Set("connectionData", s.connectionData())
	if token != "" {
		q.Set("transport", "webSockets")
		q.Set("connectionToken", token)
	}
	return q
}

func (s *signalR) negotiate(ctx context.Context) (*negotiateResponse, error) {
	res := &negotiateResponse{}
	if _, err := s.http.Request(ctx, nethttp.MethodGet, "/negotiate?"+s.query("").Encode(), nil, res); err != nil {
		return nil, fmt.Errorf("signalr negotiate: %w", err)
	}
	if res.ConnectionToken == "" {
		return nil, fmt.Errorf("signalr negotiate: empty connection token")
	}
	return res, nil
}

// connectURL is the websocket address for a negotiated token.
func (s *signalR) connectURL(token string) string {
	addr := s.base
	switch {
	case strings.HasPrefix(addr, "https://"):
		addr = "wss://" + strings.TrimPrefix(addr, "https://")
	case strings.HasPrefix(addr, "http://"):
		addr = "ws://" + strings.TrimPrefix(addr, "http://")
	}
	return addr + "/connect?" + s.query(token).Encode()
}

func (s *signalR) start(ctx context.Context, token string) error {
	res := &startResponse{}
	if _, err := s.http.Request(ctx, nethttp.MethodGet, "/start?"+s.query(token).Encode(), nil, res); err != nil {
		return fmt.Errorf("signalr start: %w", err)
	}
	if res.Response != "started" {
		return fmt.Errorf("signalr start: unexpected response %q", res.Response)
	}
	return nil
}
