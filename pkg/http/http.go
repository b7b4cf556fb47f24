package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

type HTTP struct {
	http   *http.Client
	url    string
	header http.Header
}

// StatusError is returned for any non-2xx response. Body holds at most the
// first kilobyte of the response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

type Response struct {
	StatusCode int
	Header     http.Header
}

func New(url string) *HTTP {
	return &HTTP{
		http: &http.Client{Timeout: 10 * time.Second},
		url:  url,
	}
}

func (h *HTTP) SetHeader(header http.Header) {
	h.header = header
}

func (h *HTTP) SetClient(client *http.Client) {
	h.http = client
}

// Request sends req as a JSON body (when not nil) and decodes a 2xx body into res.
func (h *HTTP) Request(ctx context.Context, method string, path string, req interface{}, res interface{}) (*Response, error) {
	var data io.Reader
	if req != nil {
		b, err := json.Marshal(req)
		if err != nil {
			return nil, err
		}
		data = bytes.NewReader(b)
	}

	request, err := http.NewRequestWithContext(ctx, method, h.url+path, data)
	if err != nil {
		return nil, err
	}

	if h.header != nil {
		request.Header = h.header.Clone()
	}
	if req != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := h.http.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	out := &Response{StatusCode: response.StatusCode, Header: response.Header}

	b, err := io.ReadAll(response.Body)
	if err != nil {
		return out, err
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		if len(b) > 1024 {
			b = b[:1024]
		}
		return out, &StatusError{StatusCode: response.StatusCode, Body: string(b)}
	}

	if res == nil || len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, res); err != nil {
		return out, err
	}

	return out, nil
}
