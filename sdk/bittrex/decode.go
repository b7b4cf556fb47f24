package bittrex

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/flate"
)

// DecodeOrderBook unpacks an orderBook push argument: base64 of raw deflate
// of the JSON delta.
func DecodeOrderBook(arg json.RawMessage) (types.Delta, error) {
	var delta types.Delta

	var payload string
	if err := json.Unmarshal(arg, &payload); err != nil {
		return delta, fmt.Errorf("orderBook argument: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return delta, fmt.Errorf("orderBook base64: %w", err)
	}

	r := flate.NewReader(bytes.NewReader(raw))
	defer r.Close()

	if err := json.NewDecoder(r).Decode(&delta); err != nil {
		return delta, fmt.Errorf("orderBook inflate: %w", err)
	}

	return delta, nil
}

// EncodeOrderBook is the inverse of DecodeOrderBook.
func EncodeOrderBook(delta types.Delta) (string, error) {
	b, err := json.Marshal(delta)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return "", err
	}
	if _, err := w.Write(b); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
