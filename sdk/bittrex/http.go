package bittrex

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strconv"

	"github.com/demigunkan/marketstatus/internal/interfaces"
	"github.com/demigunkan/marketstatus/internal/metrics"
	"github.com/demigunkan/marketstatus/internal/types"
)

var _ interfaces.SnapshotSource = &Bittrex{}

const sequenceHeader = "Sequence"

// Snapshot is GET /markets/{symbol}/orderbook?depth={depth}; the sequence
// the ladder represents comes back in the Sequence header.
func (b *Bittrex) Snapshot(ctx context.Context, symbol string, depth int) (*types.Snapshot, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := b.breaker.Execute(func() (interface{}, error) {
		snapshot := &types.Snapshot{}
		path := fmt.Sprintf("/markets/%s/orderbook?depth=%d", url.PathEscape(symbol), depth)

		response, err := b.http.Request(ctx, nethttp.MethodGet, path, nil, snapshot)
		if err != nil {
			metrics.APIErrorsTotal.WithLabelValues("orderbook").Inc()
			return nil, err
		}

		seq, err := strconv.ParseInt(response.Header.Get(sequenceHeader), 10, 64)
		if err != nil {
			metrics.APIErrorsTotal.WithLabelValues("orderbook").Inc()
			return nil, fmt.Errorf("bad %s header %q: %w", sequenceHeader, response.Header.Get(sequenceHeader), err)
		}
		snapshot.Sequence = seq

		return snapshot, nil
	})
	if err != nil {
		b.logger.Warn().Err(err).Str("symbol", symbol).Int("depth", depth).Msg("snapshot fetch failed")
		return nil, err
	}

	return res.(*types.Snapshot), nil
}
