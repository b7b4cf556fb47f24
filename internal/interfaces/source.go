package interfaces

import (
	"context"

	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/ethereum/go-ethereum/event"
)

// SnapshotSource returns a full ladder for symbol at depth, together with the
// sequence number it represents.
type SnapshotSource interface {
	Snapshot(ctx context.Context, symbol string, depth int) (*types.Snapshot, error)
}

// DeltaFeed fans the decoded delta stream out to every subscribed channel,
// preserving order per channel.
type DeltaFeed interface {
	SubscribeDeltas(ch chan<- types.Delta) event.Subscription
}

// FeedSource is an exchange stream: connection lifecycle plus the delta fan-out.
type FeedSource interface {
	DeltaFeed
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, channels []string) error
	Close() error
}
