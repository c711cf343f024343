// Package history owns the durable conversation log: a live, ordered feed of
// raw records for one identity, sanitized into the internal schema on every
// snapshot. The Collection abstraction keeps the store technology out of the
// log semantics, so the same Store runs against Firestore in production and
// an in-memory collection in tests.
package history

import (
	"context"
	"time"
)

// Record is one raw document as delivered by the feed. Fields is untrusted:
// it may come from an older schema, a write still in flight from another
// client, or corrupted data.
type Record struct {
	ID        string
	CreatedAt time.Time
	Fields    map[string]any
}

// Collection is a per-identity ordered document collection with a live feed.
// Implementations assign CreatedAt on Add and must deliver snapshots in
// ascending CreatedAt order.
type Collection interface {
	// Subscribe registers fn for snapshot delivery and returns an
	// unsubscribe func. fn receives the current snapshot immediately and
	// again after every change. errFn receives asynchronous feed errors.
	Subscribe(ctx context.Context, fn func([]Record), errFn func(error)) (func(), error)

	// Add creates a document with a store-assigned, monotonically
	// increasing creation time.
	Add(ctx context.Context, id string, fields map[string]any) error

	// Update applies partial field updates to one document.
	Update(ctx context.Context, id string, updates map[string]any) error

	// DocumentIDs lists the current document ids in snapshot order.
	DocumentIDs(ctx context.Context) ([]string, error)

	// Delete removes one document.
	Delete(ctx context.Context, id string) error
}
