package store

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Error markers for the store layer. One-shot operations surface these
// directly; live watches never do (failures collapse into absent-value
// emissions instead, because a stream cannot fail mid-flight).
var (
	// ErrInvalidArgument marks a call rejected before touching the backend,
	// e.g. an update with an empty entity ID.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransientStore marks a network or write failure that a retry may
	// repair.
	ErrTransientStore = errors.New("transient store failure")
	// ErrTransactionAbort marks an atomic counter transaction that could
	// not commit within the backend's retry budget.
	ErrTransactionAbort = errors.New("transaction aborted")
)

// RawDoc is a stored document before typed decoding.
type RawDoc struct {
	ID   string
	Data []byte
}

// Change identifies a mutated document. A zero ID means a collection-wide
// change (the subscriber should re-read its whole query).
type Change struct {
	Collection string
	ID         string
}

// Backend is the physical store beneath typed collections. Two
// implementations exist: the offline-persisted local store and the online
// realtime store. Both generate their own IDs (document auto-ID vs push
// key), both upsert by ID so retried writes are idempotent, and both feed a
// change stream that typed watches re-read from.
type Backend interface {
	// Put writes the full document at id, creating or overwriting it.
	Put(ctx context.Context, collection, id string, data []byte) error
	// Get reads one document; the bool reports existence.
	Get(ctx context.Context, collection, id string) ([]byte, bool, error)
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]RawDoc, error)
	// MergeField rewrites a single top-level field without clobbering
	// concurrent writes to other fields of the same document.
	MergeField(ctx context.Context, collection, id, field string, value []byte) error
	// Increment atomically adds delta to a numeric field, treating a
	// missing field or document as zero. Returns the committed value.
	Increment(ctx context.Context, collection, id, field string, delta int64) (int64, error)
	// NewID allocates a store-specific document ID.
	NewID() (string, error)
	// Subscribe returns a change feed for one collection. The returned
	// cancel func must be called when the observer's lifecycle ends;
	// leaking subscriptions is a correctness bug, not just overhead.
	Subscribe(collection string) (<-chan Change, func())
}
