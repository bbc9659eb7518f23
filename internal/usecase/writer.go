package usecase

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/matchday/scorekeeper/internal/infrastructure/store"
	"github.com/matchday/scorekeeper/internal/syncer"
)

// DocWriter routes one document write to the stores a hosted entity lives
// in. Offline entities stay in the local store only; online entities go
// through the syncer, which fans out to both stores and keeps the retry
// ledger for the remote leg.
type DocWriter struct {
	local store.Backend
	sync  *syncer.Syncer
}

func NewDocWriter(local store.Backend, sync *syncer.Syncer) *DocWriter {
	return &DocWriter{local: local, sync: sync}
}

func (w *DocWriter) Put(ctx context.Context, online bool, collection, id string, doc any) error {
	data, err := sonic.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", collection, err)
	}

	if online {
		if w.sync == nil {
			return fmt.Errorf("%w: realtime store not configured", ErrDependencyUnavailable)
		}
		return w.sync.Put(ctx, collection, id, data)
	}
	return w.local.Put(ctx, collection, id, data)
}

func (w *DocWriter) Delete(ctx context.Context, online bool, collection, id string) error {
	if online {
		if w.sync == nil {
			return fmt.Errorf("%w: realtime store not configured", ErrDependencyUnavailable)
		}
		return w.sync.Delete(ctx, collection, id)
	}
	return w.local.Delete(ctx, collection, id)
}
