package memory

import (
	"context"
	"sync"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	idgen "github.com/matchday/scorekeeper/internal/platform/id"
	"github.com/matchday/scorekeeper/internal/infrastructure/store"
)

// Backend is an in-memory document store with the same contract as the
// persistent backends. Used for seeding and as the test double for both.
type Backend struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte

	subMu sync.Mutex
	subs  map[string]map[int]chan store.Change
	nextSub int

	ids idgen.Generator
}

func NewBackend() *Backend {
	return &Backend{
		docs: make(map[string]map[string][]byte),
		subs: make(map[string]map[int]chan store.Change),
		ids:  idgen.NewRandomGenerator(),
	}
}

func (b *Backend) Put(_ context.Context, collection, id string, data []byte) error {
	b.mu.Lock()
	col, ok := b.docs[collection]
	if !ok {
		col = make(map[string][]byte)
		b.docs[collection] = col
	}
	col[id] = append([]byte(nil), data...)
	b.mu.Unlock()

	b.notify(store.Change{Collection: collection, ID: id})
	return nil
}

func (b *Backend) Get(_ context.Context, collection, id string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.docs[collection][id]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (b *Backend) Delete(_ context.Context, collection, id string) error {
	b.mu.Lock()
	delete(b.docs[collection], id)
	b.mu.Unlock()

	b.notify(store.Change{Collection: collection, ID: id})
	return nil
}

func (b *Backend) List(_ context.Context, collection string) ([]store.RawDoc, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	col := b.docs[collection]
	out := make([]store.RawDoc, 0, len(col))
	for id, data := range col {
		out = append(out, store.RawDoc{ID: id, Data: append([]byte(nil), data...)})
	}
	return out, nil
}

func (b *Backend) MergeField(_ context.Context, collection, id, field string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	col, ok := b.docs[collection]
	if !ok {
		col = make(map[string][]byte)
		b.docs[collection] = col
	}

	fields := map[string]any{}
	if existing, ok := col[id]; ok {
		if err := sonic.Unmarshal(existing, &fields); err != nil {
			return errors.Mark(errors.Wrapf(err, "merge into %s/%s", collection, id), store.ErrTransientStore)
		}
	}

	var decoded any
	if err := sonic.Unmarshal(value, &decoded); err != nil {
		return errors.Mark(errors.Wrapf(err, "merge value for %s/%s", collection, id), store.ErrTransientStore)
	}
	fields[field] = decoded

	data, err := sonic.Marshal(fields)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "encode %s/%s", collection, id), store.ErrTransientStore)
	}
	col[id] = data

	b.notify(store.Change{Collection: collection, ID: id})
	return nil
}

func (b *Backend) Increment(_ context.Context, collection, id, field string, delta int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	col, ok := b.docs[collection]
	if !ok {
		col = make(map[string][]byte)
		b.docs[collection] = col
	}

	fields := map[string]any{}
	if existing, ok := col[id]; ok {
		if err := sonic.Unmarshal(existing, &fields); err != nil {
			return 0, errors.Mark(errors.Wrapf(err, "increment %s/%s", collection, id), store.ErrTransactionAbort)
		}
	}

	current := int64(0)
	if v, ok := fields[field]; ok {
		if f, ok := v.(float64); ok {
			current = int64(f)
		}
	}
	next := current + delta
	fields[field] = next

	data, err := sonic.Marshal(fields)
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "encode %s/%s", collection, id), store.ErrTransactionAbort)
	}
	col[id] = data

	b.notify(store.Change{Collection: collection, ID: id})
	return next, nil
}

func (b *Backend) NewID() (string, error) {
	return b.ids.NewID()
}

func (b *Backend) Subscribe(collection string) (<-chan store.Change, func()) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	if b.subs[collection] == nil {
		b.subs[collection] = make(map[int]chan store.Change)
	}
	key := b.nextSub
	b.nextSub++

	ch := make(chan store.Change, 16)
	b.subs[collection][key] = ch

	cancel := func() {
		b.subMu.Lock()
		defer b.subMu.Unlock()
		if sub, ok := b.subs[collection][key]; ok {
			delete(b.subs[collection], key)
			close(sub)
		}
	}

	return ch, cancel
}

func (b *Backend) notify(change store.Change) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	for _, ch := range b.subs[change.Collection] {
		select {
		case ch <- change:
		default:
			// Slow subscriber; watches re-read on the next change anyway.
		}
	}
}
