package store

import (
	"context"
	"sync"
)

// Snapshot is one emission of a single-document watch. Exists false means
// the document is missing, undecodable, or the read failed; callers must
// treat it as "unknown/unavailable", not as a confirmed delete, except
// where they independently know the entity is gone.
type Snapshot[T any] struct {
	Value  T
	Exists bool
}

// Watch streams the document at id: one snapshot immediately, then one per
// remote change, until cancel is called or ctx ends. Read errors emit an
// absent snapshot; the stream itself never terminates on error.
func (c *Collection[T]) Watch(ctx context.Context, id string) (<-chan Snapshot[T], func()) {
	out := make(chan Snapshot[T], 1)
	changes, unsubscribe := c.backend.Subscribe(c.cfg.Name)
	done := make(chan struct{})

	// Cancel must be safe to call twice, including concurrently.
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			unsubscribe()
		})
	}

	go func() {
		defer close(out)

		emit := func() {
			entity, ok, err := c.Get(ctx, id)
			if err != nil {
				ok = false
			}
			pushLatest(out, Snapshot[T]{Value: entity, Exists: ok})
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case change, open := <-changes:
				if !open {
					return
				}
				if change.ID != "" && change.ID != id {
					continue
				}
				emit()
			}
		}
	}()

	return out, cancel
}

// WatchAll streams the query result: the current list immediately, then a
// re-evaluated list after every change in the collection. Query failures
// emit nil, meaning "unknown", not "confirmed empty".
func (c *Collection[T]) WatchAll(ctx context.Context, q Query) (<-chan []T, func()) {
	out := make(chan []T, 1)
	changes, unsubscribe := c.backend.Subscribe(c.cfg.Name)
	done := make(chan struct{})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			unsubscribe()
		})
	}

	go func() {
		defer close(out)

		emit := func() {
			items, err := c.List(ctx, q)
			if err != nil {
				items = nil
			}
			pushLatest(out, items)
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case _, open := <-changes:
				if !open {
					return
				}
				emit()
			}
		}
	}()

	return out, cancel
}

// pushLatest delivers v without blocking: a slow receiver keeps only the
// most recent emission.
func pushLatest[V any](ch chan V, v V) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
