package store

import (
	"context"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/matchday/scorekeeper/internal/platform/logging"
)

// Config makes an entity-specific repository out of a Collection: just the
// collection name, the ID accessors, and optionally a decode hook for
// polymorphic schemas. Everything else is shared.
type Config[T any] struct {
	Name string
	// ID extracts the entity's ID.
	ID func(T) string
	// WithID returns a copy of the entity carrying the given ID.
	WithID func(T, string) T
	// Decode overrides the default sonic decode. A failing decode is a
	// deserialization miss: the record is treated as absent, never as a
	// query failure.
	Decode func([]byte) (T, error)
	Logger *logging.Logger
}

// Collection is the uniform CRUD + live-query surface over one Backend.
type Collection[T any] struct {
	backend Backend
	cfg     Config[T]
	logger  *logging.Logger
}

func NewCollection[T any](backend Backend, cfg Config[T]) *Collection[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Decode == nil {
		cfg.Decode = func(data []byte) (T, error) {
			var out T
			if err := sonic.Unmarshal(data, &out); err != nil {
				return out, errors.Wrap(err, "decode document")
			}
			return out, nil
		}
	}
	return &Collection[T]{backend: backend, cfg: cfg, logger: logger}
}

// Name returns the backing collection name.
func (c *Collection[T]) Name() string {
	return c.cfg.Name
}

// Add writes the entity, allocating a backend-specific ID when the entity
// does not carry one. Returns the stored entity including its ID.
func (c *Collection[T]) Add(ctx context.Context, entity T) (T, error) {
	id := strings.TrimSpace(c.cfg.ID(entity))
	if id == "" {
		generated, err := c.backend.NewID()
		if err != nil {
			return entity, errors.Wrap(err, "allocate document id")
		}
		id = generated
		entity = c.cfg.WithID(entity, id)
	}

	if err := c.put(ctx, id, entity); err != nil {
		return entity, err
	}

	return entity, nil
}

// Update overwrites the full document at the entity's ID. An empty ID is an
// invalid argument, surfaced synchronously.
func (c *Collection[T]) Update(ctx context.Context, entity T) error {
	id := strings.TrimSpace(c.cfg.ID(entity))
	if id == "" {
		return errors.Mark(errors.Newf("update %s: entity id is empty", c.cfg.Name), ErrInvalidArgument)
	}

	return c.put(ctx, id, entity)
}

func (c *Collection[T]) put(ctx context.Context, id string, entity T) error {
	data, err := sonic.Marshal(entity)
	if err != nil {
		return errors.Wrapf(err, "encode %s document", c.cfg.Name)
	}
	if err := c.backend.Put(ctx, c.cfg.Name, id, data); err != nil {
		return errors.Wrapf(err, "write %s/%s", c.cfg.Name, id)
	}
	return nil
}

// UpdateField rewrites one top-level field, for high-frequency counters
// where a full-document write would clobber concurrent partial writes.
func (c *Collection[T]) UpdateField(ctx context.Context, id, field string, value any) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.Mark(errors.Newf("update field on %s: entity id is empty", c.cfg.Name), ErrInvalidArgument)
	}
	if strings.TrimSpace(field) == "" {
		return errors.Mark(errors.Newf("update field on %s/%s: field name is empty", c.cfg.Name, id), ErrInvalidArgument)
	}

	encoded, err := sonic.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s.%s", c.cfg.Name, field)
	}

	return c.backend.MergeField(ctx, c.cfg.Name, id, field, encoded)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.Mark(errors.Newf("delete from %s: entity id is empty", c.cfg.Name), ErrInvalidArgument)
	}
	return c.backend.Delete(ctx, c.cfg.Name, id)
}

// Get is a one-shot read. Deserialization misses report as absent.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	id = strings.TrimSpace(id)
	if id == "" {
		return zero, false, errors.Mark(errors.Newf("get from %s: entity id is empty", c.cfg.Name), ErrInvalidArgument)
	}

	data, ok, err := c.backend.Get(ctx, c.cfg.Name, id)
	if err != nil {
		return zero, false, errors.Wrapf(err, "read %s/%s", c.cfg.Name, id)
	}
	if !ok {
		return zero, false, nil
	}

	entity, err := c.cfg.Decode(data)
	if err != nil {
		c.logger.Debug("dropping undecodable document",
			"collection", c.cfg.Name, "id", id, "error", err)
		return zero, false, nil
	}

	return entity, true, nil
}

func (c *Collection[T]) Exists(ctx context.Context, id string) (bool, error) {
	_, ok, err := c.Get(ctx, id)
	return ok, err
}

// List runs the query once. Undecodable records are filtered out.
func (c *Collection[T]) List(ctx context.Context, q Query) ([]T, error) {
	raw, err := c.backend.List(ctx, c.cfg.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", c.cfg.Name)
	}

	docs := make([]queryDoc, 0, len(raw))
	for _, r := range raw {
		doc, err := decodeQueryDoc(r)
		if err != nil {
			c.logger.Debug("dropping unreadable document",
				"collection", c.cfg.Name, "id", r.ID, "error", err)
			continue
		}
		docs = append(docs, doc)
	}

	out := make([]T, 0, len(docs))
	for _, doc := range q.apply(docs) {
		entity, err := c.cfg.Decode(doc.raw.Data)
		if err != nil {
			c.logger.Debug("dropping undecodable document",
				"collection", c.cfg.Name, "id", doc.raw.ID, "error", err)
			continue
		}
		out = append(out, entity)
	}

	return out, nil
}

// Increment atomically adds delta to a numeric field via the backend's
// compare-and-swap transaction.
func (c *Collection[T]) Increment(ctx context.Context, id, field string, delta int64) (int64, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, errors.Mark(errors.Newf("increment on %s: entity id is empty", c.cfg.Name), ErrInvalidArgument)
	}
	return c.backend.Increment(ctx, c.cfg.Name, id, field, delta)
}
