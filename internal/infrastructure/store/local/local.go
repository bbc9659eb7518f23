// Package local implements the offline-persisted document store over a SQL
// database: sqlite for the on-device file DB, postgres when pointed at a
// server. One documents table holds every collection; filtering and
// ordering happen in the generic store layer.
package local

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/matchday/scorekeeper/internal/infrastructure/store"
)

const incrementAttempts = 5

type Backend struct {
	db  *sqlx.DB
	hub *store.Hub
	// rmw serializes read-modify-write operations (MergeField, Increment).
	// The host process is the only writer of the local store, so this is
	// sufficient isolation; the SQL transaction still guards against a
	// concurrent process.
	rmw sync.Mutex
	now func() time.Time
}

func NewBackend(db *sqlx.DB) *Backend {
	return &Backend{
		db:  db,
		hub: store.NewHub(),
		now: time.Now,
	}
}

const upsertSQL = `INSERT INTO documents (collection, id, data, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`

func (b *Backend) Put(ctx context.Context, collection, id string, data []byte) error {
	query := b.db.Rebind(upsertSQL)
	if _, err := b.db.ExecContext(ctx, query, collection, id, string(data), b.now().UTC()); err != nil {
		return errors.Mark(errors.Wrapf(err, "write %s/%s", collection, id), store.ErrTransientStore)
	}

	b.hub.Notify(store.Change{Collection: collection, ID: id})
	return nil
}

func (b *Backend) Get(ctx context.Context, collection, id string) ([]byte, bool, error) {
	query := b.db.Rebind(`SELECT data FROM documents WHERE collection = ? AND id = ?`)

	var data string
	err := b.db.GetContext(ctx, &data, query, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Mark(errors.Wrapf(err, "read %s/%s", collection, id), store.ErrTransientStore)
	}

	return []byte(data), true, nil
}

func (b *Backend) Delete(ctx context.Context, collection, id string) error {
	query := b.db.Rebind(`DELETE FROM documents WHERE collection = ? AND id = ?`)
	if _, err := b.db.ExecContext(ctx, query, collection, id); err != nil {
		return errors.Mark(errors.Wrapf(err, "delete %s/%s", collection, id), store.ErrTransientStore)
	}

	b.hub.Notify(store.Change{Collection: collection, ID: id})
	return nil
}

func (b *Backend) List(ctx context.Context, collection string) ([]store.RawDoc, error) {
	query := b.db.Rebind(`SELECT id, data FROM documents WHERE collection = ? ORDER BY id`)

	var rows []struct {
		ID   string `db:"id"`
		Data string `db:"data"`
	}
	if err := b.db.SelectContext(ctx, &rows, query, collection); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "list %s", collection), store.ErrTransientStore)
	}

	out := make([]store.RawDoc, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.RawDoc{ID: row.ID, Data: []byte(row.Data)})
	}
	return out, nil
}

func (b *Backend) MergeField(ctx context.Context, collection, id, field string, value []byte) error {
	b.rmw.Lock()
	defer b.rmw.Unlock()

	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		fields, err := b.readFields(ctx, tx, collection, id)
		if err != nil {
			return err
		}

		var decoded any
		if err := sonic.Unmarshal(value, &decoded); err != nil {
			return errors.Wrapf(err, "decode merge value for %s.%s", collection, field)
		}
		fields[field] = decoded

		return b.writeFields(ctx, tx, collection, id, fields)
	})
	if err != nil {
		return errors.Mark(err, store.ErrTransientStore)
	}

	b.hub.Notify(store.Change{Collection: collection, ID: id})
	return nil
}

func (b *Backend) Increment(ctx context.Context, collection, id, field string, delta int64) (int64, error) {
	b.rmw.Lock()
	defer b.rmw.Unlock()

	var committed int64
	var lastErr error
	for attempt := 0; attempt < incrementAttempts; attempt++ {
		lastErr = b.inTx(ctx, func(tx *sqlx.Tx) error {
			fields, err := b.readFields(ctx, tx, collection, id)
			if err != nil {
				return err
			}

			current := int64(0)
			if v, ok := fields[field].(float64); ok {
				current = int64(v)
			}
			committed = current + delta
			fields[field] = committed

			return b.writeFields(ctx, tx, collection, id, fields)
		})
		if lastErr == nil {
			b.hub.Notify(store.Change{Collection: collection, ID: id})
			return committed, nil
		}
	}

	return 0, errors.Mark(errors.Wrapf(lastErr, "increment %s/%s.%s", collection, id, field), store.ErrTransactionAbort)
}

func (b *Backend) NewID() (string, error) {
	return uuid.NewString(), nil
}

func (b *Backend) Subscribe(collection string) (<-chan store.Change, func()) {
	return b.hub.Subscribe(collection)
}

func (b *Backend) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (b *Backend) readFields(ctx context.Context, tx *sqlx.Tx, collection, id string) (map[string]any, error) {
	query := tx.Rebind(`SELECT data FROM documents WHERE collection = ? AND id = ?`)

	fields := map[string]any{}
	var data string
	err := tx.GetContext(ctx, &data, query, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fields, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s/%s", collection, id)
	}
	if err := sonic.Unmarshal([]byte(data), &fields); err != nil {
		return nil, errors.Wrapf(err, "decode %s/%s", collection, id)
	}
	return fields, nil
}

func (b *Backend) writeFields(ctx context.Context, tx *sqlx.Tx, collection, id string, fields map[string]any) error {
	data, err := sonic.Marshal(fields)
	if err != nil {
		return errors.Wrapf(err, "encode %s/%s", collection, id)
	}

	query := tx.Rebind(upsertSQL)
	if _, err := tx.ExecContext(ctx, query, collection, id, string(data), b.now().UTC()); err != nil {
		return errors.Wrapf(err, "write %s/%s", collection, id)
	}
	return nil
}

// DriverForDSN picks the SQL driver by DSN shape: postgres URLs go to
// lib/pq, everything else (a file path, :memory:, or a sqlite:// URL) to
// the pure-Go sqlite driver.
func DriverForDSN(dsn string) (driver, cleaned string) {
	trimmed := strings.TrimSpace(dsn)
	switch {
	case strings.HasPrefix(trimmed, "postgres://"), strings.HasPrefix(trimmed, "postgresql://"):
		return "postgres", trimmed
	case strings.HasPrefix(trimmed, "sqlite://"):
		return "sqlite", strings.TrimPrefix(trimmed, "sqlite://")
	default:
		return "sqlite", trimmed
	}
}
