package local

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite"; sqlx does not know that name.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects the local document store, instrumented for tracing.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	driver, cleaned := DriverForDSN(dsn)

	system := semconv.DBSystemSqlite
	if driver == "postgres" {
		system = semconv.DBSystemPostgreSQL
	}

	db, err := otelsqlx.Open(driver, cleaned, otelsql.WithAttributes(system))
	if err != nil {
		return nil, errors.Wrapf(err, "open local store (%s)", driver)
	}

	if driver == "sqlite" {
		// The sqlite file is single-writer; cap the pool so concurrent
		// goroutines queue instead of hitting SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping local store")
	}

	return db, nil
}

// EnsureSchema creates the documents table when migrations have not run,
// which keeps embedded sqlite deployments self-contained.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	const schema = `CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (collection, id)
)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "ensure documents schema")
	}
	return nil
}
