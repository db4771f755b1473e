package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations for the snapshot table, rooted so
// database.RunMigrations can read them directly.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(fmt.Sprintf("postgres migrations: %v", err))
	}
	return sub
}

const (
	selectSnapshot = `SELECT value FROM kv_snapshots WHERE key = $1`
	upsertSnapshot = `
		INSERT INTO kv_snapshots (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	deleteSnapshot = `DELETE FROM kv_snapshots WHERE key = $1`
)

// KeyValueStore implements repository.KeyValueStore on the kv_snapshots table.
type KeyValueStore struct {
	pool   database.DBTX
	tracer *database.QueryTracer
}

// NewKeyValueStore creates a Postgres-backed store. tracer may be nil, in
// which case spans are still recorded but slow queries are not logged.
func NewKeyValueStore(pool database.DBTX, tracer *database.QueryTracer) *KeyValueStore {
	return &KeyValueStore{pool: pool, tracer: tracer}
}

// Get returns the snapshot stored under key.
func (s *KeyValueStore) Get(ctx context.Context, key string) (value []byte, err error) {
	ctx, end := s.tracer.Trace(ctx, "GetSnapshot", selectSnapshot)
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	if err := s.pool.QueryRow(ctx, selectSnapshot, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("snapshot", key)
		}
		return nil, fmt.Errorf("select snapshot %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the snapshot for key.
func (s *KeyValueStore) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := s.tracer.Trace(ctx, "SetSnapshot", upsertSnapshot)
	defer func() { end(err) }()

	if _, err := s.pool.Exec(ctx, upsertSnapshot, key, value); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", key, err)
	}
	return nil
}

// Delete removes the snapshot for key.
func (s *KeyValueStore) Delete(ctx context.Context, key string) (err error) {
	ctx, end := s.tracer.Trace(ctx, "DeleteSnapshot", deleteSnapshot)
	defer func() { end(err) }()

	if _, err := s.pool.Exec(ctx, deleteSnapshot, key); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", key, err)
	}
	return nil
}

// Ping runs a trivial query.
func (s *KeyValueStore) Ping(ctx context.Context) error {
	var one int
	return s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one)
}
