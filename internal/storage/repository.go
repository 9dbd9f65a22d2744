package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curiocity/cityguide/internal/cache"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository stores cache entries in Postgres. It satisfies cache.Store.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// Get returns the value under key. Expired rows are reported as cache.ErrNotFound.
func (r *Repository) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `
		SELECT value
		FROM cache_entries
		WHERE key = $1
		AND expires_at > NOW()
	`

	var value []byte
	if err := r.q.QueryRow(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cache.ErrNotFound
		}
		return nil, fmt.Errorf("querying cache entry %s: %w", key, err)
	}

	return value, nil
}

// Set inserts or replaces the value under key.
func (r *Repository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	const q = `
		INSERT INTO cache_entries (key, value, stored_at, expires_at)
		VALUES ($1, $2::jsonb, NOW(), NOW() + make_interval(secs => $3))
		ON CONFLICT (key) DO UPDATE
		SET value      = EXCLUDED.value,
		    stored_at  = EXCLUDED.stored_at,
		    expires_at = EXCLUDED.expires_at
	`

	if _, err := r.q.Exec(ctx, q, key, string(value), ttl.Seconds()); err != nil {
		return fmt.Errorf("upserting cache entry %s: %w", key, err)
	}

	return nil
}

// DeletePrefix removes every entry whose key starts with prefix.
func (r *Repository) DeletePrefix(ctx context.Context, prefix string) error {
	const q = `DELETE FROM cache_entries WHERE key LIKE $1 ESCAPE '\'`

	if _, err := r.q.Exec(ctx, q, likePrefix(prefix)); err != nil {
		return fmt.Errorf("deleting cache entries %s*: %w", prefix, err)
	}

	return nil
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (r *Repository) PurgeExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM cache_entries WHERE expires_at <= NOW()`

	tag, err := r.q.Exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("purging expired cache entries: %w", err)
	}

	return tag.RowsAffected(), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
