// Package postgres provides the Postgres-backed ResultStore.
package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/dictcrawler/internal/dict"
	"github.com/JakeFAU/dictcrawler/internal/store"
)

// Config controls the Postgres connection pool used for dictionary rows.
type Config struct {
	DSN   string
	Table string
	// MaxConns should be at least the worker count so no worker waits on
	// the pool.
	MaxConns int
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// ResultStore lists and appends dictionary rows in Postgres.
type ResultStore struct {
	pool  pool
	table string
}

// New creates a Postgres-backed ResultStore using the provided config.
func New(ctx context.Context, cfg Config) (*ResultStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := store.TableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 && cfg.MaxConns <= math.MaxInt32 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &ResultStore{pool: p, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool, table string) (*ResultStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	table, err := store.TableName(table)
	if err != nil {
		return nil, err
	}
	return &ResultStore{pool: p, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *ResultStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// EnsureSchema creates the table when it does not exist.
func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	word TEXT NOT NULL,
	headword TEXT,
	us_phonetic TEXT,
	uk_phonetic TEXT,
	us_audio_url TEXT,
	uk_audio_url TEXT
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return &dict.StorageError{Op: "migrate", Err: err}
	}
	return nil
}

// ListProcessedWords returns every distinct word already stored.
func (s *ResultStore) ListProcessedWords(ctx context.Context) (map[dict.Word]struct{}, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf("SELECT DISTINCT word FROM %s", s.table))
	if err != nil {
		return nil, &dict.StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	out := make(map[dict.Word]struct{})
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, &dict.StorageError{Op: "list", Err: err}
		}
		out[dict.Word(w)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, &dict.StorageError{Op: "list", Err: err}
	}
	return out, nil
}

// Persist inserts one row. Nil fields are written as NULL.
func (s *ResultStore) Persist(ctx context.Context, record dict.Record) error {
	if record.Word == "" {
		return &dict.StorageError{Op: "persist", Err: fmt.Errorf("word is required")}
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	word,
	headword,
	us_phonetic,
	uk_phonetic,
	us_audio_url,
	uk_audio_url
) VALUES (
	$1,$2,$3,$4,$5,$6
)`, s.table)

	args := []any{
		string(record.Word),
		record.Headword,
		record.USPhonetic,
		record.UKPhonetic,
		record.USAudioURL,
		record.UKAudioURL,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return &dict.StorageError{Op: "persist", Word: record.Word, Err: err}
	}
	return nil
}
