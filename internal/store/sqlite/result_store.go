// Package sqlite provides a single-file ResultStore backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite3" database/sql driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/JakeFAU/dictcrawler/internal/dict"
	"github.com/JakeFAU/dictcrawler/internal/store"
)

const defaultBusyTimeoutMs = 5000

// Config controls the SQLite database file.
type Config struct {
	// DSN is a file path or file: URI.
	DSN      string
	Table    string
	MaxConns int
}

// ResultStore lists and appends dictionary rows in SQLite.
type ResultStore struct {
	db    *sql.DB
	table string
}

// New opens the database in WAL mode with a busy timeout so concurrent
// workers queue on the write lock instead of failing.
func New(ctx context.Context, cfg Config) (*ResultStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := store.TableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", withPragmas(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &ResultStore{db: db, table: table}, nil
}

func withPragmas(dsn string) string {
	var params []string
	if !strings.Contains(dsn, "_journal_mode") {
		params = append(params, "_journal_mode=WAL")
	}
	if !strings.Contains(dsn, "_busy_timeout") {
		params = append(params, fmt.Sprintf("_busy_timeout=%d", defaultBusyTimeoutMs))
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// Close closes the database handle.
func (s *ResultStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// EnsureSchema creates the table when it does not exist.
func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	word TEXT NOT NULL,
	headword TEXT,
	us_phonetic TEXT,
	uk_phonetic TEXT,
	us_audio_url TEXT,
	uk_audio_url TEXT
)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return &dict.StorageError{Op: "migrate", Err: err}
	}
	return nil
}

// ListProcessedWords returns every distinct word already stored.
func (s *ResultStore) ListProcessedWords(ctx context.Context) (map[dict.Word]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT word FROM %s", s.table))
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
INSERT INTO %s (word, headword, us_phonetic, uk_phonetic, us_audio_url, uk_audio_url)
VALUES (?, ?, ?, ?, ?, ?)`, s.table)

	_, err := s.db.ExecContext(ctx, query,
		string(record.Word),
		nullString(record.Headword),
		nullString(record.USPhonetic),
		nullString(record.UKPhonetic),
		nullString(record.USAudioURL),
		nullString(record.UKAudioURL),
	)
	if err != nil {
		return &dict.StorageError{Op: "persist", Word: record.Word, Err: err}
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
