// Package library persists tracks and playlists in SQLite.
package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/genricoloni/streamly/internal/domain"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DatabaseFile is the database name inside the data directory
const DatabaseFile = "streamly.db"

var (
	// ErrNotFound is returned when a track or playlist does not exist
	ErrNotFound = errors.New("library: not found")

	errNoDB = errors.New("library: missing database connection")
)

// Store is the SQLite-backed track library
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path and ensures the schema.
// path may be ":memory:".
func Open(logger *zap.Logger, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("library: open %s: %w", path, err)
	}
	// One connection keeps per-connection pragmas and in-memory databases consistent
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("library: %s: %w", pragma, err)
		}
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("library: enable WAL: %w", err)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.EnsureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("Library opened", zap.String("path", path))
	return s, nil
}

// NewStore opens the library database in the configured data directory
func NewStore(logger *zap.Logger, cfg domain.Config) (*Store, error) {
	dir := cfg.GetDataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("library: create data dir: %w", err)
	}
	return Open(logger, filepath.Join(dir, DatabaseFile))
}

// Close releases the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

// notFound maps a zero-row result to ErrNotFound
func notFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
