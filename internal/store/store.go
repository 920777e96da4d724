package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

var defaultSettings = []Setting{
	{SettingPomodoroWork, "25"},
	{SettingPomodoroBreak, "5"},
	{SettingReminderTime, "20:00"},
	{SettingTheme, "light"},
}

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection serializes writers; the in-memory database also lives on it.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS books (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		title            TEXT NOT NULL DEFAULT '',
		author           TEXT NOT NULL DEFAULT '',
		type             TEXT NOT NULL DEFAULT 'offline',
		isbn             TEXT NOT NULL DEFAULT '',
		published_year   INTEGER NOT NULL DEFAULT 0,
		rating           REAL NOT NULL DEFAULT 0,
		current_page     INTEGER NOT NULL DEFAULT 0,
		notes            TEXT NOT NULL DEFAULT '',
		cover_image_url  TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_books_type ON books(type);

	CREATE TABLE IF NOT EXISTS read_days (
		seq      INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id  INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		day      TEXT NOT NULL,
		UNIQUE(book_id, day)
	);

	CREATE TABLE IF NOT EXISTS blobs (
		key         TEXT PRIMARY KEY,
		value       BLOB NOT NULL,
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	for _, d := range defaultSettings {
		if err := s.SeedSetting(d.Key, d.Value); err != nil {
			return err
		}
	}
	return nil
}

// DefaultDBPath returns ~/.config/litera/litera.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "litera", "litera.db"), nil
}
