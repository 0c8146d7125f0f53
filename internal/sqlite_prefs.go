package internal

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/meridian-gis/formkit"
)

// SQLitePreferenceStore keeps remembered defaults in a small SQLite file.
// Values are stored as text with a kind tag so typed reads can reject a
// key written with a different type.
type SQLitePreferenceStore struct {
	db *sql.DB
}

const prefsSchema = `
CREATE TABLE IF NOT EXISTS preferences (
	layer TEXT NOT NULL,
	key   TEXT NOT NULL,
	kind  TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (layer, key)
)`

const (
	prefKindString = "string"
	prefKindInt64  = "int64"
	prefKindBool   = "bool"
)

// NewSQLitePreferenceStore opens (and if needed initializes) the
// preference database. Use ":memory:" for an ephemeral store.
func NewSQLitePreferenceStore(path string) (*SQLitePreferenceStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open preference store: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(prefsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init preference store: %w", err)
	}
	return &SQLitePreferenceStore{db: db}, nil
}

func (s *SQLitePreferenceStore) get(layer, key, kind string) (string, bool) {
	var storedKind, value string
	err := s.db.QueryRow(
		"SELECT kind, value FROM preferences WHERE layer = ? AND key = ?",
		layer, key).Scan(&storedKind, &value)
	if err != nil || storedKind != kind {
		return "", false
	}
	return value, true
}

func (s *SQLitePreferenceStore) put(layer, key, kind, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (layer, key, kind, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT (layer, key) DO UPDATE SET kind = excluded.kind, value = excluded.value`,
		layer, key, kind, value)
	if err != nil {
		return formkit.NewPersistenceError(formkit.ErrCodePreferenceFailed,
			"write preference", err).WithLayer(layer).WithDetail("key", key)
	}
	return nil
}

func (s *SQLitePreferenceStore) GetString(layer, key string) (string, bool) {
	return s.get(layer, key, prefKindString)
}

func (s *SQLitePreferenceStore) PutString(layer, key, value string) error {
	return s.put(layer, key, prefKindString, value)
}

func (s *SQLitePreferenceStore) GetInt64(layer, key string) (int64, bool) {
	raw, ok := s.get(layer, key, prefKindInt64)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *SQLitePreferenceStore) PutInt64(layer, key string, value int64) error {
	return s.put(layer, key, prefKindInt64, strconv.FormatInt(value, 10))
}

func (s *SQLitePreferenceStore) GetBool(layer, key string) (bool, bool) {
	raw, ok := s.get(layer, key, prefKindBool)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return b, true
}

func (s *SQLitePreferenceStore) PutBool(layer, key string, value bool) error {
	return s.put(layer, key, prefKindBool, strconv.FormatBool(value))
}

func (s *SQLitePreferenceStore) Close() error { return s.db.Close() }
