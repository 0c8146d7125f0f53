package internal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/meridian-gis/formkit"
)

// LocalLayerStore serves offline layer snapshots and lookup tables from a
// DuckDB file. It is a read-only companion to the Postgres store: feature
// cursors and lookups work, writes do not.
type LocalLayerStore struct {
	db *sql.DB
}

// NewLocalLayerStore opens the DuckDB snapshot. An empty path opens an
// in-memory database, useful for tests.
func NewLocalLayerStore(cfg formkit.LocalLayerConfig) (*LocalLayerStore, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("local layer store disabled in config")
	}
	dsn := cfg.DBPath
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return &LocalLayerStore{db: db}, nil
}

// DB exposes the underlying handle for snapshot loading.
func (s *LocalLayerStore) DB() *sql.DB { return s.db }

func (s *LocalLayerStore) Close() error { return s.db.Close() }

// OpenFeature materializes one snapshot row as a detached cursor.
func (s *LocalLayerStore) OpenFeature(ctx context.Context, layer string, id uuid.UUID) (formkit.FeatureCursor, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = ?", sanitizeIdentifier(layer))
	rows, err := s.db.QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, formkit.NewPersistenceError(formkit.ErrCodeCursorFailed,
			"query snapshot row", err).WithLayer(layer)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, formkit.NewPersistenceError(formkit.ErrCodeCursorFailed,
				"read snapshot row", err).WithLayer(layer)
		}
		return nil, formkit.NewFeatureNotFoundError(layer, id.String())
	}
	columns, err := rows.Columns()
	if err != nil {
		return nil, formkit.NewPersistenceError(formkit.ErrCodeCursorFailed,
			"describe snapshot row", err).WithLayer(layer)
	}
	values := make([]any, len(columns))
	scan := make([]any, len(columns))
	for i := range values {
		scan[i] = &values[i]
	}
	if err := rows.Scan(scan...); err != nil {
		return nil, formkit.NewPersistenceError(formkit.ErrCodeCursorFailed,
			"decode snapshot row", err).WithLayer(layer)
	}
	return newRowCursor(id, columns, values), nil
}

// Lookup reads a lookup table into a choice list. The table carries
// name/alias columns with optional alias2 and is_default.
func (s *LocalLayerStore) Lookup(ctx context.Context, table string) ([]formkit.ChoiceItem, error) {
	query := fmt.Sprintf("SELECT name, alias, alias2, is_default FROM %s ORDER BY name",
		sanitizeIdentifier(table))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeLookupTableNotFound,
			"lookup table '"+table+"' query failed").WithCause(err)
	}
	defer rows.Close()

	var items []formkit.ChoiceItem
	for rows.Next() {
		var item formkit.ChoiceItem
		var alias2 sql.NullString
		var isDefault sql.NullBool
		if err := rows.Scan(&item.Name, &item.Alias, &alias2, &isDefault); err != nil {
			return nil, formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeLookupTableNotFound,
				"lookup table '"+table+"' scan failed").WithCause(err)
		}
		item.Alias2 = alias2.String
		item.Default = isDefault.Valid && isDefault.Bool
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeLookupTableNotFound,
			"lookup table '"+table+"' read failed").WithCause(err)
	}
	return items, nil
}
