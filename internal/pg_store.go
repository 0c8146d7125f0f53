package internal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsCreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/meridian-gis/formkit"
)

// PostgresFeatureStore persists feature rows in one table per layer. Each
// table carries an id uuid primary key and geom_lat/geom_lon columns next
// to the layer's attribute columns.
type PostgresFeatureStore struct {
	pool PgxIface
}

// PgxIface is the pool surface the store uses. *pgxpool.Pool and pgxmock
// both satisfy it.
type PgxIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func NewPostgresFeatureStore(pool PgxIface) *PostgresFeatureStore {
	return &PostgresFeatureStore{pool: pool}
}

const (
	colID      = "id"
	colGeomLat = "geom_lat"
	colGeomLon = "geom_lon"
)

// Insert writes a new feature row. Row ids are generated client side as
// UUIDv7 so new rows sort by creation time.
func (s *PostgresFeatureStore) Insert(ctx context.Context, layer string, values map[string]any, geom *formkit.GeoPoint) (uuid.UUID, error) {
	id := uuid.Must(uuid.NewV7())

	columns := []string{colID}
	args := []any{id}
	for _, name := range sortedKeys(values) {
		columns = append(columns, name)
		args = append(args, values[name])
	}
	if geom != nil {
		columns = append(columns, colGeomLat, colGeomLon)
		args = append(args, geom.Lat, geom.Lon)
	}

	placeholders := make([]string, len(columns))
	quoted := make([]string, len(columns))
	for i, name := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		quoted[i] = sanitizeIdentifier(name)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		sanitizeIdentifier(layer), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return uuid.Nil, formkit.NewPersistenceError(formkit.ErrCodeInsertFailed,
			"insert feature row", err).WithLayer(layer)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return uuid.Nil, formkit.NewPersistenceError(formkit.ErrCodeInsertFailed,
			"insert feature row", err).WithLayer(layer)
	}
	return id, nil
}

// Update rewrites the named columns of one row. A nil geom leaves the
// stored geometry columns untouched.
func (s *PostgresFeatureStore) Update(ctx context.Context, layer string, id uuid.UUID, values map[string]any, geom *formkit.GeoPoint) error {
	if len(values) == 0 && geom == nil {
		return nil
	}

	assignments := make([]string, 0, len(values)+2)
	args := make([]any, 0, len(values)+3)
	for _, name := range sortedKeys(values) {
		args = append(args, values[name])
		assignments = append(assignments, fmt.Sprintf("%s = $%d", sanitizeIdentifier(name), len(args)))
	}
	if geom != nil {
		args = append(args, geom.Lat)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", colGeomLat, len(args)))
		args = append(args, geom.Lon)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", colGeomLon, len(args)))
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		sanitizeIdentifier(layer), strings.Join(assignments, ", "), colID, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return formkit.NewPersistenceError(formkit.ErrCodeUpdateFailed,
			"update feature row", err).WithLayer(layer)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return formkit.NewPersistenceError(formkit.ErrCodeUpdateFailed,
			"update feature row", err).WithLayer(layer)
	}
	return nil
}

// OpenFeature positions a one-row cursor on a feature. The whole row is
// materialized eagerly so the cursor holds no connection.
func (s *PostgresFeatureStore) OpenFeature(ctx context.Context, layer string, id uuid.UUID) (formkit.FeatureCursor, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", sanitizeIdentifier(layer), colID)
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, formkit.NewPersistenceError(formkit.ErrCodeCursorFailed,
			"query feature row", err).WithLayer(layer)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, formkit.NewPersistenceError(formkit.ErrCodeCursorFailed,
				"read feature row", err).WithLayer(layer)
		}
		return nil, formkit.NewFeatureNotFoundError(layer, id.String())
	}
	values, err := rows.Values()
	if err != nil {
		return nil, formkit.NewPersistenceError(formkit.ErrCodeCursorFailed,
			"decode feature row", err).WithLayer(layer)
	}
	columns := make([]string, 0, len(rows.FieldDescriptions()))
	for _, fd := range rows.FieldDescriptions() {
		columns = append(columns, fd.Name)
	}
	return newRowCursor(id, columns, values), nil
}

// NextSequence returns max+1 over the stored values of a numeric field,
// starting from 1 on an empty layer. Non-numeric stored values count as 0.
func (s *PostgresFeatureStore) NextSequence(ctx context.Context, layer, field string) (int64, error) {
	query := fmt.Sprintf("SELECT COALESCE(MAX(%s::bigint), 0) + 1 FROM %s",
		sanitizeIdentifier(field), sanitizeIdentifier(layer))
	var next int64
	if err := s.pool.QueryRow(ctx, query).Scan(&next); err != nil {
		return 0, formkit.NewPersistenceError(formkit.ErrCodeNewRowIDFailed,
			"next counter value", err).WithLayer(layer)
	}
	return next, nil
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rowCursor is a detached, fully materialized one-row cursor.
type rowCursor struct {
	id      uuid.UUID
	index   map[string]int
	values  []any
	columns []string
	closed  bool
}

func newRowCursor(id uuid.UUID, columns []string, values []any) *rowCursor {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i
	}
	// The row is authoritative for its own id; the driver may hand it
	// back as raw bytes or text depending on the store.
	if idx, ok := index[colID]; ok && idx < len(values) {
		if rowID, parsed := toUUID(values[idx]); parsed {
			id = rowID
		}
	}
	return &rowCursor{id: id, index: index, values: values, columns: columns}
}

func (c *rowCursor) ColumnIndex(name string) int {
	idx, ok := c.index[name]
	if !ok {
		return -1
	}
	return idx
}

func (c *rowCursor) IsNull(idx int) bool {
	return idx < 0 || idx >= len(c.values) || c.values[idx] == nil
}

func (c *rowCursor) GetString(idx int) string {
	if c.IsNull(idx) {
		return ""
	}
	s, err := toString(c.values[idx])
	if err != nil {
		return ""
	}
	return s
}

func (c *rowCursor) GetInt(idx int) int { return int(c.GetLong(idx)) }

func (c *rowCursor) GetLong(idx int) int64 {
	if c.IsNull(idx) {
		return 0
	}
	if t, ok := c.values[idx].(time.Time); ok {
		return t.UnixMilli()
	}
	f, err := toFloat64(c.values[idx])
	if err != nil {
		return 0
	}
	return int64(f)
}

func (c *rowCursor) GetDouble(idx int) float64 {
	if c.IsNull(idx) {
		return 0
	}
	f, err := toFloat64(c.values[idx])
	if err != nil {
		return 0
	}
	return f
}

func (c *rowCursor) Geometry() (formkit.GeoPoint, bool) {
	latIdx := c.ColumnIndex(colGeomLat)
	lonIdx := c.ColumnIndex(colGeomLon)
	if c.IsNull(latIdx) || c.IsNull(lonIdx) {
		return formkit.GeoPoint{}, false
	}
	return formkit.GeoPoint{Lat: c.GetDouble(latIdx), Lon: c.GetDouble(lonIdx)}, true
}

func (c *rowCursor) FeatureID() uuid.UUID { return c.id }

func (c *rowCursor) Close() error {
	c.closed = true
	return nil
}

// NewFeaturePool builds a pgxpool from database config. With IAM auth
// enabled the password is a generated DSQL connect token.
func NewFeaturePool(ctx context.Context, cfg formkit.DatabaseConfig) (*pgxpool.Pool, error) {
	password := cfg.Password
	if cfg.UseIAMAuth {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		if cfg.Region != "" {
			awsCfg.Region = cfg.Region
		}
		if cfg.Username != "" && cfg.Password != "" {
			awsCfg.Credentials = awsCreds.NewStaticCredentialsProvider(cfg.Username, cfg.Password, "")
		}
		endpoint := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		token, err := auth.GenerateDbConnectAuthToken(ctx, endpoint, awsCfg.Region, awsCfg.Credentials)
		if err != nil {
			zap.S().Warnw("failed to generate IAM auth token, falling back to configured password", "err", err)
		} else if token != "" {
			password = token
			zap.S().Infow("generated IAM auth token for Postgres connection")
		}
	}

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, password, cfg.Database, cfg.SSLMode)
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConnections)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	return pgxpool.NewWithConfig(ctx, poolCfg)
}
