package internal

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/meridian-gis/formkit"
)

// In-memory fixtures shared by builder and session tests.

type memCursor struct {
	id      uuid.UUID
	columns []string
	values  []any
	geom    *formkit.GeoPoint
	closed  bool
}

func newMemCursor(id uuid.UUID, row map[string]any) *memCursor {
	c := &memCursor{id: id}
	for name, value := range row {
		c.columns = append(c.columns, name)
		c.values = append(c.values, value)
	}
	return c
}

func (c *memCursor) ColumnIndex(name string) int {
	for i, col := range c.columns {
		if col == name {
			return i
		}
	}
	return -1
}

func (c *memCursor) IsNull(idx int) bool {
	return idx < 0 || idx >= len(c.values) || c.values[idx] == nil
}

func (c *memCursor) GetString(idx int) string {
	if c.IsNull(idx) {
		return ""
	}
	s, _ := toString(c.values[idx])
	return s
}

func (c *memCursor) GetInt(idx int) int { return int(c.GetLong(idx)) }

func (c *memCursor) GetLong(idx int) int64 {
	if c.IsNull(idx) {
		return 0
	}
	f, _ := toFloat64(c.values[idx])
	return int64(f)
}

func (c *memCursor) GetDouble(idx int) float64 {
	if c.IsNull(idx) {
		return 0
	}
	f, _ := toFloat64(c.values[idx])
	return f
}

func (c *memCursor) Geometry() (formkit.GeoPoint, bool) {
	if c.geom == nil {
		return formkit.GeoPoint{}, false
	}
	return *c.geom, true
}

func (c *memCursor) FeatureID() uuid.UUID { return c.id }

func (c *memCursor) Close() error {
	c.closed = true
	return nil
}

// memStore is an in-memory FeatureStore with switchable failure modes.
type memStore struct {
	rows       map[uuid.UUID]map[string]any
	geoms      map[uuid.UUID]*formkit.GeoPoint
	cursors    []*memCursor
	failInsert error
	failUpdate error
	failOpen   error
	nextSeq    int64
	inserted   int
	updated    int
}

func newMemStore() *memStore {
	return &memStore{
		rows:    make(map[uuid.UUID]map[string]any),
		geoms:   make(map[uuid.UUID]*formkit.GeoPoint),
		nextSeq: 1,
	}
}

func (s *memStore) Insert(ctx context.Context, layer string, values map[string]any, geom *formkit.GeoPoint) (uuid.UUID, error) {
	if s.failInsert != nil {
		return uuid.Nil, s.failInsert
	}
	id := uuid.Must(uuid.NewV7())
	row := make(map[string]any, len(values))
	for k, v := range values {
		row[k] = v
	}
	s.rows[id] = row
	s.geoms[id] = geom
	s.inserted++
	return id, nil
}

func (s *memStore) Update(ctx context.Context, layer string, id uuid.UUID, values map[string]any, geom *formkit.GeoPoint) error {
	if s.failUpdate != nil {
		return s.failUpdate
	}
	row, ok := s.rows[id]
	if !ok {
		return formkit.NewFeatureNotFoundError(layer, id.String())
	}
	for k, v := range values {
		row[k] = v
	}
	if geom != nil {
		s.geoms[id] = geom
	}
	s.updated++
	return nil
}

func (s *memStore) OpenFeature(ctx context.Context, layer string, id uuid.UUID) (formkit.FeatureCursor, error) {
	if s.failOpen != nil {
		return nil, s.failOpen
	}
	row, ok := s.rows[id]
	if !ok {
		return nil, formkit.NewFeatureNotFoundError(layer, id.String())
	}
	cursor := newMemCursor(id, row)
	cursor.geom = s.geoms[id]
	s.cursors = append(s.cursors, cursor)
	return cursor, nil
}

func (s *memStore) NextSequence(ctx context.Context, layer, field string) (int64, error) {
	return s.nextSeq, nil
}

func (s *memStore) allCursorsClosed() bool {
	for _, c := range s.cursors {
		if !c.closed {
			return false
		}
	}
	return true
}

// memPrefs is an in-memory PreferenceStore.
type memPrefs struct {
	strings map[string]string
	ints    map[string]int64
	bools   map[string]bool
	failPut error
}

func newMemPrefs() *memPrefs {
	return &memPrefs{
		strings: make(map[string]string),
		ints:    make(map[string]int64),
		bools:   make(map[string]bool),
	}
}

func prefKey(layer, key string) string { return layer + "\x00" + key }

func (p *memPrefs) GetString(layer, key string) (string, bool) {
	v, ok := p.strings[prefKey(layer, key)]
	return v, ok
}

func (p *memPrefs) PutString(layer, key, value string) error {
	if p.failPut != nil {
		return p.failPut
	}
	p.strings[prefKey(layer, key)] = value
	return nil
}

func (p *memPrefs) GetInt64(layer, key string) (int64, bool) {
	v, ok := p.ints[prefKey(layer, key)]
	return v, ok
}

func (p *memPrefs) PutInt64(layer, key string, value int64) error {
	if p.failPut != nil {
		return p.failPut
	}
	p.ints[prefKey(layer, key)] = value
	return nil
}

func (p *memPrefs) GetBool(layer, key string) (bool, bool) {
	v, ok := p.bools[prefKey(layer, key)]
	return v, ok
}

func (p *memPrefs) PutBool(layer, key string, value bool) error {
	if p.failPut != nil {
		return p.failPut
	}
	p.bools[prefKey(layer, key)] = value
	return nil
}

func (p *memPrefs) Close() error { return nil }

// memLookup serves fixed lookup tables.
type memLookup struct {
	tables map[string][]formkit.ChoiceItem
}

func (l *memLookup) Lookup(ctx context.Context, table string) ([]formkit.ChoiceItem, error) {
	items, ok := l.tables[table]
	if !ok {
		return nil, fmt.Errorf("no such table %q", table)
	}
	return items, nil
}

// memAttachments is an in-memory AttachmentStore.
type memAttachments struct {
	objects map[string][]byte
	failPut error
}

func newMemAttachments() *memAttachments {
	return &memAttachments{objects: make(map[string][]byte)}
}

func attKey(layer string, feature uuid.UUID, name string) string {
	return layer + "/" + feature.String() + "/" + name
}

func (a *memAttachments) Put(ctx context.Context, layer string, feature uuid.UUID, name, contentType string, body io.Reader) error {
	if a.failPut != nil {
		return a.failPut
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	a.objects[attKey(layer, feature, name)] = data
	return nil
}

func (a *memAttachments) Open(ctx context.Context, layer string, feature uuid.UUID, name string) (io.ReadCloser, error) {
	data, ok := a.objects[attKey(layer, feature, name)]
	if !ok {
		return nil, fmt.Errorf("no such attachment %q", name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (a *memAttachments) Delete(ctx context.Context, layer string, feature uuid.UUID, name string) error {
	delete(a.objects, attKey(layer, feature, name))
	return nil
}

func (a *memAttachments) List(ctx context.Context, layer string, feature uuid.UUID) ([]string, error) {
	prefix := layer + "/" + feature.String() + "/"
	var names []string
	for key := range a.objects {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			names = append(names, key[len(prefix):])
		}
	}
	return names, nil
}

// testFieldList is the layer schema used across builder and session tests.
func testFieldList() []formkit.Field {
	return []formkit.Field{
		{Name: "name", Alias: "Name", Type: formkit.FieldTypeString},
		{Name: "species", Alias: "Species", Type: formkit.FieldTypeString},
		{Name: "subspecies", Alias: "Subspecies", Type: formkit.FieldTypeString},
		{Name: "height", Alias: "Height", Type: formkit.FieldTypeReal},
		{Name: "count", Alias: "Count", Type: formkit.FieldTypeInteger},
		{Name: "surveyed", Alias: "Surveyed at", Type: formkit.FieldTypeDateTime},
		{Name: "survey_date", Alias: "Survey date", Type: formkit.FieldTypeDate},
		{Name: "lat", Alias: "Latitude", Type: formkit.FieldTypeReal},
		{Name: "lon", Alias: "Longitude", Type: formkit.FieldTypeReal},
		{Name: "dist", Alias: "Distance", Type: formkit.FieldTypeReal},
		{Name: "seq", Alias: "Number", Type: formkit.FieldTypeString},
		{Name: "healthy", Alias: "Healthy", Type: formkit.FieldTypeInteger},
	}
}

func testFields() formkit.FieldMap {
	return formkit.NewFieldMap(testFieldList())
}

// memSchema serves the test schema for the "trees" layer only.
type memSchema struct{}

func (memSchema) GetFields(ctx context.Context, layer string) ([]formkit.Field, error) {
	if layer != "trees" {
		return nil, formkit.NewLayerNotFoundError(layer)
	}
	return testFieldList(), nil
}

func (memSchema) ListLayers() []string { return []string{"trees"} }

func testBind(fields formkit.FieldMap) *BindContext {
	return &BindContext{
		Layer:        "trees",
		Fields:       fields,
		Location:     formkit.NoLocation{},
		MaxStringLen: 255,
	}
}
