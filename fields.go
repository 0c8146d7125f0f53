package formkit

import (
	"context"
	"strings"
)

// FieldType represents supported layer field value types.
type FieldType string

const (
	FieldTypeString      FieldType = "string"
	FieldTypeInteger     FieldType = "integer"
	FieldTypeReal        FieldType = "real"
	FieldTypeDate        FieldType = "date"
	FieldTypeTime        FieldType = "time"
	FieldTypeDateTime    FieldType = "datetime"
	FieldTypeBinary      FieldType = "binary"
	FieldTypeStringList  FieldType = "string_list"
	FieldTypeIntegerList FieldType = "integer_list"
	FieldTypeRealList    FieldType = "real_list"
)

// IsTemporal reports whether the field type carries a date and/or time value.
func (t FieldType) IsTemporal() bool {
	switch t {
	case FieldTypeDate, FieldTypeTime, FieldTypeDateTime:
		return true
	}
	return false
}

// IsList reports whether the field type is a list type.
func (t FieldType) IsList() bool {
	return strings.HasSuffix(string(t), "_list")
}

// ParseFieldType normalizes a field type string to a FieldType.
func ParseFieldType(s string) (FieldType, bool) {
	switch FieldType(strings.ToLower(strings.TrimSpace(s))) {
	case FieldTypeString:
		return FieldTypeString, true
	case FieldTypeInteger:
		return FieldTypeInteger, true
	case FieldTypeReal:
		return FieldTypeReal, true
	case FieldTypeDate:
		return FieldTypeDate, true
	case FieldTypeTime:
		return FieldTypeTime, true
	case FieldTypeDateTime:
		return FieldTypeDateTime, true
	case FieldTypeBinary:
		return FieldTypeBinary, true
	case FieldTypeStringList:
		return FieldTypeStringList, true
	case FieldTypeIntegerList:
		return FieldTypeIntegerList, true
	case FieldTypeRealList:
		return FieldTypeRealList, true
	}
	return "", false
}

// Field describes one column of a vector layer's attribute table.
// Fields are immutable and supplied externally per layer.
type Field struct {
	Name  string    `json:"name"`
	Alias string    `json:"alias"`
	Type  FieldType `json:"type"`
}

// FieldMap indexes fields by name. Lookup misses return a zero Field.
type FieldMap map[string]Field

// NewFieldMap builds a FieldMap from an ordered field list.
func NewFieldMap(fields []Field) FieldMap {
	m := make(FieldMap, len(fields))
	for _, f := range fields {
		m[f.Name] = f
	}
	return m
}

// SchemaProvider supplies ordered field definitions for a layer.
// Implementations can load field schemas from files, databases, or other sources.
type SchemaProvider interface {
	// GetFields returns the ordered field definitions of the layer's feature table.
	GetFields(ctx context.Context, layer string) ([]Field, error)
	// ListLayers returns the names of all layers the provider knows about.
	ListLayers() []string
}
