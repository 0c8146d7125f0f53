package formkit

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// FeatureCursor is a positioned read-only handle on one feature row.
// Its lifetime is owned by the top-level form build call, never by
// individual controls.
type FeatureCursor interface {
	// ColumnIndex returns the index of a column by name, -1 when absent.
	ColumnIndex(name string) int
	// IsNull reports whether the column at idx holds no value.
	IsNull(idx int) bool
	GetString(idx int) string
	GetInt(idx int) int
	GetLong(idx int) int64
	GetDouble(idx int) float64
	// Geometry returns the feature's point geometry when present.
	Geometry() (GeoPoint, bool)
	// FeatureID returns the row identifier of the feature.
	FeatureID() uuid.UUID
	Close() error
}

// FeatureStore is the persistence sink for feature rows. Each save is a
// single round trip; the engine assumes no multi-row transactionality
// beyond what one insert or update call provides.
type FeatureStore interface {
	// Insert writes a new feature row and returns its assigned identifier.
	Insert(ctx context.Context, layer string, values map[string]any, geom *GeoPoint) (uuid.UUID, error)
	// Update rewrites the named columns of an existing feature row.
	// A nil geom leaves the stored geometry unchanged.
	Update(ctx context.Context, layer string, id uuid.UUID, values map[string]any, geom *GeoPoint) error
	// OpenFeature positions a cursor on one feature row.
	OpenFeature(ctx context.Context, layer string, id uuid.UUID) (FeatureCursor, error)
	// NextSequence returns the next counter value for a field, max+1 over
	// the stored rows, starting at 1 on an empty layer.
	NextSequence(ctx context.Context, layer, field string) (int64, error)
}

// AttachmentStore persists feature attachment blobs (photos, signatures)
// keyed by layer, feature id, and attachment name.
type AttachmentStore interface {
	Put(ctx context.Context, layer string, feature uuid.UUID, name, contentType string, body io.Reader) error
	Open(ctx context.Context, layer string, feature uuid.UUID, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, layer string, feature uuid.UUID, name string) error
	List(ctx context.Context, layer string, feature uuid.UUID) ([]string, error)
}

// PreferenceStore is a simple typed key/value store scoped per layer,
// used for "remember last value" defaults.
type PreferenceStore interface {
	GetString(layer, key string) (string, bool)
	PutString(layer, key, value string) error
	GetInt64(layer, key string) (int64, bool)
	PutInt64(layer, key string, value int64) error
	GetBool(layer, key string) (bool, bool)
	PutBool(layer, key string, value bool) error
	Close() error
}

// LookupProvider resolves external lookup tables referenced by combobox and
// counter elements.
type LookupProvider interface {
	Lookup(ctx context.Context, table string) ([]ChoiceItem, error)
}

// LocationProvider reports the device's last known location. The sampling
// loop itself lives outside the engine.
type LocationProvider interface {
	LastKnown() (GeoPoint, bool)
}

// NoLocation is a LocationProvider with no fix.
type NoLocation struct{}

// LastKnown always reports no fix.
func (NoLocation) LastKnown() (GeoPoint, bool) { return GeoPoint{}, false }

// FixedLocation is a LocationProvider pinned to one point.
type FixedLocation GeoPoint

// LastKnown reports the pinned point.
func (l FixedLocation) LastKnown() (GeoPoint, bool) { return GeoPoint(l), true }
