package formkit

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// GeoPoint is a WGS84 point geometry.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// WKT renders the point as well-known text.
func (p GeoPoint) WKT() string {
	return fmt.Sprintf("POINT (%g %g)", p.Lon, p.Lat)
}

const earthRadiusMeters = 6371008.8

// DistanceTo returns the great-circle distance to another point, in meters.
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLon := (other.Lon - p.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// DoubleComboValue is the composite value produced by the two-level
// dependent combobox. One control writes two columns atomically.
type DoubleComboValue struct {
	FieldName    string `json:"field_name"`
	Value        string `json:"value"`
	SubFieldName string `json:"sub_field_name"`
	SubValue     string `json:"sub_value"`
}

// SessionState names the lifecycle states of one editing session.
type SessionState string

const (
	SessionStateBuilding   SessionState = "building"
	SessionStateReady      SessionState = "ready"
	SessionStateSaving     SessionState = "saving"
	SessionStateSaved      SessionState = "saved"
	SessionStateSaveFailed SessionState = "save_failed"
	SessionStateClosed     SessionState = "closed"
)

// SessionRequest describes one attribute-editing session to open.
// A zero FeatureID opens the form for a new, not-yet-persisted feature.
type SessionRequest struct {
	Layer        string            `json:"layer"`
	FeatureID    uuid.UUID         `json:"feature_id,omitempty"`
	Spec         *FormSpec         `json:"-"`
	SpecData     []byte            `json:"-"`                  // raw document, parsed when Spec is nil
	SavedState   InstanceState     `json:"-"`                  // reconfiguration state, nil for a fresh session
	Orientation  Orientation       `json:"orientation,omitempty"`
	ViewOnly     bool              `json:"view_only,omitempty"`
	Geometry     *GeoPoint         `json:"geometry,omitempty"` // explicit geometry override
	Translations map[string]string `json:"-"`
}

// NewFeature reports whether the request opens a not-yet-persisted feature.
func (r *SessionRequest) NewFeature() bool {
	return r.FeatureID == uuid.Nil
}
