package formkit

import (
	"context"

	"github.com/google/uuid"
)

// Control is one bound, renderable input unit mapped to zero or one layer
// field. A control with a non-empty field name produces a value whose type
// matches the field's declared type, or nil when no usable value exists.
type Control interface {
	// FieldName returns the bound field name, empty for non-data controls.
	FieldName() string
	// Value returns the control's current typed value, nil when unusable.
	Value() any
	// SetValue applies a user edit to the control.
	SetValue(value any) error
	Enabled() bool
	SetEnabled(enabled bool)
	// ShowLast reports whether the control opted into remembered defaults.
	ShowLast() bool
	// SaveState writes the control's value into the saved-state bundle.
	SaveState(state InstanceState)
	// SaveLastValue persists the current value as the remembered default
	// for the next new-feature session. Only meaningful when ShowLast.
	SaveLastValue(prefs PreferenceStore) error
	// Attach appends the control's widgets to the layout. Side effect only.
	Attach(layout *Layout)
}

// FormSession orchestrates one attribute-editing session over a built
// control tree. Sessions are single threaded and owned by one host screen.
type FormSession interface {
	// Controls returns the live control set keyed by field name.
	Controls() map[string]Control
	// Control returns one bound control by field name.
	Control(field string) (Control, bool)
	// Layout returns the session's attached widget tree.
	Layout() *Layout
	// FeatureID returns the edited feature's identifier, zero until a new
	// feature is first saved.
	FeatureID() uuid.UUID
	// HasEdits reports whether any bound value differs from the persisted
	// row. Always true for a not-yet-persisted feature.
	HasEdits(ctx context.Context) (bool, error)
	// Save collects control values into a key/value map and writes the
	// feature row. Returns the feature identifier, newly assigned for
	// inserts. A failed save leaves the in-memory form state unchanged.
	Save(ctx context.Context) (uuid.UUID, error)
	// SaveState writes every control's state into the bundle for
	// reconfiguration of the host screen.
	SaveState(state InstanceState)
	State() SessionState
	// Close tears the session down. Closed is terminal.
	Close() error
}

// FormEngine builds editing sessions from form specifications.
type FormEngine interface {
	NewSession(ctx context.Context, req *SessionRequest) (FormSession, error)
}
