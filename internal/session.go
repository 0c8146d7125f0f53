package internal

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridian-gis/formkit"
)

// Session is the concrete FormSession. It owns the built control tree and
// drives the save lifecycle against the feature store. Sessions are single
// threaded by contract; the mutex only guards the state field against
// misuse from teardown paths.
type Session struct {
	mu sync.Mutex

	layer      string
	featureID  uuid.UUID
	newFeature bool
	state      formkit.SessionState
	layout     *formkit.Layout
	controls   []Control
	byField    map[string]Control
	fields     formkit.FieldMap

	store    formkit.FeatureStore
	prefs    formkit.PreferenceStore
	location formkit.LocationProvider
	geometry *formkit.GeoPoint
	viewOnly bool
}

func (s *Session) Controls() map[string]formkit.Control {
	out := make(map[string]formkit.Control, len(s.byField))
	for name, ctrl := range s.byField {
		out[name] = ctrl
	}
	return out
}

func (s *Session) Control(field string) (formkit.Control, bool) {
	ctrl, ok := s.byField[field]
	if !ok {
		return nil, false
	}
	return ctrl, true
}

func (s *Session) Layout() *formkit.Layout { return s.layout }

func (s *Session) FeatureID() uuid.UUID { return s.featureID }

func (s *Session) State() formkit.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state formkit.SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// HasEdits compares every bound control value against the persisted row
// using the stringified representation, so 42 and "42" in an integer
// field do not count as an edit. A null/non-null asymmetry counts,
// including a control cleared back to nil against a stored value.
// A not-yet-persisted feature always has edits.
func (s *Session) HasEdits(ctx context.Context) (bool, error) {
	if s.State() == formkit.SessionStateClosed {
		return false, formkit.NewSessionStateError("session is closed")
	}
	if s.newFeature {
		return true, nil
	}
	cursor, err := s.store.OpenFeature(ctx, s.layer, s.featureID)
	if err != nil {
		return false, formkit.NewPersistenceError(formkit.ErrCodeCursorFailed,
			"opening feature for edit detection failed", err).WithLayer(s.layer)
	}
	defer func() {
		if cerr := cursor.Close(); cerr != nil {
			zap.S().Warnw("closing edit detection cursor failed", "layer", s.layer, "error", cerr)
		}
	}()

	for _, ctrl := range s.controls {
		if ctrl.FieldName() == "" {
			continue
		}
		value := ctrl.Value()
		if combo, ok := value.(formkit.DoubleComboValue); ok {
			var sub any
			if combo.SubValue != "" {
				sub = combo.SubValue
			}
			if s.columnEdited(cursor, combo.FieldName, combo.Value) ||
				s.columnEdited(cursor, combo.SubFieldName, sub) {
				return true, nil
			}
			continue
		}
		if s.columnEdited(cursor, ctrl.FieldName(), value) {
			return true, nil
		}
	}
	return false, nil
}

// columnEdited compares one bound value against its stored column.
func (s *Session) columnEdited(cursor formkit.FeatureCursor, name string, value any) bool {
	field, ok := s.fields[name]
	if !ok {
		return false
	}
	idx := cursor.ColumnIndex(name)
	stored := FromCursor(cursor, idx, field.Type)
	if (value == nil) != (stored == nil) {
		return true
	}
	if value == nil {
		return false
	}
	return Stringify(field.Type, value) != Stringify(field.Type, stored)
}

// collectValues gathers the save payload from the field-bound controls.
// A double combobox expands into both of its columns; an empty sub value
// writes NULL so a stale sub column from an earlier top selection cannot
// survive the save. Other controls holding nil are left out of the
// payload, which keeps their stored columns untouched on update.
func (s *Session) collectValues() map[string]any {
	values := make(map[string]any)
	for _, ctrl := range s.controls {
		if ctrl.FieldName() == "" {
			continue
		}
		value := ctrl.Value()
		if combo, ok := value.(formkit.DoubleComboValue); ok {
			values[combo.FieldName] = combo.Value
			if combo.SubValue != "" {
				values[combo.SubFieldName] = combo.SubValue
			} else {
				values[combo.SubFieldName] = nil
			}
			continue
		}
		if value == nil {
			zap.S().Warnw("control has no value, omitting from save",
				"layer", s.layer, "field", ctrl.FieldName())
			continue
		}
		values[ctrl.FieldName()] = value
	}
	return values
}

// Save writes the collected payload as one insert or update, then flushes
// attachment controls and persists remembered defaults. A failed save
// leaves every in-memory control value unchanged so the user can retry.
func (s *Session) Save(ctx context.Context) (uuid.UUID, error) {
	switch s.State() {
	case formkit.SessionStateClosed:
		return uuid.Nil, formkit.NewSessionStateError("session is closed")
	case formkit.SessionStateSaving:
		return uuid.Nil, formkit.NewSessionStateError("save already in progress")
	case formkit.SessionStateBuilding:
		return uuid.Nil, formkit.NewSessionStateError("session is still building")
	}
	if s.viewOnly {
		return uuid.Nil, formkit.NewSessionStateError("session is view only")
	}

	s.setState(formkit.SessionStateSaving)
	id, err := s.save(ctx)
	if err != nil {
		s.setState(formkit.SessionStateSaveFailed)
		EmitSaveResult(ctx, s.layer, "failed")
		return uuid.Nil, err
	}
	s.setState(formkit.SessionStateSaved)
	EmitSaveResult(ctx, s.layer, "saved")
	return id, nil
}

func (s *Session) save(ctx context.Context) (uuid.UUID, error) {
	values := s.collectValues()
	geom := s.saveGeometry()

	if s.newFeature {
		id, err := s.store.Insert(ctx, s.layer, values, geom)
		if err != nil {
			return uuid.Nil, s.wrapSaveErr(formkit.ErrCodeInsertFailed, "feature insert failed", err)
		}
		s.featureID = id
		s.newFeature = false
	} else {
		if err := s.store.Update(ctx, s.layer, s.featureID, values, geom); err != nil {
			return uuid.Nil, s.wrapSaveErr(formkit.ErrCodeUpdateFailed, "feature update failed", err)
		}
	}

	for _, ctrl := range s.controls {
		if flusher, ok := ctrl.(Flusher); ok {
			if err := flusher.Flush(ctx, s.featureID); err != nil {
				return uuid.Nil, err
			}
		}
	}

	// Remembered defaults are best effort; a preference write failure
	// never fails the save.
	for _, ctrl := range s.controls {
		if !ctrl.ShowLast() {
			continue
		}
		if err := ctrl.SaveLastValue(s.prefs); err != nil {
			zap.S().Warnw("persisting remembered default failed",
				"layer", s.layer, "field", ctrl.FieldName(), "error", err)
		}
	}
	return s.featureID, nil
}

// saveGeometry picks the geometry for the row write: an explicit request
// geometry wins; a new feature falls back to the device location; an
// update without either leaves the stored geometry unchanged.
func (s *Session) saveGeometry() *formkit.GeoPoint {
	if s.geometry != nil {
		return s.geometry
	}
	if s.newFeature && s.location != nil {
		if here, ok := s.location.LastKnown(); ok {
			return &here
		}
	}
	return nil
}

func (s *Session) wrapSaveErr(code, message string, err error) error {
	if formkit.IsPersistenceError(err) || formkit.IsNotFoundError(err) {
		return err
	}
	return formkit.NewPersistenceError(code, message, err).WithLayer(s.layer)
}

// SaveState writes every control's state into the bundle, including
// non-field controls with pending attachment payloads.
func (s *Session) SaveState(state formkit.InstanceState) {
	for _, ctrl := range s.controls {
		ctrl.SaveState(state)
	}
}

func (s *Session) Close() error {
	s.setState(formkit.SessionStateClosed)
	return nil
}
