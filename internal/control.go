package internal

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridian-gis/formkit"
)

// Control is the internal contract all element controls implement. It
// extends the public surface with Init, which binds the control to a form
// element and its data sources. Init returning an error causes the builder
// to skip the element.
type Control interface {
	formkit.Control

	Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error
}

// Flusher is implemented by controls whose value lives outside the feature
// row (signatures, photos). Flush runs after the row write, once the
// feature id is known.
type Flusher interface {
	Flush(ctx context.Context, featureID uuid.UUID) error
}

// BindContext carries everything a control may need while binding: the
// layer schema, the value precedence sources and the collaborator services.
type BindContext struct {
	Layer        string
	Fields       formkit.FieldMap
	State        formkit.InstanceState
	Cursor       formkit.FeatureCursor
	Store        formkit.FeatureStore
	Attachments  formkit.AttachmentStore
	Prefs        formkit.PreferenceStore
	Lookup       formkit.LookupProvider
	Location     formkit.LocationProvider
	Geometry     *formkit.GeoPoint
	FeatureID    uuid.UUID
	NewFeature   bool
	ViewOnly     bool
	Orientation  formkit.Orientation
	Translations map[string]string
	MaxStringLen int

	// Builder lets container controls build nested element lists.
	Builder *Builder
}

// Translate maps an element caption through the request translations,
// falling back to the raw text.
func (b *BindContext) Translate(text string) string {
	if b.Translations == nil {
		return text
	}
	if t, ok := b.Translations[text]; ok {
		return t
	}
	return text
}

// Field resolves the schema field named by the element attribute, or an
// ElementBindError when the field is absent from the layer schema.
func (b *BindContext) Field(el *formkit.FormElement, attr string) (formkit.Field, error) {
	name := strAttr(el, attr, "")
	if name == "" {
		return formkit.Field{}, formkit.NewRequiredAttrError(el.Type, attr)
	}
	field, ok := b.Fields[name]
	if !ok {
		return formkit.Field{}, formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeFieldNotInSchema,
			"field '"+name+"' is not in the layer schema").WithField(name).WithElement(el.Type)
	}
	return field, nil
}

// baseControl implements the bookkeeping shared by every field-bound
// control: field binding, value holding, enablement and last-value
// persistence.
type baseControl struct {
	field    formkit.Field
	layer    string
	value    any
	enabled  bool
	showLast bool
}

func (c *baseControl) FieldName() string { return c.field.Name }

func (c *baseControl) Value() any { return c.value }

func (c *baseControl) Enabled() bool { return c.enabled }

func (c *baseControl) SetEnabled(enabled bool) { c.enabled = enabled }

func (c *baseControl) ShowLast() bool { return c.showLast }

func (c *baseControl) SaveState(state formkit.InstanceState) {
	if c.field.Name == "" {
		return
	}
	state.Put(c.field.Name, c.value)
}

func (c *baseControl) SaveLastValue(prefs formkit.PreferenceStore) error {
	if !c.showLast || prefs == nil || c.field.Name == "" {
		return nil
	}
	return prefs.PutString(lastValueLayer(c.layer, c.field.Name), lastValueKey, Stringify(c.field.Type, c.value))
}

// resolveInitial applies the value precedence when a control binds:
// saved instance state first, then the feature cursor, then the
// remembered last value (new features only, when enabled), then the
// element default. The returned flag reports whether any source supplied
// a value.
func (c *baseControl) resolveInitial(el *formkit.FormElement, bind *BindContext) (any, bool) {
	if bind.State != nil && bind.State.Has(c.field.Name) {
		raw, _ := bind.State.Get(c.field.Name)
		if v, err := Coerce(c.field.Type, raw); err == nil {
			return v, true
		}
		zap.S().Warnw("saved state value not coercible, falling back",
			"field", c.field.Name, "type", c.field.Type)
	}
	if bind.Cursor != nil {
		if idx := bind.Cursor.ColumnIndex(c.field.Name); idx >= 0 && !bind.Cursor.IsNull(idx) {
			return FromCursor(bind.Cursor, idx, c.field.Type), true
		}
	}
	if c.showLast && bind.NewFeature && bind.Prefs != nil {
		if text, ok := bind.Prefs.GetString(lastValueLayer(bind.Layer, c.field.Name), lastValueKey); ok {
			if v, perr := ParseString(c.field.Type, text); perr == nil && v != nil {
				return v, true
			}
		}
	}
	return nil, false
}

// bindField performs the common Init steps: resolve the schema field, read
// the last-value flag and seed the initial value. Callers supply the
// element attribute naming the field.
func (c *baseControl) bindField(el *formkit.FormElement, bind *BindContext, attr string) (any, bool, error) {
	field, err := bind.Field(el, attr)
	if err != nil {
		return nil, false, err
	}
	c.field = field
	c.layer = bind.Layer
	c.enabled = !bind.ViewOnly
	c.showLast = el.BoolAttr(formkit.AttrLast)
	v, ok := c.resolveInitial(el, bind)
	return v, ok, nil
}

// Last-value preferences are keyed per layer and field, so two layers
// sharing a field name remember independent values.
const lastValueKey = "last_value"

func lastValueLayer(layer, field string) string { return layer + ":field:" + field }

// strAttr reads a string attribute with a fallback default.
func strAttr(el *formkit.FormElement, key, def string) string {
	if v, ok := el.StringAttr(key); ok {
		return v
	}
	return def
}
