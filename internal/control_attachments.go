package internal

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridian-gis/formkit"
)

const signatureName = "signature.png"

// signatureControl captures a drawn signature as a PNG attachment. The
// blob is held in memory until the feature row is written, then flushed
// to the attachment store.
type signatureControl struct {
	label   string
	layer   string
	store   formkit.AttachmentStore
	pending []byte
	exists  bool
	enabled bool
}

func (c *signatureControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	c.label = bind.Translate(strAttr(el, formkit.AttrText, ""))
	c.layer = bind.Layer
	c.store = bind.Attachments
	c.enabled = !bind.ViewOnly
	if c.store == nil {
		return formkit.NewElementBindError(el.Type, "no attachment store configured")
	}
	if !bind.NewFeature {
		names, err := c.store.List(ctx, bind.Layer, bind.FeatureID)
		if err == nil {
			for _, name := range names {
				if name == signatureName {
					c.exists = true
					break
				}
			}
		}
	}
	if bind.State != nil {
		if raw, ok := bind.State.Get(stateKeySignature); ok {
			if data, isBytes := raw.([]byte); isBytes {
				c.pending = data
			}
		}
	}
	return nil
}

func (c *signatureControl) FieldName() string { return "" }

func (c *signatureControl) Value() any {
	if c.pending != nil {
		return c.pending
	}
	if c.exists {
		return signatureName
	}
	return nil
}

// SetValue accepts PNG bytes; nil clears a pending signature.
func (c *signatureControl) SetValue(value any) error {
	if !c.enabled {
		return formkit.NewValueError("", "signature control is disabled")
	}
	if value == nil {
		c.pending = nil
		return nil
	}
	data, ok := value.([]byte)
	if !ok {
		return formkit.NewValueError("", fmt.Sprintf("signature expects PNG bytes, got %T", value))
	}
	c.pending = data
	return nil
}

func (c *signatureControl) Enabled() bool                               { return c.enabled }
func (c *signatureControl) SetEnabled(on bool)                          { c.enabled = on }
func (c *signatureControl) ShowLast() bool                              { return false }
func (c *signatureControl) SaveLastValue(formkit.PreferenceStore) error { return nil }

func (c *signatureControl) SaveState(state formkit.InstanceState) {
	if c.pending != nil {
		state.Put(stateKeySignature, c.pending)
	}
}

func (c *signatureControl) Flush(ctx context.Context, featureID uuid.UUID) error {
	if c.pending == nil {
		return nil
	}
	err := c.store.Put(ctx, c.layer, featureID, signatureName, "image/png", bytes.NewReader(c.pending))
	if err != nil {
		return formkit.NewPersistenceError(formkit.ErrCodeAttachmentFailed, "signature upload failed", err).
			WithLayer(c.layer)
	}
	c.pending = nil
	c.exists = true
	return nil
}

func (c *signatureControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{
		Kind:     formkit.WidgetSignature,
		Label:    c.label,
		ReadOnly: !c.enabled,
	})
}

// photoControl manages a bounded gallery of JPEG attachments. New photos
// queue in memory and flush after the row write; existing attachment
// names are listed at bind time so the gallery can render them.
type photoControl struct {
	label    string
	layer    string
	store    formkit.AttachmentStore
	maxCount int
	existing []string
	pending  map[string][]byte
	removed  []string
	enabled  bool
}

func (c *photoControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	c.label = bind.Translate(strAttr(el, formkit.AttrText, ""))
	c.layer = bind.Layer
	c.store = bind.Attachments
	c.enabled = !bind.ViewOnly
	c.maxCount = el.IntAttr(formkit.AttrGalleryMax, 0)
	c.pending = make(map[string][]byte)
	if c.store == nil {
		return formkit.NewElementBindError(el.Type, "no attachment store configured")
	}
	if !bind.NewFeature {
		names, err := c.store.List(ctx, bind.Layer, bind.FeatureID)
		if err != nil {
			return formkit.NewElementBindError(el.Type, "listing attachments failed").WithCause(err)
		}
		for _, name := range names {
			if name != signatureName {
				c.existing = append(c.existing, name)
			}
		}
	}
	if bind.State != nil {
		if raw, ok := bind.State.Get(stateKeyPhotos); ok {
			if queued, isMap := raw.(map[string][]byte); isMap {
				for name, data := range queued {
					c.pending[name] = data
				}
			}
		}
	}
	return nil
}

func (c *photoControl) FieldName() string { return "" }

// Value returns the gallery contents as attachment names, existing first.
func (c *photoControl) Value() any {
	names := make([]string, 0, len(c.existing)+len(c.pending))
	names = append(names, c.existing...)
	for name := range c.pending {
		names = append(names, name)
	}
	return names
}

// SetValue adds a photo. It accepts JPEG bytes, which are named
// photo_<n>.jpg, or clears all pending photos when nil.
func (c *photoControl) SetValue(value any) error {
	if !c.enabled {
		return formkit.NewValueError("", "photo control is disabled")
	}
	if value == nil {
		c.pending = make(map[string][]byte)
		return nil
	}
	data, ok := value.([]byte)
	if !ok {
		return formkit.NewValueError("", fmt.Sprintf("photo expects JPEG bytes, got %T", value))
	}
	if c.maxCount > 0 && len(c.existing)+len(c.pending) >= c.maxCount {
		return formkit.NewValueError("", fmt.Sprintf("gallery is full (%d photos)", c.maxCount))
	}
	c.pending[c.nextName()] = data
	return nil
}

func (c *photoControl) nextName() string {
	n := len(c.existing) + len(c.pending) + 1
	for {
		name := fmt.Sprintf("photo_%d.jpg", n)
		if _, clash := c.pending[name]; !clash && !contains(c.existing, name) {
			return name
		}
		n++
	}
}

// Remove marks an existing photo for deletion at save time.
func (c *photoControl) Remove(name string) error {
	if !c.enabled {
		return formkit.NewValueError("", "photo control is disabled")
	}
	if _, ok := c.pending[name]; ok {
		delete(c.pending, name)
		return nil
	}
	if !contains(c.existing, name) {
		return formkit.NewValueError("", "no photo named '"+name+"'")
	}
	kept := c.existing[:0]
	for _, existing := range c.existing {
		if existing != name {
			kept = append(kept, existing)
		}
	}
	c.existing = kept
	c.removed = append(c.removed, name)
	return nil
}

func (c *photoControl) Enabled() bool                               { return c.enabled }
func (c *photoControl) SetEnabled(on bool)                          { c.enabled = on }
func (c *photoControl) ShowLast() bool                              { return false }
func (c *photoControl) SaveLastValue(formkit.PreferenceStore) error { return nil }

func (c *photoControl) SaveState(state formkit.InstanceState) {
	if len(c.pending) > 0 {
		state.Put(stateKeyPhotos, c.pending)
	}
}

func (c *photoControl) Flush(ctx context.Context, featureID uuid.UUID) error {
	for _, name := range c.removed {
		if err := c.store.Delete(ctx, c.layer, featureID, name); err != nil {
			return formkit.NewPersistenceError(formkit.ErrCodeAttachmentFailed, "photo delete failed", err).
				WithLayer(c.layer).WithDetail("name", name)
		}
	}
	c.removed = nil
	for name, data := range c.pending {
		err := c.store.Put(ctx, c.layer, featureID, name, "image/jpeg", bytes.NewReader(data))
		if err != nil {
			return formkit.NewPersistenceError(formkit.ErrCodeAttachmentFailed, "photo upload failed", err).
				WithLayer(c.layer).WithDetail("name", name)
		}
		c.existing = append(c.existing, name)
		delete(c.pending, name)
	}
	return nil
}

func (c *photoControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{
		Kind:     formkit.WidgetGallery,
		Label:    c.label,
		ReadOnly: !c.enabled,
	})
}

// State keys for values that live outside schema fields.
const (
	stateKeySignature = "__signature"
	stateKeyPhotos    = "__photos"
)

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
