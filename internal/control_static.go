package internal

import (
	"context"

	"github.com/meridian-gis/formkit"
)

// labelControl renders static caption text. It binds no field and never
// contributes to the save payload.
type labelControl struct {
	text string
}

func (c *labelControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	c.text = bind.Translate(strAttr(el, formkit.AttrText, ""))
	return nil
}

func (c *labelControl) FieldName() string { return "" }
func (c *labelControl) Value() any        { return c.text }
func (c *labelControl) SetValue(any) error {
	return formkit.NewValueError("", "text label is read only")
}
func (c *labelControl) Enabled() bool                               { return false }
func (c *labelControl) SetEnabled(bool)                             {}
func (c *labelControl) ShowLast() bool                              { return false }
func (c *labelControl) SaveState(formkit.InstanceState)             {}
func (c *labelControl) SaveLastValue(formkit.PreferenceStore) error { return nil }

func (c *labelControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{Kind: formkit.WidgetLabel, Label: c.text})
}

// spaceControl is a vertical spacer.
type spaceControl struct{}

func (c *spaceControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	return nil
}

func (c *spaceControl) FieldName() string                           { return "" }
func (c *spaceControl) Value() any                                  { return nil }
func (c *spaceControl) SetValue(any) error                          { return formkit.NewValueError("", "space holds no value") }
func (c *spaceControl) Enabled() bool                               { return false }
func (c *spaceControl) SetEnabled(bool)                             {}
func (c *spaceControl) ShowLast() bool                              { return false }
func (c *spaceControl) SaveState(formkit.InstanceState)             {}
func (c *spaceControl) SaveLastValue(formkit.PreferenceStore) error { return nil }

func (c *spaceControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{Kind: formkit.WidgetSpace})
}
