package internal

import (
	"context"

	"github.com/meridian-gis/formkit"
)

// distanceControl records the distance in meters between the device
// location and the feature geometry. The value is computed at bind time
// and is not user editable.
type distanceControl struct {
	baseControl

	label string
}

func (c *distanceControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	v, ok, err := c.bindField(el, bind, formkit.AttrFieldName)
	if err != nil {
		return err
	}
	c.label = bind.Translate(strAttr(el, formkit.AttrText, c.field.Alias))
	c.enabled = false
	if ok {
		c.value = v
		return nil
	}
	if bind.Location == nil {
		return formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeLocationUnavailable,
			"no location provider configured").WithElement(el.Type)
	}
	here, found := bind.Location.LastKnown()
	if !found {
		return formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeLocationUnavailable,
			"device location unknown").WithElement(el.Type)
	}
	target := bind.Geometry
	if target == nil {
		if bind.Cursor != nil {
			if pt, has := bind.Cursor.Geometry(); has {
				target = &pt
			}
		}
	}
	if target == nil {
		// A new feature without geometry yet has nothing to measure.
		return nil
	}
	c.value = here.DistanceTo(*target)
	return nil
}

func (c *distanceControl) SetValue(any) error {
	return formkit.NewValueError(c.field.Name, "distance is not editable")
}

func (c *distanceControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{
		Kind:     formkit.WidgetDistance,
		Label:    c.label,
		Field:    c.field.Name,
		ReadOnly: true,
	})
}
