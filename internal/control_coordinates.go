package internal

import (
	"context"

	"github.com/meridian-gis/formkit"
)

type coordinateAxis int

const (
	axisLat coordinateAxis = iota
	axisLon
)

// coordinateControl binds one axis of the feature position to a real
// field. The builder splits a coordinates element into a lat control and
// a lon control. Values come from explicit geometry, the feature cursor,
// or the device location for new features.
type coordinateControl struct {
	baseControl

	label string
	axis  coordinateAxis
}

func (c *coordinateControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	attr := formkit.AttrFieldLat
	if c.axis == axisLon {
		attr = formkit.AttrFieldLon
	}
	v, ok, err := c.bindField(el, bind, attr)
	if err != nil {
		return err
	}
	c.label = bind.Translate(strAttr(el, formkit.AttrText, c.field.Alias))
	c.enabled = false
	if ok {
		c.value = v
		return nil
	}

	point := bind.Geometry
	if point == nil && bind.Cursor != nil {
		if pt, has := bind.Cursor.Geometry(); has {
			point = &pt
		}
	}
	if point == nil && bind.NewFeature && bind.Location != nil {
		if here, found := bind.Location.LastKnown(); found {
			point = &here
		}
	}
	if point == nil {
		return formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeGeometryUnavailable,
			"no position available for coordinates").WithElement(el.Type)
	}
	if c.axis == axisLat {
		c.value = point.Lat
	} else {
		c.value = point.Lon
	}
	return nil
}

func (c *coordinateControl) SetValue(any) error {
	return formkit.NewValueError(c.field.Name, "coordinate is not editable")
}

func (c *coordinateControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{
		Kind:     formkit.WidgetCoordinate,
		Label:    c.label,
		Field:    c.field.Name,
		ReadOnly: true,
	})
}
