package internal

import (
	"context"

	"github.com/meridian-gis/formkit"
)

// checkboxControl binds a boolean choice to an integer or string field.
// The stored representation follows the field type: 0/1 for integers,
// "true"/"false" for strings.
type checkboxControl struct {
	baseControl

	label   string
	checked bool
}

func (c *checkboxControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	v, ok, err := c.bindField(el, bind, formkit.AttrFieldName)
	if err != nil {
		return err
	}
	c.label = bind.Translate(strAttr(el, formkit.AttrText, c.field.Alias))
	if ok {
		if b, berr := toBool(v); berr == nil {
			c.checked = b
		}
	} else {
		c.checked = el.BoolAttr(formkit.AttrInitValue)
	}
	c.value = c.encode(c.checked)
	return nil
}

func (c *checkboxControl) encode(checked bool) any {
	switch c.field.Type {
	case formkit.FieldTypeInteger:
		if checked {
			return int64(1)
		}
		return int64(0)
	case formkit.FieldTypeReal:
		if checked {
			return float64(1)
		}
		return float64(0)
	default:
		if checked {
			return "true"
		}
		return "false"
	}
}

func (c *checkboxControl) Checked() bool { return c.checked }

func (c *checkboxControl) SetValue(value any) error {
	if !c.enabled {
		return formkit.NewValueError(c.field.Name, "control is disabled")
	}
	b, err := toBool(value)
	if err != nil {
		return formkit.NewConversionError(c.field.Name, err.Error())
	}
	c.checked = b
	c.value = c.encode(b)
	return nil
}

func (c *checkboxControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{
		Kind:     formkit.WidgetCheckbox,
		Label:    c.label,
		Field:    c.field.Name,
		ReadOnly: !c.enabled,
	})
}
