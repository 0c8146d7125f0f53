package internal

import (
	"context"
	"time"

	"github.com/meridian-gis/formkit"
)

// Date picker modes selected by the date_type attribute.
const (
	dateTypeDate     = 0
	dateTypeTime     = 1
	dateTypeDateTime = 2
)

// dateTimeControl binds a picker to a temporal field. Values are held as
// epoch milliseconds truncated to the precision of the picker mode.
type dateTimeControl struct {
	baseControl

	label    string
	pickType formkit.FieldType
}

func (c *dateTimeControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	v, ok, err := c.bindField(el, bind, formkit.AttrFieldName)
	if err != nil {
		return err
	}
	c.label = bind.Translate(strAttr(el, formkit.AttrText, c.field.Alias))
	c.pickType = c.pickerType(el)
	if ok {
		if epoch, cerr := toEpochMillis(c.pickType, v); cerr == nil {
			c.value = TruncateEpoch(c.pickType, epoch)
		}
		return nil
	}
	switch init := strAttr(el, formkit.AttrInitValue, ""); init {
	case "", "current":
		// Pickers default to now unless the element carries an explicit value.
		c.value = TruncateEpoch(c.pickType, time.Now().UnixMilli())
	default:
		epoch, perr := ParseTemporal(c.pickType, init)
		if perr != nil {
			return formkit.NewElementBindError(el.Type, "invalid init_value").WithCause(perr)
		}
		c.value = epoch
	}
	return nil
}

// pickerType maps the date_type attribute to a temporal field type,
// falling back to the bound field's own type.
func (c *dateTimeControl) pickerType(el *formkit.FormElement) formkit.FieldType {
	switch el.IntAttr(formkit.AttrDateType, -1) {
	case dateTypeDate:
		return formkit.FieldTypeDate
	case dateTypeTime:
		return formkit.FieldTypeTime
	case dateTypeDateTime:
		return formkit.FieldTypeDateTime
	}
	if c.field.Type.IsTemporal() {
		return c.field.Type
	}
	return formkit.FieldTypeDateTime
}

// SetValue accepts epoch milliseconds, a time.Time, or display-format
// text. The stored value is always truncated, so setting a control to
// its own formatted output is a no-op.
func (c *dateTimeControl) SetValue(value any) error {
	if !c.enabled {
		return formkit.NewValueError(c.field.Name, "control is disabled")
	}
	if value == nil {
		c.value = nil
		return nil
	}
	epoch, err := toEpochMillis(c.pickType, value)
	if err != nil {
		return formkit.NewConversionError(c.field.Name, err.Error())
	}
	c.value = TruncateEpoch(c.pickType, epoch)
	return nil
}

// Text renders the current value in the picker's display format.
func (c *dateTimeControl) Text() string {
	if c.value == nil {
		return ""
	}
	epoch, err := toEpochMillis(c.pickType, c.value)
	if err != nil {
		return ""
	}
	return FormatEpoch(c.pickType, epoch)
}

func (c *dateTimeControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{
		Kind:     formkit.WidgetDatePicker,
		Label:    c.label,
		Field:    c.field.Name,
		ReadOnly: !c.enabled,
	})
}
