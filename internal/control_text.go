package internal

import (
	"context"

	"github.com/meridian-gis/formkit"
)

// textControl handles the text_edit element: free text or, with
// only_figures set, numeric input. Input longer than the configured
// maximum is rejected, not truncated.
type textControl struct {
	baseControl

	label       string
	figuresOnly bool
	maxLen      int
}

func (c *textControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	v, ok, err := c.bindField(el, bind, formkit.AttrFieldName)
	if err != nil {
		return err
	}
	c.label = bind.Translate(strAttr(el, formkit.AttrText, c.field.Alias))
	c.figuresOnly = el.BoolAttr(formkit.AttrOnlyFigures)
	c.maxLen = el.IntAttr(formkit.AttrMaxStringCount, bind.MaxStringLen)
	if ok {
		c.value = v
	} else if text := strAttr(el, formkit.AttrText, ""); text != "" && c.field.Type != formkit.FieldTypeString {
		// A non-string default in the text attribute is parsed, not copied.
		if parsed, perr := ParseString(c.field.Type, text); perr == nil {
			c.value = parsed
		}
	} else if text != "" {
		c.value = text
	}
	return nil
}

func (c *textControl) SetValue(value any) error {
	if !c.enabled {
		return formkit.NewValueError(c.field.Name, "control is disabled")
	}
	text, err := toString(value)
	if err != nil {
		return formkit.NewConversionError(c.field.Name, err.Error())
	}
	if c.maxLen > 0 && len([]rune(text)) > c.maxLen {
		return formkit.NewValueError(c.field.Name, "value exceeds maximum length")
	}
	target := c.field.Type
	if c.figuresOnly && target == formkit.FieldTypeString {
		// Numeric-only text still stores as string but must parse.
		if _, perr := ParseString(formkit.FieldTypeReal, text); perr != nil && text != "" {
			return formkit.NewValueError(c.field.Name, "value must be numeric")
		}
	}
	parsed, err := ParseString(target, text)
	if err != nil {
		return formkit.NewConversionError(c.field.Name, err.Error())
	}
	c.value = parsed
	return nil
}

func (c *textControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{
		Kind:     formkit.WidgetText,
		Label:    c.label,
		Field:    c.field.Name,
		ReadOnly: !c.enabled,
	})
}
