package internal

import (
	"context"
	"strconv"

	"github.com/meridian-gis/formkit"
)

// counterControl auto-numbers new features. The numeric part follows the
// layer's current maximum; optional prefix and suffix are applied when the
// bound field is a string. Counters are not user editable.
type counterControl struct {
	baseControl

	label  string
	prefix string
	suffix string
}

func (c *counterControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	v, ok, err := c.bindField(el, bind, formkit.AttrFieldName)
	if err != nil {
		return err
	}
	c.label = bind.Translate(strAttr(el, formkit.AttrText, c.field.Alias))
	c.enabled = false

	c.prefix, err = c.affix(ctx, el, bind, formkit.AttrPrefix, formkit.AttrPrefixFromList)
	if err != nil {
		return err
	}
	c.suffix, err = c.affix(ctx, el, bind, formkit.AttrSuffix, formkit.AttrSuffixFromList)
	if err != nil {
		return err
	}

	if ok {
		c.value = v
		return nil
	}
	if !bind.NewFeature || bind.Store == nil {
		return nil
	}

	seq, err := bind.Store.NextSequence(ctx, bind.Layer, c.field.Name)
	if err != nil {
		return formkit.NewElementBindError(el.Type, "counter sequence failed").
			WithField(c.field.Name).WithCause(err)
	}
	initValue := int64(el.IntAttr(formkit.AttrInitValue, 1))
	increment := int64(el.IntAttr(formkit.AttrIncrement, 1))
	if increment < 1 {
		increment = 1
	}
	next := initValue + (seq-1)*increment
	if c.field.Type == formkit.FieldTypeString {
		c.value = c.prefix + strconv.FormatInt(next, 10) + c.suffix
	} else {
		c.value = next
	}
	return nil
}

// affix resolves a literal affix attribute, or the default item of a
// lookup table when the _from_list variant is present.
func (c *counterControl) affix(ctx context.Context, el *formkit.FormElement, bind *BindContext, literalAttr, listAttr string) (string, error) {
	if table := strAttr(el, listAttr, ""); table != "" {
		if bind.Lookup == nil {
			return "", formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeLookupTableNotFound,
				"no lookup provider configured for table '"+table+"'").WithElement(el.Type)
		}
		items, err := bind.Lookup.Lookup(ctx, table)
		if err != nil {
			return "", formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeLookupTableNotFound,
				"lookup table '"+table+"' failed").WithElement(el.Type).WithCause(err)
		}
		if item, found := defaultChoice(items); found {
			return item.Name, nil
		}
		if len(items) > 0 {
			return items[0].Name, nil
		}
		return "", nil
	}
	return strAttr(el, literalAttr, ""), nil
}

func (c *counterControl) SetValue(any) error {
	return formkit.NewValueError(c.field.Name, "counter is not editable")
}

func (c *counterControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{
		Kind:     formkit.WidgetCounter,
		Label:    c.label,
		Field:    c.field.Name,
		ReadOnly: true,
	})
}
