package internal

import (
	"context"
	"strings"

	"github.com/meridian-gis/formkit"
)

// loadChoices resolves the option list for a choice element, either from
// the inline values attribute or from a lookup table.
func loadChoices(ctx context.Context, el *formkit.FormElement, bind *BindContext) ([]formkit.ChoiceItem, error) {
	if table := strAttr(el, formkit.AttrLookupTable, ""); table != "" {
		if bind.Lookup == nil {
			return nil, formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeLookupTableNotFound,
				"no lookup provider configured for table '"+table+"'").WithElement(el.Type)
		}
		items, err := bind.Lookup.Lookup(ctx, table)
		if err != nil {
			return nil, formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeLookupTableNotFound,
				"lookup table '"+table+"' failed").WithElement(el.Type).WithCause(err)
		}
		if len(items) == 0 {
			return nil, formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeChoiceListEmpty,
				"lookup table '"+table+"' is empty").WithElement(el.Type)
		}
		return items, nil
	}
	items := el.Choices()
	if len(items) == 0 {
		return nil, formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeChoiceListEmpty,
			"element '"+el.Type+"' has no choices").WithElement(el.Type)
	}
	return items, nil
}

// findChoice matches a stored value against the option list by name first,
// then by either alias.
func findChoice(items []formkit.ChoiceItem, value string) (formkit.ChoiceItem, bool) {
	for _, item := range items {
		if item.Name == value {
			return item, true
		}
	}
	for _, item := range items {
		if item.Alias == value || (item.Alias2 != "" && item.Alias2 == value) {
			return item, true
		}
	}
	return formkit.ChoiceItem{}, false
}

func defaultChoice(items []formkit.ChoiceItem) (formkit.ChoiceItem, bool) {
	for _, item := range items {
		if item.Default {
			return item, true
		}
	}
	return formkit.ChoiceItem{}, false
}

func choiceLabels(items []formkit.ChoiceItem) []string {
	labels := make([]string, 0, len(items))
	for _, item := range items {
		label := item.Alias
		if label == "" {
			label = item.Name
		}
		labels = append(labels, label)
	}
	return labels
}

// secondLanguageLabels prefers the alias2 column, falling back to the
// primary label when an item has no second-language alias.
func secondLanguageLabels(items []formkit.ChoiceItem) []string {
	labels := make([]string, 0, len(items))
	for _, item := range items {
		label := item.Alias2
		if label == "" {
			label = item.Alias
		}
		if label == "" {
			label = item.Name
		}
		labels = append(labels, label)
	}
	return labels
}

// radioGroupControl presents a fixed option list where exactly one item
// may be selected.
type radioGroupControl struct {
	baseControl

	label string
	items []formkit.ChoiceItem
}

func (c *radioGroupControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	v, ok, err := c.bindField(el, bind, formkit.AttrFieldName)
	if err != nil {
		return err
	}
	items, err := loadChoices(ctx, el, bind)
	if err != nil {
		return err
	}
	c.items = items
	c.label = bind.Translate(strAttr(el, formkit.AttrText, c.field.Alias))
	if ok {
		if item, found := findChoice(items, Stringify(c.field.Type, v)); found {
			c.value = c.storedValue(item)
			return nil
		}
	}
	if item, found := defaultChoice(items); found {
		c.value = c.storedValue(item)
	}
	return nil
}

func (c *radioGroupControl) storedValue(item formkit.ChoiceItem) any {
	if v, err := Coerce(c.field.Type, item.Name); err == nil {
		return v
	}
	return item.Name
}

func (c *radioGroupControl) SetValue(value any) error {
	if !c.enabled {
		return formkit.NewValueError(c.field.Name, "control is disabled")
	}
	text, err := toString(value)
	if err != nil {
		return formkit.NewConversionError(c.field.Name, err.Error())
	}
	item, found := findChoice(c.items, text)
	if !found {
		return formkit.NewValueError(c.field.Name, "'"+text+"' is not an option")
	}
	c.value = c.storedValue(item)
	return nil
}

func (c *radioGroupControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{
		Kind:     formkit.WidgetRadioGroup,
		Label:    c.label,
		Field:    c.field.Name,
		ReadOnly: !c.enabled,
		Options:  choiceLabels(c.items),
	})
}

// comboboxControl presents a dropdown list. split renders a second
// spinner over the same field using the items' alias2 labels, so both
// languages stay in sync through the one selection. allow_adding_values
// lets free text through in addition to the option list.
type comboboxControl struct {
	baseControl

	label      string
	items      []formkit.ChoiceItem
	allowAdded bool
	split      bool
}

func (c *comboboxControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	v, ok, err := c.bindField(el, bind, formkit.AttrFieldName)
	if err != nil {
		return err
	}
	items, err := loadChoices(ctx, el, bind)
	if err != nil {
		return err
	}
	c.items = items
	c.label = bind.Translate(strAttr(el, formkit.AttrText, c.field.Alias))
	c.allowAdded = el.BoolAttr(formkit.AttrAllowNew)
	if ok {
		text := Stringify(c.field.Type, v)
		if item, found := findChoice(items, text); found {
			c.value = item.Name
		} else if c.allowAdded {
			c.value = text
		}
		if c.value != nil {
			return nil
		}
	}
	if item, found := defaultChoice(items); found {
		c.value = item.Name
	}
	return nil
}

func (c *comboboxControl) SetValue(value any) error {
	if !c.enabled {
		return formkit.NewValueError(c.field.Name, "control is disabled")
	}
	text, err := toString(value)
	if err != nil {
		return formkit.NewConversionError(c.field.Name, err.Error())
	}
	if item, found := findChoice(c.items, text); found {
		c.value = item.Name
		return nil
	}
	if c.allowAdded && strings.TrimSpace(text) != "" {
		c.value = text
		return nil
	}
	return formkit.NewValueError(c.field.Name, "'"+text+"' is not an option")
}

func (c *comboboxControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{
		Kind:     formkit.WidgetSpinner,
		Label:    c.label,
		Field:    c.field.Name,
		ReadOnly: !c.enabled,
		Options:  choiceLabels(c.items),
	})
	if c.split {
		layout.Append(&formkit.Widget{
			Kind:     formkit.WidgetSpinner,
			Field:    c.field.Name,
			ReadOnly: !c.enabled,
			Options:  secondLanguageLabels(c.items),
		})
	}
}

// doubleComboboxControl binds two dependent dropdowns to two fields. The
// sub list is the item list nested under the selected top-level item.
type doubleComboboxControl struct {
	label    string
	layer    string
	field    formkit.Field
	subField formkit.Field
	items    []formkit.ChoiceItem
	selected formkit.DoubleComboValue
	enabled  bool
	showLast bool
}

func (c *doubleComboboxControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	field, err := bind.Field(el, formkit.AttrFieldLevel1)
	if err != nil {
		return err
	}
	subField, err := bind.Field(el, formkit.AttrFieldLevel2)
	if err != nil {
		return err
	}
	items, err := loadChoices(ctx, el, bind)
	if err != nil {
		return err
	}
	c.field = field
	c.subField = subField
	c.items = items
	c.layer = bind.Layer
	c.enabled = !bind.ViewOnly
	c.showLast = el.BoolAttr(formkit.AttrLast)
	c.label = bind.Translate(strAttr(el, formkit.AttrText, field.Alias))
	c.selected = formkit.DoubleComboValue{
		FieldName:    field.Name,
		SubFieldName: subField.Name,
	}

	top := c.initialFor(bind, field)
	sub := c.initialFor(bind, subField)
	if item, found := findChoice(items, top); found {
		c.selected.Value = item.Name
		if subItem, subFound := findChoice(item.Items, sub); subFound {
			c.selected.SubValue = subItem.Name
		}
		return nil
	}
	if item, found := defaultChoice(items); found {
		c.selected.Value = item.Name
		if subItem, subFound := defaultChoice(item.Items); subFound {
			c.selected.SubValue = subItem.Name
		}
	}
	return nil
}

func (c *doubleComboboxControl) initialFor(bind *BindContext, field formkit.Field) string {
	if bind.State != nil && bind.State.Has(field.Name) {
		raw, _ := bind.State.Get(field.Name)
		return Stringify(field.Type, raw)
	}
	if bind.Cursor != nil {
		if idx := bind.Cursor.ColumnIndex(field.Name); idx >= 0 && !bind.Cursor.IsNull(idx) {
			return Stringify(field.Type, FromCursor(bind.Cursor, idx, field.Type))
		}
	}
	return ""
}

func (c *doubleComboboxControl) FieldName() string { return c.field.Name }

func (c *doubleComboboxControl) Value() any {
	if c.selected.Value == "" {
		return nil
	}
	return c.selected
}

// SetValue accepts a DoubleComboValue, or a plain string naming a
// top-level item. Selecting a new top item keeps the current sub value
// when the new sub-list still carries it, otherwise falls back to the
// new sub-list's declared default.
func (c *doubleComboboxControl) SetValue(value any) error {
	if !c.enabled {
		return formkit.NewValueError(c.field.Name, "control is disabled")
	}
	switch v := value.(type) {
	case formkit.DoubleComboValue:
		item, found := findChoice(c.items, v.Value)
		if !found {
			return formkit.NewValueError(c.field.Name, "'"+v.Value+"' is not an option")
		}
		sub := ""
		if v.SubValue != "" {
			subItem, subFound := findChoice(item.Items, v.SubValue)
			if !subFound {
				return formkit.NewValueError(c.subField.Name, "'"+v.SubValue+"' is not a sub-option of '"+item.Name+"'")
			}
			sub = subItem.Name
		}
		c.selected.Value = item.Name
		c.selected.SubValue = sub
		return nil
	default:
		text, err := toString(value)
		if err != nil {
			return formkit.NewConversionError(c.field.Name, err.Error())
		}
		item, found := findChoice(c.items, text)
		if !found {
			return formkit.NewValueError(c.field.Name, "'"+text+"' is not an option")
		}
		if item.Name != c.selected.Value {
			c.selected.SubValue = c.carriedSubValue(item)
		}
		c.selected.Value = item.Name
		return nil
	}
}

// carriedSubValue resolves the sub selection after a top-level switch.
// The previous sub value survives when the new item's sub-list still
// carries it. Failing that, the list's declared default applies.
func (c *doubleComboboxControl) carriedSubValue(item formkit.ChoiceItem) string {
	if c.selected.SubValue != "" {
		if subItem, found := findChoice(item.Items, c.selected.SubValue); found {
			return subItem.Name
		}
	}
	if subItem, found := defaultChoice(item.Items); found {
		return subItem.Name
	}
	return ""
}

func (c *doubleComboboxControl) SubOptions() []formkit.ChoiceItem {
	if item, found := findChoice(c.items, c.selected.Value); found {
		return item.Items
	}
	return nil
}

func (c *doubleComboboxControl) Enabled() bool      { return c.enabled }
func (c *doubleComboboxControl) SetEnabled(on bool) { c.enabled = on }
func (c *doubleComboboxControl) ShowLast() bool     { return c.showLast }

func (c *doubleComboboxControl) SaveState(state formkit.InstanceState) {
	state.Put(c.field.Name, c.selected.Value)
	state.Put(c.subField.Name, c.selected.SubValue)
}

func (c *doubleComboboxControl) SaveLastValue(prefs formkit.PreferenceStore) error {
	if !c.showLast || prefs == nil {
		return nil
	}
	if err := prefs.PutString(lastValueLayer(c.layer, c.field.Name), lastValueKey, c.selected.Value); err != nil {
		return err
	}
	return prefs.PutString(lastValueLayer(c.layer, c.subField.Name), lastValueKey, c.selected.SubValue)
}

func (c *doubleComboboxControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{
		Kind:     formkit.WidgetSpinner,
		Label:    c.label,
		Field:    c.field.Name,
		ReadOnly: !c.enabled,
		Options:  choiceLabels(c.items),
	})
	layout.Append(&formkit.Widget{
		Kind:     formkit.WidgetSpinner,
		Field:    c.subField.Name,
		ReadOnly: !c.enabled,
		Options:  choiceLabels(c.SubOptions()),
	})
}

// autoTextControl is a text edit with a suggestion list. Typing is never
// blocked, but unless allow_adding_values is set the value only counts
// when it matches a suggestion.
type autoTextControl struct {
	textControl

	suggestions []formkit.ChoiceItem
	allowNew    bool
}

func (c *autoTextControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	if err := c.textControl.Init(ctx, el, bind); err != nil {
		return err
	}
	// Suggestions are optional for auto-complete, unlike strict choice lists.
	items, err := loadChoices(ctx, el, bind)
	if err == nil {
		c.suggestions = items
	}
	c.allowNew = el.BoolAttr(formkit.AttrAllowNew)
	return nil
}

// Value returns nil when the text is outside the suggestion list and new
// values are disallowed, so the field is omitted from the save as a soft
// value error.
func (c *autoTextControl) Value() any {
	v := c.textControl.Value()
	if v == nil || c.allowNew || len(c.suggestions) == 0 {
		return v
	}
	if _, found := findChoice(c.suggestions, Stringify(c.field.Type, v)); found {
		return v
	}
	return nil
}

func (c *autoTextControl) Attach(layout *formkit.Layout) {
	layout.Append(&formkit.Widget{
		Kind:     formkit.WidgetText,
		Label:    c.label,
		Field:    c.field.Name,
		ReadOnly: !c.enabled,
		Options:  choiceLabels(c.suggestions),
	})
}
