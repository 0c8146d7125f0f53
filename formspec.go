package formkit

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Element type tags. The set is closed; unknown tags are skipped during
// tree building, never fatal for the whole form.
const (
	ElementTextEdit       = "text_edit"
	ElementTextLabel      = "text_label"
	ElementSpace          = "space"
	ElementCheckbox       = "checkbox"
	ElementRadioGroup     = "radio_group"
	ElementCombobox       = "combobox"
	ElementSplitCombobox  = "split_combobox"
	ElementDoubleCombobox = "double_combobox"
	ElementAutoComplete   = "auto_text_edit"
	ElementDateTime       = "date_time"
	ElementCounter        = "counter"
	ElementDistance       = "distance"
	ElementCoordinates    = "coordinates"
	ElementCoordinatesLat = "coordinates_lat"
	ElementCoordinatesLon = "coordinates_lon"
	ElementSignature      = "signature"
	ElementPhoto          = "photo"
	ElementTabs           = "tabs"
)

// Common element attribute keys.
const (
	AttrFieldName      = "field_name"
	AttrFieldLevel1    = "field_level1"
	AttrFieldLevel2    = "field_level2"
	AttrFieldLat       = "field_lat"
	AttrFieldLon       = "field_lon"
	AttrText           = "text"
	AttrValues         = "values"
	AttrLast           = "last"
	AttrHidden         = "hidden"
	AttrOnlyFigures    = "only_figures"
	AttrMaxStringCount = "max_string_count"
	AttrAllowNew       = "allow_adding_values"
	AttrLookupTable    = "lookup_table"
	AttrPrefix         = "prefix"
	AttrSuffix         = "suffix"
	AttrPrefixFromList = "prefix_from_list"
	AttrSuffixFromList = "suffix_from_list"
	AttrInitValue      = "init_value"
	AttrIncrement      = "increment"
	AttrDateType       = "date_type"
	AttrCaption        = "caption"
	AttrPages          = "pages"
	AttrGalleryMax     = "gallery_size"
)

// ChoiceItem is one entry of a choice control's alias/value list.
// Items of a double combobox carry their own sub-list in Items.
type ChoiceItem struct {
	Name    string       `json:"name"`
	Alias   string       `json:"alias"`
	Alias2  string       `json:"alias2,omitempty"`
	Default bool         `json:"default,omitempty"`
	Items   []ChoiceItem `json:"values,omitempty"`
}

// FormElement is one JSON-described node of a form specification.
// Attributes is an open key/value map; parsed once per render, never mutated.
type FormElement struct {
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// StringAttr returns a string attribute, reporting whether it was present.
func (e *FormElement) StringAttr(key string) (string, bool) {
	v, ok := e.Attributes[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		if s == math.Trunc(s) {
			return strconv.FormatInt(int64(s), 10), true
		}
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return fmt.Sprintf("%v", v), true
}

// BoolAttr returns a boolean attribute, false when absent or malformed.
func (e *FormElement) BoolAttr(key string) bool {
	v, ok := e.Attributes[key]
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && parsed
	case float64:
		return b != 0
	}
	return false
}

// IntAttr returns an integer attribute with a fallback default.
func (e *FormElement) IntAttr(key string, def int) int {
	v, ok := e.Attributes[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	return def
}

// FieldName returns the bound field name, empty for non-data elements.
func (e *FormElement) FieldName() string {
	name, _ := e.StringAttr(AttrFieldName)
	return name
}

// Choices decodes the element's alias/value list. Returns nil when the
// element declares no inline values.
func (e *FormElement) Choices() []ChoiceItem {
	raw, ok := e.Attributes[AttrValues]
	if !ok || raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var items []ChoiceItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	return items
}

// Pages decodes a tabs element's nested page list.
func (e *FormElement) Pages() []FormPage {
	raw, ok := e.Attributes[AttrPages]
	if !ok || raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var pages []FormPage
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil
	}
	return pages
}

// FormPage is one page of the newer pages-based specification format,
// and also the nested page payload of a tabs composite element.
type FormPage struct {
	Caption  string        `json:"caption,omitempty"`
	Elements []FormElement `json:"elements"`
}

// FormTab is one tab of the legacy specification format. A tab may carry
// separate element arrays for album (landscape) and portrait layouts.
type FormTab struct {
	Caption          string        `json:"caption,omitempty"`
	AlbumElements    []FormElement `json:"album_elements,omitempty"`
	PortraitElements []FormElement `json:"portrait_elements,omitempty"`
}

// FormSpec is the parsed form specification document. Exactly one of Tabs
// or Pages is populated; a bare element array parses into a single page.
type FormSpec struct {
	Tabs  []FormTab
	Pages []FormPage
}

// Legacy reports whether the document used the tabs-based legacy format.
func (s *FormSpec) Legacy() bool { return len(s.Tabs) > 0 }

// UnmarshalJSON inspects the incoming document and instantiates the correct
// representation (legacy tabs, newer pages, or a bare element array).
func (s *FormSpec) UnmarshalJSON(data []byte) error {
	trimmed := firstNonSpace(data)
	if trimmed == '[' {
		var elements []FormElement
		if err := json.Unmarshal(data, &elements); err != nil {
			return err
		}
		s.Pages = []FormPage{{Elements: elements}}
		return nil
	}
	if trimmed != '{' {
		return fmt.Errorf("invalid form specification: expected object or array")
	}

	var discriminator struct {
		Tabs  []json.RawMessage `json:"tabs"`
		Pages []json.RawMessage `json:"pages"`
	}
	if err := json.Unmarshal(data, &discriminator); err != nil {
		return err
	}

	switch {
	case discriminator.Tabs != nil:
		var doc struct {
			Tabs []FormTab `json:"tabs"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		if len(doc.Tabs) == 0 {
			return fmt.Errorf("invalid form specification: empty tabs array")
		}
		s.Tabs = doc.Tabs
	case discriminator.Pages != nil:
		var doc struct {
			Pages []FormPage `json:"pages"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		if len(doc.Pages) == 0 {
			return fmt.Errorf("invalid form specification: empty pages array")
		}
		s.Pages = doc.Pages
	default:
		return fmt.Errorf("invalid form specification: expected 'tabs' or 'pages'")
	}
	return nil
}

// ParseFormSpec parses a form specification document.
func ParseFormSpec(data []byte) (*FormSpec, error) {
	var spec FormSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, NewFormParseError(err.Error()).WithCause(err)
	}
	return &spec, nil
}

// Orientation selects which element array of a legacy tab is rendered.
type Orientation string

const (
	OrientationPortrait Orientation = "portrait"
	OrientationAlbum    Orientation = "album"
)

// ElementsFor selects the tab's element array for the given orientation.
// The album array is used in landscape when present; otherwise whichever
// array exists is the fallback.
func (t *FormTab) ElementsFor(orientation Orientation) []FormElement {
	if orientation == OrientationAlbum && len(t.AlbumElements) > 0 {
		return t.AlbumElements
	}
	if len(t.PortraitElements) > 0 {
		return t.PortraitElements
	}
	return t.AlbumElements
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b
	}
	return 0
}
