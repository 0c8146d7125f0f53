package formkit

// WidgetKind names the renderable widget a control attaches to the layout.
type WidgetKind string

const (
	WidgetText       WidgetKind = "text"
	WidgetLabel      WidgetKind = "label"
	WidgetSpace      WidgetKind = "space"
	WidgetCheckbox   WidgetKind = "checkbox"
	WidgetRadioGroup WidgetKind = "radio_group"
	WidgetSpinner    WidgetKind = "spinner"
	WidgetDatePicker WidgetKind = "date_picker"
	WidgetCounter    WidgetKind = "counter"
	WidgetDistance   WidgetKind = "distance"
	WidgetCoordinate WidgetKind = "coordinate"
	WidgetSignature  WidgetKind = "signature"
	WidgetGallery    WidgetKind = "gallery"
	WidgetTabs       WidgetKind = "tabs"
	WidgetTabPage    WidgetKind = "tab_page"
)

// Widget is one renderable node of the layout tree. Attaching widgets is a
// layout side effect only; no binding logic lives here.
type Widget struct {
	Kind     WidgetKind `json:"kind"`
	Label    string     `json:"label,omitempty"`
	Field    string     `json:"field,omitempty"`
	ReadOnly bool       `json:"read_only,omitempty"`
	Options  []string   `json:"options,omitempty"`
	Children []*Widget  `json:"children,omitempty"`
}

// Layout is the render target a form build appends widgets to.
type Layout struct {
	widgets []*Widget
}

// NewLayout returns an empty layout.
func NewLayout() *Layout {
	return &Layout{}
}

// Append adds a widget to the layout.
func (l *Layout) Append(w *Widget) {
	if w == nil {
		return
	}
	l.widgets = append(l.widgets, w)
}

// Widgets returns the attached widgets in attachment order.
func (l *Layout) Widgets() []*Widget {
	return l.widgets
}

// Len returns the number of attached widgets.
func (l *Layout) Len() int {
	return len(l.widgets)
}
