package internal

import (
	"github.com/meridian-gis/formkit"
)

// Registry maps element type tags to control constructors. Unknown tags
// yield nil so the builder can skip them without failing the whole form.
type Registry struct {
	constructors map[string]func() Control
}

func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]func() Control)}
}

// Register binds a constructor to an element type tag. Registering the
// same tag twice replaces the previous constructor.
func (r *Registry) Register(tag string, fn func() Control) {
	r.constructors[tag] = fn
}

// Create instantiates a control for an element type tag, or nil when the
// tag is not registered.
func (r *Registry) Create(tag string) Control {
	fn, ok := r.constructors[tag]
	if !ok {
		return nil
	}
	return fn()
}

// Has reports whether a tag is registered.
func (r *Registry) Has(tag string) bool {
	_, ok := r.constructors[tag]
	return ok
}

// DefaultRegistry returns a registry preloaded with every built-in
// element control.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(formkit.ElementTextEdit, func() Control { return &textControl{} })
	r.Register(formkit.ElementTextLabel, func() Control { return &labelControl{} })
	r.Register(formkit.ElementSpace, func() Control { return &spaceControl{} })
	r.Register(formkit.ElementCheckbox, func() Control { return &checkboxControl{} })
	r.Register(formkit.ElementRadioGroup, func() Control { return &radioGroupControl{} })
	r.Register(formkit.ElementCombobox, func() Control { return &comboboxControl{} })
	r.Register(formkit.ElementSplitCombobox, func() Control { return &comboboxControl{split: true} })
	r.Register(formkit.ElementDoubleCombobox, func() Control { return &doubleComboboxControl{} })
	r.Register(formkit.ElementAutoComplete, func() Control { return &autoTextControl{} })
	r.Register(formkit.ElementDateTime, func() Control { return &dateTimeControl{} })
	r.Register(formkit.ElementCounter, func() Control { return &counterControl{} })
	r.Register(formkit.ElementDistance, func() Control { return &distanceControl{} })
	r.Register(formkit.ElementCoordinatesLat, func() Control { return &coordinateControl{axis: axisLat} })
	r.Register(formkit.ElementCoordinatesLon, func() Control { return &coordinateControl{axis: axisLon} })
	r.Register(formkit.ElementSignature, func() Control { return &signatureControl{} })
	r.Register(formkit.ElementPhoto, func() Control { return &photoControl{} })
	r.Register(formkit.ElementTabs, func() Control { return &tabsControl{} })
	return r
}
