package internal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-gis/formkit"
)

// Builder turns a parsed form specification into a layout tree and a set
// of bound controls. Element-level failures skip the element; only a
// malformed specification fails the whole build.
type Builder struct {
	registry   *Registry
	logSkipped bool
}

func NewBuilder(registry *Registry, logSkipped bool) *Builder {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Builder{registry: registry, logSkipped: logSkipped}
}

// BuildResult is the outcome of a form build: the widget tree and the
// controls in document order, including controls nested inside tabs.
type BuildResult struct {
	Layout   *formkit.Layout
	Controls []Control
}

// ByField indexes the field-bound controls by field name. Non-data
// controls (labels, spaces, attachments, tabs) are not included.
func (r *BuildResult) ByField() map[string]Control {
	byField := make(map[string]Control)
	for _, ctrl := range r.Controls {
		if name := ctrl.FieldName(); name != "" {
			byField[name] = ctrl
		}
	}
	return byField
}

// Build walks the specification and binds every element. The bind context
// carries the cursor; the caller owns its lifetime.
func (b *Builder) Build(ctx context.Context, spec *formkit.FormSpec, bind *BindContext) (*BuildResult, error) {
	if spec == nil {
		return nil, formkit.NewFormParseError("nil form specification")
	}
	start := time.Now()
	bind.Builder = b
	layout := formkit.NewLayout()
	result := &BuildResult{Layout: layout}

	if spec.Legacy() {
		for _, tab := range spec.Tabs {
			pageLayout := formkit.NewLayout()
			controls := b.buildElements(ctx, tab.ElementsFor(bind.Orientation), bind, pageLayout)
			result.Controls = append(result.Controls, controls...)
			layout.Append(&formkit.Widget{
				Kind:     formkit.WidgetTabPage,
				Label:    bind.Translate(tab.Caption),
				Children: pageLayout.Widgets(),
			})
		}
	} else {
		for _, page := range spec.Pages {
			pageLayout := formkit.NewLayout()
			controls := b.buildElements(ctx, page.Elements, bind, pageLayout)
			result.Controls = append(result.Controls, controls...)
			if len(spec.Pages) == 1 && page.Caption == "" {
				for _, w := range pageLayout.Widgets() {
					layout.Append(w)
				}
				continue
			}
			layout.Append(&formkit.Widget{
				Kind:     formkit.WidgetTabPage,
				Label:    bind.Translate(page.Caption),
				Children: pageLayout.Widgets(),
			})
		}
	}

	EmitBuildLatency(ctx, bind.Layer, time.Since(start).Milliseconds())
	return result, nil
}

// buildElements binds one element list. Coordinates elements split into a
// lat control and a lon control; elements that fail to bind are skipped
// and logged; controls of nested containers are hoisted into the result.
func (b *Builder) buildElements(ctx context.Context, elements []formkit.FormElement, bind *BindContext, layout *formkit.Layout) []Control {
	var controls []Control
	for i := range elements {
		el := &elements[i]
		if el.Type == formkit.ElementCoordinates {
			for _, split := range splitCoordinates(el) {
				if ctrl := b.buildOne(ctx, &split, bind, layout); ctrl != nil {
					controls = append(controls, ctrl)
				}
			}
			continue
		}
		if ctrl := b.buildOne(ctx, el, bind, layout); ctrl != nil {
			controls = append(controls, ctrl)
			if container, ok := ctrl.(interface{ Children() []Control }); ok {
				controls = append(controls, container.Children()...)
			}
		}
	}
	return controls
}

func (b *Builder) buildOne(ctx context.Context, el *formkit.FormElement, bind *BindContext, layout *formkit.Layout) Control {
	ctrl := b.registry.Create(el.Type)
	if ctrl == nil {
		b.skip(ctx, el, formkit.NewFormError(formkit.ErrorTypeBind, formkit.ErrCodeUnknownElementType,
			"unknown element type '"+el.Type+"'"))
		return nil
	}
	if err := ctrl.Init(ctx, el, bind); err != nil {
		b.skip(ctx, el, err)
		return nil
	}
	if bind.ViewOnly {
		ctrl.SetEnabled(false)
	}
	if !el.BoolAttr(formkit.AttrHidden) {
		ctrl.Attach(layout)
	}
	return ctrl
}

func (b *Builder) skip(ctx context.Context, el *formkit.FormElement, err error) {
	EmitElementSkipped(ctx, el.Type)
	if b.logSkipped {
		zap.S().Warnw("skipping form element",
			"element", el.Type,
			"field", el.FieldName(),
			"error", err)
	}
}

// splitCoordinates expands a coordinates element into its lat and lon
// halves. Both halves share the original attribute map.
func splitCoordinates(el *formkit.FormElement) []formkit.FormElement {
	return []formkit.FormElement{
		{Type: formkit.ElementCoordinatesLat, Attributes: el.Attributes},
		{Type: formkit.ElementCoordinatesLon, Attributes: el.Attributes},
	}
}
