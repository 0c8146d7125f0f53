package internal

import (
	"context"

	"github.com/meridian-gis/formkit"
)

// tabsControl is a composite element hosting nested pages, each with its
// own element list. Child controls are built through the shared builder
// and surface in the session's control map like any top-level control.
type tabsControl struct {
	pages    []tabPage
	children []Control
	enabled  bool
}

type tabPage struct {
	caption string
	layout  *formkit.Layout
}

func (c *tabsControl) Init(ctx context.Context, el *formkit.FormElement, bind *BindContext) error {
	pages := el.Pages()
	if len(pages) == 0 {
		return formkit.NewElementBindError(el.Type, "tabs element has no pages")
	}
	if bind.Builder == nil {
		return formkit.NewInternalError("no builder available for nested tabs", nil)
	}
	c.enabled = !bind.ViewOnly
	for _, page := range pages {
		layout := formkit.NewLayout()
		controls := bind.Builder.buildElements(ctx, page.Elements, bind, layout)
		c.children = append(c.children, controls...)
		c.pages = append(c.pages, tabPage{
			caption: bind.Translate(page.Caption),
			layout:  layout,
		})
	}
	return nil
}

// Children returns the controls of all nested pages in document order.
func (c *tabsControl) Children() []Control { return c.children }

func (c *tabsControl) FieldName() string { return "" }
func (c *tabsControl) Value() any        { return nil }

func (c *tabsControl) SetValue(any) error {
	return formkit.NewValueError("", "tabs container holds no value")
}

func (c *tabsControl) Enabled() bool { return c.enabled }

func (c *tabsControl) SetEnabled(on bool) {
	c.enabled = on
	for _, child := range c.children {
		child.SetEnabled(on)
	}
}

func (c *tabsControl) ShowLast() bool { return false }

func (c *tabsControl) SaveState(formkit.InstanceState) {}

func (c *tabsControl) SaveLastValue(formkit.PreferenceStore) error { return nil }

func (c *tabsControl) Attach(layout *formkit.Layout) {
	tabs := &formkit.Widget{Kind: formkit.WidgetTabs}
	for _, page := range c.pages {
		tabs.Children = append(tabs.Children, &formkit.Widget{
			Kind:     formkit.WidgetTabPage,
			Label:    page.caption,
			Children: page.layout.Widgets(),
		})
	}
	layout.Append(tabs)
}
