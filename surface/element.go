// Package surface is the node tree effects draw into.
//
// A display page is a tree of Elements rooted at the container the host hands
// to an effect. The tree is rendered to HTML with golang.org/x/net/html, so
// text content is always escaped and never interpreted as markup.
package surface

import (
	"sort"
	"strings"
)

// Element is a single node in a display surface.
type Element struct {
	Tag      string
	ID       string
	Text     string
	classes  []string
	style    []declaration
	attrs    map[string]string
	children []*Element
}

type declaration struct {
	prop  string
	value string
}

// New returns an element with the given tag.
func New(tag string) *Element {
	return &Element{Tag: tag}
}

// Div returns a div with the given classes.
func Div(classes ...string) *Element {
	e := New("div")
	e.AddClass(classes...)
	return e
}

// Append adds children in order and returns e for chaining.
func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		if c != nil {
			e.children = append(e.children, c)
		}
	}
	return e
}

// Children returns the direct children.
func (e *Element) Children() []*Element {
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// Clear removes every child and the text content.
func (e *Element) Clear() {
	e.children = nil
	e.Text = ""
}

// ResetStyling drops classes, inline styles and attributes applied to e.
// The id survives: it identifies the container, not its current look.
func (e *Element) ResetStyling() {
	e.classes = nil
	e.style = nil
	e.attrs = nil
}

// AddClass appends classes that are not already present.
func (e *Element) AddClass(classes ...string) *Element {
	for _, c := range classes {
		if c == "" || e.HasClass(c) {
			continue
		}
		e.classes = append(e.classes, c)
	}
	return e
}

// HasClass reports whether e carries class c.
func (e *Element) HasClass(c string) bool {
	for _, existing := range e.classes {
		if existing == c {
			return true
		}
	}
	return false
}

// Classes returns the classes in insertion order.
func (e *Element) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// SetStyle sets an inline style property. Setting an existing property keeps
// its position; an empty value removes it.
func (e *Element) SetStyle(prop, value string) *Element {
	for i, d := range e.style {
		if d.prop == prop {
			if value == "" {
				e.style = append(e.style[:i], e.style[i+1:]...)
			} else {
				e.style[i].value = value
			}
			return e
		}
	}
	if value != "" {
		e.style = append(e.style, declaration{prop: prop, value: value})
	}
	return e
}

// Style returns the value of an inline style property.
func (e *Element) Style(prop string) string {
	for _, d := range e.style {
		if d.prop == prop {
			return d.value
		}
	}
	return ""
}

// StyleAttr returns the inline style serialized as a style attribute value.
func (e *Element) StyleAttr() string {
	parts := make([]string, 0, len(e.style))
	for _, d := range e.style {
		parts = append(parts, d.prop+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

// SetAttr sets an attribute. Use SetData for data-* attributes.
func (e *Element) SetAttr(name, value string) *Element {
	if e.attrs == nil {
		e.attrs = map[string]string{}
	}
	e.attrs[name] = value
	return e
}

// SetData sets a data-* attribute read by the client runtime.
func (e *Element) SetData(name, value string) *Element {
	return e.SetAttr("data-"+name, value)
}

// Attr returns an attribute value.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *Element) attrNames() []string {
	names := make([]string, 0, len(e.attrs))
	for k := range e.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Find returns the first element in the subtree (e included) with the given id.
func (e *Element) Find(id string) *Element {
	if e.ID == id {
		return e
	}
	for _, c := range e.children {
		if found := c.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits e and its descendants depth-first.
func (e *Element) Walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.children {
		c.Walk(fn)
	}
}
