// Package svgdoc is a small element tree for SVG documents.
//
// It covers what layer fragments need: parsing with [Parse], canonical
// serialization with [Element.Encode], attribute access, path data
// ([ParsePath], [Path.Format]), transforms ([ParseTransform]), lengths with
// units ([ParseLength]) and view boxes ([ParseViewBox]).
//
// Documents are read and written with github.com/beevik/etree. Comments,
// processing instructions and doctype declarations are not part of the
// tree. Namespace prefixes are kept verbatim in element and attribute
// names ("xlink:href", "sodipodi:namedview").
package svgdoc

import (
	"sort"
	"strings"
)

// Attr is a single attribute. Name includes its namespace prefix, if any.
type Attr struct {
	Name  string
	Value string
}

// Element is one node of the document tree.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string // character data, whitespace-only runs dropped
}

// New creates an element with the given attributes in order.
func New(name string, attrs ...Attr) *Element {
	return &Element{Name: name, Attrs: attrs}
}

// Get returns the value of the named attribute.
func (e *Element) Get(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attr returns the value of the named attribute or "".
func (e *Element) Attr(name string) string {
	v, _ := e.Get(name)
	return v
}

// Has reports whether the named attribute is present.
func (e *Element) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Set sets an attribute, replacing an existing value in place.
func (e *Element) Set(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// Remove deletes the named attribute. It reports whether it was present.
func (e *Element) Remove(name string) bool {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return true
		}
	}
	return false
}

// SortAttrs orders attributes by name.
func (e *Element) SortAttrs() {
	sort.SliceStable(e.Attrs, func(i, j int) bool { return e.Attrs[i].Name < e.Attrs[j].Name })
}

// Append adds children.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Clone returns a deep copy.
func (e *Element) Clone() *Element {
	c := &Element{Name: e.Name, Text: e.Text}
	if e.Attrs != nil {
		c.Attrs = append([]Attr(nil), e.Attrs...)
	}
	if e.Children != nil {
		c.Children = make([]*Element, len(e.Children))
		for i, ch := range e.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// Walk calls fn for e and every descendant in document order. Returning
// false from fn skips the element's children.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Filter removes every descendant for which keep returns false. The
// predicate sees children before their parents are reconsidered, so a group
// emptied by the filter can itself be dropped.
func (e *Element) Filter(keep func(*Element) bool) {
	out := e.Children[:0]
	for _, c := range e.Children {
		c.Filter(keep)
		if keep(c) {
			out = append(out, c)
		}
	}
	for i := len(out); i < len(e.Children); i++ {
		e.Children[i] = nil
	}
	e.Children = out
}

// Prefix returns the namespace prefix of a qualified name.
func Prefix(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return ""
}
