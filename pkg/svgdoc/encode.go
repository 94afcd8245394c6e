package svgdoc

import (
	"bytes"

	"github.com/beevik/etree"
)

// Encode serializes the tree. indent is the number of spaces per nesting
// level; zero produces a single line. Attribute order is preserved, so
// callers wanting canonical output sort attributes first.
func (e *Element) Encode(indent int) []byte {
	doc := etree.NewDocument()
	doc.SetRoot(e.toTree())
	if indent > 0 {
		doc.Indent(indent)
	}
	out, err := doc.WriteToBytes()
	if err != nil {
		// Writing to memory does not fail.
		panic(err)
	}
	if indent > 0 {
		out = append(bytes.TrimRight(out, "\n"), '\n')
	}
	return out
}

// String returns the single-line serialization.
func (e *Element) String() string {
	return string(e.Encode(0))
}

func (e *Element) toTree() *etree.Element {
	el := etree.NewElement(e.Name)
	for _, a := range e.Attrs {
		el.CreateAttr(a.Name, a.Value)
	}
	if e.Text != "" {
		el.SetText(e.Text)
	}
	for _, c := range e.Children {
		el.AddChild(c.toTree())
	}
	return el
}
