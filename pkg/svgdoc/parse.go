package svgdoc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Parse reads a single-rooted XML document.
func Parse(data []byte) (*Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	var root *etree.Element
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if root != nil {
				return nil, fmt.Errorf("parse svg: multiple root elements")
			}
			root = t
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				return nil, fmt.Errorf("parse svg: text outside root element")
			}
		}
	}
	if root == nil {
		return nil, errors.New("parse svg: empty document")
	}
	return fromTree(root), nil
}

// fromTree converts an etree element and its descendants. Comments,
// processing instructions and directives are dropped.
func fromTree(src *etree.Element) *Element {
	el := &Element{Name: src.FullTag()}
	for _, a := range src.Attr {
		el.Attrs = append(el.Attrs, Attr{Name: a.FullKey(), Value: a.Value})
	}
	for _, tok := range src.Child {
		switch t := tok.(type) {
		case *etree.Element:
			el.Children = append(el.Children, fromTree(t))
		case *etree.CharData:
			if s := strings.TrimSpace(t.Data); s != "" {
				if el.Text != "" {
					el.Text += " "
				}
				el.Text += s
			}
		}
	}
	return el
}
