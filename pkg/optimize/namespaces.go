package optimize

import (
	"strings"

	"github.com/matzehuels/tilesmith/pkg/svgdoc"
)

// removeUnusedNS drops xmlns:prefix declarations whose prefix appears in no
// element or attribute name.
func removeUnusedNS(root *svgdoc.Element) {
	used := map[string]bool{"xml": true}
	root.Walk(func(e *svgdoc.Element) bool {
		used[svgdoc.Prefix(e.Name)] = true
		for _, a := range e.Attrs {
			if p := svgdoc.Prefix(a.Name); p != "xmlns" {
				used[p] = true
			}
		}
		return true
	})

	root.Walk(func(e *svgdoc.Element) bool {
		out := e.Attrs[:0]
		for _, a := range e.Attrs {
			if prefix, ok := strings.CutPrefix(a.Name, "xmlns:"); ok && !used[prefix] {
				continue
			}
			out = append(out, a)
		}
		e.Attrs = out
		return true
	})
}
