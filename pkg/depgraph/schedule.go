package depgraph

import "sort"

// Component is a connected set of recipes and the layers they share.
type Component struct {
	Recipes []string // sorted
	Layers  []string // sorted, including missing layers
}

// Components returns the connected components that contain at least one
// recipe, ordered by recipe count and then by first recipe name.
func (g *Graph) Components() []Component {
	uf := newUnionFind()
	for id := range g.nodes {
		uf.add(id)
	}
	for _, e := range g.edges {
		uf.union(e.From, e.To)
	}

	byRoot := make(map[string]*Component)
	for id, n := range g.nodes {
		root := uf.find(id)
		c := byRoot[root]
		if c == nil {
			c = &Component{}
			byRoot[root] = c
		}
		if n.Kind == KindRecipe {
			c.Recipes = append(c.Recipes, n.Name)
		} else {
			c.Layers = append(c.Layers, n.Name)
		}
	}

	var out []Component
	for _, c := range byRoot {
		if len(c.Recipes) == 0 {
			continue
		}
		sort.Strings(c.Recipes)
		sort.Strings(c.Layers)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Recipes) != len(out[j].Recipes) {
			return len(out[i].Recipes) < len(out[j].Recipes)
		}
		return out[i].Recipes[0] < out[j].Recipes[0]
	})
	return out
}

// Schedule returns every recipe name exactly once, grouped by component in
// the order of [Graph.Components].
func (g *Graph) Schedule() []string {
	var out []string
	for _, c := range g.Components() {
		out = append(out, c.Recipes...)
	}
	return out
}

// unionFind is a disjoint-set forest with path halving and union by size.
type unionFind struct {
	parent map[string]string
	size   map[string]int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string), size: make(map[string]int)}
}

func (u *unionFind) add(x string) {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		u.size[x] = 1
	}
}

func (u *unionFind) find(x string) string {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.size[ra] < u.size[rb] || u.size[ra] == u.size[rb] && rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
}
