package depgraph

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/tilesmith/pkg/layers"
	"github.com/matzehuels/tilesmith/pkg/recipe"
)

func fixture(t *testing.T) *Graph {
	t.Helper()
	var ls []*layers.Layer
	for _, id := range []string{"stone_base", "stone_overlay", "glass", "ore_base", "unused"} {
		l, err := layers.Parse(id, []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16"/>`))
		if err != nil {
			t.Fatal(err)
		}
		ls = append(ls, l)
	}
	store, err := layers.New(ls...)
	if err != nil {
		t.Fatal(err)
	}

	ref := func(ids ...string) []recipe.LayerRef {
		out := make([]recipe.LayerRef, len(ids))
		for i, id := range ids {
			out[i] = recipe.LayerRef{Layer: id}
		}
		return out
	}
	set, err := recipe.NewSet(
		&recipe.Recipe{Name: "stone", Layers: ref("stone_base", "stone_overlay")},
		&recipe.Recipe{Name: "cobblestone", Layers: ref("stone_base", "stone_overlay", "stone_base")},
		&recipe.Recipe{Name: "mossy", Layers: ref("stone_overlay")},
		&recipe.Recipe{Name: "glass", Layers: ref("glass")},
		&recipe.Recipe{Name: "ore", Layers: ref("ore_base", "ore_particle_missing")},
	)
	if err != nil {
		t.Fatal(err)
	}
	return Build(set, store)
}

func TestBuild(t *testing.T) {
	g := fixture(t)

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	// 5 recipes + 5 layers + 1 missing layer; duplicate references collapse.
	if g.NodeCount() != 11 || g.EdgeCount() != 8 {
		t.Errorf("nodes=%d edges=%d", g.NodeCount(), g.EdgeCount())
	}
	if got := g.Missing(); !reflect.DeepEqual(got, []string{"ore_particle_missing"}) {
		t.Errorf("Missing = %v", got)
	}
	if got := g.Unused(); !reflect.DeepEqual(got, []string{"unused"}) {
		t.Errorf("Unused = %v", got)
	}

	// A recipe and a layer may share a name.
	if _, ok := g.Node(NodeID(KindRecipe, "glass")); !ok {
		t.Error("recipe glass missing")
	}
	if n, ok := g.Node(NodeID(KindLayer, "glass")); !ok || n.Kind != KindLayer {
		t.Error("layer glass missing")
	}
	if got := g.Parents(NodeID(KindLayer, "stone_overlay")); len(got) != 3 {
		t.Errorf("stone_overlay parents = %v", got)
	}
	if got := len(g.NodesInRow(0)); got != 5 {
		t.Errorf("row 0 has %d nodes", got)
	}
}

func TestComponentsAndSchedule(t *testing.T) {
	g := fixture(t)

	comps := g.Components()
	want := [][]string{{"glass"}, {"ore"}, {"cobblestone", "mossy", "stone"}}
	if len(comps) != len(want) {
		t.Fatalf("components = %+v", comps)
	}
	for i, c := range comps {
		if !reflect.DeepEqual(c.Recipes, want[i]) {
			t.Errorf("component %d recipes = %v, want %v", i, c.Recipes, want[i])
		}
	}
	if got := comps[1].Layers; !reflect.DeepEqual(got, []string{"ore_base", "ore_particle_missing"}) {
		t.Errorf("ore layers = %v", got)
	}

	got := g.Schedule()
	if !reflect.DeepEqual(got, []string{"glass", "ore", "cobblestone", "mossy", "stone"}) {
		t.Errorf("Schedule = %v", got)
	}
}

func TestGraphErrors(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{Kind: KindRecipe}); err != ErrInvalidNodeID {
		t.Errorf("empty name: %v", err)
	}
	if err := g.AddNode(Node{Name: "a", Kind: KindRecipe}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(Node{Name: "a", Kind: KindRecipe}); err != ErrDuplicateNodeID {
		t.Errorf("duplicate: %v", err)
	}
	if err := g.AddEdge(Edge{From: "recipe:x", To: "recipe:a"}); err != ErrUnknownSourceNode {
		t.Errorf("unknown source: %v", err)
	}
	if err := g.AddEdge(Edge{From: "recipe:a", To: "layer:x"}); err != ErrUnknownTargetNode {
		t.Errorf("unknown target: %v", err)
	}

	_ = g.AddNode(Node{Name: "b", Kind: KindRecipe})
	_ = g.AddEdge(Edge{From: "recipe:a", To: "recipe:b"})
	if err := g.Validate(); err != ErrInvalidEdge {
		t.Errorf("Validate = %v, want ErrInvalidEdge", err)
	}
}

func TestDOT(t *testing.T) {
	dot := fixture(t).DOT()

	for _, want := range []string{
		"digraph tilesmith {",
		`"recipe:stone" [label="stone", shape=box`,
		`"layer:ore_particle_missing" [label="ore_particle_missing", shape=ellipse, style=dashed, color=red`,
		`"recipe:ore" -> "layer:ore_particle_missing";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if dot != fixture(t).DOT() {
		t.Error("DOT output is not deterministic")
	}
}
