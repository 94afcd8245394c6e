package layers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/tilesmith/pkg/color"
	"github.com/matzehuels/tilesmith/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "stone_base.svg"),
		`<svg viewBox="0 0 16 16"><rect width="16" height="16" fill="#888"/></svg>`)
	writeFile(t, filepath.Join(dir, "block", "ore.svg"),
		`<svg viewBox="0 0 32 32"><path d="M0 0L4 4" style="fill:red"/><path d="M4 4L8 8" fill="blue"/></svg>`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a layer")

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	ids := s.IDs()
	if ids[0] != "block/ore" || ids[1] != "stone_base" {
		t.Errorf("IDs = %v", ids)
	}
	if s.Dir() != dir {
		t.Errorf("Dir = %q", s.Dir())
	}

	base, ok := s.Get("stone_base")
	if !ok {
		t.Fatal("stone_base missing")
	}
	if base.DefaultColor != color.MustParse("#888") || base.Multicolor {
		t.Errorf("stone_base color = %v, multicolor %v", base.DefaultColor, base.Multicolor)
	}
	if base.ViewBox.Width != 16 {
		t.Errorf("viewBox = %+v", base.ViewBox)
	}

	ore, _ := s.Get("block/ore")
	if ore.DefaultColor != color.MustParse("red") || !ore.Multicolor {
		t.Errorf("ore color = %v, multicolor %v", ore.DefaultColor, ore.Multicolor)
	}
}

func TestLoadDefaultColorBlack(t *testing.T) {
	l, err := Parse("plain", []byte(`<svg viewBox="0 0 16 16"><path d="M0 0L1 1"/></svg>`))
	if err != nil {
		t.Fatal(err)
	}
	if l.DefaultColor != color.Black {
		t.Errorf("DefaultColor = %v, want black", l.DefaultColor)
	}
}

func TestPaintColors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		want       color.Color
		multicolor bool
	}{
		{"implicit black beside white", `<rect width="8" height="16"/><rect x="8" width="8" height="16" fill="#fff"/>`, color.Black, true},
		{"inherited group fill", `<g fill="#fff"><rect width="8" height="8"/><rect x="8" width="8" height="8"/></g>`, color.White, false},
		{"stroke only", `<path d="M0 0L8 8" fill="none" stroke="#f00"/>`, color.MustParse("#f00"), false},
		{"current color", `<g color="#0f0"><rect width="8" height="8" fill="currentColor"/></g>`, color.MustParse("#0f0"), false},
		{"defs are not painted", `<defs><rect width="8" height="8"/></defs><rect width="8" height="8" fill="#fff"/>`, color.White, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Parse("sample", []byte(`<svg viewBox="0 0 16 16">`+tt.body+`</svg>`))
			if err != nil {
				t.Fatal(err)
			}
			if l.DefaultColor != tt.want || l.Multicolor != tt.multicolor {
				t.Errorf("DefaultColor = %v, Multicolor = %v; want %v, %v", l.DefaultColor, l.Multicolor, tt.want, tt.multicolor)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"malformed xml", map[string]string{"bad.svg": `<svg viewBox="0 0 16 16"><g></svg>`}},
		{"no viewbox", map[string]string{"bad.svg": `<svg><path d="M0 0"/></svg>`}},
		{"wrong root", map[string]string{"bad.svg": `<html/>`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, filepath.Join(dir, name), content)
			}
			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeManifestLoad) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeManifestLoad)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, errors.ErrCodeManifestLoad) {
		t.Errorf("missing dir: %v", err)
	}
}

func TestLookup(t *testing.T) {
	l, err := Parse("a", []byte(`<svg viewBox="0 0 1 1"/>`))
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(l)
	if err != nil {
		t.Fatal(err)
	}

	if got, err := s.Lookup("a"); err != nil || got != l {
		t.Errorf("Lookup(a) = %v, %v", got, err)
	}
	_, err = s.Lookup("ore_particle_missing")
	if !errors.Is(err, errors.ErrCodeMissingLayer) {
		t.Fatalf("Lookup(missing) = %v", err)
	}

	if _, err := New(l, l); err == nil {
		t.Error("duplicate ids should be rejected")
	}
}

func TestParseRejectsBadID(t *testing.T) {
	if _, err := Parse("../escape", []byte(`<svg viewBox="0 0 1 1"/>`)); err == nil {
		t.Error("path traversal id should be rejected")
	}
}
