package output

import (
	"context"
	stderrors "errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/tilesmith/pkg/errors"
	"github.com/matzehuels/tilesmith/pkg/raster"
)

func bitmap(size int) *raster.Bitmap {
	pix := make([]uint8, 4*size*size)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+3] = 200, 255
	}
	return &raster.Bitmap{Size: size, Pix: pix}
}

func TestWriteBitmap(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "64x64")
	w, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"stone", "block/glass"} {
		path, err := w.WriteBitmap(context.Background(), name, bitmap(64))
		if err != nil {
			t.Fatalf("WriteBitmap(%s): %v", name, err)
		}
		if want := filepath.Join(dir, filepath.FromSlash(name)+".png"); path != want {
			t.Errorf("path = %s, want %s", path, want)
		}

		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
			t.Errorf("%s bounds = %v", name, b)
		}
		if r, _, _, a := img.At(3, 3).RGBA(); r>>8 != 200 || a>>8 != 255 {
			t.Errorf("%s pixel = %d,%d", name, r>>8, a>>8)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".bitmap-") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestWriteBitmapErrors(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_, err = w.WriteBitmap(context.Background(), "../escape", bitmap(4))
	var oe *errors.OutputError
	if !stderrors.As(err, &oe) {
		t.Errorf("invalid name: err = %v, want OutputError", err)
	}

	// A regular file where a directory is needed.
	if err := os.WriteFile(filepath.Join(w.Dir(), "block"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	_, err = w.WriteBitmap(context.Background(), "block/stone", bitmap(4))
	if !errors.Is(err, errors.ErrCodeOutput) {
		t.Errorf("blocked dir: err = %v, want output error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.WriteBitmap(ctx, "stone", bitmap(4)); !stderrors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v", err)
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "stone: success"},
		{&errors.MissingLayerError{Recipe: "stone", Layers: []string{"ore_particle_missing"}}, "stone: MissingLayerError(ore_particle_missing)"},
		{fmt.Errorf("job: %w", errors.NewRenderError("path", nil, "invalid path data")), "stone: RenderError(<path>: invalid path data)"},
		{&errors.OutputError{Path: "x", Cause: stderrors.New("disk\nfull")}, "stone: OutputError(disk full)"},
		{context.Canceled, "stone: Cancelled(context canceled)"},
		{stderrors.New("boom"), "stone: Error(boom)"},
	}
	for _, tt := range tests {
		if got := Line("stone", tt.err); got != tt.want {
			t.Errorf("Line(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestCloseWritesSortedLog(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for _, name := range []string{"stone", "ore", "cobblestone", "glass"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			var err error
			if name == "ore" {
				err = &errors.MissingLayerError{Recipe: name, Layers: []string{"ore_particle_missing"}}
			}
			w.Record(name, err)
		}(name)
	}
	wg.Wait()

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(w.Dir(), LogFile))
	if err != nil {
		t.Fatal(err)
	}
	want := "# run " + w.RunID() + "\n" +
		"cobblestone: success\n" +
		"glass: success\n" +
		"ore: MissingLayerError(ore_particle_missing)\n" +
		"stone: success\n"
	if string(data) != want {
		t.Errorf("log.txt =\n%s\nwant\n%s", data, want)
	}
}

func TestNewRemovesStaleOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "32x32")
	w, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"stone", "ore/gold"} {
		if _, err := w.WriteBitmap(context.Background(), name, bitmap(4)); err != nil {
			t.Fatal(err)
		}
		w.Record(name, nil)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	keep := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(keep, []byte("kept"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(dir); err != nil {
		t.Fatal(err)
	}
	for _, gone := range []string{"stone.png", "ore/gold.png", "ore", LogFile} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(gone))); !os.IsNotExist(err) {
			t.Errorf("%s survived a new run (err = %v)", gone, err)
		}
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}
}

func TestCopyMetadata(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"pack.mcmeta":          `{"pack":{"pack_format":15}}`,
		"assets/lang/en.json":  `{}`,
		"assets/credits/a.txt": "layers by the blocks project",
	}
	for name, content := range files {
		path := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	dir := filepath.Join(t.TempDir(), "16x16")
	w, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	n, err := w.CopyMetadata(context.Background(), src)
	if err != nil {
		t.Fatalf("CopyMetadata: %v", err)
	}
	if n != len(files) {
		t.Errorf("copied %d files, want %d", n, len(files))
	}
	for name, content := range files {
		got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if string(got) != content {
			t.Errorf("%s = %q, want %q", name, got, content)
		}
	}

	_, err = w.CopyMetadata(context.Background(), filepath.Join(src, "missing"))
	var oe *errors.OutputError
	if !stderrors.As(err, &oe) {
		t.Errorf("missing source: err = %v, want OutputError", err)
	}
}
