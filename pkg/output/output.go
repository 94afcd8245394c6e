// Package output persists rendered bitmaps and the run log.
//
// A [Writer] owns one run directory. Bitmaps are written as PNG files named
// after their recipe; names containing "/" create subdirectories. Every
// outcome is recorded with [Writer.Record] and the collected lines are
// written to log.txt, sorted by recipe name, when the writer is closed.
//
// Writes of different recipes are independent and may happen concurrently.
package output

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/tilesmith/pkg/errors"
	"github.com/matzehuels/tilesmith/pkg/observability"
	"github.com/matzehuels/tilesmith/pkg/raster"
)

const (
	// LogFile is the name of the run log inside the run directory.
	LogFile = "log.txt"

	// Ext is the extension of bitmap files.
	Ext = ".png"

	tempPrefix = ".bitmap-"
)

// Writer writes one run's output directory.
type Writer struct {
	dir   string
	runID string
	enc   png.Encoder

	mu      sync.Mutex
	entries []entry
	closed  bool
}

type entry struct {
	recipe string
	line   string
}

// New creates dir (and its parents) and returns a writer for it. Bitmaps,
// the log and leftover temporary files of an earlier run in dir are removed
// first, so the directory only ever holds this run's textures.
func New(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &errors.OutputError{Path: dir, Cause: err}
	}
	if err := clearStale(dir); err != nil {
		return nil, &errors.OutputError{Path: dir, Cause: err}
	}
	return &Writer{
		dir:   dir,
		runID: uuid.NewString(),
		enc:   png.Encoder{CompressionLevel: png.BestCompression},
	}, nil
}

// clearStale removes the files a previous run wrote below dir and the
// directories left empty by that. Other files are kept.
func clearStale(dir string) error {
	var files, dirs []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			if path != dir {
				dirs = append(dirs, path)
			}
		case strings.EqualFold(filepath.Ext(path), Ext),
			strings.HasPrefix(d.Name(), tempPrefix),
			path == filepath.Join(dir, LogFile):
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	// Deepest first; a directory that still holds files fails and is kept.
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, d := range dirs {
		_ = os.Remove(d)
	}
	return nil
}

// CopyMetadata copies every file below src into the run directory, keeping
// relative paths, and returns the number of files copied. Metadata is
// copied verbatim; failures are reported as *errors.OutputError.
func (w *Writer) CopyMetadata(ctx context.Context, src string) (int, error) {
	n := 0
	err := filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(w.dir, rel)
		start := time.Now()
		size, err := copyFile(path, dst)
		observability.Output().OnWrite(ctx, dst, size, time.Since(start), err)
		if err != nil {
			return &errors.OutputError{Path: dst, Cause: err}
		}
		n++
		return nil
	})
	if err != nil {
		var oe *errors.OutputError
		if stderrors.As(err, &oe) || ctx.Err() != nil {
			return n, err
		}
		return n, &errors.OutputError{Path: src, Cause: err}
	}
	return n, nil
}

func copyFile(src, dst string) (int, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}
	return len(data), os.WriteFile(dst, data, 0644)
}

// Dir returns the run directory.
func (w *Writer) Dir() string { return w.dir }

// RunID returns the identifier written to the log header.
func (w *Writer) RunID() string { return w.runID }

// Path returns the file a recipe's bitmap is written to.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, filepath.FromSlash(name)+Ext)
}

// WriteBitmap encodes bmp as PNG under the recipe's name and returns the
// file path. The file appears atomically. Failures are reported as
// *errors.OutputError.
func (w *Writer) WriteBitmap(ctx context.Context, name string, bmp *raster.Bitmap) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := w.Path(name)
	start := time.Now()
	size, err := w.writePNG(name, path, bmp)
	observability.Output().OnWrite(ctx, path, size, time.Since(start), err)
	if err != nil {
		return "", &errors.OutputError{Path: path, Cause: err}
	}
	return path, nil
}

func (w *Writer) writePNG(name, path string, bmp *raster.Bitmap) (int, error) {
	if err := errors.ValidateName(name); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), tempPrefix+"*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := w.enc.Encode(bw, bmp.NRGBA()); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return 0, err
	}
	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return 0, err
	}
	return int(info.Size()), os.Rename(tmp.Name(), path)
}

// Record adds the outcome of one recipe to the run log. A nil err records
// success.
func (w *Writer) Record(recipe string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entry{recipe: recipe, line: Line(recipe, err)})
}

// Lines returns the recorded log lines sorted by recipe name.
func (w *Writer) Lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sortedLines()
}

func (w *Writer) sortedLines() []string {
	sorted := append([]entry(nil), w.entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].recipe < sorted[j].recipe })
	lines := make([]string, len(sorted))
	for i, e := range sorted {
		lines[i] = e.line
	}
	return lines
}

// Close writes log.txt. Closing twice is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	var b strings.Builder
	fmt.Fprintf(&b, "# run %s\n", w.runID)
	for _, l := range w.sortedLines() {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	path := filepath.Join(w.dir, LogFile)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return &errors.OutputError{Path: path, Cause: err}
	}
	return nil
}

// kinded is implemented by the typed errors of package errors.
type kinded interface {
	Kind() string
	Detail() string
}

// Line formats one run log line: "<recipe>: success" or
// "<recipe>: <Kind>(<detail>)".
func Line(recipe string, err error) string {
	if err == nil {
		return recipe + ": success"
	}
	var k kinded
	switch {
	case stderrors.As(err, &k):
		return fmt.Sprintf("%s: %s(%s)", recipe, k.Kind(), oneLine(k.Detail()))
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("%s: Cancelled(%s)", recipe, oneLine(err.Error()))
	}
	return fmt.Sprintf("%s: Error(%s)", recipe, oneLine(err.Error()))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
