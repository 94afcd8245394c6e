package pipeline

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"time"

	"github.com/matzehuels/tilesmith/pkg/compose"
	"github.com/matzehuels/tilesmith/pkg/errors"
)

// OutcomeKind classifies the result of one recipe.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	MissingLayer
	RenderFailure
	OutputFailure
	Cancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case MissingLayer:
		return "missing_layer"
	case RenderFailure:
		return "render_failure"
	case OutputFailure:
		return "output_failure"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// classify maps a job error to its outcome kind.
func classify(err error) OutcomeKind {
	switch {
	case err == nil:
		return Success
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return Cancelled
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeMissingLayer:
		return MissingLayer
	case errors.ErrCodeOutput:
		return OutputFailure
	}
	return RenderFailure
}

// Outcome is the result of one recipe.
type Outcome struct {
	Recipe      string
	Kind        OutcomeKind
	Err         error
	Path        string // written bitmap, empty unless Kind is Success
	Fingerprint string // document fingerprint, empty if the recipe did not resolve
	CacheHit    bool   // the document was built for another recipe
	Duration    time.Duration
}

// Report collects the outcomes of a run. It is safe for concurrent use.
type Report struct {
	RunID      string
	Resolution int
	Dir        string
	State      State
	Cache      compose.Stats
	Metadata   int // metadata files copied
	Duration   time.Duration

	mu       sync.Mutex
	outcomes []Outcome
}

func (r *Report) add(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

// Outcomes returns all outcomes sorted by recipe name.
func (r *Report) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]Outcome(nil), r.outcomes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Recipe < out[j].Recipe })
	return out
}

// Outcome returns the outcome of the named recipe.
func (r *Report) Outcome(recipe string) (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.outcomes {
		if o.Recipe == recipe {
			return o, true
		}
	}
	return Outcome{}, false
}

// Count returns the number of outcomes of kind k.
func (r *Report) Count(k OutcomeKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.outcomes {
		if o.Kind == k {
			n++
		}
	}
	return n
}

// Succeeded returns the number of written bitmaps.
func (r *Report) Succeeded() int { return r.Count(Success) }

// Failed returns the number of recipes without a bitmap.
func (r *Report) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.outcomes {
		if o.Kind != Success {
			n++
		}
	}
	return n
}
