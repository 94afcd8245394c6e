package pipeline

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tilesmith/pkg/observability"
)

// State is the phase of a run.
type State int

const (
	Initializing State = iota
	Resolving
	Rendering
	Finalizing
	Done
	Aborted
)

var stateNames = [...]string{"initializing", "resolving", "rendering", "finalizing", "done", "aborted"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == Done || s == Aborted }

// CanTransition reports whether a run in s may move to next.
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	return next == Aborted || next == s+1
}

// machine tracks the state of one run.
type machine struct {
	state  State
	logger *log.Logger
}

// to moves the machine to next. An illegal transition is a programming
// error and panics.
func (m *machine) to(ctx context.Context, next State) {
	prev := m.state
	if !prev.CanTransition(next) {
		panic(fmt.Sprintf("pipeline: illegal state transition %s -> %s", prev, next))
	}
	m.state = next
	m.logger.Debug("state", "from", prev, "to", next)
	observability.Pipeline().OnStateChange(ctx, prev.String(), next.String())
}
