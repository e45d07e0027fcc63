package sequence

import (
	"errors"
	"fmt"

	"github.com/chazu/liftplan/pkg/component"
)

var (
	// ErrRoundLimit is returned when the configured round ceiling is hit
	// before every component has been grouped.
	ErrRoundLimit = errors.New("sequence: round limit exceeded")

	// ErrTooManyFailures is returned when geometric computation failures
	// accumulate beyond the configured threshold.
	ErrTooManyFailures = errors.New("sequence: too many computation failures")
)

// Group is one batch of components removable in parallel. Members are in
// ascending id order.
type Group struct {
	Members []component.ID `json:"members"`

	// Forced marks a one-element group created to break a deadlock.
	Forced bool `json:"forced,omitempty"`
}

// Reverse returns groups in reverse order. Members are shared with the
// input. Reverse(Reverse(g)) equals g.
func Reverse(groups []Group) []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[len(groups)-1-i] = g
	}
	return out
}

// DeadlockEvent records a forced removal. It is a documented relaxation
// of feasibility, not an error.
type DeadlockEvent struct {
	Round     int          `json:"round"`
	Component component.ID `json:"component"`
	ZMax      float64      `json:"z_max"`
	Policy    string       `json:"policy"`

	// StructuralConflicts are the remaining components resting on the
	// forced one.
	StructuralConflicts []component.ID `json:"structural_conflicts"`

	// GeometricConflicts are the remaining components obstructing its
	// scan box.
	GeometricConflicts []component.ID `json:"geometric_conflicts"`
}

func (e DeadlockEvent) String() string {
	return fmt.Sprintf("round %d: forced %d (z_max %g, policy %s): rests-on %v, obstructed-by %v",
		e.Round, e.Component, e.ZMax, e.Policy, e.StructuralConflicts, e.GeometricConflicts)
}

// Failure records a candidate that was held back because its clearance
// test could not be computed. Err is usually a *geom.ComputationError.
type Failure struct {
	Round     int          `json:"round"`
	Component component.ID `json:"component"`
	Err       error        `json:"-"`
}

// Report collects the diagnostics of a run.
type Report struct {
	Rounds    int             `json:"rounds"`
	Deadlocks []DeadlockEvent `json:"deadlocks"`
	Failures  []Failure       `json:"-"`
}

// Result is the output of a generator run.
type Result struct {
	Disassembly []Group
	Assembly    []Group

	// Forced lists deadlock-forced ids in the order they were forced.
	Forced []component.ID

	Report Report
}

// IsForced reports whether id was removed by deadlock breaking.
func (r *Result) IsForced(id component.ID) bool {
	for _, f := range r.Forced {
		if f == id {
			return true
		}
	}
	return false
}
