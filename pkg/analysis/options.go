package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/chazu/liftplan/pkg/sequence"
)

// Options are the caller-supplied parameters of a run. Lengths and volumes
// are in the model's native units and are passed through unconverted.
type Options struct {
	// SupportTolerance is the maximum vertical gap for a support contact.
	SupportTolerance float64 `json:"support_tolerance"`

	// VolumeTolerance is the intersection volume at or below which a
	// clearance volume counts as unobstructed.
	VolumeTolerance float64 `json:"volume_tolerance"`

	// XYEpsilon is the signed footprint slack of the overlap tests.
	XYEpsilon float64 `json:"xy_epsilon"`

	// CeilingMargin is added above the highest component top.
	CeilingMargin float64 `json:"ceiling_margin"`

	RequireXYOverlap bool `json:"require_xy_overlap"`
	SpatialIndex     bool `json:"spatial_index"`

	// DeadlockPolicy names a sequence policy; empty selects the default.
	DeadlockPolicy string `json:"deadlock_policy"`

	Workers   int           `json:"workers"`
	MaxRounds int           `json:"max_rounds"`
	Timeout   time.Duration `json:"timeout"`

	// MaxFailures and MaxInputErrors abort the run once exceeded. Zero
	// disables the check.
	MaxFailures    int `json:"max_failures"`
	MaxInputErrors int `json:"max_input_errors"`

	// AbortOnLoadBearing aborts the run when a rejected record carried an
	// accepted component.
	AbortOnLoadBearing bool `json:"abort_on_load_bearing"`
}

// DefaultOptions mirrors the original tool: a support tolerance of 1.0 and
// a collision volume tolerance of 1e-6.
func DefaultOptions() Options {
	return Options{
		SupportTolerance: 1.0,
		VolumeTolerance:  1e-6,
		CeilingMargin:    1.0,
		RequireXYOverlap: true,
		DeadlockPolicy:   sequence.DefaultPolicy,
	}
}

// ConfigurationError reports an invalid option. It is always fatal and
// is returned before any geometric work starts.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("analysis: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Validate checks every option and returns the first problem as a
// *ConfigurationError.
func (o Options) Validate() error {
	tolerances := []struct {
		field string
		v     float64
	}{
		{"support tolerance", o.SupportTolerance},
		{"volume tolerance", o.VolumeTolerance},
		{"ceiling margin", o.CeilingMargin},
	}
	for _, t := range tolerances {
		if math.IsNaN(t.v) || math.IsInf(t.v, 0) {
			return &ConfigurationError{Field: t.field, Value: t.v, Reason: "must be finite"}
		}
		if t.v < 0 {
			return &ConfigurationError{Field: t.field, Value: t.v, Reason: "must not be negative"}
		}
	}
	if math.IsNaN(o.XYEpsilon) || math.IsInf(o.XYEpsilon, 0) {
		return &ConfigurationError{Field: "xy epsilon", Value: o.XYEpsilon, Reason: "must be finite"}
	}

	limits := []struct {
		field string
		v     int
	}{
		{"workers", o.Workers},
		{"max rounds", o.MaxRounds},
		{"max failures", o.MaxFailures},
		{"max input errors", o.MaxInputErrors},
	}
	for _, l := range limits {
		if l.v < 0 {
			return &ConfigurationError{Field: l.field, Value: l.v, Reason: "must not be negative"}
		}
	}
	if o.Timeout < 0 {
		return &ConfigurationError{Field: "timeout", Value: o.Timeout, Reason: "must not be negative"}
	}
	if _, err := sequence.PolicyByName(o.DeadlockPolicy); err != nil {
		return &ConfigurationError{Field: "deadlock policy", Value: o.DeadlockPolicy, Reason: fmt.Sprintf("must be one of %v", sequence.PolicyNames())}
	}
	return nil
}
