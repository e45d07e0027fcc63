package geom

import (
	"fmt"

	"github.com/chazu/liftplan/pkg/component"
)

// ComputationError reports a boolean solid operation that could not be
// computed or produced an untrustworthy result. A is the component whose
// clearance volume was being tested and B the obstacle.
type ComputationError struct {
	A, B             component.ID
	VolumeA, VolumeB float64
	BoundsA, BoundsB component.BBox
	Cause            error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("geom: intersect %d %s (vol %g) with %d %s (vol %g): %v",
		e.A, e.BoundsA, e.VolumeA, e.B, e.BoundsB, e.VolumeB, e.Cause)
}

func (e *ComputationError) Unwrap() error { return e.Cause }
