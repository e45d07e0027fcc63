package component

import "fmt"

// InputError reports a record that was rejected while building a Store.
// The rest of the run proceeds without it.
type InputError struct {
	ID     ID
	Name   string
	Reason string

	// Bounds is the record's bounding box when one could still be derived,
	// so callers can tell whether the rejected component carried others.
	Bounds *BBox

	Err error
}

func (e *InputError) Error() string {
	who := fmt.Sprintf("component %d", e.ID)
	if e.Name != "" {
		who = fmt.Sprintf("component %d (%s)", e.ID, e.Name)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", who, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", who, e.Reason)
}

func (e *InputError) Unwrap() error { return e.Err }
