package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/liftplan/pkg/component"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	records []component.Record
	errors  []EvalError
	err     error
}

// waitWithTimeout waits up to timeout for ch. A result whose generation is
// no longer current is discarded; the goroutine that produced a timed-out
// evaluation may still be running and its result is dropped the same way.
func waitWithTimeout(
	ch <-chan evalResult,
	timeout time.Duration,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) ([]component.Record, []EvalError, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()
		if gen != current {
			return nil, nil, fmt.Errorf("engine: evaluation superseded by newer request")
		}
		return res.records, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("engine: evaluation timed out after %s", timeout)
	}
}
