// Package observability provides hooks for metrics about analysis runs.
//
// Libraries call the registered hooks; main registers a backend (see
// pkg/metrics) at startup. Keeping the hooks here avoids a hard dependency
// from the analysis packages on any particular metrics library.
//
// Register hooks at application startup:
//
//	observability.SetAnalysisHooks(metrics.Hooks{})
//
// Libraries emit events through the accessor:
//
//	observability.Analysis().OnRound(ctx, round, removed, forced)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Analysis Hooks
// =============================================================================

// AnalysisHooks receives events from the analysis pipeline.
type AnalysisHooks interface {
	// Run events
	OnRunStart(ctx context.Context, runID string, components int)
	OnRunComplete(ctx context.Context, runID string, rounds int, duration time.Duration, err error)

	// OnInputRejected records a record rejected while building the store.
	OnInputRejected(ctx context.Context, reason string)

	// Sequencing events
	OnRound(ctx context.Context, round, removed int, forced bool)
	OnDeadlock(ctx context.Context, round int, id int64)

	// Collision events
	OnIntersectionTest(ctx context.Context, kernel string, hit bool, duration time.Duration)
	OnComputationFailure(ctx context.Context, kernel string)
}

// =============================================================================
// No-op Implementation
// =============================================================================

// NoopAnalysisHooks is a no-op implementation of AnalysisHooks.
type NoopAnalysisHooks struct{}

func (NoopAnalysisHooks) OnRunStart(context.Context, string, int) {}
func (NoopAnalysisHooks) OnRunComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopAnalysisHooks) OnInputRejected(context.Context, string) {}
func (NoopAnalysisHooks) OnRound(context.Context, int, int, bool) {}
func (NoopAnalysisHooks) OnDeadlock(context.Context, int, int64) {}
func (NoopAnalysisHooks) OnIntersectionTest(context.Context, string, bool, time.Duration) {}
func (NoopAnalysisHooks) OnComputationFailure(context.Context, string) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	analysisHooks AnalysisHooks = NoopAnalysisHooks{}
	hooksMu       sync.RWMutex
)

// SetAnalysisHooks registers custom analysis hooks. Call it once at
// startup before any analysis runs. A nil argument is ignored.
func SetAnalysisHooks(h AnalysisHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		analysisHooks = h
	}
}

// Analysis returns the registered analysis hooks.
func Analysis() AnalysisHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return analysisHooks
}

// Reset restores the no-op defaults. Mostly useful in tests.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	analysisHooks = NoopAnalysisHooks{}
}
