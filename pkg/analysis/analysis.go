// Package analysis runs the full pipeline over a set of component records:
// it validates options, builds the record store, derives the support
// relation, and generates the disassembly and assembly sequences.
//
// Per-component problems (rejected records, failed boolean operations)
// degrade only the affected component. They become fatal once they exceed
// the thresholds in Options.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/liftplan/pkg/clearance"
	"github.com/chazu/liftplan/pkg/component"
	"github.com/chazu/liftplan/pkg/geom"
	"github.com/chazu/liftplan/pkg/kernel"
	"github.com/chazu/liftplan/pkg/observability"
	"github.com/chazu/liftplan/pkg/sequence"
	"github.com/chazu/liftplan/pkg/support"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrTooManyInputErrors is returned when more records were rejected
	// than Options.MaxInputErrors allows.
	ErrTooManyInputErrors = errors.New("analysis: too many input errors")

	// ErrLoadBearingRejected is returned when Options.AbortOnLoadBearing is
	// set and a rejected record carried an accepted component.
	ErrLoadBearingRejected = errors.New("analysis: rejected component is load-bearing")
)

// LoadBearingRejection names a rejected record and the accepted
// components that rest on it.
type LoadBearingRejection struct {
	Rejected component.ID   `json:"rejected"`
	Carries  []component.ID `json:"carries"`
}

// Result is everything a run produced.
type Result struct {
	RunID   string
	Kernel  string
	Options Options

	Store       *component.Store
	Adjacency   support.Adjacency
	Diagnostics support.Diagnostics
	Sequence    *sequence.Result

	InputErrors       []*component.InputError
	LoadBearing       []LoadBearingRejection
	UnknownCategories int

	Duration time.Duration
}

// Run analyses recs with kernel k. A nil logger discards log output.
func Run(ctx context.Context, k kernel.Kernel, recs []component.Record, opts Options, logger *zap.Logger) (res *Result, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if k == nil {
		return nil, &ConfigurationError{Field: "kernel", Value: nil, Reason: "must be set"}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	policy, _ := sequence.PolicyByName(opts.DeadlockPolicy)

	start := time.Now()
	runID := uuid.NewString()
	log := logger.With(zap.String("run_id", runID), zap.String("kernel", k.Name()))
	hooks := observability.Analysis()
	rounds := 0
	defer func() {
		hooks.OnRunComplete(ctx, runID, rounds, time.Since(start), err)
	}()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	store, rejected := component.NewStore(k, recs)
	hooks.OnRunStart(ctx, runID, store.Len())
	log.Info("analysis started", zap.Int("records", len(recs)), zap.Int("components", store.Len()))

	res = &Result{
		RunID:             runID,
		Kernel:            k.Name(),
		Options:           opts,
		Store:             store,
		InputErrors:       rejected,
		UnknownCategories: store.UnknownCategories(),
	}
	for _, ie := range rejected {
		hooks.OnInputRejected(ctx, ie.Reason)
		log.Warn("component rejected", zap.Int64("component", int64(ie.ID)), zap.String("name", ie.Name), zap.Error(ie))
	}
	if res.UnknownCategories > 0 {
		log.Warn("unknown categories mapped to unknown", zap.Int("count", res.UnknownCategories))
	}
	if opts.MaxInputErrors > 0 && len(rejected) > opts.MaxInputErrors {
		return nil, fmt.Errorf("%w: %d rejected (limit %d)", ErrTooManyInputErrors, len(rejected), opts.MaxInputErrors)
	}

	res.LoadBearing = loadBearing(store, rejected, opts)
	for _, lb := range res.LoadBearing {
		log.Warn("rejected component carries others",
			zap.Int64("component", int64(lb.Rejected)),
			zap.Int("carries", len(lb.Carries)),
		)
	}
	if opts.AbortOnLoadBearing && len(res.LoadBearing) > 0 {
		return nil, fmt.Errorf("%w: %d carries %v", ErrLoadBearingRejected, res.LoadBearing[0].Rejected, res.LoadBearing[0].Carries)
	}

	sopts := support.Options{
		Tolerance:        opts.SupportTolerance,
		XYEpsilon:        opts.XYEpsilon,
		RequireXYOverlap: opts.RequireXYOverlap,
		UseIndex:         opts.SpatialIndex,
	}
	res.Adjacency = support.Build(store, sopts)
	res.Diagnostics = support.Diagnose(store, res.Adjacency, opts.SupportTolerance)
	if len(res.Diagnostics.Floating) > 0 {
		log.Warn("floating components", zap.Int64s("components", idsToInt64(res.Diagnostics.Floating)))
	}
	for _, cycle := range res.Diagnostics.Cycles {
		log.Warn("support cycle", zap.Int64s("components", idsToInt64(cycle)))
	}
	log.Debug("support relation built", zap.Int("edges", res.Adjacency.Edges()))

	engine := clearance.New(store, k, clearance.Options{
		CeilingMargin:   opts.CeilingMargin,
		VolumeTolerance: opts.VolumeTolerance,
		XYEpsilon:       opts.XYEpsilon,
	})
	gen := sequence.New(store, res.Adjacency, engine, sequence.Options{
		Policy:      policy,
		Workers:     opts.Workers,
		MaxRounds:   opts.MaxRounds,
		MaxFailures: opts.MaxFailures,
		Logger:      log,
	})
	seq, err := gen.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	res.Sequence = seq
	rounds = seq.Report.Rounds
	res.Duration = time.Since(start)

	log.Info("analysis finished",
		zap.Int("groups", len(seq.Disassembly)),
		zap.Int("forced", len(seq.Forced)),
		zap.Int("failures", len(seq.Report.Failures)),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

// loadBearing finds rejected records whose bounding box carries accepted
// components under the support test.
func loadBearing(store *component.Store, rejected []*component.InputError, opts Options) []LoadBearingRejection {
	var out []LoadBearingRejection
	for _, ie := range rejected {
		if ie.Bounds == nil {
			continue
		}
		var carries []component.ID
		for _, c := range store.Components() {
			if c.ID == ie.ID {
				continue
			}
			if !geom.RestsOn(*ie.Bounds, c.Bounds, opts.SupportTolerance) {
				continue
			}
			if opts.RequireXYOverlap && !geom.OverlapXY(*ie.Bounds, c.Bounds, opts.XYEpsilon) {
				continue
			}
			carries = append(carries, c.ID)
		}
		if len(carries) > 0 {
			out = append(out, LoadBearingRejection{Rejected: ie.ID, Carries: carries})
		}
	}
	return out
}

func idsToInt64(ids []component.ID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
