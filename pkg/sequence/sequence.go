// Package sequence turns the support relation and the collision engine
// into an ordered partition of components into disassembly groups.
//
// Each round evaluates every remaining component independently: it is
// removable when nothing remaining rests on it and its scan box is
// unobstructed by the remaining components. Removable components form the
// next group. When nothing is removable a DeadlockPolicy forces a single
// component out so the run always terminates. The assembly order is the
// disassembly order reversed.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/chazu/liftplan/pkg/component"
	"github.com/chazu/liftplan/pkg/geom"
	"github.com/chazu/liftplan/pkg/observability"
	"github.com/chazu/liftplan/pkg/support"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Obstructor answers geometric freedom queries. *clearance.Engine
// implements it.
type Obstructor interface {
	Obstructions(ctx context.Context, id component.ID, remaining []component.ID, all bool) ([]component.ID, error)
	Forget(id component.ID)
}

// Options controls a generator run.
type Options struct {
	// Policy breaks deadlocks. Nil selects HighestTop.
	Policy DeadlockPolicy

	// Workers bounds concurrent candidate evaluations within a round.
	// Zero or less uses GOMAXPROCS.
	Workers int

	// MaxRounds aborts the run with ErrRoundLimit after this many rounds.
	// Zero means no limit.
	MaxRounds int

	// MaxFailures aborts the run with ErrTooManyFailures once more than
	// this many computation failures have been recorded. Zero means no
	// limit.
	MaxFailures int

	Logger *zap.Logger
}

// Generator produces disassembly groups. A Generator is single-use.
type Generator struct {
	store *component.Store
	adj   support.Adjacency
	obs   Obstructor
	opts  Options
	log   *zap.Logger
}

// New returns a generator over store. adj must have been built from the
// same store.
func New(store *component.Store, adj support.Adjacency, obs Obstructor, opts Options) *Generator {
	if opts.Policy == nil {
		opts.Policy = HighestTop{}
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{store: store, adj: adj, obs: obs, opts: opts, log: log}
}

// verdict is the outcome of evaluating one candidate in one round.
type verdict struct {
	removable bool
	failure   error
}

// Run executes rounds until every component is grouped. Cancellation of
// ctx, the round limit and the failure threshold abort the run with an
// error and no partial result.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	hooks := observability.Analysis()
	remaining := append([]component.ID(nil), g.store.IDs()...)
	res := &Result{}

	for round := 1; len(remaining) > 0; round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sequence: round %d: %w", round, err)
		}
		if g.opts.MaxRounds > 0 && round > g.opts.MaxRounds {
			return nil, fmt.Errorf("%w: %d rounds, %d components left", ErrRoundLimit, g.opts.MaxRounds, len(remaining))
		}

		verdicts, err := g.evaluate(ctx, remaining)
		if err != nil {
			return nil, fmt.Errorf("sequence: round %d: %w", round, err)
		}

		var removable []component.ID
		for i, v := range verdicts {
			id := remaining[i]
			if v.failure != nil {
				g.recordFailure(res, round, id, v.failure)
			}
			if v.removable {
				removable = append(removable, id)
			}
		}
		if g.opts.MaxFailures > 0 && len(res.Report.Failures) > g.opts.MaxFailures {
			return nil, fmt.Errorf("%w: %d (limit %d)", ErrTooManyFailures, len(res.Report.Failures), g.opts.MaxFailures)
		}

		group := Group{Members: removable}
		if len(removable) == 0 {
			ev, err := g.breakDeadlock(ctx, res, round, remaining)
			if err != nil {
				return nil, fmt.Errorf("sequence: round %d: %w", round, err)
			}
			group = Group{Members: []component.ID{ev.Component}, Forced: true}
			res.Forced = append(res.Forced, ev.Component)
			res.Report.Deadlocks = append(res.Report.Deadlocks, ev)
			hooks.OnDeadlock(ctx, round, int64(ev.Component))
			g.log.Warn("deadlock broken",
				zap.Int("round", round),
				zap.Int64("component", int64(ev.Component)),
				zap.Float64("z_max", ev.ZMax),
				zap.String("policy", ev.Policy),
				zap.Int64s("structural_conflicts", toInt64s(ev.StructuralConflicts)),
				zap.Int64s("geometric_conflicts", toInt64s(ev.GeometricConflicts)),
			)
		}

		res.Disassembly = append(res.Disassembly, group)
		remaining = without(remaining, group.Members)
		for _, id := range group.Members {
			g.obs.Forget(id)
		}
		res.Report.Rounds = round
		hooks.OnRound(ctx, round, len(group.Members), group.Forced)
		g.log.Debug("round complete",
			zap.Int("round", round),
			zap.Int64s("removed", toInt64s(group.Members)),
			zap.Bool("forced", group.Forced),
			zap.Int("remaining", len(remaining)),
		)
	}

	res.Assembly = Reverse(res.Disassembly)
	return res, nil
}

// evaluate decides removability for every remaining id concurrently. The
// returned verdicts are index-aligned with remaining.
func (g *Generator) evaluate(ctx context.Context, remaining []component.ID) ([]verdict, error) {
	inRemaining := make(map[component.ID]bool, len(remaining))
	for _, id := range remaining {
		inRemaining[id] = true
	}

	verdicts := make([]verdict, len(remaining))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)
	for i, id := range remaining {
		eg.Go(func() error {
			if len(restingOn(g.adj, id, inRemaining)) > 0 {
				return nil
			}
			blockers, err := g.obs.Obstructions(egctx, id, remaining, false)
			var ce *geom.ComputationError
			switch {
			case errors.As(err, &ce):
				verdicts[i] = verdict{failure: err}
			case err != nil:
				return err
			default:
				verdicts[i] = verdict{removable: len(blockers) == 0}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

// breakDeadlock picks the component to force out and gathers the
// conflicts that held it back.
func (g *Generator) breakDeadlock(ctx context.Context, res *Result, round int, remaining []component.ID) (DeadlockEvent, error) {
	inRemaining := make(map[component.ID]bool, len(remaining))
	for _, id := range remaining {
		inRemaining[id] = true
	}
	dependents := make(map[component.ID]int, len(remaining))
	for _, id := range remaining {
		dependents[id] = len(restingOn(g.adj, id, inRemaining))
	}

	id := g.opts.Policy.Pick(State{Store: g.store, Remaining: remaining, Dependents: dependents})
	if !inRemaining[id] {
		return DeadlockEvent{}, fmt.Errorf("deadlock policy %s picked %d, which is not remaining", g.opts.Policy.Name(), id)
	}

	blockers, err := g.obs.Obstructions(ctx, id, remaining, true)
	var ce *geom.ComputationError
	if errors.As(err, &ce) {
		g.recordFailure(res, round, id, err)
	} else if err != nil {
		return DeadlockEvent{}, err
	}

	return DeadlockEvent{
		Round:               round,
		Component:           id,
		ZMax:                g.store.Get(id).ZMax,
		Policy:              g.opts.Policy.Name(),
		StructuralConflicts: restingOn(g.adj, id, inRemaining),
		GeometricConflicts:  blockers,
	}, nil
}

func (g *Generator) recordFailure(res *Result, round int, id component.ID, err error) {
	res.Report.Failures = append(res.Report.Failures, Failure{Round: round, Component: id, Err: err})
	g.log.Warn("clearance test failed; component held back",
		zap.Int("round", round),
		zap.Int64("component", int64(id)),
		zap.Error(err),
	)
}

// restingOn returns the ids in remaining that rest on id, ascending.
func restingOn(adj support.Adjacency, id component.ID, remaining map[component.ID]bool) []component.ID {
	var out []component.ID
	for _, c := range adj.Supports(id) {
		if remaining[c] {
			out = append(out, c)
		}
	}
	return out
}

// without returns ids minus drop, preserving order.
func without(ids, drop []component.ID) []component.ID {
	gone := make(map[component.ID]bool, len(drop))
	for _, id := range drop {
		gone[id] = true
	}
	out := ids[:0:0]
	for _, id := range ids {
		if !gone[id] {
			out = append(out, id)
		}
	}
	return out
}

func toInt64s(ids []component.ID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
