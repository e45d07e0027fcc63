// Package clearance builds per-component clearance volumes ("scan boxes")
// and tests them against the solids of components still in place.
//
// A scan box is the prism over a component's bounding-box footprint from
// its top surface up to the global ceiling: the space the component sweeps
// through when lifted straight up. Its shape depends only on the component
// and the ceiling, so it is built once and memoised until the component is
// removed.
package clearance

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/chazu/liftplan/pkg/component"
	"github.com/chazu/liftplan/pkg/geom"
	"github.com/chazu/liftplan/pkg/kernel"
	"github.com/chazu/liftplan/pkg/observability"
)

// Options controls scan box construction and the exact test.
type Options struct {
	// CeilingMargin is added above the highest component top so that the
	// topmost scan boxes are not flush with the ceiling.
	CeilingMargin float64

	// VolumeTolerance is the intersection volume at or below which a scan
	// box is considered unobstructed.
	VolumeTolerance float64

	// XYEpsilon widens the footprint prefilter. Negative values are
	// treated as zero so the prefilter never hides a real intersection.
	XYEpsilon float64
}

// DefaultOptions returns the tolerances used by the original tool.
func DefaultOptions() Options {
	return Options{CeilingMargin: 1.0, VolumeTolerance: 1e-6}
}

// ScanBox is the clearance volume of one component.
type ScanBox struct {
	Owner  component.ID
	Bounds component.BBox

	// Solid is nil when the prism has no height; such a component can
	// never be obstructed.
	Solid  kernel.Solid
	Volume float64
}

// Empty reports whether the scan box has no height.
func (b *ScanBox) Empty() bool { return b.Solid == nil }

// Engine answers obstruction queries. It is safe for concurrent use.
type Engine struct {
	store   *component.Store
	k       kernel.Kernel
	opts    Options
	ceiling float64

	mu    sync.Mutex
	boxes map[component.ID]*ScanBox
}

// New returns an engine over store. k must be the kernel the store's
// solids were built with.
func New(store *component.Store, k kernel.Kernel, opts Options) *Engine {
	return &Engine{
		store:   store,
		k:       k,
		opts:    opts,
		ceiling: store.CeilingZ() + opts.CeilingMargin,
		boxes:   make(map[component.ID]*ScanBox),
	}
}

// Ceiling returns the elevation every scan box extends to.
func (e *Engine) Ceiling() float64 { return e.ceiling }

// ScanBox returns the memoised scan box of id, building it on first use.
func (e *Engine) ScanBox(id component.ID) (*ScanBox, error) {
	e.mu.Lock()
	box, ok := e.boxes[id]
	e.mu.Unlock()
	if ok {
		return box, nil
	}

	box, err := e.build(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Another goroutine may have won the race; keep the first box so
	// every caller sees the same one.
	if prev, ok := e.boxes[id]; ok {
		return prev, nil
	}
	e.boxes[id] = box
	return box, nil
}

func (e *Engine) build(id component.ID) (*ScanBox, error) {
	c := e.store.Get(id)
	if c == nil {
		return nil, fmt.Errorf("clearance: unknown component %d", id)
	}
	bounds := component.BBox{
		Min: [3]float64{c.Bounds.Min[0], c.Bounds.Min[1], c.ZMax},
		Max: [3]float64{c.Bounds.Max[0], c.Bounds.Max[1], e.ceiling},
	}
	box := &ScanBox{Owner: id, Bounds: bounds}
	if e.ceiling-c.ZMax <= 0 {
		return box, nil
	}

	solid, err := kernel.BoxAt(e.k, bounds.Min, bounds.Max)
	if err != nil {
		return nil, fmt.Errorf("clearance: scan box of %d: %w", id, err)
	}
	vol, err := e.k.Volume(solid)
	if err != nil {
		return nil, fmt.Errorf("clearance: scan box volume of %d: %w", id, err)
	}
	box.Solid, box.Volume = solid, vol
	return box, nil
}

// Forget drops the memoised scan box of id. Call it once id is removed.
func (e *Engine) Forget(id component.ID) {
	e.mu.Lock()
	delete(e.boxes, id)
	e.mu.Unlock()
}

// Cached returns the number of memoised scan boxes.
func (e *Engine) Cached() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.boxes)
}

// Obstructions returns the components in remaining whose solids obstruct
// the scan box of id. remaining must be in ascending order; id itself is
// skipped. The search stops at the first blocker unless all is set.
//
// Obstacles whose top lies below id's top cannot reach into the scan box.
// That prune is the only Z filter: the scan box runs up to the ceiling, so
// every survivor overlaps it vertically. Survivors whose footprint misses
// the scan box are skipped, and the rest get the exact test against the
// union of their bodies.
//
// A kernel failure is returned as a *geom.ComputationError together with
// the blockers found so far. Callers must treat id as blocked.
func (e *Engine) Obstructions(ctx context.Context, id component.ID, remaining []component.ID, all bool) ([]component.ID, error) {
	box, err := e.ScanBox(id)
	if err != nil {
		return nil, err
	}
	if box.Empty() {
		return nil, nil
	}
	self := e.store.Get(id)
	hooks := observability.Analysis()
	eps := math.Max(e.opts.XYEpsilon, 0)

	var blockers []component.ID
	for _, oid := range remaining {
		if oid == id {
			continue
		}
		if err := ctx.Err(); err != nil {
			return blockers, err
		}
		o := e.store.Get(oid)
		if o == nil || o.ZMax < self.ZMax {
			continue
		}
		if !geom.OverlapXY(box.Bounds, o.Bounds, eps) {
			continue
		}

		start := time.Now()
		hit, err := geom.SolidsIntersect(e.k, []kernel.Solid{box.Solid}, []kernel.Solid{o.Solid}, e.opts.VolumeTolerance)
		if err != nil {
			hooks.OnComputationFailure(ctx, e.k.Name())
			return blockers, &geom.ComputationError{
				A: id, B: oid,
				VolumeA: box.Volume, VolumeB: o.Volume,
				BoundsA: box.Bounds, BoundsB: o.Bounds,
				Cause: err,
			}
		}
		hooks.OnIntersectionTest(ctx, e.k.Name(), hit, time.Since(start))
		if hit {
			blockers = append(blockers, oid)
			if !all {
				return blockers, nil
			}
		}
	}
	return blockers, nil
}
