// Package support derives the directed "supports" relation between
// components: p supports c when c rests on p's top surface and their
// footprints overlap.
//
// Build compares every ordered pair by default. Component counts are
// modest, so the quadratic scan is the reference behaviour; an R-tree over
// XY footprints can prune pairs and must produce the same relation.
package support

import (
	"sort"

	"github.com/chazu/liftplan/pkg/component"
	"github.com/chazu/liftplan/pkg/geom"
)

// Options controls the support test.
type Options struct {
	// Tolerance is the maximum gap between a supporter's top and the
	// supported component's bottom, in model units.
	Tolerance float64

	// XYEpsilon is the signed slack passed to geom.OverlapXY.
	XYEpsilon float64

	// RequireXYOverlap demands overlapping footprints. Turning it off keeps
	// only the vertical contact test.
	RequireXYOverlap bool

	// UseIndex prunes candidate pairs with an R-tree over footprints.
	UseIndex bool
}

// DefaultOptions returns the tolerances used by the original tool.
func DefaultOptions() Options {
	return Options{Tolerance: 1.0, RequireXYOverlap: true}
}

// Adjacency maps each component id to the ascending ids of the components
// resting on it. Every accepted component has an entry, possibly empty.
type Adjacency map[component.ID][]component.ID

// Supports returns the ids resting on id.
func (a Adjacency) Supports(id component.ID) []component.ID { return a[id] }

// Supporters inverts the relation: for each id, the ids it rests on.
func (a Adjacency) Supporters() Adjacency {
	inv := make(Adjacency, len(a))
	for p := range a {
		if _, ok := inv[p]; !ok {
			inv[p] = nil
		}
	}
	for p, cs := range a {
		for _, c := range cs {
			inv[c] = append(inv[c], p)
		}
	}
	for _, ps := range inv {
		sortIDs(ps)
	}
	return inv
}

// Edges returns the number of support pairs.
func (a Adjacency) Edges() int {
	n := 0
	for _, cs := range a {
		n += len(cs)
	}
	return n
}

// Supports reports whether p supports c under opts.
func Supports(p, c *component.Component, opts Options) bool {
	if p.ID == c.ID {
		return false
	}
	if !geom.OverlapZ(p.Bounds, c.Bounds, opts.Tolerance) || !geom.RestsOn(p.Bounds, c.Bounds, opts.Tolerance) {
		return false
	}
	return !opts.RequireXYOverlap || geom.OverlapXY(p.Bounds, c.Bounds, opts.XYEpsilon)
}

// Build computes the support adjacency of every component in store.
func Build(store *component.Store, opts Options) Adjacency {
	comps := store.Components()
	adj := make(Adjacency, len(comps))
	for _, c := range comps {
		adj[c.ID] = nil
	}

	candidates := allPairs(comps)
	if opts.UseIndex && opts.RequireXYOverlap {
		candidates = newFootprintIndex(comps, opts.XYEpsilon).candidates
	}

	for _, p := range comps {
		for _, c := range candidates(p) {
			if Supports(p, c, opts) {
				adj[p.ID] = append(adj[p.ID], c.ID)
			}
		}
	}
	for _, cs := range adj {
		sortIDs(cs)
	}
	return adj
}

func allPairs(comps []*component.Component) func(*component.Component) []*component.Component {
	return func(*component.Component) []*component.Component { return comps }
}

func sortIDs(ids []component.ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
