package support

import (
	"sort"

	"github.com/chazu/liftplan/pkg/component"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Diagnostics are advisory findings about a support relation. None of
// them cause a component to be rejected.
type Diagnostics struct {
	// Floating lists components that support nothing, rest on nothing and
	// do not start at the lowest elevation in the model.
	Floating []component.ID

	// Tops lists components with nothing resting on them.
	Tops []component.ID

	// Cycles lists strongly connected groups of two or more components
	// that transitively support each other.
	Cycles [][]component.ID
}

// Empty reports whether there is anything worth surfacing. Tops are
// expected in any model and do not count.
func (d Diagnostics) Empty() bool {
	return len(d.Floating) == 0 && len(d.Cycles) == 0
}

// Diagnose inspects adj for floating components, top elements and cycles.
// tol is the support tolerance used to decide whether a component starts
// on the lowest level of store.
func Diagnose(store *component.Store, adj Adjacency, tol float64) Diagnostics {
	var d Diagnostics
	restsOn := adj.Supporters()

	for _, id := range store.IDs() {
		if len(adj[id]) == 0 {
			d.Tops = append(d.Tops, id)
		}
		c := store.Get(id)
		if len(adj[id]) == 0 && len(restsOn[id]) == 0 && c.ZMin > store.FloorZ()+tol {
			d.Floating = append(d.Floating, id)
		}
	}

	d.Cycles = Cycles(adj)
	return d
}

// Cycles returns the strongly connected components of adj with more than
// one member. Members are sorted and cycles are ordered by first member.
func Cycles(adj Adjacency) [][]component.ID {
	g := simple.NewDirectedGraph()
	ids := make([]component.ID, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sortIDs(ids)
	for _, id := range ids {
		g.AddNode(simple.Node(id))
	}
	for _, p := range ids {
		for _, c := range adj[p] {
			if c == p {
				continue
			}
			if g.Node(int64(c)) == nil {
				g.AddNode(simple.Node(c))
			}
			g.SetEdge(simple.Edge{F: simple.Node(p), T: simple.Node(c)})
		}
	}

	var cycles [][]component.ID
	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		members := make([]component.ID, len(scc))
		for i, n := range scc {
			members[i] = component.ID(n.ID())
		}
		sortIDs(members)
		cycles = append(cycles, members)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}
