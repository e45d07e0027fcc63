package support

import (
	"math"
	"sort"

	"github.com/chazu/liftplan/pkg/component"
	"github.com/dhconnelly/rtreego"
)

// indexPad widens query rectangles so that touching footprints, which the
// R-tree does not report as intersecting, still come back as candidates.
// Queries are further widened by 2*|eps| to cover geom.OverlapXY's slack.
const indexPad = 1e-3

// footprint adapts a component to rtreego.Spatial.
type footprint struct {
	c    *component.Component
	rect rtreego.Rect
}

func (f *footprint) Bounds() rtreego.Rect { return f.rect }

type footprintIndex struct {
	tree *rtreego.Rtree
	pad  float64
}

func newFootprintIndex(comps []*component.Component, eps float64) *footprintIndex {
	idx := &footprintIndex{
		tree: rtreego.NewTree(2, 8, 32),
		pad:  indexPad + 2*math.Abs(eps),
	}
	for _, c := range comps {
		rect, err := footprintRect(c.Bounds, 0)
		if err != nil {
			continue
		}
		idx.tree.Insert(&footprint{c: c, rect: rect})
	}
	return idx
}

// candidates returns the components whose padded footprint meets c's,
// in ascending id order. The exact predicate still decides.
func (idx *footprintIndex) candidates(c *component.Component) []*component.Component {
	rect, err := footprintRect(c.Bounds, idx.pad)
	if err != nil {
		return nil
	}
	hits := idx.tree.SearchIntersect(rect)
	out := make([]*component.Component, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*footprint).c)
	}
	sortComponents(out)
	return out
}

func footprintRect(b component.BBox, pad float64) (rtreego.Rect, error) {
	return rtreego.NewRectFromPoints(
		rtreego.Point{b.Min[0] - pad, b.Min[1] - pad},
		rtreego.Point{b.Max[0] + pad, b.Max[1] + pad},
	)
}

func sortComponents(cs []*component.Component) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
}
