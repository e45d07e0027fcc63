package component

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/liftplan/pkg/kernel"
)

// Store is the read-only component record store. It is safe for
// concurrent reads once NewStore returns.
type Store struct {
	k       kernel.Kernel
	byID    map[ID]*Component
	ids     []ID
	ceiling float64
	floor   float64
	unknown int
}

// NewStore validates records and builds their solids with k. Records that
// fail validation are skipped and reported as InputErrors in input order.
func NewStore(k kernel.Kernel, recs []Record) (*Store, []*InputError) {
	s := &Store{
		k:       k,
		byID:    make(map[ID]*Component, len(recs)),
		ceiling: math.Inf(-1),
		floor:   math.Inf(1),
	}
	var rejected []*InputError

	for _, rec := range recs {
		if _, dup := s.byID[rec.ID]; dup {
			rejected = append(rejected, &InputError{ID: rec.ID, Name: rec.Name, Reason: "duplicate id"})
			continue
		}
		c, ierr := s.build(rec)
		if ierr != nil {
			rejected = append(rejected, ierr)
			continue
		}
		s.byID[c.ID] = c
		s.ids = append(s.ids, c.ID)
		s.ceiling = math.Max(s.ceiling, c.ZMax)
		s.floor = math.Min(s.floor, c.ZMin)
	}

	sort.Slice(s.ids, func(i, j int) bool { return s.ids[i] < s.ids[j] })
	if len(s.ids) == 0 {
		s.ceiling, s.floor = 0, 0
	}
	return s, rejected
}

// build turns one record into a component or explains why it cannot.
func (s *Store) build(rec Record) (*Component, *InputError) {
	reject := func(bounds *BBox, reason string, err error) (*Component, *InputError) {
		return nil, &InputError{ID: rec.ID, Name: rec.Name, Reason: reason, Bounds: bounds, Err: err}
	}

	bounds, derived := recordBounds(rec)
	if !derived {
		return reject(nil, "missing solid", nil)
	}
	if !bounds.Finite() {
		return reject(nil, fmt.Sprintf("non-finite bounding box %s", bounds), nil)
	}
	if bounds.ZMin() > bounds.ZMax() {
		return reject(nil, fmt.Sprintf("inverted vertical extent %s", bounds), nil)
	}
	if !bounds.HasFootprint() {
		return reject(nil, fmt.Sprintf("degenerate footprint %s", bounds), nil)
	}
	if len(rec.Bodies) == 0 {
		return reject(&bounds, "missing solid", nil)
	}

	solids := make([]kernel.Solid, 0, len(rec.Bodies))
	var union kernel.Solid
	for i, body := range rec.Bodies {
		solid, err := kernel.BoxAt(s.k, body.Min, body.Max)
		if err != nil {
			return reject(&bounds, fmt.Sprintf("body %d %s", i, body), err)
		}
		solids = append(solids, solid)
		if union == nil {
			union = solid
		} else {
			union = s.k.Union(union, solid)
		}
	}
	vol, err := s.k.Volume(union)
	if err != nil {
		return reject(&bounds, "volume", err)
	}

	cat := rec.Category
	if !cat.Known() {
		s.unknown++
		cat = CategoryUnknown
	}

	return &Component{
		ID:       rec.ID,
		Name:     rec.Name,
		Category: cat,
		Level:    rec.Level,
		Bounds:   bounds,
		ZMin:     bounds.ZMin(),
		ZMax:     bounds.ZMax(),
		Solids:   solids,
		Solid:    union,
		Volume:   vol,
	}, nil
}

// recordBounds returns the explicit bounds of rec, or the box enclosing
// its bodies. ok is false when neither is available.
func recordBounds(rec Record) (b BBox, ok bool) {
	if rec.Bounds != nil {
		return *rec.Bounds, true
	}
	if len(rec.Bodies) == 0 {
		return BBox{}, false
	}
	b = rec.Bodies[0]
	for _, body := range rec.Bodies[1:] {
		b = b.Extend(body)
	}
	return b, true
}

// Kernel returns the kernel the solids were built with.
func (s *Store) Kernel() kernel.Kernel { return s.k }

// Get returns the component with the given id, or nil.
func (s *Store) Get(id ID) *Component { return s.byID[id] }

// Len returns the number of accepted components.
func (s *Store) Len() int { return len(s.ids) }

// IDs returns all component ids in ascending order. The slice is shared
// and must not be modified.
func (s *Store) IDs() []ID { return s.ids }

// Components returns all components in ascending id order.
func (s *Store) Components() []*Component {
	out := make([]*Component, len(s.ids))
	for i, id := range s.ids {
		out[i] = s.byID[id]
	}
	return out
}

// CeilingZ returns the highest top elevation of any component.
func (s *Store) CeilingZ() float64 { return s.ceiling }

// FloorZ returns the lowest bottom elevation of any component.
func (s *Store) FloorZ() float64 { return s.floor }

// UnknownCategories returns how many accepted records carried a category
// outside the enumeration and were mapped to CategoryUnknown.
func (s *Store) UnknownCategories() int { return s.unknown }
