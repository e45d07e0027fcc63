package sequence

import (
	"fmt"
	"sort"

	"github.com/chazu/liftplan/pkg/component"
)

// State is what a DeadlockPolicy sees when the generator is stuck.
type State struct {
	Store *component.Store

	// Remaining lists the ids not yet grouped, in ascending order.
	Remaining []component.ID

	// Dependents counts, per remaining id, the remaining components
	// resting on it.
	Dependents map[component.ID]int
}

// DeadlockPolicy chooses the single component forced out when no
// component is removable. Pick must be deterministic and must return a
// member of s.Remaining.
type DeadlockPolicy interface {
	Name() string
	Pick(s State) component.ID
}

// pickBest returns the remaining id ranked first by better, a strict
// ordering. Remaining is ascending and only strictly better candidates
// replace the current pick, so ties go to the lowest id.
func pickBest(s State, better func(a, b *component.Component) bool) component.ID {
	best := s.Store.Get(s.Remaining[0])
	for _, id := range s.Remaining[1:] {
		if c := s.Store.Get(id); better(c, best) {
			best = c
		}
	}
	return best.ID
}

// HighestTop forces out the component with the greatest top elevation.
type HighestTop struct{}

func (HighestTop) Name() string { return "highest-top" }

func (HighestTop) Pick(s State) component.ID {
	return pickBest(s, func(a, b *component.Component) bool { return a.ZMax > b.ZMax })
}

// LargestVolume forces out the component with the greatest volume.
type LargestVolume struct{}

func (LargestVolume) Name() string { return "largest-volume" }

func (LargestVolume) Pick(s State) component.ID {
	return pickBest(s, func(a, b *component.Component) bool { return a.Volume > b.Volume })
}

// FewestDependents forces out the component carrying the fewest remaining
// components, preferring the higher top on ties.
type FewestDependents struct{}

func (FewestDependents) Name() string { return "fewest-dependents" }

func (FewestDependents) Pick(s State) component.ID {
	return pickBest(s, func(a, b *component.Component) bool {
		da, db := s.Dependents[a.ID], s.Dependents[b.ID]
		if da != db {
			return da < db
		}
		return a.ZMax > b.ZMax
	})
}

var policies = map[string]DeadlockPolicy{
	HighestTop{}.Name():       HighestTop{},
	LargestVolume{}.Name():    LargestVolume{},
	FewestDependents{}.Name(): FewestDependents{},
}

// DefaultPolicy is the policy used when none is configured.
const DefaultPolicy = "highest-top"

// PolicyByName returns the built-in policy with the given name. An empty
// name selects DefaultPolicy.
func PolicyByName(name string) (DeadlockPolicy, error) {
	if name == "" {
		name = DefaultPolicy
	}
	p, ok := policies[name]
	if !ok {
		return nil, fmt.Errorf("sequence: unknown deadlock policy %q (have %v)", name, PolicyNames())
	}
	return p, nil
}

// PolicyNames lists the built-in policy names in sorted order.
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for n := range policies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
