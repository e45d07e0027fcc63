package component

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Category identifies the structural role of a component. Values are the
// host model's built-in category ids, so records can carry them verbatim.
type Category int

const (
	CategoryUnknown Category = 0
	CategoryBeam    Category = -2001320 // structural framing
	CategoryColumn  Category = -2001330 // structural columns
	CategoryWall    Category = -2000011 // walls
	CategorySlab    Category = -2000032 // floors
)

var categoryNames = map[Category]string{
	CategoryBeam:   "beam",
	CategoryColumn: "column",
	CategoryWall:   "wall",
	CategorySlab:   "slab",
}

// Categories returns the known categories ordered by name.
func Categories() []Category {
	out := make([]Category, 0, len(categoryNames))
	for c := range categoryNames {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return categoryNames[out[i]] < categoryNames[out[j]] })
	return out
}

// Known reports whether c is one of the enumerated categories.
func (c Category) Known() bool {
	_, ok := categoryNames[c]
	return ok
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// UnmarshalJSON accepts either the integer id or a category name.
func (c *Category) UnmarshalJSON(data []byte) error {
	var id int
	if err := json.Unmarshal(data, &id); err == nil {
		*c = Category(id)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("component: category must be an integer id or a name: %s", data)
	}
	parsed, err := ParseCategory(name)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory resolves a category name such as "slab". Matching is
// case-insensitive.
func ParseCategory(name string) (Category, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for c, n := range categoryNames {
		if n == want {
			return c, nil
		}
	}
	return CategoryUnknown, fmt.Errorf("component: unknown category %q", name)
}
