// Package export turns an analysis result into the liftplan output
// document and into Graphviz drawings of the support graph.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/chazu/liftplan/pkg/analysis"
	"github.com/chazu/liftplan/pkg/component"
	"github.com/chazu/liftplan/pkg/sequence"
)

// Document is the JSON result of a run. Its top-level layout
// (project_info, components_semantics, constraints, macro_sequence) is
// what downstream schedulers already read; forced and diagnostics are
// additions they ignore.
type Document struct {
	ProjectInfo   ProjectInfo    `json:"project_info"`
	Components    []Semantics    `json:"components_semantics"`
	Constraints   Constraints    `json:"constraints"`
	MacroSequence MacroSequence  `json:"macro_sequence"`
	Forced        []component.ID `json:"forced"`
	Diagnostics   Diagnostics    `json:"diagnostics"`
}

// ProjectInfo identifies the run that produced the document.
type ProjectInfo struct {
	Name           string           `json:"name"`
	RunID          string           `json:"run_id"`
	Kernel         string           `json:"kernel"`
	ComponentCount int              `json:"component_count"`
	Options        analysis.Options `json:"options"`
}

// Semantics describes one accepted component.
type Semantics struct {
	ID         component.ID `json:"id"`
	Name       string       `json:"name"`
	Type       string       `json:"type"`
	CategoryID int          `json:"category_id"`
	Level      string       `json:"level"`
}

// Constraints holds adjacency lists keyed by the decimal component id.
// Interference is computed on demand during sequencing and is always
// exported empty.
type Constraints struct {
	Support      map[string][]component.ID `json:"support_adjacency_list"`
	Interference map[string][]component.ID `json:"interference_adjacency_list"`
}

// MacroSequence holds the disassembly and assembly groups, each sorted by
// id. Assembly is Disassembly reversed.
type MacroSequence struct {
	Disassembly [][]component.ID `json:"disassembly_groups"`
	Assembly    [][]component.ID `json:"assembly_groups"`

	// ForcedGroups are indices into Disassembly of deadlock-forced groups.
	ForcedGroups []int `json:"forced_groups"`
}

// Diagnostics collects everything the run reported without failing.
type Diagnostics struct {
	Rounds            int                             `json:"rounds"`
	Floating          []component.ID                  `json:"floating"`
	Tops              []component.ID                  `json:"tops"`
	Cycles            [][]component.ID                `json:"cycles"`
	Deadlocks         []sequence.DeadlockEvent        `json:"deadlocks"`
	Failures          []Failure                       `json:"failures"`
	Rejected          []Rejection                     `json:"rejected"`
	LoadBearing       []analysis.LoadBearingRejection `json:"load_bearing"`
	UnknownCategories int                             `json:"unknown_categories"`
}

// Failure is a clearance test that could not be computed. The component
// was held back for that round.
type Failure struct {
	Round     int          `json:"round"`
	Component component.ID `json:"component"`
	Error     string       `json:"error"`
}

// Rejection is an input record that was skipped.
type Rejection struct {
	ID     component.ID `json:"id"`
	Name   string       `json:"name"`
	Reason string       `json:"reason"`
	Error  string       `json:"error"`
}

// NewDocument builds the output document for res. name is the project
// name recorded in project_info. Slices are never nil so the JSON always
// carries arrays.
func NewDocument(res *analysis.Result, name string) *Document {
	doc := &Document{
		ProjectInfo: ProjectInfo{
			Name:           name,
			RunID:          res.RunID,
			Kernel:         res.Kernel,
			ComponentCount: res.Store.Len(),
			Options:        res.Options,
		},
		Components: make([]Semantics, 0, res.Store.Len()),
		Constraints: Constraints{
			Support:      make(map[string][]component.ID, len(res.Adjacency)),
			Interference: map[string][]component.ID{},
		},
		Forced: nonNil(res.Sequence.Forced),
		Diagnostics: Diagnostics{
			Rounds:            res.Sequence.Report.Rounds,
			Floating:          nonNil(res.Diagnostics.Floating),
			Tops:              nonNil(res.Diagnostics.Tops),
			Cycles:            make([][]component.ID, 0, len(res.Diagnostics.Cycles)),
			Deadlocks:         make([]sequence.DeadlockEvent, 0, len(res.Sequence.Report.Deadlocks)),
			Failures:          make([]Failure, 0, len(res.Sequence.Report.Failures)),
			Rejected:          make([]Rejection, 0, len(res.InputErrors)),
			LoadBearing:       make([]analysis.LoadBearingRejection, 0, len(res.LoadBearing)),
			UnknownCategories: res.UnknownCategories,
		},
	}

	for _, c := range res.Store.Components() {
		doc.Components = append(doc.Components, Semantics{
			ID:         c.ID,
			Name:       c.Name,
			Type:       c.Category.String(),
			CategoryID: int(c.Category),
			Level:      c.Level,
		})
	}
	for id, supported := range res.Adjacency {
		doc.Constraints.Support[strconv.FormatInt(int64(id), 10)] = nonNil(supported)
	}

	doc.MacroSequence = macroSequence(res.Sequence)

	doc.Diagnostics.Cycles = append(doc.Diagnostics.Cycles, res.Diagnostics.Cycles...)
	doc.Diagnostics.Deadlocks = append(doc.Diagnostics.Deadlocks, res.Sequence.Report.Deadlocks...)
	for _, f := range res.Sequence.Report.Failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		doc.Diagnostics.Failures = append(doc.Diagnostics.Failures, Failure{Round: f.Round, Component: f.Component, Error: msg})
	}
	for _, ie := range res.InputErrors {
		doc.Diagnostics.Rejected = append(doc.Diagnostics.Rejected, Rejection{
			ID:     ie.ID,
			Name:   ie.Name,
			Reason: ie.Reason,
			Error:  ie.Error(),
		})
	}
	doc.Diagnostics.LoadBearing = append(doc.Diagnostics.LoadBearing, res.LoadBearing...)
	return doc
}

func macroSequence(seq *sequence.Result) MacroSequence {
	ms := MacroSequence{
		Disassembly:  make([][]component.ID, len(seq.Disassembly)),
		Assembly:     make([][]component.ID, len(seq.Assembly)),
		ForcedGroups: []int{},
	}
	for i, g := range seq.Disassembly {
		ms.Disassembly[i] = g.Members
		if g.Forced {
			ms.ForcedGroups = append(ms.ForcedGroups, i)
		}
	}
	for i, g := range seq.Assembly {
		ms.Assembly[i] = g.Members
	}
	return ms
}

// Write encodes doc as indented JSON. Non-ASCII names are written as-is.
func Write(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("export: encode document: %w", err)
	}
	return nil
}

func nonNil(ids []component.ID) []component.ID {
	if ids == nil {
		return []component.ID{}
	}
	return ids
}
