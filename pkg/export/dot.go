package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/chazu/liftplan/pkg/analysis"
	"github.com/chazu/liftplan/pkg/component"
	"github.com/goccy/go-graphviz"
)

// DOTOptions configures support graph rendering.
type DOTOptions struct {
	// Detailed adds category, level and elevations to node labels.
	Detailed bool

	// RankByGroup places the members of each assembly group on one rank.
	RankByGroup bool
}

var categoryFill = map[component.Category]string{
	component.CategoryBeam:   "lightgoldenrod1",
	component.CategoryColumn: "lightblue",
	component.CategoryWall:   "palegreen",
	component.CategorySlab:   "lightgrey",
}

// ToDOT draws the support relation of res as a Graphviz digraph with an
// edge from each supporter to the component resting on it. Forced
// components are outlined in red.
func ToDOT(res *analysis.Result, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph support {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for _, c := range res.Store.Components() {
		attrs := []string{fmt.Sprintf("label=%q", nodeLabel(c, opts.Detailed))}
		if fill, ok := categoryFill[c.Category]; ok {
			attrs = append(attrs, "fillcolor="+fill)
		}
		if res.Sequence != nil && res.Sequence.IsForced(c.ID) {
			attrs = append(attrs, "color=red", "penwidth=2", "style=\"rounded,filled,dashed\"")
		}
		fmt.Fprintf(&buf, "  \"%d\" [%s];\n", c.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, id := range res.Store.IDs() {
		for _, to := range res.Adjacency[id] {
			fmt.Fprintf(&buf, "  \"%d\" -> \"%d\";\n", id, to)
		}
	}

	if opts.RankByGroup && res.Sequence != nil {
		buf.WriteString("\n")
		for i, g := range res.Sequence.Assembly {
			ids := make([]string, len(g.Members))
			for j, id := range g.Members {
				ids[j] = fmt.Sprintf("\"%d\"", id)
			}
			fmt.Fprintf(&buf, "  { rank=same; // group %d\n    %s;\n  }\n", i, strings.Join(ids, "; "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(c *component.Component, detailed bool) string {
	label := c.Name
	if label == "" {
		label = fmt.Sprintf("%d", c.ID)
	} else {
		label = fmt.Sprintf("%s (%d)", c.Name, c.ID)
	}
	if !detailed {
		return label
	}
	return fmt.Sprintf("%s\n%s %s\nz %g..%g", label, c.Category, c.Level, c.ZMin, c.ZMax)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("export: parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("export: render: %w", err)
	}
	return buf.Bytes(), nil
}
