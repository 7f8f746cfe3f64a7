package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stagegraph/pkg/layout"
)

// Options configures node-link rendering.
type Options struct {
	// Detailed adds phase, row and status to DOT labels.
	// When false, only the stage name is shown.
	Detailed bool

	// ShowPlaceholders draws placeholder nodes as dashed outlines.
	ShowPlaceholders bool
}

// ToDOT converts a layout document to Graphviz DOT. Each phase becomes a
// rank and nodes are declared in row order, so Graphviz keeps the vertical
// sequence computed by the layout.
//
// Placeholders are left out unless [Options.ShowPlaceholders] is set, in
// which case they are drawn with dashed outlines and grey fill.
func ToDOT(doc layout.Document, opts Options) string {
	nodes := make(map[string]layout.NodeView, len(doc.Nodes))
	for _, n := range doc.Nodes {
		nodes[n.ID] = n
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  ordering=out;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.3;\n")

	for phase, ids := range doc.Phases {
		fmt.Fprintf(&buf, "\n  subgraph phase_%d {\n    rank=same;\n", phase)
		for _, id := range ids {
			n := nodes[id]
			if n.Placeholder && !opts.ShowPlaceholders {
				continue
			}
			fmt.Fprintf(&buf, "    %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, l := range doc.Links {
		attrs := ""
		if l.Class != "" {
			attrs = fmt.Sprintf(" [class=%q]", l.Class)
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", l.Parent, l.Child, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n layout.NodeView, detailed bool) string {
	label := n.Name
	if label == "" {
		label = n.ID
	}
	if !detailed {
		return label
	}
	parts := []string{fmt.Sprintf("phase: %d", n.Phase), fmt.Sprintf("row: %d", n.Row)}
	if n.Status != "" {
		parts = append(parts, "status: "+n.Status)
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n layout.NodeView, detailed bool) []string {
	if n.Placeholder {
		return []string{`label=""`, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "width=0.2", "height=0.2"}
	}
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	switch {
	case n.Active:
		attrs = append(attrs, "penwidth=3")
	case n.Highlighted:
		attrs = append(attrs, "penwidth=2")
	}
	if n.Class != "" {
		attrs = append(attrs, fmt.Sprintf("class=%q", n.Class))
	}
	return attrs
}

// RenderDOT renders a DOT graph to SVG using Graphviz.
func RenderDOT(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
