package layout

import (
	"strconv"
	"strings"

	"github.com/matzehuels/stagegraph/pkg/dag"
)

// CurvePath returns the SVG path of the S-shaped curve from a parent at
// (px, py) to a child at (cx, cy). The curve leaves the right edge of the
// parent's circle and enters the left edge of the child's, with both control
// points halfway between.
func CurvePath(px, py, cx, cy, radius float64) string {
	sx := px + radius
	tx := cx - radius
	mid := (sx + tx) / 2

	var b strings.Builder
	b.WriteString("M")
	b.WriteString(coord(sx, py))
	b.WriteString("C")
	b.WriteString(coord(mid, py))
	b.WriteString(" ")
	b.WriteString(coord(mid, cy))
	b.WriteString(" ")
	b.WriteString(coord(tx, cy))
	return b.String()
}

func coord(x, y float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64) + "," + strconv.FormatFloat(y, 'f', -1, 64)
}

// BuildLinks returns a new snapshot with one link per parent/child pair,
// created in column order, each with its curve and visual state. Existing
// links are discarded. Placeholders have no children and get no links.
func BuildLinks(in *dag.Graph, columns [][]int, radius float64) *dag.Graph {
	g := in.Clone()
	g.ClearLinks()
	for _, column := range columns {
		for _, pi := range column {
			for _, ci := range g.Node(pi).Children {
				p, c := g.Node(pi), g.Node(ci)
				g.AddLink(dag.Link{
					Parent: pi,
					Child:  ci,
					Line:   CurvePath(p.X, p.Y, c.X, c.Y, radius),
				})
			}
		}
	}
	for i := 0; i < g.LinkCount(); i++ {
		l := g.Link(i)
		l.State = ClassifyLink(g, l)
	}
	return g
}

// ClassifyLink derives the visual state of l from its endpoints:
//   - "highlighted" when the link is highlighted
//   - "active" when either endpoint is active, followed by "target" or
//     "source" unless the child is an execution stage
//   - for execution stages, the lower-cased status of the child, or of the
//     parent while the child has not started, followed by "has-status"
func ClassifyLink(g *dag.Graph, l *dag.Link) dag.VisualState {
	parent, child := g.Node(l.Parent), g.Node(l.Child)
	var s dag.VisualState
	if l.Highlighted {
		s = append(s, dag.TagHighlighted)
	}
	if parent.Active || child.Active {
		s = append(s, dag.TagActive)
		if !child.IsExecution() {
			if child.Active {
				s = append(s, dag.TagTarget)
			} else {
				s = append(s, dag.TagSource)
			}
		}
	}
	if child.IsExecution() {
		status := child.Status()
		if child.HasNotStarted() {
			status = parent.Status()
		}
		if status != "" {
			s = append(s, strings.ToLower(status))
		}
		s = append(s, dag.TagHasStatus)
	}
	return s
}
