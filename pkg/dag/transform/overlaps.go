package transform

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/stagegraph/pkg/dag"
)

// placeholderSpace namespaces the name-based UUIDs of placeholder nodes.
var placeholderSpace = uuid.MustParse("6f0f3d2e-4a51-4d8e-9a55-0c8f3b7c2d10")

// ResolveOverlaps keeps long links from running through other nodes.
//
// A link from a parent to a child more than one phase away is drawn as a
// curve through every intermediate phase. When the child sits in the same
// row as the parent, that curve runs straight along the row and would cross
// whatever node occupies it. For every such child, ResolveOverlaps inserts a
// placeholder node at the parent's row in each intermediate phase, pushing
// the occupants down, and renumbers the rows of that phase.
//
// Columns are scanned left to right, top to bottom. Placeholders only go into
// phases after the one being scanned, so a single pass suffices. A
// placeholder is not inserted when the column is shorter than the row.
//
// Placeholder ids are derived from the parent, child and phase, so running
// ResolveOverlaps twice on equal input yields equal ids. It returns a new
// snapshot and the updated columns; in and columns are not modified.
func ResolveOverlaps(in *dag.Graph, columns [][]int) (*dag.Graph, [][]int) {
	g := in.Clone()
	cols := make([][]int, len(columns))
	for p, c := range columns {
		cols[p] = append([]int(nil), c...)
	}

	for p := range cols {
		for _, ni := range cols[p] {
			for _, ci := range g.Node(ni).Children {
				// copies: AddNode below may move the node table
				parent, child := *g.Node(ni), *g.Node(ci)
				if child.Phase-parent.Phase <= 1 || child.Row != parent.Row {
					continue
				}
				row := parent.Row
				for phase := parent.Phase + 1; phase < child.Phase; phase++ {
					if len(cols[phase]) < row {
						continue
					}
					pi := addPlaceholder(g, parent.ID, child.ID, phase, row)
					cols[phase] = insertAt(cols[phase], row, pi)
					for r, i := range cols[phase] {
						g.Node(i).Row = r
					}
				}
			}
		}
	}
	return g, cols
}

// placeholderID length-prefixes the ids so that no two distinct links share
// a hash input, whatever characters the ids contain. A nonzero attempt
// salts the input after a collision with an existing node.
func placeholderID(parent, child string, phase, attempt int) string {
	name := fmt.Sprintf("%d:%s%d:%s@%d", len(parent), parent, len(child), child, phase)
	if attempt > 0 {
		name += fmt.Sprintf("#%d", attempt)
	}
	return uuid.NewSHA1(placeholderSpace, []byte(name)).String()
}

// addPlaceholder inserts a placeholder for the parent to child link at
// phase and row. Ids already taken by stages or earlier placeholders are
// skipped.
func addPlaceholder(g *dag.Graph, parent, child string, phase, row int) int {
	for attempt := 0; ; attempt++ {
		id := placeholderID(parent, child, phase, attempt)
		if _, taken := g.Lookup(id); taken {
			continue
		}
		i, err := g.AddNode(dag.Node{
			ID:          id,
			Placeholder: true,
			Phase:       phase,
			LastPhase:   phase,
			Row:         row,
			Leaf:        true,
		})
		if err == nil {
			return i
		}
	}
}

func insertAt(s []int, at, v int) []int {
	s = append(s, 0)
	copy(s[at+1:], s[at:])
	s[at] = v
	return s
}
