package layout

import "github.com/matzehuels/stagegraph/pkg/dag"

// ActivePredicate reports whether a node is selected by the current view.
type ActivePredicate func(n *dag.Node) bool

// ApplyActivation returns a new snapshot with Active recomputed for every
// node and every highlight cleared, then reclassifies all links. Phases,
// rows and coordinates are left alone.
func ApplyActivation(in *dag.Graph, active ActivePredicate) *dag.Graph {
	g := in.Clone()
	for _, n := range g.Nodes() {
		n.Active = !n.Placeholder && active(n)
		n.Highlighted = false
	}
	for _, l := range g.Links() {
		l.Highlighted = false
	}
	Reclassify(g)
	return g
}

// Highlight returns a new snapshot with the hover state of the node with the
// given id set to on, propagated to the links touching it. Active nodes and
// placeholders ignore hovering; ok is false when nothing changed.
func Highlight(in *dag.Graph, id string, on bool) (out *dag.Graph, ok bool) {
	i, found := in.Lookup(id)
	if !found {
		return in, false
	}
	if n := in.Node(i); n.Active || n.Placeholder {
		return in, false
	}

	g := in.Clone()
	n := g.Node(i)
	n.Highlighted = on
	touched := append(append([]int(nil), n.ParentLinks...), n.ChildLinks...)
	for _, li := range touched {
		g.Link(li).Highlighted = on
	}
	for _, li := range touched {
		l := g.Link(li)
		l.State = ClassifyLink(g, l)
	}
	return g, true
}

// Reclassify recomputes the visual state of every link of g in place.
func Reclassify(g *dag.Graph) {
	for _, l := range g.Links() {
		l.State = ClassifyLink(g, l)
	}
}
