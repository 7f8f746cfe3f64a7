package transform

import (
	"github.com/matzehuels/stagegraph/pkg/dag"
)

// ResolvePhases assigns every node its phase (column) and returns a new
// snapshot; the input graph is not modified.
//
// # Algorithm
//
// ResolvePhases repeats a pass over all nodes until every node has a phase
// or a pass makes no progress:
//   - A node without parent ids is placed in phase 0
//   - A node whose parents all have a phase is placed one phase after the
//     deepest of them
//   - A node with an unresolved parent is retried on the next pass
//
// The number of passes is capped at the node count, which is enough for any
// acyclic input because every pass resolves at least the next level of
// depth.
//
// Once phases are assigned, the derived references are filled in: Parents
// and Children (deduplicated, in input order), Leaf, and LastPhase, the
// deepest phase reachable through any chain of children.
//
// # Errors
//
// If nodes remain unresolved, ResolvePhases returns a [*ResolveError]
// listing each stuck node with the reason: a reference to a stage that does
// not exist, membership in a dependency cycle, or a dependency on another
// stuck node. Partial layouts are never returned.
func ResolvePhases(in *dag.Graph) (*dag.Graph, error) {
	g := in.Clone()
	g.ClearLinks()
	n := g.NodeCount()

	for i := 0; i < n; i++ {
		node := g.Node(i)
		node.Phase = dag.Unresolved
		node.LastPhase = dag.Unresolved
		node.Row = dag.Unresolved
		node.Parents = nil
		node.Children = nil
		node.Leaf = false
	}

	remaining := n
	for pass := 0; pass < n && remaining > 0; pass++ {
		progress := false
		for i := 0; i < n; i++ {
			node := g.Node(i)
			if node.Resolved() {
				continue
			}
			if phase, ok := phaseFromParents(g, node); ok {
				node.Phase = phase
				remaining--
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	if remaining > 0 {
		return nil, newResolveError(diagnose(g))
	}

	linkFamilies(g)
	computeLastPhases(g)
	return g, nil
}

// phaseFromParents returns the phase of node if every parent is resolved.
func phaseFromParents(g *dag.Graph, node *dag.Node) (int, bool) {
	phase := 0
	for _, id := range node.ParentIDs {
		p, ok := g.NodeByID(id)
		if !ok || !p.Resolved() {
			return 0, false
		}
		phase = max(phase, p.Phase+1)
	}
	return phase, true
}

func linkFamilies(g *dag.Graph) {
	for i := 0; i < g.NodeCount(); i++ {
		seen := make(map[int]bool)
		for _, id := range g.Node(i).ParentIDs {
			p, _ := g.Lookup(id)
			if seen[p] {
				continue
			}
			seen[p] = true
			g.Node(i).Parents = append(g.Node(i).Parents, p)
			g.Node(p).Children = append(g.Node(p).Children, i)
		}
	}
	for _, node := range g.Nodes() {
		node.Leaf = len(node.Children) == 0
	}
}

func computeLastPhases(g *dag.Graph) {
	var visit func(i int) int
	visit = func(i int) int {
		node := g.Node(i)
		if node.LastPhase != dag.Unresolved {
			return node.LastPhase
		}
		last := node.Phase
		for _, c := range node.Children {
			last = max(last, visit(c))
		}
		g.Node(i).LastPhase = last
		return last
	}
	for i := 0; i < g.NodeCount(); i++ {
		visit(i)
	}
}

// Phases returns the number of phases in a resolved graph: one more than
// the highest phase, or 0 for an empty graph.
func Phases(g *dag.Graph) int {
	count := 0
	for _, node := range g.Nodes() {
		count = max(count, node.Phase+1)
	}
	return count
}
