package transform

import (
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/stagegraph/pkg/dag"
	"github.com/matzehuels/stagegraph/pkg/errors"
)

// DiagnosticKind tells why a node could not be placed.
type DiagnosticKind string

const (
	// DiagnosticMissing: the node references a stage that does not exist.
	DiagnosticMissing DiagnosticKind = "missing"
	// DiagnosticCycle: the node is part of a dependency cycle.
	DiagnosticCycle DiagnosticKind = "cycle"
	// DiagnosticBlocked: the node depends on another node that could not be
	// placed.
	DiagnosticBlocked DiagnosticKind = "blocked"
)

// Diagnostic describes one node left without a phase.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	StageID string         `json:"stage_id"`
	Ref     string         `json:"ref,omitempty"`   // offending reference for missing/blocked
	Cycle   []string       `json:"cycle,omitempty"` // members of the cycle, in input order
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case DiagnosticMissing:
		return fmt.Sprintf("stage %s has missing dependency %s", d.StageID, d.Ref)
	case DiagnosticCycle:
		return fmt.Sprintf("stage %s is part of dependency cycle [%s]", d.StageID, strings.Join(d.Cycle, " "))
	default:
		return fmt.Sprintf("stage %s depends on unresolvable stage %s", d.StageID, d.Ref)
	}
}

// ResolveError is returned by [ResolvePhases] when some nodes cannot be
// given a phase. It unwraps to a coded error: MISSING_DEPENDENCY when any
// reference is dangling, CYCLIC_DEPENDENCY otherwise.
type ResolveError struct {
	Diagnostics []Diagnostic
	err         *errors.Error
}

func newResolveError(diags []Diagnostic) *ResolveError {
	code := errors.ErrCodeCyclicDependency
	for _, d := range diags {
		if d.Kind == DiagnosticMissing {
			code = errors.ErrCodeMissingDependency
			break
		}
	}
	msgs := make([]string, len(diags))
	for i, d := range diags {
		msgs[i] = d.String()
	}
	return &ResolveError{
		Diagnostics: diags,
		err:         errors.New(code, "%s", strings.Join(msgs, "; ")),
	}
}

func (e *ResolveError) Error() string { return e.err.Error() }

func (e *ResolveError) Unwrap() error { return e.err }

// StageIDs returns the ids of all stuck stages.
func (e *ResolveError) StageIDs() []string {
	ids := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		if !slices.Contains(ids, d.StageID) {
			ids = append(ids, d.StageID)
		}
	}
	return ids
}

// diagnose explains every unresolved node of g, in input order.
func diagnose(g *dag.Graph) []Diagnostic {
	cycles := findCycles(g)

	var diags []Diagnostic
	for i, node := range g.Nodes() {
		if node.Resolved() {
			continue
		}
		missing := false
		for _, id := range node.ParentIDs {
			if _, ok := g.Lookup(id); !ok {
				diags = append(diags, Diagnostic{Kind: DiagnosticMissing, StageID: node.ID, Ref: id})
				missing = true
			}
		}
		if missing {
			continue
		}
		if members, ok := cycles[i]; ok {
			diags = append(diags, Diagnostic{Kind: DiagnosticCycle, StageID: node.ID, Cycle: g.IDs(members)})
			continue
		}
		for _, id := range node.ParentIDs {
			if p, _ := g.NodeByID(id); !p.Resolved() {
				diags = append(diags, Diagnostic{Kind: DiagnosticBlocked, StageID: node.ID, Ref: id})
				break
			}
		}
	}
	return diags
}

// findCycles maps each node on a dependency cycle to the sorted members of
// its strongly connected component. Only unresolved nodes can be on a cycle.
func findCycles(g *dag.Graph) map[int][]int {
	dg := simple.NewDirectedGraph()
	for i, node := range g.Nodes() {
		if !node.Resolved() {
			dg.AddNode(simple.Node(i))
		}
	}

	cycles := make(map[int][]int)
	for i, node := range g.Nodes() {
		if node.Resolved() {
			continue
		}
		for _, id := range node.ParentIDs {
			p, ok := g.Lookup(id)
			if !ok || g.Node(p).Resolved() {
				continue
			}
			if p == i {
				// simple graphs reject self edges
				cycles[i] = []int{i}
				continue
			}
			if !dg.HasEdgeFromTo(int64(p), int64(i)) {
				dg.SetEdge(dg.NewEdge(simple.Node(p), simple.Node(i)))
			}
		}
	}

	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}
		members := make([]int, len(scc))
		for j, n := range scc {
			members[j] = int(n.ID())
		}
		slices.Sort(members)
		for _, m := range members {
			cycles[m] = members
		}
	}
	return cycles
}
