package transform

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/stagegraph/pkg/dag"
)

// Value is one sort key of a node. Values compare by Num first, then by Str;
// a key uses one of the two and leaves the other at its zero value.
type Value struct {
	Num float64
	Str string
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, with, or
// after w.
func (v Value) Compare(w Value) int {
	if c := cmp.Compare(v.Num, w.Num); c != 0 {
		return c
	}
	return strings.Compare(v.Str, w.Str)
}

// RowKey extracts one level of the row ordering. Smaller values sort first.
type RowKey struct {
	Name  string
	Value func(g *dag.Graph, n *dag.Node) Value
}

// maxSafeInteger is the rank of non-numeric ids, after every numeric id.
const maxSafeInteger = 1<<53 - 1

// RowKeys is the ordered list of keys that [SequenceRows] applies until a tie
// is broken. Each level aims to keep links from crossing or running through
// other nodes.
var RowKeys = []RowKey{
	// Deepest, then highest, parent: a child of a phase-2 parent sorts after
	// children of phase-1 parents only if the phase-1 parent sits lower.
	{Name: "first-parent", Value: firstParentKey},
	// Executions can pin a stage to a row.
	{Name: "row-override", Value: func(_ *dag.Graph, n *dag.Node) Value {
		if o := n.RowOverride(); o > 0 {
			return num(o)
		}
		return num(1000)
	}},
	// Nodes whose descendants reach farther right go first.
	{Name: "last-phase", Value: func(_ *dag.Graph, n *dag.Node) Value {
		return num(1 - n.LastPhase)
	}},
	// Fewer terminal children first; none at all sorts last.
	{Name: "terminal-children", Value: func(g *dag.Graph, n *dag.Node) Value {
		count := 0
		for _, c := range n.Children {
			if g.Node(c).Leaf {
				count++
			}
		}
		if count == 0 {
			count = 100
		}
		return num(count)
	}},
	{Name: "parent-count", Value: func(_ *dag.Graph, n *dag.Node) Value {
		return num(len(n.Parents))
	}},
	{Name: "child-count", Value: func(_ *dag.Graph, n *dag.Node) Value {
		return num(1 - len(n.Children))
	}},
	{Name: "grandchild-count", Value: func(g *dag.Graph, n *dag.Node) Value {
		sum := 0
		for _, c := range n.Children {
			sum += len(g.Node(c).Children)
		}
		return num(1 - sum)
	}},
	{Name: "child-signature", Value: childSignatureKey},
	{Name: "numeric-id", Value: func(_ *dag.Graph, n *dag.Node) Value {
		return Value{Num: numericID(n.ID)}
	}},
	{Name: "id", Value: func(_ *dag.Graph, n *dag.Node) Value {
		return Value{Str: n.ID}
	}},
}

func num(i int) Value { return Value{Num: float64(i)} }

// decimalID matches plain decimal numbers with an optional exponent.
var decimalID = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// numericID returns the value of a decimal id. Anything else, including
// hex forms, infinities and values out of float range, ranks as
// maxSafeInteger.
func numericID(id string) float64 {
	id = strings.TrimSpace(id)
	if !decimalID.MatchString(id) {
		return maxSafeInteger
	}
	f, err := strconv.ParseFloat(id, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return maxSafeInteger
	}
	return f
}

func firstParentKey(g *dag.Graph, n *dag.Node) Value {
	if len(n.Parents) == 0 {
		return num(0)
	}
	first := g.Node(n.Parents[0])
	for _, pi := range n.Parents[1:] {
		p := g.Node(pi)
		if p.Phase > first.Phase || (p.Phase == first.Phase && p.Row < first.Row) {
			first = p
		}
	}
	return num(first.Phase*100 + first.Row)
}

// childSignatureKey lists the children by phase as "distance-name" pairs.
func childSignatureKey(g *dag.Graph, n *dag.Node) Value {
	children := slices.Clone(n.Children)
	slices.SortStableFunc(children, func(a, b int) int {
		return cmp.Compare(g.Node(a).Phase, g.Node(b).Phase)
	})
	parts := make([]string, len(children))
	for i, c := range children {
		child := g.Node(c)
		parts[i] = strconv.Itoa(child.Phase-n.Phase) + "-" + child.Name
	}
	return Value{Str: strings.Join(parts, ":")}
}

// CompareRows orders two nodes of the same phase by [RowKeys].
func CompareRows(g *dag.Graph, a, b *dag.Node) int {
	for _, key := range RowKeys {
		if c := key.Value(g, a).Compare(key.Value(g, b)); c != 0 {
			return c
		}
	}
	return 0
}

// SequenceRows orders the nodes of every phase and assigns each node its
// row, the index within its phase. It returns the new snapshot and the
// columns: columns[p] holds the node indices of phase p, top to bottom.
//
// Phases are processed left to right because the first key of a node reads
// the rows of its parents, which live in earlier phases. The sort is stable
// so nodes with equal keys keep their input order, although the final id key
// makes such ties impossible within one graph.
//
// The graph must have been through [ResolvePhases].
func SequenceRows(in *dag.Graph) (*dag.Graph, [][]int) {
	g := in.Clone()
	columns := make([][]int, Phases(g))
	for i, n := range g.Nodes() {
		columns[n.Phase] = append(columns[n.Phase], i)
	}

	for _, column := range columns {
		keys := make(map[int][]Value, len(column))
		for _, i := range column {
			vals := make([]Value, len(RowKeys))
			for k, key := range RowKeys {
				vals[k] = key.Value(g, g.Node(i))
			}
			keys[i] = vals
		}
		slices.SortStableFunc(column, func(a, b int) int {
			for k := range RowKeys {
				if c := keys[a][k].Compare(keys[b][k]); c != 0 {
					return c
				}
			}
			return 0
		})
		for row, i := range column {
			g.Node(i).Row = row
		}
	}
	return g, columns
}
