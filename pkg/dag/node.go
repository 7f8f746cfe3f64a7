package dag

import "strings"

// Unresolved marks a phase or row that has not been assigned yet.
const Unresolved = -1

// Section names used by configuration nodes.
const (
	SectionTriggers = "triggers"
	SectionStage    = "stage"
)

// Detail carries the data that depends on how a node was built.
// It is either a [ConfigDetail] or an [ExecutionDetail].
type Detail interface {
	detail()
}

// ConfigDetail describes a node built from a pipeline configuration.
type ConfigDetail struct {
	Section string // SectionTriggers for the synthetic root, SectionStage otherwise
	Index   int    // position in the pipeline's stage list, -1 for the root
}

// ExecutionDetail describes a node built from an execution stage summary.
type ExecutionDetail struct {
	Index            int    // position in the execution's stage summary list
	Status           string // e.g. "SUCCEEDED", "RUNNING", "NOT_STARTED"
	HasNotStarted    bool
	GraphRowOverride int // preferred row when > 0
}

func (ConfigDetail) detail()    {}
func (ExecutionDetail) detail() {}

// Node is one stage, the synthetic configuration root, or a placeholder.
//
// The fields below the blank line are derived during layout; a freshly
// built node has Phase and Row set to [Unresolved].
type Node struct {
	ID              string
	Name            string
	ParentIDs       []string
	ExtraLabelLines int
	Detail          Detail
	Placeholder     bool

	Parents     []int // indices of resolved parents, deduplicated
	Children    []int // indices of resolved children, deduplicated
	ParentLinks []int // indices of links ending at this node
	ChildLinks  []int // indices of links starting at this node
	Phase       int
	LastPhase   int
	Row         int
	Leaf        bool
	Height      float64
	X           float64
	Y           float64
	Active      bool
	Highlighted bool
}

// IsExecution reports whether the node was built from an execution stage.
func (n *Node) IsExecution() bool {
	_, ok := n.Detail.(ExecutionDetail)
	return ok
}

// Status returns the execution status of the node, or "" for other nodes.
func (n *Node) Status() string {
	if d, ok := n.Detail.(ExecutionDetail); ok {
		return d.Status
	}
	return ""
}

// HasNotStarted reports whether the node is an execution stage that has not
// started yet.
func (n *Node) HasNotStarted() bool {
	d, ok := n.Detail.(ExecutionDetail)
	return ok && d.HasNotStarted
}

// RowOverride returns the preferred row of an execution stage, or 0.
func (n *Node) RowOverride() int {
	if d, ok := n.Detail.(ExecutionDetail); ok {
		return d.GraphRowOverride
	}
	return 0
}

// Resolved reports whether the node has been assigned a phase.
func (n *Node) Resolved() bool { return n.Phase != Unresolved }

// Label returns the text that is measured to size the node: the name plus
// one line per extra label line.
func (n *Node) Label() string {
	if n.ExtraLabelLines <= 0 {
		return n.Name
	}
	return n.Name + strings.Repeat("\nx", n.ExtraLabelLines)
}

func (n *Node) clone() Node {
	c := *n
	c.ParentIDs = cloneSlice(n.ParentIDs)
	c.Parents = cloneSlice(n.Parents)
	c.Children = cloneSlice(n.Children)
	c.ParentLinks = cloneSlice(n.ParentLinks)
	c.ChildLinks = cloneSlice(n.ChildLinks)
	return c
}

func cloneSlice[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}
	return append(S(nil), s...)
}
