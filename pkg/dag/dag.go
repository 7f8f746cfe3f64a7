package dag

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned when an index or ID does not refer to a node
	// of the graph.
	ErrUnknownNode = errors.New("unknown node")
)

// Visual state tags attached to links.
const (
	TagHighlighted = "highlighted"
	TagActive      = "active"
	TagSource      = "source"
	TagTarget      = "target"
	TagHasStatus   = "has-status"
)

// VisualState is the ordered set of tags describing how a link is drawn,
// e.g. ["active", "target"] or ["succeeded", "has-status"].
type VisualState []string

// String joins the tags with spaces, matching a CSS class attribute.
func (s VisualState) String() string { return strings.Join(s, " ") }

// Has reports whether the state contains tag.
func (s VisualState) Has(tag string) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// Link connects a parent node to one of its children.
type Link struct {
	Parent      int    // index of the parent node
	Child       int    // index of the child node
	Line        string // SVG path of the curve between the two nodes
	Highlighted bool
	State       VisualState
}

// Graph is the node and link table of one layout pass.
//
// The zero value is not usable - use [New].
type Graph struct {
	nodes []Node
	links []Link
	index map[string]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// AddNode appends a node and returns its index.
// Returns ErrInvalidNodeID if the ID is empty or ErrDuplicateNodeID if the
// ID is already taken. Pointers obtained from [Graph.Node] before the call
// may be invalidated by it.
func (g *Graph) AddNode(n Node) (int, error) {
	if n.ID == "" {
		return 0, ErrInvalidNodeID
	}
	if _, exists := g.index[n.ID]; exists {
		return 0, ErrDuplicateNodeID
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.index[n.ID] = i
	return i, nil
}

// AddLink appends a link, registers it on both endpoints and returns its index.
func (g *Graph) AddLink(l Link) int {
	i := len(g.links)
	g.links = append(g.links, l)
	g.nodes[l.Parent].ChildLinks = append(g.nodes[l.Parent].ChildLinks, i)
	g.nodes[l.Child].ParentLinks = append(g.nodes[l.Child].ParentLinks, i)
	return i
}

// Node returns the node at index i. The pointer refers to the graph's own
// storage; it stays valid until the next AddNode.
func (g *Graph) Node(i int) *Node { return &g.nodes[i] }

// Link returns the link at index i.
func (g *Graph) Link(i int) *Link { return &g.links[i] }

// Lookup returns the index of the node with the given ID.
func (g *Graph) Lookup(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// NodeByID returns the node with the given ID, or nil and false.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return &g.nodes[i], true
}

// NodeCount returns the number of nodes, placeholders included.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// LinkCount returns the number of links.
func (g *Graph) LinkCount() int { return len(g.links) }

// Nodes returns pointers to all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.nodes))
	for i := range g.nodes {
		nodes[i] = &g.nodes[i]
	}
	return nodes
}

// Links returns pointers to all links in insertion order.
func (g *Graph) Links() []*Link {
	links := make([]*Link, len(g.links))
	for i := range g.links {
		links[i] = &g.links[i]
	}
	return links
}

// PlaceholderCount returns the number of placeholder nodes.
func (g *Graph) PlaceholderCount() int {
	count := 0
	for i := range g.nodes {
		if g.nodes[i].Placeholder {
			count++
		}
	}
	return count
}

// ClearLinks drops every link and the per-node link lists.
func (g *Graph) ClearLinks() {
	g.links = nil
	for i := range g.nodes {
		g.nodes[i].ParentLinks = nil
		g.nodes[i].ChildLinks = nil
	}
}

// Clone returns a deep copy of the graph. Modifying the copy never affects
// the original.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes: make([]Node, len(g.nodes)),
		links: make([]Link, len(g.links)),
		index: make(map[string]int, len(g.index)),
	}
	for i := range g.nodes {
		c.nodes[i] = g.nodes[i].clone()
	}
	for i, l := range g.links {
		l.State = cloneSlice(l.State)
		c.links[i] = l
	}
	for id, i := range g.index {
		c.index[id] = i
	}
	return c
}

// IDs extracts the IDs of the nodes at the given indices.
func (g *Graph) IDs(indices []int) []string {
	ids := make([]string, len(indices))
	for i, idx := range indices {
		ids[i] = g.nodes[idx].ID
	}
	return ids
}
