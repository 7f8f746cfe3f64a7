package layout

import (
	"encoding/json"

	"github.com/matzehuels/stagegraph/pkg/dag"
	"github.com/matzehuels/stagegraph/pkg/errors"
)

// Document is the serializable view of a [Layout], as returned by the CLI
// and the HTTP API.
type Document struct {
	Mode        string     `json:"mode"`
	Fingerprint string     `json:"fingerprint"`
	CanvasWidth string     `json:"canvas_width"`
	Geometry    Geometry   `json:"geometry"`
	Phases      [][]string `json:"phases"` // node ids per phase, top to bottom
	Nodes       []NodeView `json:"nodes"`  // paint order
	Links       []LinkView `json:"links"`
}

// NodeView is one node of a [Document].
type NodeView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Phase       int      `json:"phase"`
	Row         int      `json:"row"`
	LastPhase   int      `json:"last_phase"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Height      float64  `json:"height"`
	Placeholder bool     `json:"placeholder,omitempty"`
	Leaf        bool     `json:"leaf,omitempty"`
	Active      bool     `json:"active,omitempty"`
	Highlighted bool     `json:"highlighted,omitempty"`
	Status      string   `json:"status,omitempty"`
	Parents     []string `json:"parents,omitempty"`
	Children    []string `json:"children,omitempty"`
	Class       string   `json:"class,omitempty"`
}

// LinkView is one link of a [Document].
type LinkView struct {
	Parent      string `json:"parent"`
	Child       string `json:"child"`
	Line        string `json:"line"`
	Highlighted bool   `json:"highlighted,omitempty"`
	Class       string `json:"class,omitempty"`
}

// Export converts l to its serializable form. Nodes are listed in paint
// order: column by column, except that the highlighted node and then the
// active node come last so they are drawn on top.
func Export(l *Layout) Document {
	g := l.Graph
	doc := Document{
		Mode:        l.Mode,
		Fingerprint: l.Fingerprint,
		CanvasWidth: l.Geometry.CanvasWidth(),
		Geometry:    l.Geometry,
		Phases:      make([][]string, len(l.Columns)),
		Nodes:       make([]NodeView, 0, g.NodeCount()),
		Links:       make([]LinkView, 0, g.LinkCount()),
	}

	var highlighted, active []NodeView
	for p, column := range l.Columns {
		doc.Phases[p] = g.IDs(column)
		for _, i := range column {
			n := g.Node(i)
			v := nodeView(g, n)
			switch {
			case n.Active:
				active = append(active, v)
			case n.Highlighted:
				highlighted = append(highlighted, v)
			default:
				doc.Nodes = append(doc.Nodes, v)
			}
		}
	}
	doc.Nodes = append(append(doc.Nodes, highlighted...), active...)

	for _, link := range g.Links() {
		doc.Links = append(doc.Links, LinkView{
			Parent:      g.Node(link.Parent).ID,
			Child:       g.Node(link.Child).ID,
			Line:        link.Line,
			Highlighted: link.Highlighted,
			Class:       link.State.String(),
		})
	}
	return doc
}

func nodeView(g *dag.Graph, n *dag.Node) NodeView {
	return NodeView{
		ID:          n.ID,
		Name:        n.Name,
		Phase:       n.Phase,
		Row:         n.Row,
		LastPhase:   n.LastPhase,
		X:           n.X,
		Y:           n.Y,
		Height:      n.Height,
		Placeholder: n.Placeholder,
		Leaf:        n.Leaf,
		Active:      n.Active,
		Highlighted: n.Highlighted,
		Status:      n.Status(),
		Parents:     g.IDs(n.Parents),
		Children:    g.IDs(n.Children),
		Class:       NodeState(n).String(),
	}
}

// NodeState returns the visual tags of a node: "has-status" for execution
// stages with a status, then "active" and "highlighted" when set.
func NodeState(n *dag.Node) dag.VisualState {
	var s dag.VisualState
	if n.Status() != "" {
		s = append(s, dag.TagHasStatus)
	}
	if n.Active {
		s = append(s, dag.TagActive)
	}
	if n.Highlighted {
		s = append(s, dag.TagHighlighted)
	}
	return s
}

// Marshal encodes the document of l as indented JSON.
func Marshal(l *Layout) ([]byte, error) {
	return MarshalDocument(Export(l))
}

// MarshalDocument encodes doc as indented JSON.
func MarshalDocument(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal decodes a document produced by [Marshal].
func Unmarshal(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layout document")
	}
	return doc, nil
}
