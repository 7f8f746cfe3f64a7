// Package build materializes layout nodes from pipeline configurations and
// executions.
//
// The builder only creates nodes and copies their dependency references; it
// assigns no phases or rows. Every node it returns has a unique ID, and every
// stage of a configuration has at least one parent because parentless stages
// are attached to a synthetic root representing the triggers.
package build

import (
	"errors"

	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/dag"
	coded "github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// ConfigRootID is the ID of the synthetic root node of a configuration graph.
// Stage ref ids must not use it.
const ConfigRootID = "__triggers__"

const (
	configRootName   = "Configuration"
	unnamedStageName = "[new stage]"
)

// Modes returned by [Source.Mode].
const (
	ModePipeline  = "pipeline"
	ModeExecution = "execution"
)

// Source is a document the layout engine can lay out: a pipeline
// configuration or an execution.
type Source interface {
	// Mode returns ModePipeline or ModeExecution.
	Mode() string
	// Build creates the nodes with their activation applied.
	Build(vs stage.ViewState) (*dag.Graph, error)
	// Active reports whether n is selected by vs.
	Active(n *dag.Node, vs stage.ViewState) bool
	// Fingerprint changes whenever the diagram needs a full recompute.
	Fingerprint() string
	// Stages returns the number of stages in the document.
	Stages() int
}

// Pipeline returns the Source for a pipeline configuration.
func Pipeline(p stage.Pipeline) Source { return pipelineSource{p} }

// Execution returns the Source for an execution.
func Execution(e stage.Execution) Source { return executionSource{e} }

// FromInput returns the Source for whichever document in is set.
func FromInput(in stage.Input) (Source, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Execution != nil {
		return Execution(*in.Execution), nil
	}
	return Pipeline(*in.Pipeline), nil
}

type pipelineSource struct{ p stage.Pipeline }

func (s pipelineSource) Mode() string { return ModePipeline }

func (s pipelineSource) Stages() int { return len(s.p.Stages) }

func (s pipelineSource) Build(vs stage.ViewState) (*dag.Graph, error) {
	return FromPipeline(s.p, vs)
}

func (s pipelineSource) Active(n *dag.Node, vs stage.ViewState) bool {
	d, ok := n.Detail.(dag.ConfigDetail)
	if !ok {
		return false
	}
	return vs.ConfigActive(d.Section, d.Index)
}

func (s pipelineSource) Fingerprint() string {
	h := newHasher(ModePipeline, s.p.ID)
	for _, st := range s.p.Stages {
		h.add(string(st.RefID), st.Name, st.ExtraLabelLines, stage.Refs(st.RequisiteStageRefIDs))
	}
	return h.sum()
}

type executionSource struct{ e stage.Execution }

func (s executionSource) Mode() string { return ModeExecution }

func (s executionSource) Stages() int { return len(s.e.StageSummaries) }

func (s executionSource) Build(vs stage.ViewState) (*dag.Graph, error) {
	return FromExecution(s.e, vs)
}

func (s executionSource) Active(n *dag.Node, vs stage.ViewState) bool {
	d, ok := n.Detail.(dag.ExecutionDetail)
	if !ok {
		return false
	}
	return vs.ExecutionActive(s.e.ID, d.Index, n.ID)
}

func (s executionSource) Fingerprint() string {
	h := newHasher(ModeExecution, s.e.ID)
	for _, st := range s.e.StageSummaries {
		h.add(string(st.RefID), st.Name, st.GraphRowOverride, stage.Refs(st.RequisiteStageRefIDs))
	}
	h.add(s.e.StatusHash())
	return h.sum()
}

// FromPipeline builds the configuration graph: one synthetic root with
// section "triggers", then one node per stage. Stages without declared
// parents are attached to the root.
func FromPipeline(p stage.Pipeline, vs stage.ViewState) (*dag.Graph, error) {
	g := dag.New()

	root := dag.Node{
		ID:     ConfigRootID,
		Name:   configRootName,
		Detail: dag.ConfigDetail{Section: dag.SectionTriggers, Index: -1},
		Phase:  dag.Unresolved,
		Row:    dag.Unresolved,
		Active: vs.ConfigActive(stage.SectionTriggers, -1),
	}
	if _, err := g.AddNode(root); err != nil {
		return nil, addErr(root.ID, err)
	}

	for i, s := range p.Stages {
		parents := stage.Refs(s.RequisiteStageRefIDs)
		if len(parents) == 0 {
			parents = []string{ConfigRootID}
		}
		name := s.Name
		if name == "" {
			name = unnamedStageName
		}
		n := dag.Node{
			ID:              string(s.RefID),
			Name:            name,
			ParentIDs:       parents,
			ExtraLabelLines: s.ExtraLabelLines,
			Detail:          dag.ConfigDetail{Section: dag.SectionStage, Index: i},
			Phase:           dag.Unresolved,
			Row:             dag.Unresolved,
			Active:          vs.ConfigActive(stage.SectionStage, i),
		}
		if _, err := g.AddNode(n); err != nil {
			return nil, addErr(n.ID, err)
		}
	}
	return g, nil
}

// FromExecution builds the execution graph: one node per stage summary with
// its declared upstream references. Summaries without references are roots.
func FromExecution(e stage.Execution, vs stage.ViewState) (*dag.Graph, error) {
	g := dag.New()
	for i, s := range e.StageSummaries {
		n := dag.Node{
			ID:              string(s.RefID),
			Name:            s.Name,
			ParentIDs:       stage.Refs(s.RequisiteStageRefIDs),
			ExtraLabelLines: s.ExtraLabelLines,
			Detail: dag.ExecutionDetail{
				Index:            i,
				Status:           s.Status,
				HasNotStarted:    s.HasNotStarted,
				GraphRowOverride: s.GraphRowOverride,
			},
			Phase:  dag.Unresolved,
			Row:    dag.Unresolved,
			Active: vs.ExecutionActive(e.ID, i, string(s.RefID)),
		}
		if _, err := g.AddNode(n); err != nil {
			return nil, addErr(n.ID, err)
		}
	}
	return g, nil
}

func addErr(id string, err error) error {
	switch {
	case errors.Is(err, dag.ErrDuplicateNodeID):
		return coded.Wrap(coded.ErrCodeDuplicateNode, err, "stage %q appears more than once", id)
	case errors.Is(err, dag.ErrInvalidNodeID):
		return coded.Wrap(coded.ErrCodeInvalidInput, err, "stage without ref id")
	default:
		return coded.Wrap(coded.ErrCodeInternal, err, "add stage %q", id)
	}
}

type hasher struct{ parts []any }

func newHasher(parts ...any) *hasher { return &hasher{parts: parts} }

func (h *hasher) add(parts ...any) { h.parts = append(h.parts, parts) }

func (h *hasher) sum() string { return cache.HashValues(h.parts...) }
