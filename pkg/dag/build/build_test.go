package build

import (
	"testing"

	"github.com/matzehuels/stagegraph/pkg/dag"
	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

func samplePipeline() stage.Pipeline {
	return stage.Pipeline{
		ID: "p1",
		Stages: []stage.Stage{
			{RefID: "1", Name: "Bake"},
			{RefID: "2", Name: "Deploy", RequisiteStageRefIDs: []stage.Ref{"1"}},
			{RefID: "3"},
		},
	}
}

func TestFromPipeline(t *testing.T) {
	g, err := FromPipeline(samplePipeline(), stage.ViewState{})
	if err != nil {
		t.Fatalf("FromPipeline() error: %v", err)
	}
	if g.NodeCount() != 4 {
		t.Fatalf("NodeCount() = %d, want 4", g.NodeCount())
	}

	root := g.Node(0)
	if root.ID != ConfigRootID || root.Name != "Configuration" {
		t.Errorf("root = %q/%q", root.ID, root.Name)
	}
	if d := root.Detail.(dag.ConfigDetail); d.Section != dag.SectionTriggers {
		t.Errorf("root section = %q, want triggers", d.Section)
	}

	tests := []struct {
		id          string
		wantName    string
		wantParents []string
	}{
		{"1", "Bake", []string{ConfigRootID}},
		{"2", "Deploy", []string{"1"}},
		{"3", "[new stage]", []string{ConfigRootID}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			n, ok := g.NodeByID(tt.id)
			if !ok {
				t.Fatalf("node %s missing", tt.id)
			}
			if n.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", n.Name, tt.wantName)
			}
			if len(n.ParentIDs) != len(tt.wantParents) || n.ParentIDs[0] != tt.wantParents[0] {
				t.Errorf("ParentIDs = %v, want %v", n.ParentIDs, tt.wantParents)
			}
			if n.Phase != dag.Unresolved || n.Row != dag.Unresolved {
				t.Errorf("builder assigned phase/row %d/%d", n.Phase, n.Row)
			}
		})
	}
}

func TestFromPipelineActivation(t *testing.T) {
	tests := []struct {
		name    string
		vs      stage.ViewState
		wantIDs []string
	}{
		{"triggers", stage.ViewState{Section: stage.SectionTriggers}, []string{ConfigRootID}},
		{"stage index", stage.ViewState{Section: stage.SectionStage, StageIndex: stage.Index(1)}, []string{"2"}},
		{"index without section", stage.ViewState{StageIndex: stage.Index(1)}, nil},
		{"nothing", stage.ViewState{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := FromPipeline(samplePipeline(), tt.vs)
			if err != nil {
				t.Fatal(err)
			}
			var active []string
			for _, n := range g.Nodes() {
				if n.Active {
					active = append(active, n.ID)
				}
			}
			if len(active) != len(tt.wantIDs) || (len(active) == 1 && active[0] != tt.wantIDs[0]) {
				t.Errorf("active = %v, want %v", active, tt.wantIDs)
			}
		})
	}
}

func TestFromPipelineDuplicate(t *testing.T) {
	p := stage.Pipeline{Stages: []stage.Stage{{RefID: "1"}, {RefID: "1"}}}
	_, err := FromPipeline(p, stage.ViewState{})
	if !errors.Is(err, errors.ErrCodeDuplicateNode) {
		t.Errorf("error = %v, want DUPLICATE_NODE", err)
	}

	clash := stage.Pipeline{Stages: []stage.Stage{{RefID: ConfigRootID}}}
	if _, err := FromPipeline(clash, stage.ViewState{}); !errors.Is(err, errors.ErrCodeDuplicateNode) {
		t.Errorf("root id clash error = %v, want DUPLICATE_NODE", err)
	}
}

func sampleExecution() stage.Execution {
	return stage.Execution{
		ID: "e1",
		StageSummaries: []stage.StageSummary{
			{RefID: "1", Name: "Bake", Status: "SUCCEEDED"},
			{RefID: "2", Name: "Deploy", Status: "RUNNING", RequisiteStageRefIDs: []stage.Ref{"1"}},
			{RefID: "3", Name: "Verify", Status: "NOT_STARTED", HasNotStarted: true, RequisiteStageRefIDs: []stage.Ref{"2"}},
		},
	}
}

func TestFromExecution(t *testing.T) {
	vs := stage.ViewState{ExecutionID: "e1", ActiveStageIndex: stage.Index(1)}
	g, err := FromExecution(sampleExecution(), vs)
	if err != nil {
		t.Fatalf("FromExecution() error: %v", err)
	}
	if g.NodeCount() != 3 {
		t.Fatalf("NodeCount() = %d, want 3", g.NodeCount())
	}
	if len(g.Node(0).ParentIDs) != 0 {
		t.Errorf("first stage should be a root, got parents %v", g.Node(0).ParentIDs)
	}
	if !g.Node(1).Active || g.Node(0).Active || g.Node(2).Active {
		t.Error("only stage index 1 should be active")
	}
	if !g.Node(2).HasNotStarted() || g.Node(2).Status() != "NOT_STARTED" {
		t.Error("execution detail not copied")
	}

	other := stage.ViewState{ExecutionID: "other", ActiveStageIndex: stage.Index(1)}
	g, _ = FromExecution(sampleExecution(), other)
	if g.Node(1).Active {
		t.Error("activation must match the execution id")
	}

	byRef := stage.ViewState{ExecutionID: "e1", ActiveRefID: "3"}
	g, _ = FromExecution(sampleExecution(), byRef)
	if !g.Node(2).Active {
		t.Error("activation by ref id failed")
	}
}

func TestFingerprint(t *testing.T) {
	e := sampleExecution()
	base := Execution(e).Fingerprint()
	if base != Execution(sampleExecution()).Fingerprint() {
		t.Fatal("Fingerprint should be deterministic")
	}

	e.StageSummaries[1].Status = "SUCCEEDED"
	if Execution(e).Fingerprint() == base {
		t.Error("status change should change the fingerprint")
	}
	e = sampleExecution()
	e.StageSummaries[2].HasNotStarted = false
	if Execution(e).Fingerprint() == base {
		t.Error("started flag change should change the fingerprint")
	}

	p := samplePipeline()
	pBase := Pipeline(p).Fingerprint()
	p.Stages[1].Name = "Deploy to prod"
	if Pipeline(p).Fingerprint() == pBase {
		t.Error("name change should change the fingerprint")
	}
}

func TestFromInput(t *testing.T) {
	p := samplePipeline()
	src, err := FromInput(stage.Input{Pipeline: &p})
	if err != nil || src.Mode() != ModePipeline {
		t.Errorf("FromInput(pipeline) = %v, %v", src, err)
	}
	e := sampleExecution()
	src, err = FromInput(stage.Input{Execution: &e})
	if err != nil || src.Mode() != ModeExecution {
		t.Errorf("FromInput(execution) = %v, %v", src, err)
	}
	if _, err := FromInput(stage.Input{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("FromInput(empty) error = %v", err)
	}
}
