package stage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/stagegraph/pkg/errors"
)

func TestDecodeJSON(t *testing.T) {
	doc := `{
		"execution": {
			"id": "e1",
			"stageSummaries": [
				{"refId": 1, "name": "Bake", "status": "SUCCEEDED"},
				{"refId": "2", "name": "Deploy", "requisiteStageRefIds": [1], "status": "RUNNING"}
			]
		},
		"viewState": {"executionId": "e1", "activeStageIndex": 0}
	}`
	in, err := Decode(strings.NewReader(doc), FormatJSON)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if in.Mode() != "execution" {
		t.Errorf("Mode() = %q, want execution", in.Mode())
	}
	s := in.Execution.StageSummaries
	if s[0].RefID != "1" || s[1].RequisiteStageRefIDs[0] != "1" {
		t.Errorf("numeric refs not normalized: %+v", s)
	}
	if in.ViewState.ActiveStageIndex == nil || *in.ViewState.ActiveStageIndex != 0 {
		t.Error("view state not decoded")
	}
}

func TestDecodeTOML(t *testing.T) {
	doc := `
[pipeline]
id = "p1"

[[pipeline.stages]]
ref_id = 1
name = "Bake"

[[pipeline.stages]]
ref_id = "2"
name = "Deploy"
requisite_stage_ref_ids = [1]

[view_state]
section = "triggers"
`
	in, err := Decode(strings.NewReader(doc), FormatTOML)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if in.Mode() != "pipeline" || len(in.Pipeline.Stages) != 2 {
		t.Fatalf("unexpected input: %+v", in)
	}
	if got := Refs(in.Pipeline.Stages[1].RequisiteStageRefIDs); got[0] != "1" {
		t.Errorf("refs = %v, want [1]", got)
	}
	if in.ViewState.Section != SectionTriggers {
		t.Errorf("Section = %q", in.ViewState.Section)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format string
		code   errors.Code
	}{
		{"bad json", "{", FormatJSON, errors.ErrCodeInvalidFormat},
		{"unknown format", "{}", "yaml", errors.ErrCodeInvalidFormat},
		{"empty document", "{}", FormatJSON, errors.ErrCodeInvalidInput},
		{"both documents", `{"pipeline":{"stages":[]},"execution":{"id":"e","stageSummaries":[]}}`, FormatJSON, errors.ErrCodeInvalidInput},
		{"missing ref", `{"pipeline":{"stages":[{"name":"x"}]}}`, FormatJSON, errors.ErrCodeInvalidInput},
		{"bool ref", `{"pipeline":{"stages":[{"refId":true}]}}`, FormatJSON, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc), tt.format)
			if !errors.Is(err, tt.code) {
				t.Errorf("Decode() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestReadInputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.json")
	if err := os.WriteFile(path, []byte(`{"pipeline":{"stages":[{"refId":"1","name":"Bake"}]}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	in, err := ReadInputFile(path)
	if err != nil {
		t.Fatalf("ReadInputFile() error: %v", err)
	}
	if in.Pipeline.Stages[0].Name != "Bake" {
		t.Errorf("unexpected stages: %+v", in.Pipeline.Stages)
	}

	if _, err := ReadInputFile(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file error = %v, want NOT_FOUND", err)
	}
	if _, err := ReadInputFile(filepath.Join(dir, "pipeline.yaml")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("yaml file error = %v, want INVALID_FORMAT", err)
	}
}

func TestStatusHash(t *testing.T) {
	e := Execution{ID: "e1", StageSummaries: []StageSummary{
		{RefID: "1", Status: "RUNNING"},
		{RefID: "2", Status: "NOT_STARTED"},
	}}
	h := e.StatusHash()
	if h != e.StatusHash() {
		t.Fatal("StatusHash should be deterministic")
	}

	e.StageSummaries[0].Name = "renamed"
	if e.StatusHash() != h {
		t.Error("name change should not affect the status hash")
	}
	e.StageSummaries[0].Status = "SUCCEEDED"
	if e.StatusHash() == h {
		t.Error("status change should affect the status hash")
	}
	h = e.StatusHash()
	e.StageSummaries[1].HasNotStarted = true
	if e.StatusHash() == h {
		t.Error("started flag change should affect the status hash")
	}
}

func TestViewState(t *testing.T) {
	tests := []struct {
		name  string
		vs    ViewState
		index int
		ref   string
		want  bool
	}{
		{"index match", ViewState{ExecutionID: "e", ActiveStageIndex: Index(2)}, 2, "x", true},
		{"index mismatch", ViewState{ExecutionID: "e", ActiveStageIndex: Index(1)}, 2, "x", false},
		{"ref match", ViewState{ExecutionID: "e", ActiveRefID: "x"}, 2, "x", true},
		{"other execution", ViewState{ExecutionID: "f", ActiveStageIndex: Index(2)}, 2, "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vs.ExecutionActive("e", tt.index, tt.ref); got != tt.want {
				t.Errorf("ExecutionActive() = %v, want %v", got, tt.want)
			}
		})
	}

	cfg := ViewState{Section: SectionStage, StageIndex: Index(0)}
	if !cfg.ConfigActive(SectionStage, 0) || cfg.ConfigActive(SectionStage, 1) || cfg.ConfigActive(SectionTriggers, -1) {
		t.Error("ConfigActive mismatch")
	}
}
