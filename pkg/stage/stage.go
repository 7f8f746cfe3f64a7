package stage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/stagegraph/pkg/cache"
)

// Ref is a stage reference id. Pipeline documents use both "3" and 3 for
// the same reference, so Ref decodes from strings and numbers alike.
type Ref string

// UnmarshalJSON accepts a JSON string or number.
func (r *Ref) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("stage ref must be a string or number: %w", err)
	}
	*r = Ref(n.String())
	return nil
}

// UnmarshalTOML accepts a TOML string or integer.
func (r *Ref) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case string:
		*r = Ref(x)
	case int64:
		*r = Ref(strconv.FormatInt(x, 10))
	default:
		return fmt.Errorf("stage ref must be a string or integer, got %T", v)
	}
	return nil
}

// Refs converts a list of refs to plain strings.
func Refs(refs []Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = string(r)
	}
	return out
}

// Pipeline is a pipeline configuration with its ordered stage list.
type Pipeline struct {
	ID     string  `json:"id,omitempty" toml:"id"`
	Name   string  `json:"name,omitempty" toml:"name"`
	Stages []Stage `json:"stages" toml:"stages"`
}

// Stage is one configured stage.
type Stage struct {
	RefID                Ref    `json:"refId" toml:"ref_id"`
	Name                 string `json:"name,omitempty" toml:"name"`
	Type                 string `json:"type,omitempty" toml:"type"`
	RequisiteStageRefIDs []Ref  `json:"requisiteStageRefIds,omitempty" toml:"requisite_stage_ref_ids"`
	ExtraLabelLines      int    `json:"extraLabelLines,omitempty" toml:"extra_label_lines"`
}

// Execution is one run of a pipeline with its ordered stage summaries.
type Execution struct {
	ID             string         `json:"id" toml:"id"`
	PipelineID     string         `json:"pipelineConfigId,omitempty" toml:"pipeline_config_id"`
	Name           string         `json:"name,omitempty" toml:"name"`
	StageSummaries []StageSummary `json:"stageSummaries" toml:"stage_summaries"`
}

// StageSummary is the execution-time view of one stage.
type StageSummary struct {
	RefID                Ref    `json:"refId" toml:"ref_id"`
	Name                 string `json:"name,omitempty" toml:"name"`
	RequisiteStageRefIDs []Ref  `json:"requisiteStageRefIds,omitempty" toml:"requisite_stage_ref_ids"`
	Status               string `json:"status,omitempty" toml:"status"`
	HasNotStarted        bool   `json:"hasNotStarted,omitempty" toml:"has_not_started"`
	GraphRowOverride     int    `json:"graphRowOverride,omitempty" toml:"graph_row_override"`
	ExtraLabelLines      int    `json:"extraLabelLines,omitempty" toml:"extra_label_lines"`
}

// StatusHash fingerprints the parts of an execution that change while it
// runs: stage statuses, started flags and label sizes. Two executions with equal hashes
// render the same diagram.
func (e Execution) StatusHash() string {
	parts := make([]string, len(e.StageSummaries))
	for i, s := range e.StageSummaries {
		parts[i] = fmt.Sprintf("%s-%d-%s-%t", s.RefID, s.ExtraLabelLines, s.Status, s.HasNotStarted)
	}
	return cache.Hash([]byte(strings.Join(parts, ",")))
}
