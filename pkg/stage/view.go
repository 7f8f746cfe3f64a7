package stage

// Sections a pipeline configuration view can show.
const (
	SectionTriggers = "triggers"
	SectionStage    = "stage"
)

// ViewState is the current selection of the screen showing the diagram.
//
// In the execution view a stage is selected by its index in the stage
// summary list (ActiveStageIndex) or by its ref id (ActiveRefID), within the
// execution named by ExecutionID. In the configuration view Section selects
// either the triggers (the synthetic root) or a stage, in which case
// StageIndex names the stage.
type ViewState struct {
	ExecutionID      string `json:"executionId,omitempty" toml:"execution_id"`
	ActiveStageIndex *int   `json:"activeStageIndex,omitempty" toml:"active_stage_index"`
	ActiveRefID      string `json:"activeRefId,omitempty" toml:"active_ref_id"`
	Section          string `json:"section,omitempty" toml:"section"`
	StageIndex       *int   `json:"stageIndex,omitempty" toml:"stage_index"`
}

// ExecutionActive reports whether the execution stage at index with the
// given ref is selected.
func (v ViewState) ExecutionActive(executionID string, index int, ref string) bool {
	if v.ExecutionID != executionID {
		return false
	}
	if v.ActiveStageIndex != nil && *v.ActiveStageIndex == index {
		return true
	}
	return v.ActiveRefID != "" && v.ActiveRefID == ref
}

// ConfigActive reports whether the configuration node in section at index
// is selected. The triggers section ignores the index.
func (v ViewState) ConfigActive(section string, index int) bool {
	if section == SectionTriggers {
		return v.Section == SectionTriggers
	}
	return v.Section == SectionStage && v.StageIndex != nil && *v.StageIndex == index
}

// Index returns a pointer to i, for building view states in code.
func Index(i int) *int { return &i }
