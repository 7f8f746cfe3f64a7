package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/config"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/measure"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// Flag names are the config keys they set; see config.Load.

// addLayoutFlags registers the geometry and label measurement flags.
func addLayoutFlags(fs *pflag.FlagSet) {
	est := measure.NewEstimator(measure.DefaultFontSize)
	fs.Float64("width", layout.DefaultWidth, "available canvas width in pixels")
	fs.Float64("node-radius", layout.DefaultNodeRadius, "node circle radius")
	fs.Float64("row-padding", layout.DefaultRowPadding, "padding added to every label height")
	fs.Float64("vertical-padding", layout.DefaultVerticalPadding, "space above the first row")
	fs.Float64("min-label-width", layout.DefaultMinLabelWidth, "narrowest label before the canvas scrolls")
	fs.Float64("min-graph-height", layout.DefaultMinGraphHeight, "minimum canvas height")
	fs.Float64("char-width", est.CharWidth, "estimated width of one label character")
	fs.Float64("line-height", est.LineHeight, "estimated height of one label line")
}

// addCacheFlags registers the cache flags.
func addCacheFlags(fs *pflag.FlagSet) {
	fs.String("cache-backend", config.BackendFile, "layout cache: file, redis, none")
	fs.String("cache-dir", "", "file cache directory (default: ~/.cache/"+config.AppName+")")
	fs.String("redis-addr", "", "redis address for the redis cache")
	fs.String("cache-prefix", "", "prefix for cache keys")
	fs.Duration("cache-ttl", cache.TTLLayout, "lifetime of cached layouts")
}

// viewFlags override the view state stored in an input file.
type viewFlags struct {
	executionID string
	activeIndex int
	activeRef   string
	section     string
	stageIndex  int
}

func (v *viewFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&v.executionID, "execution-id", "", "execution the selection belongs to")
	fs.IntVar(&v.activeIndex, "active-index", 0, "select the execution stage at this index")
	fs.StringVar(&v.activeRef, "active-ref", "", "select the execution stage with this ref id")
	fs.StringVar(&v.section, "section", "", "select a configuration section: triggers, stage")
	fs.IntVar(&v.stageIndex, "stage-index", 0, "select the configuration stage at this index")
}

// apply overwrites the fields of vs whose flags were set on cmd. Selecting
// an execution stage without an execution id targets the input's execution.
func (v *viewFlags) apply(cmd *cobra.Command, in *stage.Input) {
	fs := cmd.Flags()
	vs := &in.ViewState
	if fs.Changed("execution-id") {
		vs.ExecutionID = v.executionID
	}
	if fs.Changed("active-index") {
		vs.ActiveStageIndex = stage.Index(v.activeIndex)
	}
	if fs.Changed("active-ref") {
		vs.ActiveRefID = v.activeRef
	}
	if fs.Changed("section") {
		vs.Section = v.section
	}
	if fs.Changed("stage-index") {
		vs.StageIndex = stage.Index(v.stageIndex)
		if vs.Section == "" {
			vs.Section = stage.SectionStage
		}
	}
	selected := fs.Changed("active-index") || fs.Changed("active-ref")
	if selected && !fs.Changed("execution-id") && in.Execution != nil {
		vs.ExecutionID = in.Execution.ID
	}
}
