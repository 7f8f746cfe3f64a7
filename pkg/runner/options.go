// Package runner orchestrates stage layouts for the CLI and the HTTP API.
//
// It ties the pieces together: build the graph from a pipeline or an
// execution, lay it out, cache the serialized result and render it to the
// requested formats. Centralizing this keeps both entry points consistent.
//
// # Usage
//
//	r := runner.NewRunner(c, nil, logger)
//	res, err := r.Execute(ctx, in, runner.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    return err
//	}
//	svg := res.Artifacts["svg"]
//
// Layouts are cached under a key derived from the source fingerprint, the
// view state and every option that changes geometry, so a repeated request
// is served without recomputing. Cache failures never fail a request.
//
// The runner reports timings through [observability] hooks and logs with
// charmbracelet/log; the layout engine underneath does neither.
package runner

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/measure"
)

// Output formats.
const (
	FormatJSON     = "json"     // serialized layout document
	FormatSVG      = "svg"      // layout drawn at its computed coordinates
	FormatDOT      = "dot"      // Graphviz source
	FormatGraphviz = "graphviz" // SVG rendered by Graphviz from the DOT source
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:     true,
	FormatSVG:      true,
	FormatDOT:      true,
	FormatGraphviz: true,
}

// Options contains all configuration for a layout run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Layout     layout.Options `json:"layout"`
	CharWidth  float64        `json:"char_width,omitempty"`  // label estimator cell width
	LineHeight float64        `json:"line_height,omitempty"` // label estimator line height
	Refresh    bool           `json:"refresh,omitempty"`     // bypass the cache read

	// Render options
	Formats          []string `json:"formats,omitempty"`
	Detailed         bool     `json:"detailed,omitempty"`
	ShowPlaceholders bool     `json:"show_placeholders,omitempty"`

	// Runtime options (not serialized)
	Logger  *log.Logger        `json:"-"`
	Measure layout.MeasureFunc `json:"-"` // replaces the estimator and disables caching
	TTL     time.Duration      `json:"-"` // cache lifetime, default cache.TTLLayout

	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.Layout.ValidateAndSetDefaults(); err != nil {
		return err
	}
	def := measure.NewEstimator(measure.DefaultFontSize)
	for _, f := range []struct {
		name string
		v    *float64
		def  float64
	}{
		{"char width", &o.CharWidth, def.CharWidth},
		{"line height", &o.LineHeight, def.LineHeight},
	} {
		if math.IsNaN(*f.v) || math.IsInf(*f.v, 0) || *f.v < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s must be a non-negative number, got %v", f.name, *f.v)
		}
		if *f.v == 0 {
			*f.v = f.def
		}
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.TTL == 0 {
		o.TTL = cache.TTLLayout
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, svg, dot, graphviz)", f)
		}
	}
	return nil
}

// Cacheable reports whether layouts computed with these options may be
// cached. A custom measurement cannot be identified in a key.
func (o *Options) Cacheable() bool { return o.Measure == nil }

// MeasureFunc returns the label measurement of the options.
func (o *Options) MeasureFunc() layout.MeasureFunc {
	if o.Measure != nil {
		return o.Measure
	}
	e := &measure.Estimator{CharWidth: o.CharWidth, LineHeight: o.LineHeight}
	return e.Measure
}

// LayoutKeyOpts returns cache key options for the layout.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	measurer := fmt.Sprintf("estimate:%g/%g", o.CharWidth, o.LineHeight)
	if o.Measure != nil {
		measurer = "custom"
	}
	return cache.LayoutKeyOpts{
		Width:           o.Layout.Width,
		NodeRadius:      o.Layout.NodeRadius,
		RowPadding:      o.Layout.RowPadding,
		VerticalPadding: o.Layout.VerticalPadding,
		MinLabelWidth:   o.Layout.MinLabelWidth,
		MinGraphHeight:  o.Layout.MinGraphHeight,
		Measurer:        measurer,
	}
}

// Result contains the outputs of a run.
type Result struct {
	// Document is the serialized layout.
	Document layout.Document

	// Layout is the computed layout, nil when Document came from the cache.
	Layout *layout.Layout

	// InputHash identifies the source and view state.
	InputHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the layout came from the cache.
	CacheInfo CacheInfo
}

// Stats contains run statistics.
type Stats struct {
	NodeCount        int
	LinkCount        int
	PlaceholderCount int
	PhaseCount       int
	LayoutTime       time.Duration
	RenderTime       time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	LayoutHit bool
}
