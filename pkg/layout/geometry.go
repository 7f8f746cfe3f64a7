package layout

import (
	"math"
	"strconv"

	"github.com/matzehuels/stagegraph/pkg/dag"
	"github.com/matzehuels/stagegraph/pkg/errors"
)

// Default geometry constants, in pixels.
const (
	DefaultWidth                 = 1200.0
	DefaultNodeRadius            = 8.0
	DefaultCompactNodeRadius     = 6.0
	DefaultCompactPhaseThreshold = 6
	DefaultRowPadding            = 20.0
	DefaultVerticalPadding       = 11.0
	DefaultMinLabelWidth         = 100.0
	DefaultMinGraphHeight        = 40.0

	// canvasSlack is added to a fixed-width canvas so the last label is not
	// clipped.
	canvasSlack = 5.0
)

// MeasureFunc returns the rendered height of label when wrapped at maxWidth.
// Labels may span several lines separated by "\n".
type MeasureFunc func(label string, maxWidth float64) (float64, error)

// Options configures the geometry of a layout. Zero fields take the
// defaults; see [Options.ValidateAndSetDefaults].
type Options struct {
	Width                 float64 // available canvas width
	NodeRadius            float64
	CompactNodeRadius     float64 // radius once the graph is wider than CompactPhaseThreshold
	CompactPhaseThreshold int
	RowPadding            float64 // added to every measured label height
	VerticalPadding       float64 // space above the first row
	MinLabelWidth         float64
	MinGraphHeight        float64
}

// DefaultOptions returns the default geometry options.
func DefaultOptions() Options {
	o := Options{}
	_ = o.ValidateAndSetDefaults()
	return o
}

// ValidateAndSetDefaults fills zero fields with defaults and rejects
// negative or non-finite values.
func (o *Options) ValidateAndSetDefaults() error {
	fields := []struct {
		name string
		v    *float64
		def  float64
	}{
		{"width", &o.Width, DefaultWidth},
		{"node radius", &o.NodeRadius, DefaultNodeRadius},
		{"compact node radius", &o.CompactNodeRadius, DefaultCompactNodeRadius},
		{"row padding", &o.RowPadding, DefaultRowPadding},
		{"vertical padding", &o.VerticalPadding, DefaultVerticalPadding},
		{"min label width", &o.MinLabelWidth, DefaultMinLabelWidth},
		{"min graph height", &o.MinGraphHeight, DefaultMinGraphHeight},
	}
	for _, f := range fields {
		if math.IsNaN(*f.v) || math.IsInf(*f.v, 0) || *f.v < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s must be a non-negative number, got %v", f.name, *f.v)
		}
		if *f.v == 0 {
			*f.v = f.def
		}
	}
	if o.CompactPhaseThreshold < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "compact phase threshold must not be negative")
	}
	if o.CompactPhaseThreshold == 0 {
		o.CompactPhaseThreshold = DefaultCompactPhaseThreshold
	}
	return nil
}

// Geometry holds the dimensions shared by every node of a layout.
type Geometry struct {
	MaxPhase      int       `json:"max_phase"`
	NodeRadius    float64   `json:"node_radius"`
	LabelOffsetX  float64   `json:"label_offset_x"`
	LabelOffsetY  float64   `json:"label_offset_y"`
	MaxLabelWidth float64   `json:"max_label_width"`
	Compact       bool      `json:"compact"`     // labels hit MinLabelWidth
	GraphWidth    float64   `json:"graph_width"` // pixel width, meaningful when Compact
	GraphHeight   float64   `json:"graph_height"`
	RowHeights    []float64 `json:"row_heights"`
}

// CanvasWidth returns the width of the drawing: "100%" when the labels fit
// the available width, a pixel value when they had to be clamped and the
// canvas scrolls.
func (g Geometry) CanvasWidth() string {
	if !g.Compact {
		return "100%"
	}
	return strconv.FormatFloat(g.GraphWidth, 'f', -1, 64) + "px"
}

// PhaseSpacing is the horizontal distance between two phases.
func (g Geometry) PhaseSpacing() float64 {
	return g.MaxLabelWidth + 2*g.NodeRadius + g.LabelOffsetX
}

// ComputeGeometry sizes and positions every node of a placed graph. It
// returns a new snapshot with Height, X and Y set, and the shared geometry.
//
// Label width is the available width split evenly across phases, never
// below MinLabelWidth. Each node is as tall as its measured label plus row
// padding; placeholders are RowPadding tall and are not measured. A row is
// as tall as its tallest node across all phases, and nodes are stacked by
// row from VerticalPadding down.
//
// A measurement error, or a height that is negative or not finite, fails
// the whole computation with MEASUREMENT_FAILED.
func ComputeGeometry(in *dag.Graph, columns [][]int, opts Options, measure MeasureFunc) (*dag.Graph, Geometry, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, Geometry{}, err
	}
	if measure == nil {
		return nil, Geometry{}, errors.New(errors.ErrCodeInternal, "no label measurement function")
	}

	g := in.Clone()
	geo := Geometry{MaxPhase: max(len(columns)-1, 0)}

	geo.NodeRadius = opts.NodeRadius
	geo.LabelOffsetX = geo.NodeRadius + 3
	geo.LabelOffsetY = geo.NodeRadius + 10
	if geo.MaxPhase > opts.CompactPhaseThreshold {
		geo.NodeRadius = opts.CompactNodeRadius
		geo.LabelOffsetX = geo.NodeRadius + 3
		geo.LabelOffsetY = 15
	}

	phaseOffset := 2*geo.NodeRadius + geo.LabelOffsetX
	labelWidth := opts.Width - 2*geo.NodeRadius
	if geo.MaxPhase > 0 {
		labelWidth = labelWidth/float64(geo.MaxPhase+1) - phaseOffset
	}
	geo.MaxLabelWidth = max(opts.MinLabelWidth, labelWidth)
	if geo.MaxLabelWidth == opts.MinLabelWidth {
		geo.Compact = true
		geo.GraphWidth = float64(geo.MaxPhase+1)*(geo.MaxLabelWidth+phaseOffset) + canvasSlack
	}

	for _, column := range columns {
		for row, i := range column {
			n := g.Node(i)
			if n.Placeholder {
				n.Height = opts.RowPadding
			} else {
				h, err := measure(n.Label(), geo.MaxLabelWidth)
				if err != nil {
					return nil, Geometry{}, errors.Wrap(errors.ErrCodeMeasurement, err, "measure label of stage %s", n.ID)
				}
				if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
					return nil, Geometry{}, errors.New(errors.ErrCodeMeasurement, "label of stage %s measured %v", n.ID, h)
				}
				n.Height = h + opts.RowPadding
			}
			if row == len(geo.RowHeights) {
				geo.RowHeights = append(geo.RowHeights, 0)
			}
			geo.RowHeights[row] = max(geo.RowHeights[row], n.Height)
		}
	}

	total := 0.0
	for _, h := range geo.RowHeights {
		total += h
	}
	geo.GraphHeight = max(total+opts.VerticalPadding, opts.MinGraphHeight)

	spacing := geo.PhaseSpacing()
	for phase, column := range columns {
		y := opts.VerticalPadding
		for row, i := range column {
			n := g.Node(i)
			n.X = float64(phase) * spacing
			n.Y = y
			y += geo.RowHeights[row]
		}
	}
	return g, geo, nil
}
