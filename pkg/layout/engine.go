package layout

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/stagegraph/pkg/dag"
	"github.com/matzehuels/stagegraph/pkg/dag/build"
	"github.com/matzehuels/stagegraph/pkg/dag/transform"
	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/observability"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// Layout is one computed diagram. Callers must treat it as read-only.
type Layout struct {
	Mode        string // build.ModePipeline or build.ModeExecution
	Fingerprint string // fingerprint of the source it was computed from
	Graph       *dag.Graph
	Columns     [][]int // node indices per phase, top to bottom
	Geometry    Geometry
	ViewState   stage.ViewState
}

// Node returns the node with the given id.
func (l *Layout) Node(id string) (*dag.Node, bool) { return l.Graph.NodeByID(id) }

// Compute runs the full layout pipeline for src under vs.
func Compute(src build.Source, vs stage.ViewState, opts Options, measure MeasureFunc) (*Layout, error) {
	g, err := src.Build(vs)
	if err != nil {
		return nil, err
	}
	placed, columns, err := transform.Normalize(g)
	if err != nil {
		return nil, err
	}
	sized, geo, err := ComputeGeometry(placed, columns, opts, measure)
	if err != nil {
		return nil, err
	}
	linked := BuildLinks(sized, columns, geo.NodeRadius)
	active := ApplyActivation(linked, func(n *dag.Node) bool { return src.Active(n, vs) })

	return &Layout{
		Mode:        src.Mode(),
		Fingerprint: src.Fingerprint(),
		Graph:       active,
		Columns:     columns,
		Geometry:    geo,
		ViewState:   vs,
	}, nil
}

// Refresh returns a copy of l with the selection vs applied. Phases, rows,
// coordinates and link paths are shared with l unchanged.
func Refresh(l *Layout, src build.Source, vs stage.ViewState) *Layout {
	next := *l
	next.Graph = ApplyActivation(l.Graph, func(n *dag.Node) bool { return src.Active(n, vs) })
	next.ViewState = vs
	return &next
}

// Engine holds the current layout of one diagram and decides how much work
// each change needs. It is safe for concurrent use; changes are applied one
// at a time.
type Engine struct {
	mu      sync.Mutex
	opts    Options
	measure MeasureFunc
	source  build.Source
	current *Layout
}

// NewEngine creates an engine with the given geometry options and label
// measurement.
func NewEngine(opts Options, measure MeasureFunc) (*Engine, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if measure == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "layout engine needs a label measurement function")
	}
	return &Engine{opts: opts, measure: measure}, nil
}

// Options returns the engine's geometry options.
func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// Current returns the last computed layout, or nil.
func (e *Engine) Current() *Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Recompute lays out src from scratch and makes it current. On error the
// current layout is kept.
func (e *Engine) Recompute(src build.Source, vs stage.ViewState) (*Layout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recompute(src, vs)
}

func (e *Engine) recompute(src build.Source, vs stage.ViewState) (*Layout, error) {
	l, err := Compute(src, vs, e.opts, e.measure)
	if err != nil {
		return nil, err
	}
	e.source, e.current = src, l
	return l, nil
}

// RefreshState applies a new selection to the current layout without
// recomputing its geometry.
func (e *Engine) RefreshState(vs stage.ViewState) (*Layout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "no layout to refresh")
	}
	e.current = Refresh(e.current, e.source, vs)
	return e.current, nil
}

// Update brings the diagram up to date with src and vs. When src has the
// same fingerprint as the current layout only the selection is refreshed;
// full reports whether a full recompute was needed.
//
// A full recompute is reported to the layout hooks through OnLayoutStart,
// before any work, and OnLayoutComplete. A selection refresh is reported
// through OnStateRefresh.
func (e *Engine) Update(ctx context.Context, src build.Source, vs stage.ViewState) (l *Layout, full bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	hooks := observability.Layout()
	start := time.Now()
	if e.current != nil && e.current.Mode == src.Mode() && e.current.Fingerprint == src.Fingerprint() {
		e.source = src
		e.current = Refresh(e.current, src, vs)
		hooks.OnStateRefresh(ctx, src.Mode(), time.Since(start))
		return e.current, false, nil
	}

	hooks.OnLayoutStart(ctx, src.Mode(), src.Stages())
	start = time.Now()
	l, err = e.recompute(src, vs)
	nodes := 0
	if l != nil {
		nodes = l.Graph.NodeCount()
	}
	hooks.OnLayoutComplete(ctx, src.Mode(), nodes, time.Since(start), err)
	return l, true, err
}

// Resize recomputes the current layout for a new canvas width. The width is
// kept for later layouts even when there is no current layout, in which
// case a NOT_FOUND error is returned.
func (e *Engine) Resize(width float64) (*Layout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	opts := e.opts
	opts.Width = width
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	e.opts = opts
	if e.current == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "no layout to resize")
	}
	return e.recompute(e.source, e.current.ViewState)
}

// Highlight sets the hover state of the node with the given id. It reports
// false, and leaves the layout alone, when there is no such node or the
// node is active.
func (e *Engine) Highlight(id string, on bool) (*Layout, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil, false
	}
	g, ok := Highlight(e.current.Graph, id, on)
	if !ok {
		return e.current, false
	}
	next := *e.current
	next.Graph = g
	e.current = &next
	return e.current, true
}
