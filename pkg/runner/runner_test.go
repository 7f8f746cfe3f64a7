package runner

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/measure"
	"github.com/matzehuels/stagegraph/pkg/observability"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// memCache is an in-memory cache that can be told to fail.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	sets    int
	lastTTL time.Duration
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	c.lastTTL = ttl
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

type recordingHooks struct {
	observability.NoopLayoutHooks
	mu        sync.Mutex
	started   int
	completed int
	lastErr   error
	rendered  []string
}

func (h *recordingHooks) OnLayoutStart(context.Context, string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started++
}

func (h *recordingHooks) OnLayoutComplete(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed++
	h.lastErr = err
}

func (h *recordingHooks) OnRenderComplete(_ context.Context, format string, _ int, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rendered = append(h.rendered, format)
}

type countingCacheHooks struct {
	observability.NoopCacheHooks
	mu           sync.Mutex
	hits, misses int
}

func (h *countingCacheHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits++
}

func (h *countingCacheHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses++
}

func testInput() stage.Input {
	return stage.Input{Execution: &stage.Execution{ID: "e1", StageSummaries: []stage.StageSummary{
		{RefID: "1", Name: "Bake", Status: "SUCCEEDED"},
		{RefID: "2", Name: "Deploy", Status: "RUNNING", RequisiteStageRefIDs: []stage.Ref{"1"}},
		{RefID: "3", Name: "Verify", Status: "NOT_STARTED", HasNotStarted: true, RequisiteStageRefIDs: []stage.Ref{"2", "1"}},
	}}}
}

func TestLayoutCaching(t *testing.T) {
	defer observability.Reset()
	hooks := &countingCacheHooks{}
	observability.SetCacheHooks(hooks)

	c := newMemCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	first, err := r.Layout(ctx, testInput(), Options{})
	if err != nil {
		t.Fatalf("Layout() error: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.Layout == nil {
		t.Fatalf("first run: hit=%v layout=%v", first.CacheInfo.LayoutHit, first.Layout)
	}
	if c.sets != 1 || c.lastTTL != cache.TTLLayout {
		t.Errorf("sets = %d ttl = %v, want 1 and %v", c.sets, c.lastTTL, cache.TTLLayout)
	}

	second, err := r.Layout(ctx, testInput(), Options{})
	if err != nil {
		t.Fatalf("Layout() error: %v", err)
	}
	if !second.CacheInfo.LayoutHit || second.Layout != nil {
		t.Fatalf("second run: hit=%v", second.CacheInfo.LayoutHit)
	}
	if hooks.hits != 1 || hooks.misses != 1 {
		t.Errorf("hits = %d misses = %d, want 1 and 1", hooks.hits, hooks.misses)
	}

	a, _ := layoutJSON(first)
	b, _ := layoutJSON(second)
	if !bytes.Equal(a, b) {
		t.Error("cached document differs from computed one")
	}
	if second.Stats != withoutTime(first.Stats, second.Stats) {
		t.Errorf("stats = %+v, want %+v", second.Stats, first.Stats)
	}
	if first.Stats.PlaceholderCount != 1 || first.Stats.PhaseCount != 3 || first.Stats.LinkCount != 3 {
		t.Errorf("stats = %+v", first.Stats)
	}
}

func layoutJSON(r *Result) ([]byte, error) {
	arts, err := Render(context.Background(), r.Document, Options{Formats: []string{FormatJSON}})
	return arts[FormatJSON], err
}

func withoutTime(s, like Stats) Stats {
	s.LayoutTime, s.RenderTime = like.LayoutTime, like.RenderTime
	return s
}

func TestLayoutCacheKeys(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	if _, err := r.Layout(ctx, testInput(), Options{}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   stage.Input
		opts Options
		hit  bool
	}{
		{"same request", testInput(), Options{}, true},
		{"refresh", testInput(), Options{Refresh: true}, false},
		{"other width", testInput(), Options{Layout: layoutWidth(800)}, false},
		{"other selection", withView(testInput(), stage.ViewState{ExecutionID: "e1", ActiveRefID: "2"}), Options{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Layout(ctx, tt.in, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if res.CacheInfo.LayoutHit != tt.hit {
				t.Errorf("LayoutHit = %v, want %v", res.CacheInfo.LayoutHit, tt.hit)
			}
		})
	}
}

func TestLayoutCustomMeasureNotCached(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	opts := Options{Measure: measure.Fixed(15)}

	for i := 0; i < 2; i++ {
		res, err := r.Layout(context.Background(), testInput(), opts)
		if err != nil {
			t.Fatal(err)
		}
		if res.CacheInfo.LayoutHit {
			t.Error("custom measurement must not be served from cache")
		}
	}
	if c.sets != 0 {
		t.Errorf("sets = %d, want 0", c.sets)
	}
}

func TestLayoutCacheFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("get error", func(t *testing.T) {
		c := newMemCache()
		c.getErr = stderrors.New("connection refused")
		res, err := NewRunner(c, nil, nil).Layout(ctx, testInput(), Options{})
		if err != nil || res.CacheInfo.LayoutHit {
			t.Errorf("Layout() = hit %v, err %v; want computed layout", res != nil && res.CacheInfo.LayoutHit, err)
		}
	})

	t.Run("corrupt entry", func(t *testing.T) {
		c := newMemCache()
		r := NewRunner(c, nil, nil)
		if _, err := r.Layout(ctx, testInput(), Options{}); err != nil {
			t.Fatal(err)
		}
		for k := range c.data {
			c.data[k] = []byte("{not json")
		}
		res, err := r.Layout(ctx, testInput(), Options{})
		if err != nil || res.CacheInfo.LayoutHit {
			t.Errorf("corrupt entry: hit=%v err=%v", res != nil && res.CacheInfo.LayoutHit, err)
		}
	})
}

func TestLayoutErrors(t *testing.T) {
	defer observability.Reset()
	hooks := &recordingHooks{}
	observability.SetLayoutHooks(hooks)

	cyclic := stage.Input{Pipeline: &stage.Pipeline{Stages: []stage.Stage{
		{RefID: "1", RequisiteStageRefIDs: []stage.Ref{"2"}},
		{RefID: "2", RequisiteStageRefIDs: []stage.Ref{"1"}},
	}}}

	tests := []struct {
		name string
		in   stage.Input
		opts Options
		code errors.Code
	}{
		{"cycle", cyclic, Options{}, errors.ErrCodeCyclicDependency},
		{"empty input", stage.Input{}, Options{}, errors.ErrCodeInvalidInput},
		{"bad format", testInput(), Options{Formats: []string{"png"}}, errors.ErrCodeInvalidInput},
		{"bad width", testInput(), Options{Layout: layoutWidth(-1)}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(nil, nil, nil).Layout(context.Background(), tt.in, tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}

	if hooks.started != 1 || hooks.completed != 1 || hooks.lastErr == nil {
		t.Errorf("hooks: started %d completed %d err %v", hooks.started, hooks.completed, hooks.lastErr)
	}
}

func TestExecute(t *testing.T) {
	defer observability.Reset()
	hooks := &recordingHooks{}
	observability.SetLayoutHooks(hooks)

	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), testInput(), Options{Formats: []string{FormatJSON, FormatSVG, FormatDOT}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(res.Artifacts) != 3 {
		t.Fatalf("artifacts = %d, want 3", len(res.Artifacts))
	}
	if !strings.Contains(string(res.Artifacts[FormatJSON]), `"mode": "execution"`) {
		t.Error("json artifact missing mode")
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatSVG]), "<svg") {
		t.Error("svg artifact is not SVG")
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatDOT]), "digraph G {") {
		t.Error("dot artifact is not DOT")
	}
	if strings.Join(hooks.rendered, ",") != "json,svg,dot" {
		t.Errorf("rendered = %v", hooks.rendered)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	def := measure.NewEstimator(measure.DefaultFontSize)
	if o.CharWidth != def.CharWidth || o.LineHeight != def.LineHeight {
		t.Errorf("estimator = %v/%v, want %v/%v", o.CharWidth, o.LineHeight, def.CharWidth, def.LineHeight)
	}
	if len(o.Formats) != 1 || o.Formats[0] != FormatJSON {
		t.Errorf("Formats = %v, want [json]", o.Formats)
	}
	if o.TTL != cache.TTLLayout || o.Logger == nil || !o.Cacheable() {
		t.Errorf("defaults = %+v", o)
	}
	if got := o.LayoutKeyOpts().Measurer; !strings.HasPrefix(got, "estimate:") {
		t.Errorf("Measurer = %q", got)
	}

	bad := Options{LineHeight: -3}
	if err := bad.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestInputHash(t *testing.T) {
	in := testInput()
	r := NewRunner(nil, nil, nil)
	a, err := r.Layout(context.Background(), in, Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := r.Layout(context.Background(), withView(in, stage.ViewState{ExecutionID: "e1", ActiveStageIndex: stage.Index(0)}), Options{})
	if a.InputHash == b.InputHash {
		t.Error("view state must change the input hash")
	}

	in2 := testInput()
	in2.Execution.StageSummaries[1].Status = "SUCCEEDED"
	c, _ := r.Layout(context.Background(), in2, Options{})
	if a.InputHash == c.InputHash {
		t.Error("status change must change the input hash")
	}
}

func layoutWidth(w float64) layout.Options {
	return layout.Options{Width: w}
}

func withView(in stage.Input, vs stage.ViewState) stage.Input {
	in.ViewState = vs
	return in
}
