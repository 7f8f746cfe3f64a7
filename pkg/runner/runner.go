package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/dag/build"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/observability"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

const keyTypeLayout = "layout"

// Runner encapsulates layout runs with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute lays out in and renders the result in every requested format.
func (r *Runner) Execute(ctx context.Context, in stage.Input, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	res, err := r.Layout(ctx, in, opts)
	if err != nil {
		return nil, err
	}

	renderStart := time.Now()
	artifacts, err := Render(ctx, res.Document, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Artifacts = artifacts
	res.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", res.Stats.RenderTime)
	return res, nil
}

// Layout computes the layout of in, or reads it from the cache. The result
// has no artifacts.
func (r *Runner) Layout(ctx context.Context, in stage.Input, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	src, err := build.FromInput(in)
	if err != nil {
		return nil, err
	}
	res := &Result{InputHash: InputHash(src, in.ViewState)}
	start := time.Now()

	cacheKey := r.Keyer.LayoutKey(res.InputHash, opts.LayoutKeyOpts())
	if opts.Cacheable() && !opts.Refresh {
		if doc, ok := r.cached(ctx, cacheKey); ok {
			res.Document = doc
			res.CacheInfo.LayoutHit = true
			res.Stats = docStats(doc)
			res.Stats.LayoutTime = time.Since(start)
			opts.Logger.Debug("layout cache hit", "key", cacheKey)
			return res, nil
		}
	}

	observability.Layout().OnLayoutStart(ctx, src.Mode(), in.StageCount())
	l, err := layout.Compute(src, in.ViewState, opts.Layout, opts.MeasureFunc())
	res.Stats.LayoutTime = time.Since(start)
	nodes := 0
	if l != nil {
		nodes = l.Graph.NodeCount()
	}
	observability.Layout().OnLayoutComplete(ctx, src.Mode(), nodes, res.Stats.LayoutTime, err)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	res.Layout = l
	res.Document = layout.Export(l)
	res.Stats = docStats(res.Document)
	res.Stats.LayoutTime = time.Since(start)

	if opts.Cacheable() {
		if data, err := layout.Marshal(l); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, opts.TTL); err == nil {
				observability.Cache().OnCacheSet(ctx, keyTypeLayout, len(data))
			} else {
				opts.Logger.Warn("cache write failed", "error", err)
			}
		}
	}

	opts.Logger.Info("computed layout",
		"mode", src.Mode(),
		"nodes", res.Stats.NodeCount,
		"links", res.Stats.LinkCount,
		"phases", res.Stats.PhaseCount,
		"duration", res.Stats.LayoutTime)
	return res, nil
}

func (r *Runner) cached(ctx context.Context, key string) (layout.Document, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
		return layout.Document{}, false
	}
	doc, err := layout.Unmarshal(data)
	if err != nil {
		// corrupt entry: recompute
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
		return layout.Document{}, false
	}
	observability.Cache().OnCacheHit(ctx, keyTypeLayout)
	return doc, true
}

// InputHash identifies a layout request: the source's fingerprint plus the
// view state.
func InputHash(src build.Source, vs stage.ViewState) string {
	return cache.HashValues(src.Mode(), src.Fingerprint(), vs)
}

func docStats(doc layout.Document) Stats {
	s := Stats{
		NodeCount:  len(doc.Nodes),
		LinkCount:  len(doc.Links),
		PhaseCount: len(doc.Phases),
	}
	for _, n := range doc.Nodes {
		if n.Placeholder {
			s.PlaceholderCount++
		}
	}
	return s
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
