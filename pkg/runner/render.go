package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/observability"
	"github.com/matzehuels/stagegraph/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, doc layout.Document, opts Options) (map[string][]byte, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	nlOpts := nodelink.Options{Detailed: opts.Detailed, ShowPlaceholders: opts.ShowPlaceholders}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		observability.Layout().OnRenderStart(ctx, format)
		start := time.Now()

		var data []byte
		var err error
		switch format {
		case FormatJSON:
			data, err = layout.MarshalDocument(doc)
		case FormatSVG:
			data = nodelink.RenderSVG(doc, nlOpts)
		case FormatDOT:
			data = []byte(nodelink.ToDOT(doc, nlOpts))
		case FormatGraphviz:
			data, err = nodelink.RenderDOT(ctx, nodelink.ToDOT(doc, nlOpts))
		}

		observability.Layout().OnRenderComplete(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
