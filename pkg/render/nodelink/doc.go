// Package nodelink renders computed stage layouts as node-link diagrams.
//
// # Overview
//
// Two renderers share the serialized [layout.Document] as input, so they
// work equally on a fresh layout and on one read back from the cache:
//
//   - [RenderSVG] draws the layout itself: a circle per stage at its
//     computed position, the precomputed curve per link, and the label to
//     the right of each circle. Placeholders are not drawn.
//   - [ToDOT] and [RenderDOT] produce a Graphviz preview that keeps the
//     phases as ranks and the row order within each rank.
//
// # Usage
//
//	doc := layout.Export(l)
//	svg := nodelink.RenderSVG(doc, nodelink.Options{})
//
//	dot := nodelink.ToDOT(doc, nodelink.Options{Detailed: true})
//	preview, err := nodelink.RenderDOT(ctx, dot)
//
// # Visual states
//
// Node and link classes are the visual state tags of the layout ("active",
// "highlighted", "has-status", lower-cased execution statuses), so a
// stylesheet can color them. The embedded script toggles "highlighted" on
// hover, mirroring the layout engine's highlight rules: active nodes ignore
// hovering.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process DOT
// rendering.
package nodelink
