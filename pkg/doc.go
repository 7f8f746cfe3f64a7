// Package pkg holds the stagegraph libraries.
//
// # Overview
//
// Stagegraph lays out pipeline stage graphs: a pipeline configuration or an
// execution becomes a layered diagram with one column per dependency depth
// (phase) and one slot per row. The libraries are organized as:
//
//  1. [stage] - Input documents: pipelines, executions, view state
//  2. [dag] - The layout graph, its builder and the placement transforms
//  3. [layout] - Geometry, links, interaction state and the engine
//  4. [render/nodelink] - SVG and Graphviz output
//  5. [runner] - Orchestration with caching (build, layout, render)
//  6. [cache], [config], [errors], [observability], [session] - Infrastructure
//
// # Architecture
//
//	pipeline / execution (+ view state)
//	         ↓
//	    [dag/build] (one node per stage, synthetic root for pipelines)
//	         ↓
//	    [dag/transform] (phases → rows → placeholders)
//	         ↓
//	    [layout] (geometry, links, active/highlight state)
//	         ↓
//	    JSON / SVG / DOT
//
// A selection change skips the middle steps: [layout.Engine.RefreshState]
// only reapplies the active flags and reclassifies links.
//
// [stage]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/stage
// [dag]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/dag
// [layout]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/layout
// [layout.Engine.RefreshState]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/layout#Engine.RefreshState
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/render/nodelink
// [runner]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/runner
// [cache]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/observability
// [session]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/session
//
// [dag/build]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/dag/build
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/dag/transform
package pkg
