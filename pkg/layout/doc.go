// Package layout sizes, positions and links a placed stage graph, and keeps
// the resulting diagram in sync with the current selection.
//
// # Pipeline
//
// A full layout runs, in order:
//
//  1. [build.Source.Build]: nodes from a pipeline or an execution
//  2. [transform.Normalize]: phases, rows and placeholders
//  3. [ComputeGeometry]: label width, node heights, row heights, coordinates
//  4. [BuildLinks]: one curved link per parent/child pair
//  5. [ApplyActivation]: active flags and link visual states
//
// Every step returns a new snapshot. A [Layout] is never modified once it
// has been returned.
//
// # Interaction
//
// [Engine] remembers the last layout and offers two refresh paths. A full
// recompute ([Engine.Recompute]) reruns the whole pipeline. A state-only
// refresh ([Engine.RefreshState]) reapplies the selection and reclassifies
// links without touching phases, rows or coordinates, which is what a
// selection change needs. [Engine.Update] picks between the two by
// comparing the fingerprint of the new source with the one last laid out.
//
// Hovering is modeled by [Engine.Highlight]: a hovered node and the links
// touching it are highlighted, unless the node is active.
//
// # Measurement
//
// Label heights come from a [MeasureFunc], typically an estimator from the
// measure package. Geometry fails rather than guessing when a measurement
// fails.
//
// [build.Source.Build]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/dag/build#Source
// [transform.Normalize]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/dag/transform#Normalize
package layout
