// Package dag provides the node and link table used by the stage graph
// layout engine.
//
// # Overview
//
// A pipeline diagram is a layered graph: stages are placed in phases
// (columns, by topological depth) and rows (vertical slots within a phase).
// This package holds the data only. Phase resolution, row ordering and
// overlap fixing live in [github.com/matzehuels/stagegraph/pkg/dag/transform];
// geometry and link paths live in [github.com/matzehuels/stagegraph/pkg/layout].
//
// # Arena
//
// Nodes and links are stored in a [Graph] and address each other by integer
// index instead of by pointer. Parents, children and the per-node link lists
// are slices of indices into the same table, so the cross references never
// form an ownership cycle and a whole graph can be copied with [Graph.Clone].
//
//	g := dag.New()
//	a, _ := g.AddNode(dag.Node{ID: "1", Name: "Bake"})
//	b, _ := g.AddNode(dag.Node{ID: "2", Name: "Deploy", ParentIDs: []string{"1"}})
//
// # Node Variants
//
// A node carries a [Detail] describing where it came from: [ConfigDetail]
// for nodes built from a pipeline configuration, [ExecutionDetail] for nodes
// built from an execution. Placeholder nodes inserted during layout have no
// detail and [Node.Placeholder] set.
//
// # Concurrency
//
// Graph is not safe for concurrent use. Layout steps never modify their
// input; they clone it and return the new snapshot.
package dag
