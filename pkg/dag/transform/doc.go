// Package transform places the nodes of a stage graph into phases (columns)
// and rows.
//
// # Overview
//
// Each step returns a new snapshot and leaves its input untouched, so a
// caller can keep the result of any step around:
//
//	phased, err := transform.ResolvePhases(g)
//	sequenced, columns := transform.SequenceRows(phased)
//	placed, columns := transform.ResolveOverlaps(sequenced, columns)
//
// [Normalize] runs all three.
//
// # Phases
//
// [ResolvePhases] gives each node the topological depth of its deepest
// dependency chain: roots are phase 0, and every node sits one phase after
// its deepest parent. Dangling references and dependency cycles make
// placement impossible; they are reported as a [*ResolveError] with one
// [Diagnostic] per stuck node. Cycles are identified with Tarjan's strongly
// connected components from gonum.
//
// # Rows
//
// [SequenceRows] orders each phase by the keys in [RowKeys], a named list so
// each level of the ordering can be inspected on its own:
//
//	first-parent       deepest, then highest, parent position
//	row-override       pinned row of an execution stage
//	last-phase         farthest reachable descendant first
//	terminal-children  fewer leaf children first, none last
//	parent-count       fewer parents first
//	child-count        more children first
//	grandchild-count   more grandchildren first
//	child-signature    children as "distance-name" pairs
//	numeric-id         numeric ids, non-numeric ids after them
//	id                 ids as strings
//
// # Overlaps
//
// [ResolveOverlaps] inserts placeholder nodes where a link spanning several
// phases would otherwise run through a node in its own row.
package transform
