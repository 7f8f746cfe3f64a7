package transform

import "github.com/matzehuels/stagegraph/pkg/dag"

// Normalize runs the full placement pipeline: [ResolvePhases],
// [SequenceRows] and [ResolveOverlaps]. It returns the placed graph and its
// columns, or the phase resolution error.
func Normalize(g *dag.Graph) (*dag.Graph, [][]int, error) {
	phased, err := ResolvePhases(g)
	if err != nil {
		return nil, nil, err
	}
	sequenced, columns := SequenceRows(phased)
	placed, columns := ResolveOverlaps(sequenced, columns)
	return placed, columns, nil
}
