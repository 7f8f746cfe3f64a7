// Package stage defines the documents the layout engine consumes: pipeline
// configurations, executions, and the view state that carries the current
// selection.
//
// Documents can be read from JSON (the shape the pipeline API serves) or
// from TOML for hand-written fixtures:
//
//	in, err := stage.ReadInputFile("pipeline.toml")
//	if err != nil {
//	    return err
//	}
//	if in.Pipeline != nil {
//	    // configuration view
//	}
//
// Stage references may appear as JSON strings or numbers; both decode to
// the same [Ref].
package stage
