package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/pkg/runner"
)

// formatSuffix is the file suffix written for each output format.
var formatSuffix = map[string]string{
	runner.FormatJSON:     ".layout.json",
	runner.FormatSVG:      ".svg",
	runner.FormatDOT:      ".dot",
	runner.FormatGraphviz: ".graphviz.svg",
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags            runFlags
		formats          string
		detailed         bool
		showPlaceholders bool
	)

	cmd := &cobra.Command{
		Use:   "render [pipeline.json|execution.toml]",
		Short: "Render a pipeline or execution diagram",
		Long: `Render the layout of a pipeline configuration or an execution.

Formats:
  svg       the diagram drawn at its computed coordinates, with hover styles
  dot       Graphviz source, one rank per phase
  graphviz  SVG rendered by Graphviz from the DOT source
  json      the layout document, as written by 'layout'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := parseFormats(formats)
			if err := runner.ValidateFormats(fs); err != nil {
				return err
			}
			return c.runRender(cmd, args[0], &flags, func(o *runner.Options) {
				o.Formats = fs
				o.Detailed = detailed
				o.ShowPlaceholders = showPlaceholders
			})
		},
	}

	flags.register(cmd, "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): svg (default), dot, graphviz, json (comma-separated)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "add phase, row and status to node labels (dot, graphviz)")
	cmd.Flags().BoolVar(&showPlaceholders, "placeholders", false, "draw placeholder slots")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, flags *runFlags, configure func(*runner.Options)) error {
	ctx := cmd.Context()
	r, opts, in, err := c.prepare(cmd, input, flags)
	if err != nil {
		return err
	}
	defer r.Close()
	configure(&opts)

	prog := newProgress(loggerFromContext(ctx))
	spin := newSpinner(ctx, cmd.ErrOrStderr(), "Rendering "+strings.Join(opts.Formats, ", ")+"...")
	spin.start()
	res, err := r.Execute(ctx, in, opts)
	spin.stop()

	p := newPrinter(cmd.OutOrStdout())
	if err != nil {
		p.failure("Render failed")
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths := outputPaths(flags.output, input, opts.Formats)
	for _, f := range opts.Formats {
		if err := writeOutput(paths[f], res.Artifacts[f], cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	prog.done(fmt.Sprintf("Rendered %d files", len(opts.Formats)))

	p.success("Render complete")
	for _, f := range opts.Formats {
		p.file(paths[f])
	}
	p.stats(res.Stats.NodeCount, res.Stats.LinkCount, res.Stats.PlaceholderCount, res.CacheInfo.LayoutHit)
	return nil
}

// outputPaths maps each format to its file. A single format is written to
// the output path as given; several formats share a base path.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + formatSuffix[f]
	}
	return paths
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{runner.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
