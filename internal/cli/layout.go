package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/pkg/config"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/runner"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// runFlags are the flags shared by layout and render.
type runFlags struct {
	output  string
	noCache bool
	refresh bool
	view    viewFlags
}

func (f *runFlags) register(cmd *cobra.Command, outputHelp string) {
	fs := cmd.Flags()
	fs.StringVarP(&f.output, "output", "o", "", outputHelp)
	fs.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fs.BoolVar(&f.refresh, "refresh", false, "recompute even when a cached layout exists")
	f.view.register(fs)
	addLayoutFlags(fs)
	addCacheFlags(fs)
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "layout [pipeline.json|execution.toml]",
		Short: "Compute the layout of a pipeline or execution",
		Long: `Compute the layout of a pipeline configuration or an execution.

The input is a JSON or TOML file holding either a "pipeline" or an
"execution", plus an optional view state naming the selected stage. The
output is a layout document with every node's phase, row and coordinates
and every link's curve, ready to be drawn by a client or by 'render'.

Results are cached, keyed by the input and every geometry setting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, args[0], &flags)
		},
	}
	flags.register(cmd, "output file, - for stdout (default: <input>.layout.json)")
	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, input string, flags *runFlags) error {
	r, opts, in, err := c.prepare(cmd, input, flags)
	if err != nil {
		return err
	}
	defer r.Close()

	res, err := r.Layout(cmd.Context(), in, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	data, err := layout.MarshalDocument(res.Document)
	if err != nil {
		return err
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = basePath("", input) + ".layout.json"
	}
	if err := writeOutput(outputPath, data, cmd.OutOrStdout()); err != nil {
		return err
	}
	if outputPath == stdoutPath {
		return nil
	}

	p := newPrinter(cmd.OutOrStdout())
	p.success("Layout complete")
	p.file(outputPath)
	p.stats(res.Stats.NodeCount, res.Stats.LinkCount, res.Stats.PlaceholderCount, res.CacheInfo.LayoutHit)
	p.newline()
	p.nextStep("Render", config.AppName+" render "+input)
	return nil
}

// prepare reads the input, applies view flags and opens a runner on the
// configured cache.
func (c *CLI) prepare(cmd *cobra.Command, input string, flags *runFlags) (*runner.Runner, runner.Options, stage.Input, error) {
	in, err := stage.ReadInputFile(input)
	if err != nil {
		return nil, runner.Options{}, stage.Input{}, fmt.Errorf("load %s: %w", input, err)
	}
	flags.view.apply(cmd, &in)

	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, runner.Options{}, stage.Input{}, err
	}
	if flags.noCache {
		cfg.Cache.Backend = config.BackendNone
	}
	r, err := c.newRunner(cfg)
	if err != nil {
		return nil, runner.Options{}, stage.Input{}, fmt.Errorf("initialize runner: %w", err)
	}

	opts := c.runnerOptions(cfg)
	opts.Refresh = flags.refresh
	loggerFromContext(cmd.Context()).Debug("loaded input", "file", input, "mode", in.Mode(), "stages", in.StageCount())
	return r, opts, in, nil
}

// stdoutPath as an output path writes to standard output.
const stdoutPath = "-"

func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == stdoutPath {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a known output extension, it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	switch strings.TrimPrefix(ext, ".") {
	case runner.FormatJSON, runner.FormatSVG, runner.FormatDOT:
		return strings.TrimSuffix(output, ext)
	}
	return output
}
