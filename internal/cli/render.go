package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file (single artifact) or base path
	kinds    []string
	formats  []string
	width    int
	height   int
	theme    string
	steps    int
	snapshot bool // input is a saved wait-for graph snapshot
	noCache  bool
	refresh  bool
}

// renderCommand creates the render command for generating diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var kindsStr, formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [scenario or snapshot file]",
		Short: "Render wait-for graph and state diagrams",
		Long: `Render the wait-for graph and state diagrams of a scenario.

The input is normally a scenario file (TOML or JSON): the scenario is
simulated first and the final state is rendered. With --snapshot the
input is a saved wait-for graph snapshot (as written by 'run --wfg')
and the simulate stage is skipped.

Formats: svg (default), png, dot (Graphviz source), txt (terminal art).
Simulation results and rendered artifacts are cached locally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.kinds = parseList(kindsStr, nil)
			opts.formats = parseList(formatsStr, nil)
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single diagram/format) or base path (multiple)")
	cmd.Flags().StringVarP(&kindsStr, "diagram", "d", "", "diagram(s): wfg (default), states (comma-separated)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, txt (comma-separated)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "image width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 0, "image height in pixels")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "color theme: light (default), dark")
	cmd.Flags().IntVar(&opts.steps, "steps", 0, "iteration cap for the simulation stage")
	cmd.Flags().BoolVar(&opts.snapshot, "snapshot", false, "treat the input as a wait-for graph snapshot")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the cache")

	return cmd
}

// runRender drives the pipeline and writes every requested artifact.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	pipeOpts := pipeline.Options{
		Steps:   opts.steps,
		Refresh: opts.refresh,
		Kinds:   opts.kinds,
		Formats: opts.formats,
		Width:   opts.width,
		Height:  opts.height,
		Theme:   opts.theme,
		Logger:  c.Logger,
	}
	if opts.snapshot {
		pipeOpts.SnapshotPath = input
	} else {
		pipeOpts.ScenarioPath = input
	}
	pipeOpts.SetRenderDefaults()

	spinner := newSpinnerWithContext(ctx, "Rendering diagrams...")
	spinner.Start()

	result, err := runner.Execute(ctx, pipeOpts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(ctx, result.Artifacts, pipeOpts, input, opts.output)
	if err != nil {
		return err
	}

	printSuccess("Render complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.ProcessCount, result.Stats.ResourceCount,
		result.CacheInfo.SimHit && result.CacheInfo.RenderHit)
	return nil
}

// writeArtifacts writes each artifact to disk and returns the written
// paths. A single artifact goes to the exact output path when one is
// given; multiple artifacts use "<base>_<kind>.<format>".
func writeArtifacts(ctx context.Context, artifacts map[string][]byte, opts pipeline.Options, input, output string) ([]string, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	base := basePath(output, input)

	var paths []string
	for _, kind := range opts.Kinds {
		for _, format := range opts.Formats {
			data, ok := artifacts[pipeline.ArtifactName(kind, format)]
			if !ok {
				continue
			}

			path := artifactPath(base, kind, format, output, len(opts.Kinds)*len(opts.Formats))
			if err := os.WriteFile(path, data, 0644); err != nil {
				return nil, fmt.Errorf("write %s: %w", path, err)
			}
			logger.Debug("wrote artifact", "path", path, "bytes", len(data))
			paths = append(paths, path)
		}
	}
	prog.done(fmt.Sprintf("Wrote %d artifacts", len(paths)))
	return paths, nil
}

// artifactPath names one output file. With exactly one artifact and an
// explicit output the path is used as given.
func artifactPath(base, kind, format, output string, total int) string {
	if total == 1 && output != "" {
		return output
	}
	return fmt.Sprintf("%s_%s.%s", base, kind, format)
}

// basePath derives the base output path from the output and input
// paths. A known format extension on the output is stripped so
// "graph.svg" and "graph" name the same family of files.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if pipeline.ValidFormats[ext] {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}
