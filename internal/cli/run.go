package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/pipeline"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	steps    int    // iteration cap (0 = scenario config)
	detect   string // detection strategy override
	interval float64
	recover  string // recovery strategy override
	output   string // report JSON path
	wfg      string // wait-for graph snapshot path
	noCache  bool
	refresh  bool
}

// runCommand creates the run command for executing a scenario.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run [scenario file]",
		Short: "Run a deadlock scenario and report the outcome",
		Long: `Run a deadlock scenario to completion and report the outcome.

The scenario file (TOML or JSON) declares processes, resources, initial
allocations, and the requests that drive the system. The simulation runs
until every process terminates or the iteration cap is reached, with
deadlock detection and recovery along the way.

Results are cached locally, keyed by the scenario content and the
effective configuration, so repeated runs are instant. Use --refresh to
force a fresh run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScenario(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().IntVar(&opts.steps, "steps", 0, "iteration cap (0 uses the scenario's max)")
	cmd.Flags().StringVar(&opts.detect, "detect", "", "detection strategy override: immediate, periodic, cpu_triggered")
	cmd.Flags().Float64Var(&opts.interval, "interval", 0, "detection interval override in seconds")
	cmd.Flags().StringVar(&opts.recover, "recover", "", "recovery strategy override: cost, priority, resources, time")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the full report JSON to this path")
	cmd.Flags().StringVar(&opts.wfg, "wfg", "", "write the final wait-for graph snapshot to this path")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the cache for this run")

	return cmd
}

// runScenario loads the scenario, applies any strategy overrides, runs
// the simulation, and prints or writes the results.
func (c *CLI) runScenario(ctx context.Context, input string, opts *runOpts) error {
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	pipeOpts := pipeline.Options{
		ScenarioPath: input,
		Steps:        opts.steps,
		Refresh:      opts.refresh,
		Logger:       c.Logger,
	}

	sc, err := runner.Load(ctx, pipeOpts)
	if err != nil {
		return fmt.Errorf("load scenario %s: %w", input, err)
	}
	if opts.detect != "" {
		sc.DetectionStrategy = opts.detect
	}
	if opts.interval > 0 {
		sc.DetectionInterval = opts.interval
	}
	if opts.recover != "" {
		sc.RecoveryStrategy = opts.recover
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Simulating %s...", sc.Name))
	spinner.Start()

	report, snap, cacheHit, err := runner.SimulateWithCacheInfo(ctx, sc, pipeOpts)
	if err != nil {
		spinner.StopWithError("Simulation failed")
		return fmt.Errorf("simulate: %w", err)
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	printSuccess("Simulation complete")
	printStats(report.Summary.TotalProcesses, report.Summary.TotalResources, cacheHit)
	printNewline()
	printKeyValue("Final state", stateStyle(report.Summary.SystemFinalState).Render(report.Summary.SystemFinalState))
	printKeyValue("Iterations", strconv.Itoa(report.Summary.TotalIterations))
	printKeyValue("Deadlocks", strconv.Itoa(report.Metrics.DeadlocksFound))
	printKeyValue("Terminated", strconv.Itoa(report.Metrics.ProcessesTerminated))

	if report.Metrics.ProcessesTerminated > 0 {
		printNewline()
		printWarning("%d process(es) terminated to break deadlocks", report.Metrics.ProcessesTerminated)
	}

	if opts.output != "" {
		if err := writeReportFile(report, opts.output); err != nil {
			return err
		}
		printFile(opts.output)
	}
	if opts.wfg != "" {
		if err := viz.WriteSnapshotFile(snap.WFG, opts.wfg); err != nil {
			return fmt.Errorf("write snapshot %s: %w", opts.wfg, err)
		}
		printFile(opts.wfg)
	}

	printNewline()
	printNextStep("Render", appName+" render "+input)
	return nil
}

// writeReportFile writes the report as indented JSON.
func writeReportFile(report any, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
