package pipeline

import (
	"context"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/detect"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/recovery"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
)

// Simulate drives one scenario through a fresh controller until every
// process terminates or the step limit is reached. cfg must already
// have defaults applied; opts.Steps of 0 uses the configured maximum.
//
// The returned snapshot is the final system state, suitable for
// rendering and archiving alongside the report.
func Simulate(ctx context.Context, sc *sim.Scenario, cfg sim.Config, opts Options) (sim.Report, sim.Snapshot, error) {
	det := detect.New(detect.WithLogger(opts.Logger))
	rec, err := recovery.New(cfg.RecoveryStrategy, recovery.WithLogger(opts.Logger))
	if err != nil {
		return sim.Report{}, sim.Snapshot{}, err
	}

	c, err := sim.NewController(cfg, det, rec, sim.WithLogger(opts.Logger))
	if err != nil {
		return sim.Report{}, sim.Snapshot{}, err
	}

	if err := sc.Apply(c); err != nil {
		return sim.Report{}, sim.Snapshot{}, err
	}

	report, err := c.Run(ctx, opts.Steps)
	if err != nil {
		return report, c.Snapshot(), err
	}
	return report, c.Snapshot(), nil
}
