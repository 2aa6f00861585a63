package pipeline

import (
	"context"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/cache"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
)

// Load reads the scenario selected by the options, from a file path or
// inline bytes. Snapshot inputs carry no scenario; use
// [viz.ReadSnapshotFile] for those.
func (r *Runner) Load(ctx context.Context, opts Options) (*sim.Scenario, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	switch {
	case len(opts.ScenarioData) > 0:
		return sim.ParseScenario(opts.ScenarioData, opts.ScenarioExt)
	case opts.ScenarioPath != "":
		return sim.LoadScenario(opts.ScenarioPath)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"snapshot input carries no scenario")
	}
}

// ScenarioHash returns the content hash used in run cache keys. The
// hash covers the canonical TOML encoding, so equivalent TOML and JSON
// inputs share cache entries.
func ScenarioHash(sc *sim.Scenario) string {
	data, err := sc.Marshal()
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
