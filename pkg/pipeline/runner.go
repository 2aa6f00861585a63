package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/cache"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/observability"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → simulate → render pipeline with
// caching. Snapshot inputs skip the simulate stage.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	if opts.IsRenderOnly() {
		observability.Pipeline().OnLoadStart(ctx, opts.SnapshotPath)
		graph, err := viz.ReadSnapshotFile(opts.SnapshotPath)
		observability.Pipeline().OnLoadComplete(ctx, opts.SnapshotPath, time.Since(loadStart), err)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		result.Graph = graph
		result.Stats.LoadTime = time.Since(loadStart)

		r.Logger.Info("loaded snapshot",
			"path", opts.SnapshotPath,
			"nodes", len(graph.Nodes),
			"edges", len(graph.Edges))
	} else {
		observability.Pipeline().OnLoadStart(ctx, opts.ScenarioPath)
		sc, err := r.Load(ctx, opts)
		observability.Pipeline().OnLoadComplete(ctx, opts.ScenarioPath, time.Since(loadStart), err)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		result.Scenario = sc
		result.ScenarioHash = ScenarioHash(sc)
		result.Stats.LoadTime = time.Since(loadStart)
		result.Stats.ProcessCount = len(sc.Processes)
		result.Stats.ResourceCount = len(sc.Resources)

		r.Logger.Info("loaded scenario",
			"name", sc.Name,
			"processes", len(sc.Processes),
			"resources", len(sc.Resources))

		// Stage 2: Simulate
		simStart := time.Now()
		report, snap, simHit, err := r.SimulateWithCacheInfo(ctx, sc, opts)
		if err != nil {
			return nil, fmt.Errorf("simulate: %w", err)
		}
		result.Report = report
		result.Snapshot = snap
		result.Graph = snap.WFG
		result.States = snap.States
		result.Stats.SimTime = time.Since(simStart)
		result.CacheInfo.SimHit = simHit

		r.Logger.Info("simulation complete",
			"iterations", report.Summary.TotalIterations,
			"final_state", report.Summary.SystemFinalState,
			"deadlocks", report.Metrics.DeadlocksFound,
			"duration", result.Stats.SimTime)
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Graph, result.States, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"kinds", opts.Kinds,
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// runPayload is the cached form of a completed simulation.
type runPayload struct {
	Report   sim.Report   `json:"report"`
	Snapshot sim.Snapshot `json:"snapshot"`
}

// SimulateWithCacheInfo runs a scenario with caching and returns cache
// hit info. The cache key covers the scenario content and the effective
// configuration, so edits to either force a fresh run.
func (r *Runner) SimulateWithCacheInfo(ctx context.Context, sc *sim.Scenario, opts Options) (sim.Report, sim.Snapshot, bool, error) {
	if err := opts.ValidateForSimulate(); err != nil {
		return sim.Report{}, sim.Snapshot{}, false, err
	}
	r.applyLogger(&opts)

	cfg := sc.Config()
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return sim.Report{}, sim.Snapshot{}, false, err
	}

	cacheKey := r.Keyer.RunKey(ScenarioHash(sc), cache.RunKeyOpts{
		DetectionStrategy: cfg.DetectionStrategy,
		DetectionInterval: cfg.DetectionInterval,
		RecoveryStrategy:  cfg.RecoveryStrategy,
		Steps:             opts.Steps,
	})

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached runPayload
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "run")
				return cached.Report, cached.Snapshot, true, nil // Cache hit
			}
			// If deserialization fails, fall through to re-run
		}
		observability.Cache().OnCacheMiss(ctx, "run")
	}

	// Simulate
	simStart := time.Now()
	observability.Pipeline().OnSimulateStart(ctx, sc.Name, opts.Steps)
	report, snap, err := Simulate(ctx, sc, cfg, opts)
	observability.Pipeline().OnSimulateComplete(ctx, sc.Name, report.Summary.TotalIterations, time.Since(simStart), err)
	if err != nil {
		return sim.Report{}, sim.Snapshot{}, false, err
	}

	// Cache the result
	if data, err := json.Marshal(runPayload{Report: report, Snapshot: snap}); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLReport); err == nil {
			observability.Cache().OnCacheSet(ctx, "run", len(data))
		}
	}

	return report, snap, false, nil // Cache miss
}

// Simulate is a convenience wrapper that calls SimulateWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Simulate(ctx context.Context, sc *sim.Scenario, opts Options) (sim.Report, sim.Snapshot, error) {
	report, snap, _, err := r.SimulateWithCacheInfo(ctx, sc, opts)
	return report, snap, err
}

// RenderWithCacheInfo generates artifacts with caching and returns
// cache hit info. Artifacts are keyed per diagram kind by the content
// hash of that diagram's data, so a changed wait-for graph does not
// invalidate cached state diagrams.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, graph viz.GraphSnapshot, states viz.StateDiagram, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	hashes, err := kindHashes(graph, states, opts.Kinds)
	if err != nil {
		return nil, false, err
	}

	// Try to get all kind/format combinations from cache
	allCached := true
	artifacts := make(map[string][]byte)

Lookup:
	for _, kind := range opts.Kinds {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(hashes[kind], artifactKeyOpts(kind, format, opts))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[ArtifactName(kind, format)] = data
			} else {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				allCached = false
				break Lookup
			}
		}
	}

	if allCached && len(artifacts) == len(opts.Kinds)*len(opts.Formats) {
		return artifacts, true, nil // All artifacts from cache
	}

	// Render all kind/format combinations
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Kinds, opts.Formats)
	rendered, err := r.renderAndCache(ctx, graph, states, hashes, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Kinds, opts.Formats, time.Since(renderStart), err)
	if err != nil {
		return nil, false, err
	}

	return rendered, false, nil // Cache miss
}

// renderAndCache renders every kind/format combination and writes each
// artifact back to the cache.
func (r *Runner) renderAndCache(ctx context.Context, graph viz.GraphSnapshot, states viz.StateDiagram, hashes map[string]string, opts Options) (map[string][]byte, error) {
	rendered := make(map[string][]byte, len(opts.Kinds)*len(opts.Formats))
	for _, kind := range opts.Kinds {
		for _, format := range opts.Formats {
			data, err := renderArtifact(kind, format, graph, states, opts)
			if err != nil {
				return nil, fmt.Errorf("render %s: %w", ArtifactName(kind, format), err)
			}
			rendered[ArtifactName(kind, format)] = data

			cacheKey := r.Keyer.ArtifactKey(hashes[kind], artifactKeyOpts(kind, format, opts))
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
				observability.Cache().OnCacheSet(ctx, "artifact", len(data))
			}
		}
	}
	return rendered, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, graph viz.GraphSnapshot, states viz.StateDiagram, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, graph, states, opts)
	return artifacts, err
}

// kindHashes computes the per-kind content hashes used in artifact
// cache keys.
func kindHashes(graph viz.GraphSnapshot, states viz.StateDiagram, kinds []string) (map[string]string, error) {
	hashes := make(map[string]string, len(kinds))
	for _, kind := range kinds {
		switch kind {
		case KindWFG:
			data, err := viz.MarshalSnapshot(graph)
			if err != nil {
				return nil, fmt.Errorf("serialize wait-for graph for cache key: %w", err)
			}
			hashes[kind] = cache.Hash(data)
		case KindStates:
			data, err := json.Marshal(states)
			if err != nil {
				return nil, fmt.Errorf("serialize state diagram for cache key: %w", err)
			}
			hashes[kind] = cache.Hash(data)
		}
	}
	return hashes, nil
}

// artifactKeyOpts returns cache key options for one artifact.
func artifactKeyOpts(kind, format string, opts Options) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Kind:   kind,
		Format: format,
		Width:  opts.Width,
		Height: opts.Height,
		Theme:  opts.Theme,
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
