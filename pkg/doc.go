// Package pkg provides the core libraries for deadlock simulation,
// detection, and recovery.
//
// # Overview
//
// Deadlocksim plays out resource allocation scenarios over explicit
// finite-state automata, finds deadlocks as cycles in the wait-for
// graph, and breaks them with a pluggable recovery strategy. The pkg
// directory is organized into four main areas:
//
//  1. Engine - simulation domain logic ([fsa], [wfg], [sim], [detect], [recovery])
//  2. Visualization - diagram rendering ([viz] and its surfaces)
//  3. Infrastructure - [cache], [store], [errors], [httputil], [observability], [buildinfo]
//  4. Orchestration - [pipeline] (load, simulate, render)
//
// # Architecture
//
// The typical data flow:
//
//	Scenario file (TOML/JSON)
//	         ↓
//	    [sim] package (controller: processes, resources, allocation)
//	         ↓
//	    [detect] package (wait-for graph cycle search)
//	         ↓
//	    [recovery] package (victim selection + preemption)
//	         ↓
//	    [viz] package (circular layout + surfaces)
//	         ↓
//	    SVG/PNG/DOT/TXT output
//
// # Quick Start
//
// Run a scenario and render its wait-for graph:
//
//	import (
//	    "context"
//	    "github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    ScenarioPath: "crossed.toml",
//	    Formats:      []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["wfg.svg"]
//
// Or drive the engine directly:
//
//	det := detect.New()
//	rec, _ := recovery.New("priority")
//	c, _ := sim.NewController(sim.Config{DetectionStrategy: "immediate"}, det, rec)
//	c.AddProcess("P1", 1, 0)
//	c.AddProcess("P2", 5, 0)
//	c.AddResource("R1", 1, "lock")
//	c.AddResource("R2", 1, "lock")
//	c.Request("P1", "R1")
//	c.Request("P2", "R2")
//	c.Request("P1", "R2") // blocks
//	c.Request("P2", "R1") // deadlock, detected and recovered
//	report, _ := c.Run(context.Background(), 0)
//
// # Main Packages
//
// ## Engine
//
// [fsa] - Deterministic finite-state automata with guarded transitions
// and journaled history. Processes and the system health indicator are
// both automata over explicit transition tables.
//
// [wfg] - The wait-for graph: processes as nodes, "waits for" as
// directed edges, with depth-first cycle detection returning the cycle
// path.
//
// [sim] - The simulation controller. Owns processes, resources,
// allocation and release, scenario loading, the step loop, metrics,
// and report assembly.
//
// [detect] - Detection module running cycle search over the
// controller's wait-for graph, with per-run latency reporting.
//
// [recovery] - Recovery strategies for breaking deadlocks: priority,
// cost, time, and resources. Victims are terminated, their holdings
// released, and survivors resumed.
//
// ## Visualization
//
// [viz] - Circular diagram layout and the Surface abstraction, with
// renderers for wait-for graphs and state diagrams.
//
//   - [viz/surface]: SVG, raster (PNG via fogleman/gg), and terminal
//     cell surfaces behind one interface
//   - [viz/nodelink]: Graphviz DOT export and SVG/PNG rendering via
//     goccy/go-graphviz
//
// ## Infrastructure
//
// [cache] - Content-addressed result caching with file, Redis, and
// null backends. Keys derive from scenario content and render options.
//
// [store] - Archived run storage: MongoDB-backed and in-memory
// implementations of the Store interface.
//
// [errors] - Coded errors shared across the system. Codes survive
// wrapping and map onto HTTP statuses at the API boundary.
//
// [httputil] - JSON envelope helpers and chi middleware used by the
// REST API.
//
// [observability] - Hook interfaces for plugging metrics or tracing
// into pipeline, cache, and API events without a backend dependency.
//
// [buildinfo] - Version metadata injected at build time.
//
// ## Orchestration
//
// [pipeline] - The load → simulate → render pipeline shared by the CLI
// and the HTTP API, with per-stage caching.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/sim/...      # Specific package
//	go test -run TestDetect    # By name
//
// [fsa]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/fsa
// [wfg]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/wfg
// [sim]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim
// [detect]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/detect
// [recovery]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/recovery
// [viz]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz
// [viz/surface]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz/surface
// [viz/nodelink]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz/nodelink
// [cache]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/cache
// [store]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/store
// [errors]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/buildinfo
// [pipeline]: https://pkg.go.dev/github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/pipeline
package pkg
