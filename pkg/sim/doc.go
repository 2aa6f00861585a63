// Package sim implements the deadlock simulation engine.
//
// # Overview
//
// A simulation is a set of processes competing for resource pools under
// the classic conditions for deadlock: mutual exclusion, hold and wait,
// no preemption, and circular wait. Every entity carries a finite-state
// automaton (built on [fsa]) so that only legal lifecycle transitions
// can occur:
//
//   - Process: Ready → Running → Blocked → Deadlocked → Terminated
//   - Resource: Free ⇄ Allocated (pool-level occupancy)
//   - System: Safe → Deadlock → Recovering → Safe
//
// # Controller
//
// The [Controller] owns all entities and applies the allocation rules.
// A request is granted when the resource has a free instance; otherwise
// the process blocks and joins the resource's FIFO wait queue. A
// release hands the freed instance to the head of the queue.
//
//	cfg := sim.Config{DetectionStrategy: "immediate"}
//	c, err := sim.NewController(cfg, detector, recoverer)
//	c.AddProcess("P1", 5, 100*time.Millisecond)
//	c.AddResource("R1", 1, "CPU")
//	granted, err := c.Request("P1", "R1")
//	report, err := c.Run(ctx, 0)
//
// Detection and recovery are injected as interfaces ([Detector],
// [Recoverer]); the detect and recovery packages provide the standard
// implementations. The controller stays usable with either set to nil,
// which disables that phase.
//
// # Detection Strategies
//
// When detection runs is governed by [Config.DetectionStrategy]:
//
//   - immediate: on every blocking request
//   - periodic: on a wall-clock interval during the run loop
//   - cpu_triggered: whenever any process is blocked or deadlocked
//
// # Scenarios
//
// [Scenario] files describe an initial system declaratively: entities,
// up-front allocations, and the requests that then drive the system.
// TOML is the primary format; JSON is accepted for compatibility.
// [WriteExamples] emits three canonical scenarios covering a two-process
// deadlock, a three-process circular deadlock, and a safe system.
//
// # Observability
//
// The controller appends a [LogEntry] to its journal for every
// observable action and mirrors entries to an injected [EventSink].
// [Controller.Snapshot] assembles the wire view consumed by the REST
// API and the renderers, including the derived wait-for graph.
//
// [fsa]: github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/fsa
package sim
