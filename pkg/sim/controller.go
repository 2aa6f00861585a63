package sim

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/fsa"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/wfg"
)

// Detector runs one deadlock detection pass against the controller's
// current allocation state. The detect package provides the standard
// wait-for-graph implementation.
type Detector interface {
	Detect(c *Controller) DetectionReport
}

// Recoverer breaks a detected deadlock by terminating victim processes
// and unblocking the survivors. The recovery package provides the
// standard strategy-based implementation.
type Recoverer interface {
	Recover(c *Controller, deadlocked []string) (RecoveryReport, error)
}

// DetectionReport carries the findings of one detection pass.
type DetectionReport struct {
	DeadlockDetected bool              `json:"deadlock_detected" bson:"deadlock_detected"`
	Deadlocked       []string          `json:"deadlocked_processes" bson:"deadlocked_processes"`
	Graph            viz.GraphSnapshot `json:"wait_for_graph" bson:"wait_for_graph"`
	Timestamp        time.Time         `json:"detection_timestamp" bson:"detection_timestamp"`
	LatencyMS        float64           `json:"detection_latency" bson:"detection_latency"`
}

// RecoveryReport summarizes one recovery pass. RecoveryTimeMS is in
// milliseconds, matching the detection latency unit.
type RecoveryReport struct {
	Success           bool     `json:"success" bson:"success"`
	Victims           []string `json:"victims" bson:"victims"`
	TerminatedCount   int      `json:"terminated_count" bson:"terminated_count"`
	ResourcesReleased []string `json:"resources_released" bson:"resources_released"`
	RecoveryTimeMS    float64  `json:"recovery_time" bson:"recovery_time"`
	Unblocked         []string `json:"unblocked_processes" bson:"unblocked_processes"`
}

// Controller orchestrates one simulation: it owns the processes,
// resources, and system automaton, applies the allocation rules, and
// drives detection and recovery according to the configured strategy.
//
// Controller is not safe for concurrent use. Callers that share one
// across goroutines (the REST server does) must serialize access.
type Controller struct {
	cfg       Config
	logger    *log.Logger
	sink      EventSink
	detector  Detector
	recoverer Recoverer

	processes map[string]*Process
	procOrder []string
	resources map[string]*Resource
	resOrder  []string
	system    *System

	metrics         Metrics
	iteration       int
	running         bool
	lastDetectionAt time.Time
	lastDetection   *DetectionReport
	journal         []LogEntry
}

// Option configures a controller.
type Option func(*Controller)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEventSink mirrors every journal entry to the sink as it is
// recorded. The watch TUI uses this to stream the log live.
func WithEventSink(sink EventSink) Option {
	return func(c *Controller) { c.sink = sink }
}

// NewController creates an empty simulation with the given
// configuration. Detection and recovery are injected; either may be
// nil, which disables the corresponding phase.
func NewController(cfg Config, det Detector, rec Recoverer, opts ...Option) (*Controller, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:       cfg,
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
		detector:  det,
		recoverer: rec,
		processes: make(map[string]*Process),
		resources: make(map[string]*Resource),
		system:    NewSystem(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// =============================================================================
// Entity Management
// =============================================================================

// AddProcess registers a new process. The id must be unique.
func (c *Controller) AddProcess(pid string, priority int, execTime time.Duration) (*Process, error) {
	if _, exists := c.processes[pid]; exists {
		return nil, errors.New(errors.ErrCodeDuplicate, "process %s already exists", pid)
	}

	p, err := NewProcess(pid, priority, execTime)
	if err != nil {
		return nil, err
	}
	c.processes[pid] = p
	c.procOrder = append(c.procOrder, pid)

	c.logger.Info("added process", "pid", pid, "priority", p.Priority())
	return p, nil
}

// AddResource registers a new resource pool. The id must be unique.
func (c *Controller) AddResource(rid string, instances int, rtype string) (*Resource, error) {
	if _, exists := c.resources[rid]; exists {
		return nil, errors.New(errors.ErrCodeDuplicate, "resource %s already exists", rid)
	}

	r, err := NewResource(rid, instances, rtype)
	if err != nil {
		return nil, err
	}
	c.resources[rid] = r
	c.resOrder = append(c.resOrder, rid)

	c.logger.Info("added resource", "rid", rid, "instances", r.Total())
	return r, nil
}

// Process returns the process with the given id.
func (c *Controller) Process(pid string) (*Process, bool) {
	p, ok := c.processes[pid]
	return p, ok
}

// Resource returns the resource with the given id.
func (c *Controller) Resource(rid string) (*Resource, bool) {
	r, ok := c.resources[rid]
	return r, ok
}

// ProcessIDs returns all process ids in registration order.
func (c *Controller) ProcessIDs() []string {
	out := make([]string, len(c.procOrder))
	copy(out, c.procOrder)
	return out
}

// ResourceIDs returns all resource ids in registration order.
func (c *Controller) ResourceIDs() []string {
	out := make([]string, len(c.resOrder))
	copy(out, c.resOrder)
	return out
}

// ProcessCount returns the number of registered processes.
func (c *Controller) ProcessCount() int { return len(c.processes) }

// ResourceCount returns the number of registered resources.
func (c *Controller) ResourceCount() int { return len(c.resources) }

// =============================================================================
// Resource Operations
// =============================================================================

// Request records that the process wants one instance of the resource.
// A free instance is granted on the spot and true is returned.
// Otherwise the process blocks, joins the resource's wait queue, and
// false is returned; under the immediate strategy the block also
// triggers a detection pass.
func (c *Controller) Request(pid, rid string) (bool, error) {
	p, ok := c.processes[pid]
	if !ok {
		return false, errors.New(errors.ErrCodeProcessNotFound, "process %s not found", pid)
	}
	r, ok := c.resources[rid]
	if !ok {
		return false, errors.New(errors.ErrCodeResourceNotFound, "resource %s not found", rid)
	}

	if p.Is(Ready) {
		if err := p.Transition(EventStart); err != nil {
			return false, err
		}
	}

	p.RequestResource(rid)

	if r.IsAvailable() {
		if err := p.Transition(EventAllocate); err != nil {
			return false, err
		}
		r.Allocate(pid)
		p.AllocateResource(rid)

		c.logger.Info("allocated resource", "pid", pid, "rid", rid)
		c.logEvent(fmt.Sprintf("Process %s allocated resource %s", pid, rid))
		return true, nil
	}

	if err := p.Transition(EventDeny); err != nil {
		return false, err
	}
	r.AddWaiter(pid)

	c.logger.Info("process blocked", "pid", pid, "rid", rid)
	c.logEvent(fmt.Sprintf("Process %s blocked waiting for %s", pid, rid))

	if DetectionStrategy(c.cfg.DetectionStrategy) == DetectImmediate {
		c.runDetection()
	}
	return false, nil
}

// Release returns one instance of the resource held by the process.
// A release that frees an instance hands it straight to the head of the
// wait queue. Releasing a resource the process does not hold is a no-op.
func (c *Controller) Release(pid, rid string) error {
	p, ok := c.processes[pid]
	if !ok {
		return errors.New(errors.ErrCodeProcessNotFound, "process %s not found", pid)
	}
	r, ok := c.resources[rid]
	if !ok {
		return errors.New(errors.ErrCodeResourceNotFound, "resource %s not found", rid)
	}

	if !r.Release(pid) {
		return nil
	}
	p.ReleaseResource(rid)

	c.logger.Info("released resource", "pid", pid, "rid", rid)
	c.logEvent(fmt.Sprintf("Process %s released resource %s", pid, rid))

	// Hand the freed instance to the first waiter still able to take it.
	// Terminated victims can linger in the queue after recovery, so they
	// are pruned as they surface.
	for _, next := range r.Waiters() {
		wp, known := c.processes[next]
		if !known || wp.Is(Terminated) {
			r.RemoveWaiter(next)
			continue
		}
		if err := wp.Transition(EventAllocate); err != nil {
			c.logger.Warn("cannot unblock waiter", "pid", next, "rid", rid, "err", err)
			return nil
		}
		r.Allocate(next)
		wp.AllocateResource(rid)
		r.RemoveWaiter(next)

		c.logEvent(fmt.Sprintf("Unblocked process %s, allocated %s", next, rid))
		return nil
	}
	return nil
}

// =============================================================================
// Run Loop
// =============================================================================

// Run drives the simulation until every process has terminated or the
// step limit is reached. A limit of 0 uses the configured maximum.
// The context is checked between iterations; cancellation returns the
// report assembled so far along with the context error.
func (c *Controller) Run(ctx context.Context, steps int) (Report, error) {
	if steps <= 0 {
		steps = c.cfg.MaxIterations
	}

	c.running = true
	c.iteration = 0

	c.logger.Info("starting simulation",
		"processes", len(c.processes),
		"resources", len(c.resources),
		"strategy", c.cfg.DetectionStrategy)
	c.logEvent("=== SIMULATION STARTED ===")

	for c.running && c.iteration < steps {
		if err := ctx.Err(); err != nil {
			c.running = false
			return c.Report(), err
		}

		if !c.Step() {
			c.logEvent("=== SIMULATION COMPLETE ===")
			break
		}

		if d := c.cfg.Delay(); d > 0 {
			t := time.NewTimer(d)
			select {
			case <-ctx.Done():
				t.Stop()
				c.running = false
				return c.Report(), ctx.Err()
			case <-t.C:
			}
		}
	}

	c.running = false
	return c.Report(), nil
}

// Step advances the simulation one iteration: it runs detection when
// the configured strategy calls for it and checks the termination
// condition. It reports false once every process has terminated.
func (c *Controller) Step() bool {
	c.iteration++

	if c.shouldDetect(time.Now()) {
		c.runDetection()
	}

	if c.allTerminated() {
		if c.running {
			c.logger.Info("all processes terminated")
		}
		c.running = false
		return false
	}
	return true
}

func (c *Controller) shouldDetect(now time.Time) bool {
	switch DetectionStrategy(c.cfg.DetectionStrategy) {
	case DetectImmediate:
		// Triggered by Request on block, never by the loop.
		return false
	case DetectPeriodic:
		return now.Sub(c.lastDetectionAt) >= c.cfg.Interval()
	case DetectCPUTriggered:
		for _, p := range c.processes {
			if p.Is(Blocked) || p.Is(Deadlocked) {
				return true
			}
		}
		return false
	}
	return false
}

// allTerminated reports whether every process has terminated. An empty
// system counts as terminated, so a run over nothing completes at once.
func (c *Controller) allTerminated() bool {
	for _, p := range c.processes {
		if !p.Is(Terminated) {
			return false
		}
	}
	return true
}

// =============================================================================
// Detection & Recovery
// =============================================================================

func (c *Controller) runDetection() {
	c.lastDetectionAt = time.Now()
	if c.detector == nil {
		return
	}

	report := c.detector.Detect(c)
	c.lastDetection = &report

	c.metrics.TotalDetections++
	c.metrics.TotalDetectionTime += time.Duration(report.LatencyMS * float64(time.Millisecond))

	if !report.DeadlockDetected {
		c.logEvent("Detection run: SAFE")
		return
	}
	c.logEvent("Detection run: DEADLOCK FOUND")
	c.metrics.DeadlocksFound++

	if c.system.Is(Safe) {
		_ = c.system.Transition(EventCycleDetected)
	}
	for _, pid := range report.Deadlocked {
		p, ok := c.processes[pid]
		if !ok || p.Is(Deadlocked) {
			continue
		}
		if err := p.Transition(EventDetectCycle); err != nil {
			c.logger.Warn("cannot mark process deadlocked", "pid", pid, "err", err)
		}
	}

	c.logger.Warn("deadlock detected", "processes", report.Deadlocked)
	c.logEvent(fmt.Sprintf("Deadlocked processes: %v", report.Deadlocked))

	c.runRecovery(report.Deadlocked)
}

func (c *Controller) runRecovery(deadlocked []string) {
	if c.recoverer == nil {
		return
	}

	if err := c.system.Transition(EventRecoveryStart); err != nil {
		c.logger.Warn("recovery start", "err", err)
	}

	report, err := c.recoverer.Recover(c, deadlocked)
	if err != nil {
		c.logger.Error("recovery failed", "err", err)
		c.logEvent(fmt.Sprintf("Recovery failed: %v", err))
	} else {
		c.metrics.TotalRecoveryTime += time.Duration(report.RecoveryTimeMS * float64(time.Millisecond))
		c.metrics.ProcessesTerminated += report.TerminatedCount

		c.logEvent(fmt.Sprintf("Recovery: terminated %d victim(s): %v", report.TerminatedCount, report.Victims))
		c.logEvent(fmt.Sprintf("Recovery: unblocked %d process(es)", len(report.Unblocked)))
		c.logger.Info("recovery complete", "victims", report.Victims, "unblocked", report.Unblocked)
	}

	if err := c.system.Transition(EventRecoveryComplete); err != nil {
		c.logger.Warn("recovery complete", "err", err)
	}
}

// =============================================================================
// State Inspection
// =============================================================================

// WaitForGraph derives the wait-for graph from the current allocation
// state: every non-terminated process is a node, and a blocked or
// deadlocked process waits for each distinct holder of every resource
// it has requested. Self-edges are skipped.
func (c *Controller) WaitForGraph() *wfg.Graph {
	g := wfg.New()

	for _, pid := range c.procOrder {
		if !c.processes[pid].Is(Terminated) {
			_ = g.AddNode(pid)
		}
	}

	for _, pid := range c.procOrder {
		p := c.processes[pid]
		if !p.Is(Blocked) && !p.Is(Deadlocked) {
			continue
		}
		for _, rid := range p.Requested() {
			r, ok := c.resources[rid]
			if !ok {
				continue
			}
			for _, holder := range r.Holders() {
				if holder == pid {
					continue
				}
				if _, known := c.processes[holder]; !known {
					continue
				}
				_ = g.AddEdge(pid, holder)
			}
		}
	}
	return g
}

// SystemState returns the current system health state.
func (c *Controller) SystemState() fsa.State { return c.system.State() }

// StateDiagram returns the system automaton in render form.
func (c *Controller) StateDiagram() viz.StateDiagram { return c.system.Diagram() }

// Iteration returns the current iteration counter.
func (c *Controller) Iteration() int { return c.iteration }

// Running reports whether a run loop is active.
func (c *Controller) Running() bool { return c.running }

// Config returns the controller's configuration after defaulting.
func (c *Controller) Config() Config { return c.cfg }

// Metrics returns a copy of the accumulated metrics.
func (c *Controller) Metrics() Metrics { return c.metrics }

// Journal returns a copy of the recorded journal entries.
func (c *Controller) Journal() []LogEntry {
	out := make([]LogEntry, len(c.journal))
	copy(out, c.journal)
	return out
}

// LastDetection returns the most recent detection report, if any.
func (c *Controller) LastDetection() (DetectionReport, bool) {
	if c.lastDetection == nil {
		return DetectionReport{}, false
	}
	return *c.lastDetection, true
}

// Snapshot assembles the current-state view served by the API and
// consumed by the renderers.
func (c *Controller) Snapshot() Snapshot {
	procs := make(map[string]ProcessInfo, len(c.processes))
	for pid, p := range c.processes {
		procs[pid] = p.Info()
	}
	ress := make(map[string]ResourceInfo, len(c.resources))
	for rid, r := range c.resources {
		ress[rid] = r.Info()
	}

	return Snapshot{
		Iteration:   c.iteration,
		SystemState: string(c.system.State()),
		Processes:   procs,
		Resources:   ress,
		Running:     c.running,
		WFG:         c.WaitForGraph().Snapshot(),
		States:      c.system.Diagram(),
	}
}

// Report assembles the final simulation report.
func (c *Controller) Report() Report {
	procs := make(map[string]ProcessInfo, len(c.processes))
	for pid, p := range c.processes {
		procs[pid] = p.Info()
	}
	ress := make(map[string]ResourceInfo, len(c.resources))
	for rid, r := range c.resources {
		ress[rid] = r.Info()
	}

	return Report{
		Summary: Summary{
			TotalIterations:  c.iteration,
			TotalProcesses:   len(c.processes),
			TotalResources:   len(c.resources),
			SystemFinalState: string(c.system.State()),
		},
		Metrics:   c.metrics.Info(),
		Processes: procs,
		Resources: ress,
		Log:       c.Journal(),
	}
}

// Reset drops all entities, journal entries, and metrics, returning the
// controller to its initial empty state. The configuration is kept.
func (c *Controller) Reset() {
	c.processes = make(map[string]*Process)
	c.procOrder = nil
	c.resources = make(map[string]*Resource)
	c.resOrder = nil
	c.system.Reset()

	c.metrics = Metrics{}
	c.iteration = 0
	c.running = false
	c.lastDetectionAt = time.Time{}
	c.lastDetection = nil
	c.journal = nil

	c.logger.Info("simulation reset")
}

func (c *Controller) logEvent(message string) {
	entry := LogEntry{
		Iteration:   c.iteration,
		Timestamp:   time.Now().UTC(),
		Message:     message,
		SystemState: string(c.system.State()),
	}
	c.journal = append(c.journal, entry)
	if c.sink != nil {
		c.sink.Record(entry)
	}
}
