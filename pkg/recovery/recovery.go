// Package recovery breaks detected deadlocks by terminating victim
// processes.
//
// A [Module] implements [sim.Recoverer]: given the set of deadlocked
// processes it repeatedly selects a victim with the configured
// strategy, terminates it, and releases what it held, until the cycle
// is considered broken. Surviving deadlocked processes are then either
// handed a freed resource or returned to the blocked state.
//
// # Strategies
//
//   - priority: terminate the least important process (highest
//     priority number).
//   - cost: terminate the process with the lowest termination cost, a
//     weighted mix of held resources, execution time, elapsed time,
//     importance, and how often it was already victimized.
//   - time: terminate the youngest process, losing the least work.
//   - resources: terminate the process holding the fewest resources.
package recovery

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
)

// DefaultStrategy is used when a module is created with an empty
// strategy name.
const DefaultStrategy = "cost"

// Cost weights for the cost strategy. The starvation weight is
// subtracted, so repeat victims score lower and are picked again
// before fresh processes are sacrificed.
const (
	resourceWeight   = 10
	executionWeight  = 1
	progressWeight   = 5
	priorityWeight   = 20
	starvationWeight = 50
)

// SelectFunc picks the next victim from the candidate processes. The
// candidates are never empty and always registered on the controller.
type SelectFunc func(c *sim.Controller, candidates []string) string

var strategies = map[string]SelectFunc{
	"priority":  selectByPriority,
	"cost":      selectByCost,
	"time":      selectByTime,
	"resources": selectByResources,
}

// Strategies returns the registered strategy names, sorted.
func Strategies() []string {
	out := make([]string, 0, len(strategies))
	for name := range strategies {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// ValidStrategy reports whether the name is a registered strategy.
func ValidStrategy(name string) bool {
	_, ok := strategies[name]
	return ok
}

// Module terminates deadlock victims using one selection strategy.
//
// Module is not safe for concurrent use; the controller invokes it
// from its own run loop.
type Module struct {
	strategy string
	selector SelectFunc
	logger   *log.Logger

	recoveries int
}

// Option configures a module.
type Option func(*Module)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(m *Module) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a recovery module. An empty strategy name selects
// [DefaultStrategy]; an unknown one is rejected.
func New(strategy string, opts ...Option) (*Module, error) {
	if strategy == "" {
		strategy = DefaultStrategy
	}
	selector, ok := strategies[strategy]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidStrategy,
			"invalid recovery strategy %q (must be one of: %v)", strategy, Strategies())
	}

	m := &Module{
		strategy: strategy,
		selector: selector,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Strategy returns the configured strategy name.
func (m *Module) Strategy() string { return m.strategy }

// Recoveries returns how many recovery passes have run.
func (m *Module) Recoveries() int { return m.recoveries }

// Recover terminates victims until the deadlock cycle is considered
// broken, then unblocks the surviving deadlocked processes: a survivor
// whose first pending request can now be satisfied is handed the
// resource and resumes running, the rest return to the blocked state.
func (m *Module) Recover(c *sim.Controller, deadlocked []string) (sim.RecoveryReport, error) {
	start := time.Now()
	m.recoveries++

	report := sim.RecoveryReport{
		Success:           true,
		Victims:           []string{},
		ResourcesReleased: []string{},
		Unblocked:         []string{},
	}

	m.logger.Info("starting recovery", "strategy", m.strategy, "deadlocked", deadlocked)

	remaining := make([]string, 0, len(deadlocked))
	for _, pid := range deadlocked {
		if _, ok := c.Process(pid); ok {
			remaining = append(remaining, pid)
		}
	}

	for len(remaining) > 0 {
		victim := m.selector(c, remaining)
		if victim == "" {
			break
		}
		report.Victims = append(report.Victims, victim)
		if i := slices.Index(remaining, victim); i >= 0 {
			remaining = slices.Delete(remaining, i, i+1)
		}

		released, err := m.terminate(c, victim)
		if err != nil {
			return sim.RecoveryReport{}, err
		}
		for _, rid := range released {
			if !slices.Contains(report.ResourcesReleased, rid) {
				report.ResourcesReleased = append(report.ResourcesReleased, rid)
			}
		}

		if cycleBroken(len(remaining), c.ProcessCount()) {
			m.logger.Info("deadlock broken", "victims", len(report.Victims))
			break
		}
	}

	for _, pid := range deadlocked {
		if slices.Contains(report.Victims, pid) {
			continue
		}
		p, ok := c.Process(pid)
		if !ok {
			continue
		}
		if m.unblock(c, p) {
			report.Unblocked = append(report.Unblocked, pid)
		}
	}

	report.TerminatedCount = len(report.Victims)
	report.RecoveryTimeMS = float64(time.Since(start)) / float64(time.Millisecond)

	m.logger.Info("recovery complete",
		"victims", report.Victims,
		"released", report.ResourcesReleased,
		"unblocked", report.Unblocked)
	return report, nil
}

// terminate kills the victim and returns what it held to the pools.
func (m *Module) terminate(c *sim.Controller, pid string) ([]string, error) {
	p, ok := c.Process(pid)
	if !ok {
		return nil, errors.New(errors.ErrCodeProcessNotFound, "victim %s not found", pid)
	}
	if err := p.Transition(sim.EventTerminate); err != nil {
		return nil, err
	}
	p.MarkVictim()

	released := p.ReleaseAll()
	for _, rid := range released {
		if r, found := c.Resource(rid); found {
			r.Release(pid)
		}
	}

	m.logger.Info("terminated victim", "pid", pid, "released", len(released))
	return released, nil
}

// cycleBroken reports whether enough victims have been terminated:
// either no deadlocked process remains, or fewer than half of the
// system's processes are still deadlocked.
func cycleBroken(remaining, totalProcesses int) bool {
	return remaining == 0 || float64(remaining) < float64(totalProcesses)/2
}

// unblock moves a surviving deadlocked process on: when its first
// pending request can be satisfied it resumes and takes the resource,
// otherwise it just returns to the blocked state. It reports whether
// the process ended up running.
func (m *Module) unblock(c *sim.Controller, p *sim.Process) bool {
	if err := p.Transition(sim.EventResume); err != nil {
		m.logger.Warn("cannot resume survivor", "pid", p.ID(), "err", err)
		return false
	}

	requested := p.Requested()
	if len(requested) == 0 {
		return false
	}
	rid := requested[0]
	r, ok := c.Resource(rid)
	if !ok || !r.IsAvailable() {
		return false
	}

	if err := p.Transition(sim.EventAllocate); err != nil {
		m.logger.Warn("cannot unblock survivor", "pid", p.ID(), "err", err)
		return false
	}
	r.Allocate(p.ID())
	p.AllocateResource(rid)
	r.RemoveWaiter(p.ID())

	m.logger.Info("unblocked survivor", "pid", p.ID(), "rid", rid)
	return true
}

// =============================================================================
// Victim Selection
// =============================================================================

// selectByPriority picks the least important candidate. Priority 1 is
// the most important, 10 the least.
func selectByPriority(c *sim.Controller, candidates []string) string {
	victim := ""
	lowest := -1
	for _, pid := range candidates {
		p, ok := c.Process(pid)
		if !ok {
			continue
		}
		if p.Priority() > lowest {
			lowest = p.Priority()
			victim = pid
		}
	}
	return victim
}

// selectByCost picks the candidate whose termination costs least.
func selectByCost(c *sim.Controller, candidates []string) string {
	victim := ""
	minCost := 0.0
	for _, pid := range candidates {
		p, ok := c.Process(pid)
		if !ok {
			continue
		}
		cost := float64(len(p.Held())*resourceWeight) +
			float64(p.ExecutionTime().Milliseconds()*executionWeight) +
			p.Elapsed().Seconds()*progressWeight +
			float64((10-p.Priority())*priorityWeight) -
			float64(p.VictimCount()*starvationWeight)

		if victim == "" || cost < minCost {
			minCost = cost
			victim = pid
		}
	}
	return victim
}

// selectByTime picks the youngest candidate, the one losing the least
// work.
func selectByTime(c *sim.Controller, candidates []string) string {
	victim := ""
	var minElapsed time.Duration
	for _, pid := range candidates {
		p, ok := c.Process(pid)
		if !ok {
			continue
		}
		if victim == "" || p.Elapsed() < minElapsed {
			minElapsed = p.Elapsed()
			victim = pid
		}
	}
	return victim
}

// selectByResources picks the candidate holding the fewest resources.
func selectByResources(c *sim.Controller, candidates []string) string {
	victim := ""
	minHeld := 0
	for _, pid := range candidates {
		p, ok := c.Process(pid)
		if !ok {
			continue
		}
		if held := len(p.Held()); victim == "" || held < minHeld {
			minHeld = held
			victim = pid
		}
	}
	return victim
}
