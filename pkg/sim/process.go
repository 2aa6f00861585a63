package sim

import (
	"slices"
	"time"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/fsa"
)

// Process lifecycle states.
const (
	Ready      fsa.State = "Ready"
	Running    fsa.State = "Running"
	Blocked    fsa.State = "Blocked"
	Deadlocked fsa.State = "Deadlocked"
	Terminated fsa.State = "Terminated"
)

// Process lifecycle events.
const (
	EventStart       fsa.Symbol = "start"
	EventRequest     fsa.Symbol = "request"
	EventAllocate    fsa.Symbol = "allocate"
	EventDeny        fsa.Symbol = "deny"
	EventDetectCycle fsa.Symbol = "detect_cycle"
	EventTerminate   fsa.Symbol = "terminate"
	EventResume      fsa.Symbol = "resume"
)

// Priority and timing defaults for processes.
const (
	// MinPriority is the highest priority; MaxPriority the lowest.
	MinPriority = 1
	MaxPriority = 10

	// DefaultPriority is assigned when a process is created with priority 0.
	DefaultPriority = 5

	// DefaultExecutionTime is assumed when no execution time is given.
	DefaultExecutionTime = 100 * time.Millisecond
)

var processDef = fsa.Definition{
	States:   []fsa.State{Ready, Running, Blocked, Deadlocked, Terminated},
	Alphabet: []fsa.Symbol{EventStart, EventRequest, EventAllocate, EventDeny, EventDetectCycle, EventTerminate, EventResume},
	Rules: []fsa.Rule{
		{From: Ready, Input: EventStart, To: Running},
		{From: Running, Input: EventRequest, To: Running},
		{From: Running, Input: EventAllocate, To: Running},
		{From: Running, Input: EventDeny, To: Blocked},
		{From: Running, Input: EventTerminate, To: Terminated},
		{From: Blocked, Input: EventAllocate, To: Running},
		{From: Blocked, Input: EventDetectCycle, To: Deadlocked},
		{From: Deadlocked, Input: EventTerminate, To: Terminated},
		{From: Deadlocked, Input: EventResume, To: Blocked},
	},
	Initial:   Ready,
	Accepting: []fsa.State{Terminated},
}

func newProcessMachine() *fsa.Machine {
	m, err := fsa.New(processDef)
	if err != nil {
		panic("sim: process machine definition: " + err.Error())
	}
	return m
}

// Process models one process competing for resources. Its lifecycle is
// enforced by an embedded automaton: only the transitions declared in
// the process definition are possible, everything else returns an error.
//
// Process is not safe for concurrent use; the controller serializes all
// access.
type Process struct {
	id        string
	priority  int
	execTime  time.Duration
	createdAt time.Time

	machine   *fsa.Machine
	held      []string
	requested []string
	victims   int
}

// NewProcess creates a process in the Ready state.
//
// A priority of 0 becomes [DefaultPriority]; otherwise it must lie in
// [MinPriority, MaxPriority]. An execution time of 0 becomes
// [DefaultExecutionTime].
func NewProcess(id string, priority int, execTime time.Duration) (*Process, error) {
	if id == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "process id must not be empty")
	}
	if priority == 0 {
		priority = DefaultPriority
	}
	if priority < MinPriority || priority > MaxPriority {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"priority %d out of range [%d, %d]", priority, MinPriority, MaxPriority)
	}
	if execTime == 0 {
		execTime = DefaultExecutionTime
	}
	if execTime < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "execution time must not be negative")
	}

	return &Process{
		id:        id,
		priority:  priority,
		execTime:  execTime,
		createdAt: time.Now().UTC(),
		machine:   newProcessMachine(),
	}, nil
}

// ID returns the process identifier.
func (p *Process) ID() string { return p.id }

// Priority returns the priority level (1 highest, 10 lowest).
func (p *Process) Priority() int { return p.priority }

// ExecutionTime returns the expected execution time.
func (p *Process) ExecutionTime() time.Duration { return p.execTime }

// CreatedAt returns the creation timestamp.
func (p *Process) CreatedAt() time.Time { return p.createdAt }

// Elapsed returns the time since the process was created.
func (p *Process) Elapsed() time.Duration { return time.Since(p.createdAt) }

// State returns the current lifecycle state.
func (p *Process) State() fsa.State { return p.machine.Current() }

// Is reports whether the process is in the given state.
func (p *Process) Is(s fsa.State) bool { return p.machine.Is(s) }

// Transition applies one lifecycle event.
func (p *Process) Transition(event fsa.Symbol) error {
	if _, err := p.machine.Transition(event); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTransition, err,
			"process %s cannot take %q in state %s", p.id, event, p.State())
	}
	return nil
}

// History returns the lifecycle transitions taken so far.
func (p *Process) History() []fsa.Transition { return p.machine.History() }

// RequestResource records a pending request. Requests are kept in
// arrival order and deduplicated.
func (p *Process) RequestResource(rid string) {
	if !slices.Contains(p.requested, rid) {
		p.requested = append(p.requested, rid)
	}
}

// AllocateResource marks the resource as held and clears any pending
// request for it. It does not fire a lifecycle event; callers pair it
// with [EventAllocate].
func (p *Process) AllocateResource(rid string) {
	if !slices.Contains(p.held, rid) {
		p.held = append(p.held, rid)
	}
	if i := slices.Index(p.requested, rid); i >= 0 {
		p.requested = slices.Delete(p.requested, i, i+1)
	}
}

// ReleaseResource drops the resource from the held set.
func (p *Process) ReleaseResource(rid string) {
	if i := slices.Index(p.held, rid); i >= 0 {
		p.held = slices.Delete(p.held, i, i+1)
	}
}

// ReleaseAll clears the held set and returns the resources that were held.
func (p *Process) ReleaseAll() []string {
	released := p.held
	p.held = nil
	return released
}

// Held returns the held resources in allocation order.
func (p *Process) Held() []string { return slices.Clone(p.held) }

// Requested returns the pending requests in arrival order.
func (p *Process) Requested() []string { return slices.Clone(p.requested) }

// VictimCount returns how many times this process was terminated as a
// deadlock victim.
func (p *Process) VictimCount() int { return p.victims }

// MarkVictim increments the victim count. Recovery calls this when the
// process is terminated to break a cycle and uses the count when
// scoring candidate victims.
func (p *Process) MarkVictim() { p.victims++ }

// Info returns the serializable view of the process. Slice fields are
// never nil so the JSON form always carries arrays.
func (p *Process) Info() ProcessInfo {
	held := make([]string, len(p.held))
	copy(held, p.held)
	requested := make([]string, len(p.requested))
	copy(requested, p.requested)

	return ProcessInfo{
		PID:           p.id,
		State:         string(p.State()),
		Priority:      p.priority,
		ExecutionTime: p.execTime.Milliseconds(),
		Held:          held,
		Requested:     requested,
		Elapsed:       p.Elapsed().Seconds(),
		VictimCount:   p.victims,
	}
}

// ProcessInfo is the wire form of a process used in snapshots and reports.
type ProcessInfo struct {
	PID           string   `json:"pid" bson:"pid"`
	State         string   `json:"state" bson:"state"`
	Priority      int      `json:"priority" bson:"priority"`
	ExecutionTime int64    `json:"execution_time" bson:"execution_time"`
	Held          []string `json:"held_resources" bson:"held_resources"`
	Requested     []string `json:"requested_resources" bson:"requested_resources"`
	Elapsed       float64  `json:"elapsed_time" bson:"elapsed_time"`
	VictimCount   int      `json:"victim_count" bson:"victim_count"`
}
