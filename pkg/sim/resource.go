package sim

import (
	"slices"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/fsa"
)

// Resource occupancy states.
const (
	Free      fsa.State = "Free"
	Allocated fsa.State = "Allocated"
)

// EventRelease returns an instance to the pool. Allocation reuses
// [EventAllocate] from the process alphabet.
const EventRelease fsa.Symbol = "release"

// DefaultResourceType is used when a resource is created without a type.
const DefaultResourceType = "Generic"

var resourceDef = fsa.Definition{
	States:   []fsa.State{Free, Allocated},
	Alphabet: []fsa.Symbol{EventAllocate, EventRelease},
	Rules: []fsa.Rule{
		{From: Free, Input: EventAllocate, To: Allocated},
		{From: Allocated, Input: EventRelease, To: Free},
	},
	Initial: Free,
}

func newResourceMachine() *fsa.Machine {
	m, err := fsa.New(resourceDef)
	if err != nil {
		panic("sim: resource machine definition: " + err.Error())
	}
	return m
}

// Resource is a pool of identical instances that processes compete for.
// The automaton tracks occupancy at the pool level: it moves to
// Allocated only when the last instance is taken and back to Free only
// when every instance has been returned.
//
// Resource is not safe for concurrent use; the controller serializes
// all access.
type Resource struct {
	id        string
	rtype     string
	total     int
	available int

	machine *fsa.Machine
	holders map[string]int
	order   []string
	waiters []string
}

// NewResource creates a fully available resource pool. An instance
// count of 0 becomes 1; an empty type becomes [DefaultResourceType].
func NewResource(id string, instances int, rtype string) (*Resource, error) {
	if id == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "resource id must not be empty")
	}
	if instances == 0 {
		instances = 1
	}
	if instances < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "instance count must not be negative")
	}
	if rtype == "" {
		rtype = DefaultResourceType
	}

	return &Resource{
		id:        id,
		rtype:     rtype,
		total:     instances,
		available: instances,
		machine:   newResourceMachine(),
		holders:   make(map[string]int),
	}, nil
}

// ID returns the resource identifier.
func (r *Resource) ID() string { return r.id }

// Type returns the resource type label.
func (r *Resource) Type() string { return r.rtype }

// Total returns the pool size.
func (r *Resource) Total() int { return r.total }

// Available returns the number of free instances.
func (r *Resource) Available() int { return r.available }

// IsAvailable reports whether at least one instance is free.
func (r *Resource) IsAvailable() bool { return r.available > 0 }

// State returns Free or Allocated at the pool level.
func (r *Resource) State() fsa.State { return r.machine.Current() }

// Is reports whether the pool is in the given occupancy state.
func (r *Resource) Is(state fsa.State) bool { return r.machine.Is(state) }

// Allocate hands one instance to the process. It reports false when the
// pool is exhausted. Taking the last instance drives the occupancy
// automaton to Allocated.
func (r *Resource) Allocate(pid string) bool {
	if !r.IsAvailable() {
		return false
	}

	r.available--
	if r.holders[pid] == 0 {
		r.order = append(r.order, pid)
	}
	r.holders[pid]++

	if r.available == 0 && r.machine.Is(Free) {
		_, _ = r.machine.Transition(EventAllocate)
	}
	return true
}

// Release returns one instance held by the process to the pool. It
// reports false when the process holds no instance. Returning the final
// outstanding instance drives the occupancy automaton back to Free.
func (r *Resource) Release(pid string) bool {
	if r.holders[pid] == 0 {
		return false
	}

	r.holders[pid]--
	if r.holders[pid] == 0 {
		delete(r.holders, pid)
		if i := slices.Index(r.order, pid); i >= 0 {
			r.order = slices.Delete(r.order, i, i+1)
		}
	}
	r.available++

	if r.available == r.total && r.machine.Is(Allocated) {
		_, _ = r.machine.Transition(EventRelease)
	}
	return true
}

// Holders returns the processes currently holding instances, in first
// allocation order.
func (r *Resource) Holders() []string { return slices.Clone(r.order) }

// HeldBy reports whether the process holds at least one instance.
func (r *Resource) HeldBy(pid string) bool { return r.holders[pid] > 0 }

// AddWaiter appends the process to the FIFO wait queue. Duplicates are
// absorbed.
func (r *Resource) AddWaiter(pid string) {
	if !slices.Contains(r.waiters, pid) {
		r.waiters = append(r.waiters, pid)
	}
}

// RemoveWaiter drops the process from the wait queue.
func (r *Resource) RemoveWaiter(pid string) {
	if i := slices.Index(r.waiters, pid); i >= 0 {
		r.waiters = slices.Delete(r.waiters, i, i+1)
	}
}

// Waiters returns the wait queue in arrival order.
func (r *Resource) Waiters() []string { return slices.Clone(r.waiters) }

// Info returns the serializable view of the resource. Slice fields are
// never nil so the JSON form always carries arrays.
func (r *Resource) Info() ResourceInfo {
	holders := make([]string, len(r.order))
	copy(holders, r.order)
	waiters := make([]string, len(r.waiters))
	copy(waiters, r.waiters)

	return ResourceInfo{
		RID:       r.id,
		State:     string(r.State()),
		Total:     r.total,
		Available: r.available,
		Type:      r.rtype,
		Holders:   holders,
		WaitQueue: waiters,
	}
}

// ResourceInfo is the wire form of a resource used in snapshots and reports.
type ResourceInfo struct {
	RID       string   `json:"rid" bson:"rid"`
	State     string   `json:"state" bson:"state"`
	Total     int      `json:"total_instances" bson:"total_instances"`
	Available int      `json:"available_instances" bson:"available_instances"`
	Type      string   `json:"resource_type" bson:"resource_type"`
	Holders   []string `json:"allocated_to" bson:"allocated_to"`
	WaitQueue []string `json:"wait_queue" bson:"wait_queue"`
}
