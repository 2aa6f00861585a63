package sim

import (
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/fsa"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
)

// System health states.
const (
	Safe       fsa.State = "Safe"
	Deadlock   fsa.State = "Deadlock"
	Recovering fsa.State = "Recovering"
)

// System health events.
const (
	EventCycleDetected    fsa.Symbol = "cycle_detected"
	EventRecoveryStart    fsa.Symbol = "recovery_start"
	EventRecoveryComplete fsa.Symbol = "recovery_complete"
)

var systemDef = fsa.Definition{
	States:   []fsa.State{Safe, Deadlock, Recovering},
	Alphabet: []fsa.Symbol{EventCycleDetected, EventRecoveryStart, EventRecoveryComplete},
	Rules: []fsa.Rule{
		{From: Safe, Input: EventCycleDetected, To: Deadlock},
		{From: Deadlock, Input: EventRecoveryStart, To: Recovering},
		{From: Recovering, Input: EventRecoveryComplete, To: Safe},
	},
	Initial:   Safe,
	Accepting: []fsa.State{Safe},
}

// System tracks overall health: Safe until a cycle is detected, then
// Deadlock, then Recovering while victims are terminated, then Safe
// again.
type System struct {
	machine *fsa.Machine
}

// NewSystem creates a system tracker in the Safe state.
func NewSystem() *System {
	m, err := fsa.New(systemDef)
	if err != nil {
		panic("sim: system machine definition: " + err.Error())
	}
	return &System{machine: m}
}

// State returns the current health state.
func (s *System) State() fsa.State { return s.machine.Current() }

// Is reports whether the system is in the given state.
func (s *System) Is(state fsa.State) bool { return s.machine.Is(state) }

// Transition applies one health event.
func (s *System) Transition(event fsa.Symbol) error {
	if _, err := s.machine.Transition(event); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTransition, err,
			"system cannot take %q in state %s", event, s.State())
	}
	return nil
}

// History returns the health transitions taken so far.
func (s *System) History() []fsa.Transition { return s.machine.History() }

// Reset returns the system to Safe and clears the history.
func (s *System) Reset() { s.machine.Reset() }

// Diagram returns the health states and current state in render form.
func (s *System) Diagram() viz.StateDiagram {
	states := make(viz.StateList, 0, len(s.machine.States()))
	for _, st := range s.machine.States() {
		states = append(states, string(st))
	}
	return viz.StateDiagram{
		States:  states,
		Current: string(s.State()),
	}
}
