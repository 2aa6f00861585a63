package fsa

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

var (
	// ErrNoStates is returned by [New] when the definition has an empty
	// state set. A machine must have at least one state.
	ErrNoStates = errors.New("definition must declare at least one state")

	// ErrInvalidState is returned by [New] when a state name is empty,
	// or when the initial state, an accepting state, or a transition
	// endpoint is not in the declared state set.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidSymbol is returned by [New] when a symbol name is empty
	// or a transition uses a symbol outside the declared alphabet, and by
	// [Machine.Transition] when the input symbol is not in the alphabet.
	ErrInvalidSymbol = errors.New("invalid input symbol")

	// ErrDuplicateState is returned by [New] when the same state is
	// declared twice. State names must be unique.
	ErrDuplicateState = errors.New("duplicate state")

	// ErrDuplicateSymbol is returned by [New] when the same symbol is
	// declared twice. Alphabet symbols must be unique.
	ErrDuplicateSymbol = errors.New("duplicate symbol")

	// ErrTransitionNotDefined is returned by [Machine.Transition] when no
	// transition exists from the current state on the given symbol. The
	// machine stays in its current state.
	ErrTransitionNotDefined = errors.New("transition not defined")
)

// State identifies a machine state (e.g. "Running", "Blocked").
type State string

// Symbol identifies an input event (e.g. "request", "allocate").
type Symbol string

// Transition records one taken transition, including when it happened.
// Machines keep a full transition history for post-run inspection.
type Transition struct {
	From  State     `json:"from"`
	Input Symbol    `json:"input"`
	To    State     `json:"to"`
	At    time.Time `json:"at"`
}

// Rule declares one entry of the transition table: reading Input in
// state From moves the machine to state To.
type Rule struct {
	From  State
	Input Symbol
	To    State
}

// Definition is the immutable description of a machine: its states,
// input alphabet, transition rules, initial state, and accepting states.
// Pass it to [New], which validates closure of the rules over the
// declared states and alphabet.
type Definition struct {
	States    []State
	Alphabet  []Symbol
	Rules     []Rule
	Initial   State
	Accepting []State
}

// Machine is a deterministic finite-state automaton with transition
// history. The zero value is not usable, use [New].
//
// Machine is not safe for concurrent use without external synchronization.
type Machine struct {
	states    []State // declaration order, for stable snapshots
	stateSet  map[State]struct{}
	alphabet  map[Symbol]struct{}
	table     map[State]map[Symbol]State
	initial   State
	accepting map[State]struct{}

	current State
	history []Transition
}

// New validates the definition and returns a machine positioned at the
// initial state with empty history.
//
// Validation enforces:
//   - at least one state, all states non-empty and unique
//   - all symbols non-empty and unique
//   - the initial state and every accepting state are declared states
//   - every rule references declared states and symbols
//   - at most one rule per (state, symbol) pair (determinism)
func New(def Definition) (*Machine, error) {
	if len(def.States) == 0 {
		return nil, ErrNoStates
	}

	stateSet := make(map[State]struct{}, len(def.States))
	states := make([]State, 0, len(def.States))
	for _, s := range def.States {
		if s == "" {
			return nil, fmt.Errorf("%w: empty state name", ErrInvalidState)
		}
		if _, exists := stateSet[s]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateState, s)
		}
		stateSet[s] = struct{}{}
		states = append(states, s)
	}

	alphabet := make(map[Symbol]struct{}, len(def.Alphabet))
	for _, sym := range def.Alphabet {
		if sym == "" {
			return nil, fmt.Errorf("%w: empty symbol name", ErrInvalidSymbol)
		}
		if _, exists := alphabet[sym]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSymbol, sym)
		}
		alphabet[sym] = struct{}{}
	}

	if _, ok := stateSet[def.Initial]; !ok {
		return nil, fmt.Errorf("%w: initial state %q not declared", ErrInvalidState, def.Initial)
	}

	accepting := make(map[State]struct{}, len(def.Accepting))
	for _, s := range def.Accepting {
		if _, ok := stateSet[s]; !ok {
			return nil, fmt.Errorf("%w: accepting state %q not declared", ErrInvalidState, s)
		}
		accepting[s] = struct{}{}
	}

	table := make(map[State]map[Symbol]State)
	for _, r := range def.Rules {
		if _, ok := stateSet[r.From]; !ok {
			return nil, fmt.Errorf("%w: rule source %q not declared", ErrInvalidState, r.From)
		}
		if _, ok := stateSet[r.To]; !ok {
			return nil, fmt.Errorf("%w: rule target %q not declared", ErrInvalidState, r.To)
		}
		if _, ok := alphabet[r.Input]; !ok {
			return nil, fmt.Errorf("%w: rule symbol %q not declared", ErrInvalidSymbol, r.Input)
		}
		row, ok := table[r.From]
		if !ok {
			row = make(map[Symbol]State)
			table[r.From] = row
		}
		if _, exists := row[r.Input]; exists {
			return nil, fmt.Errorf("nondeterministic rule for (%q, %q)", r.From, r.Input)
		}
		row[r.Input] = r.To
	}

	return &Machine{
		states:    states,
		stateSet:  stateSet,
		alphabet:  alphabet,
		table:     table,
		initial:   def.Initial,
		accepting: accepting,
		current:   def.Initial,
	}, nil
}

// Current returns the machine's current state.
func (m *Machine) Current() State { return m.current }

// States returns the declared states in declaration order.
// The returned slice must not be modified.
func (m *Machine) States() []State { return m.states }

// Is reports whether the machine is currently in the given state.
func (m *Machine) Is(s State) bool { return m.current == s }

// IsAccepting reports whether the current state is an accepting state.
func (m *Machine) IsAccepting() bool {
	_, ok := m.accepting[m.current]
	return ok
}

// Can reports whether reading the symbol in the current state has a
// defined transition. Unknown symbols simply report false.
func (m *Machine) Can(input Symbol) bool {
	row, ok := m.table[m.current]
	if !ok {
		return false
	}
	_, ok = row[input]
	return ok
}

// Available returns the symbols with a defined transition from the
// current state, sorted by name. Returns nil when no transition leaves
// the current state (terminal states).
func (m *Machine) Available() []Symbol {
	row := m.table[m.current]
	if len(row) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(row))
}

// Transition reads one input symbol, moves to the target state, and
// records the step in the history.
//
// Returns ErrInvalidSymbol if the symbol is outside the alphabet, or
// ErrTransitionNotDefined if the table has no entry for the current
// state and symbol. On error the machine's state is unchanged.
func (m *Machine) Transition(input Symbol) (State, error) {
	if _, ok := m.alphabet[input]; !ok {
		return m.current, fmt.Errorf("%w: %q", ErrInvalidSymbol, input)
	}
	row, ok := m.table[m.current]
	if !ok {
		return m.current, fmt.Errorf("%w: no transitions from %q", ErrTransitionNotDefined, m.current)
	}
	next, ok := row[input]
	if !ok {
		return m.current, fmt.Errorf("%w: (%q, %q)", ErrTransitionNotDefined, m.current, input)
	}

	m.history = append(m.history, Transition{
		From:  m.current,
		Input: input,
		To:    next,
		At:    time.Now().UTC(),
	})
	m.current = next
	return next, nil
}

// Reset returns the machine to its initial state and clears the history.
func (m *Machine) Reset() {
	m.current = m.initial
	m.history = nil
}

// History returns a copy of all taken transitions in order.
func (m *Machine) History() []Transition {
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}
