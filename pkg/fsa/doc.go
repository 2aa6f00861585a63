// Package fsa implements deterministic finite-state automata with
// validated definitions and transition history.
//
// # Overview
//
// The simulator models every entity as a state machine: processes move
// between Ready, Running, Blocked, Deadlocked and Terminated; resources
// between Free and Allocated; the system between Safe, Deadlock and
// Recovering. This package provides the shared automaton those models
// are built on.
//
// A machine is created from a [Definition] listing states, the input
// alphabet, transition rules, the initial state, and accepting states.
// [New] rejects definitions that are not closed: every rule must
// reference declared states and symbols, and at most one rule may exist
// per (state, symbol) pair.
//
// # Basic Usage
//
//	m, err := fsa.New(fsa.Definition{
//		States:   []fsa.State{"Free", "Allocated"},
//		Alphabet: []fsa.Symbol{"allocate", "release"},
//		Rules: []fsa.Rule{
//			{From: "Free", Input: "allocate", To: "Allocated"},
//			{From: "Allocated", Input: "release", To: "Free"},
//		},
//		Initial: "Free",
//	})
//
// Drive it with [Machine.Transition], query it with [Machine.Current],
// [Machine.Can] and [Machine.Available], and inspect the full run with
// [Machine.History]. Transitions that are not defined leave the machine
// unchanged and return [ErrTransitionNotDefined], so callers can treat
// illegal events as recoverable errors rather than panics.
//
// # Concurrency
//
// Machines are not safe for concurrent use. The simulation controller
// owns its machines and serializes access.
package fsa
