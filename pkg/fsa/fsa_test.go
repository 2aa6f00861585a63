package fsa

import (
	"errors"
	"testing"
)

func lightDef() Definition {
	return Definition{
		States:   []State{"Red", "Green", "Yellow"},
		Alphabet: []Symbol{"go", "caution", "stop"},
		Rules: []Rule{
			{From: "Red", Input: "go", To: "Green"},
			{From: "Green", Input: "caution", To: "Yellow"},
			{From: "Yellow", Input: "stop", To: "Red"},
		},
		Initial:   "Red",
		Accepting: []State{"Red"},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Definition)
		wantErr error
	}{
		{
			name:   "valid definition",
			mutate: func(d *Definition) {},
		},
		{
			name:    "no states",
			mutate:  func(d *Definition) { d.States = nil },
			wantErr: ErrNoStates,
		},
		{
			name:    "empty state name",
			mutate:  func(d *Definition) { d.States = append(d.States, "") },
			wantErr: ErrInvalidState,
		},
		{
			name:    "duplicate state",
			mutate:  func(d *Definition) { d.States = append(d.States, "Red") },
			wantErr: ErrDuplicateState,
		},
		{
			name:    "empty symbol",
			mutate:  func(d *Definition) { d.Alphabet = append(d.Alphabet, "") },
			wantErr: ErrInvalidSymbol,
		},
		{
			name:    "duplicate symbol",
			mutate:  func(d *Definition) { d.Alphabet = append(d.Alphabet, "go") },
			wantErr: ErrDuplicateSymbol,
		},
		{
			name:    "undeclared initial",
			mutate:  func(d *Definition) { d.Initial = "Blue" },
			wantErr: ErrInvalidState,
		},
		{
			name:    "undeclared accepting",
			mutate:  func(d *Definition) { d.Accepting = []State{"Blue"} },
			wantErr: ErrInvalidState,
		},
		{
			name: "rule from undeclared state",
			mutate: func(d *Definition) {
				d.Rules = append(d.Rules, Rule{From: "Blue", Input: "go", To: "Green"})
			},
			wantErr: ErrInvalidState,
		},
		{
			name: "rule to undeclared state",
			mutate: func(d *Definition) {
				d.Rules = append(d.Rules, Rule{From: "Red", Input: "stop", To: "Blue"})
			},
			wantErr: ErrInvalidState,
		},
		{
			name: "rule with undeclared symbol",
			mutate: func(d *Definition) {
				d.Rules = append(d.Rules, Rule{From: "Red", Input: "sprint", To: "Green"})
			},
			wantErr: ErrInvalidSymbol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := lightDef()
			tt.mutate(&def)
			_, err := New(def)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("New() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsNondeterminism(t *testing.T) {
	def := lightDef()
	def.Rules = append(def.Rules, Rule{From: "Red", Input: "go", To: "Yellow"})

	if _, err := New(def); err == nil {
		t.Error("New() error = nil, want nondeterminism error")
	}
}

func TestTransition(t *testing.T) {
	m, err := New(lightDef())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := m.Current(); got != "Red" {
		t.Fatalf("Current() = %v, want Red", got)
	}

	next, err := m.Transition("go")
	if err != nil {
		t.Fatalf("Transition(go) error = %v", err)
	}
	if next != "Green" {
		t.Errorf("Transition(go) = %v, want Green", next)
	}
	if !m.Is("Green") {
		t.Errorf("Is(Green) = false, want true")
	}
}

func TestTransitionUnknownSymbol(t *testing.T) {
	m, _ := New(lightDef())

	_, err := m.Transition("sprint")
	if !errors.Is(err, ErrInvalidSymbol) {
		t.Errorf("Transition(sprint) error = %v, want ErrInvalidSymbol", err)
	}
	if got := m.Current(); got != "Red" {
		t.Errorf("Current() after failed transition = %v, want Red", got)
	}
}

func TestTransitionNotDefined(t *testing.T) {
	m, _ := New(lightDef())

	// "stop" is a declared symbol but Red has no rule for it.
	_, err := m.Transition("stop")
	if !errors.Is(err, ErrTransitionNotDefined) {
		t.Errorf("Transition(stop) error = %v, want ErrTransitionNotDefined", err)
	}
	if got := m.Current(); got != "Red" {
		t.Errorf("Current() after failed transition = %v, want Red", got)
	}
}

func TestCanAndAvailable(t *testing.T) {
	m, _ := New(lightDef())

	if !m.Can("go") {
		t.Error("Can(go) = false, want true")
	}
	if m.Can("stop") {
		t.Error("Can(stop) = true, want false")
	}
	if m.Can("sprint") {
		t.Error("Can(sprint) = true, want false")
	}

	got := m.Available()
	if len(got) != 1 || got[0] != "go" {
		t.Errorf("Available() = %v, want [go]", got)
	}
}

func TestHistory(t *testing.T) {
	m, _ := New(lightDef())

	m.Transition("go")
	m.Transition("caution")
	m.Transition("stop")

	hist := m.History()
	if len(hist) != 3 {
		t.Fatalf("len(History()) = %d, want 3", len(hist))
	}

	want := []struct {
		from, to State
		input    Symbol
	}{
		{"Red", "Green", "go"},
		{"Green", "Yellow", "caution"},
		{"Yellow", "Red", "stop"},
	}
	for i, w := range want {
		h := hist[i]
		if h.From != w.from || h.To != w.to || h.Input != w.input {
			t.Errorf("History()[%d] = %v -> %v on %v, want %v -> %v on %v",
				i, h.From, h.To, h.Input, w.from, w.to, w.input)
		}
		if h.At.IsZero() {
			t.Errorf("History()[%d].At is zero", i)
		}
	}
}

func TestReset(t *testing.T) {
	m, _ := New(lightDef())

	m.Transition("go")
	m.Reset()

	if got := m.Current(); got != "Red" {
		t.Errorf("Current() after Reset = %v, want Red", got)
	}
	if got := m.History(); len(got) != 0 {
		t.Errorf("len(History()) after Reset = %d, want 0", len(got))
	}
}

func TestIsAccepting(t *testing.T) {
	m, _ := New(lightDef())

	if !m.IsAccepting() {
		t.Error("IsAccepting() at Red = false, want true")
	}

	m.Transition("go")
	if m.IsAccepting() {
		t.Error("IsAccepting() at Green = true, want false")
	}
}

func TestStatesOrder(t *testing.T) {
	m, _ := New(lightDef())

	got := m.States()
	want := []State{"Red", "Green", "Yellow"}
	if len(got) != len(want) {
		t.Fatalf("len(States()) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("States()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
