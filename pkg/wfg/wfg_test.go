package wfg

import (
	"errors"
	"slices"
	"testing"
)

func TestAddNode(t *testing.T) {
	g := New()

	if err := g.AddNode("P1"); err != nil {
		t.Fatalf("AddNode(P1) error: %v", err)
	}
	if err := g.AddNode("P2"); err != nil {
		t.Fatalf("AddNode(P2) error: %v", err)
	}

	// Duplicate adds are absorbed.
	if err := g.AddNode("P1"); err != nil {
		t.Fatalf("AddNode(P1) second time error: %v", err)
	}

	if got, want := g.NodeCount(), 2; got != want {
		t.Errorf("NodeCount() = %d, want %d", got, want)
	}
	if got := g.Nodes(); !slices.Equal(got, []string{"P1", "P2"}) {
		t.Errorf("Nodes() = %v, want [P1 P2]", got)
	}
}

func TestAddNodeEmptyID(t *testing.T) {
	g := New()
	if err := g.AddNode(""); !errors.Is(err, ErrEmptyNodeID) {
		t.Errorf("AddNode(\"\") error = %v, want ErrEmptyNodeID", err)
	}
}

func TestAddEdge(t *testing.T) {
	g := New()

	// Endpoints are registered implicitly.
	if err := g.AddEdge("P1", "P2"); err != nil {
		t.Fatalf("AddEdge error: %v", err)
	}
	if !g.HasNode("P1") || !g.HasNode("P2") {
		t.Error("AddEdge did not register endpoint nodes")
	}

	// Duplicate edges are absorbed.
	if err := g.AddEdge("P1", "P2"); err != nil {
		t.Fatalf("duplicate AddEdge error: %v", err)
	}
	if got, want := g.EdgeCount(), 1; got != want {
		t.Errorf("EdgeCount() = %d, want %d", got, want)
	}

	if got := g.WaitsFor("P1"); !slices.Equal(got, []string{"P2"}) {
		t.Errorf("WaitsFor(P1) = %v, want [P2]", got)
	}
	if got := g.WaitsFor("P2"); len(got) != 0 {
		t.Errorf("WaitsFor(P2) = %v, want empty", got)
	}
}

func TestAddEdgeEmptyID(t *testing.T) {
	g := New()
	if err := g.AddEdge("", "P2"); !errors.Is(err, ErrEmptyNodeID) {
		t.Errorf("AddEdge(\"\", P2) error = %v, want ErrEmptyNodeID", err)
	}
	if err := g.AddEdge("P1", ""); !errors.Is(err, ErrEmptyNodeID) {
		t.Errorf("AddEdge(P1, \"\") error = %v, want ErrEmptyNodeID", err)
	}
}

func TestCycles(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		want  [][]string
	}{
		{
			name:  "no cycle",
			edges: [][2]string{{"P1", "P2"}, {"P2", "P3"}},
			want:  nil,
		},
		{
			name:  "two process cycle",
			edges: [][2]string{{"P1", "P2"}, {"P2", "P1"}},
			want:  [][]string{{"P1", "P2"}},
		},
		{
			name:  "three process cycle",
			edges: [][2]string{{"P1", "P2"}, {"P2", "P3"}, {"P3", "P1"}},
			want:  [][]string{{"P1", "P2", "P3"}},
		},
		{
			name:  "self loop",
			edges: [][2]string{{"P1", "P1"}},
			want:  [][]string{{"P1"}},
		},
		{
			name: "cycle with tail",
			// P0 waits into the cycle but is not part of it.
			edges: [][2]string{{"P0", "P1"}, {"P1", "P2"}, {"P2", "P1"}},
			want:  [][]string{{"P1", "P2"}},
		},
		{
			name: "two disjoint cycles",
			edges: [][2]string{
				{"P1", "P2"}, {"P2", "P1"},
				{"P3", "P4"}, {"P4", "P3"},
			},
			want: [][]string{{"P1", "P2"}, {"P3", "P4"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, e := range tt.edges {
				if err := g.AddEdge(e[0], e[1]); err != nil {
					t.Fatalf("AddEdge(%s, %s) error: %v", e[0], e[1], err)
				}
			}

			got := g.Cycles()
			if len(got) != len(tt.want) {
				t.Fatalf("Cycles() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if !slices.Equal(got[i], tt.want[i]) {
					t.Errorf("cycle %d = %v, want %v", i, got[i], tt.want[i])
				}
			}

			if got, want := g.HasCycle(), len(tt.want) > 0; got != want {
				t.Errorf("HasCycle() = %v, want %v", got, want)
			}
		})
	}
}

func TestDeadlocked(t *testing.T) {
	g := New()
	// P0 → P1 → P2 → P1 (P1 and P2 cycle; P0 only waits on it).
	for _, e := range [][2]string{{"P0", "P1"}, {"P1", "P2"}, {"P2", "P1"}} {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge error: %v", err)
		}
	}

	got := g.Deadlocked()
	if !slices.Equal(got, []string{"P1", "P2"}) {
		t.Errorf("Deadlocked() = %v, want [P1 P2]", got)
	}
}

func TestDeadlockedUnionOfCycles(t *testing.T) {
	g := New()
	// Two cycles sharing P2: members reported once, first-seen order.
	for _, e := range [][2]string{
		{"P1", "P2"}, {"P2", "P1"},
		{"P2", "P3"}, {"P3", "P2"},
	} {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge error: %v", err)
		}
	}

	got := g.Deadlocked()
	if !slices.Equal(got, []string{"P1", "P2", "P3"}) {
		t.Errorf("Deadlocked() = %v, want [P1 P2 P3]", got)
	}
}

func TestSnapshot(t *testing.T) {
	g := New()
	if err := g.AddNode("P3"); err != nil {
		t.Fatal(err)
	}
	for _, e := range [][2]string{{"P1", "P2"}, {"P2", "P1"}} {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge error: %v", err)
		}
	}

	snap := g.Snapshot()

	if !slices.Equal(snap.Nodes, []string{"P3", "P1", "P2"}) {
		t.Errorf("snapshot nodes = %v, want [P3 P1 P2]", snap.Nodes)
	}
	if len(snap.Edges) != 2 {
		t.Fatalf("snapshot edges = %d, want 2", len(snap.Edges))
	}
	if snap.Edges[0].From != "P1" || snap.Edges[0].To != "P2" {
		t.Errorf("edge 0 = %+v, want P1→P2", snap.Edges[0])
	}
	if !slices.Equal(snap.DeadlockedNodes, []string{"P1", "P2"}) {
		t.Errorf("deadlocked = %v, want [P1 P2]", snap.DeadlockedNodes)
	}
}

func TestSnapshotNoCycle(t *testing.T) {
	g := New()
	if err := g.AddEdge("P1", "P2"); err != nil {
		t.Fatal(err)
	}

	snap := g.Snapshot()
	if len(snap.DeadlockedNodes) != 0 {
		t.Errorf("deadlocked = %v, want empty for acyclic graph", snap.DeadlockedNodes)
	}
}
