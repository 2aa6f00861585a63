package viz

import (
	"fmt"
	"math"
	"testing"
)

const coordTolerance = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < coordTolerance }

func TestComputeCircularLayoutEmpty(t *testing.T) {
	got := ComputeCircularLayout(nil, 400, 400, 50)
	if len(got) != 0 {
		t.Errorf("len(layout) = %d, want 0", len(got))
	}

	got = ComputeCircularLayout([]string{}, 400, 400, 50)
	if len(got) != 0 {
		t.Errorf("len(layout) = %d, want 0", len(got))
	}
}

func TestComputeCircularLayoutSingle(t *testing.T) {
	// A single node sits on the radius at angle 0, not at the center.
	got := ComputeCircularLayout([]string{"only"}, 400, 400, 50)

	p, ok := got["only"]
	if !ok {
		t.Fatal("layout missing node \"only\"")
	}
	if !approx(p.X, 350) || !approx(p.Y, 200) {
		t.Errorf("position = (%v, %v), want (350, 200)", p.X, p.Y)
	}
}

func TestComputeCircularLayoutQuadrants(t *testing.T) {
	got := ComputeCircularLayout([]string{"a", "b", "c", "d"}, 400, 400, 50)

	want := map[string]Point{
		"a": {X: 350, Y: 200},
		"b": {X: 200, Y: 350},
		"c": {X: 50, Y: 200},
		"d": {X: 200, Y: 50},
	}
	for id, w := range want {
		p := got[id]
		if !approx(p.X, w.X) || !approx(p.Y, w.Y) {
			t.Errorf("%s = (%v, %v), want (%v, %v)", id, p.X, p.Y, w.X, w.Y)
		}
	}
}

func TestComputeCircularLayoutProperties(t *testing.T) {
	const (
		width  = 640.0
		height = 480.0
		margin = 40.0
	)
	cx, cy := width/2, height/2
	radius := math.Min(width/2, height/2) - margin

	for _, n := range []int{2, 3, 5, 8, 13} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			ids := make([]string, n)
			for i := range ids {
				ids[i] = fmt.Sprintf("node%d", i)
			}
			got := ComputeCircularLayout(ids, width, height, margin)

			if len(got) != n {
				t.Fatalf("len(layout) = %d, want %d", len(got), n)
			}

			// Every point lies at the radius from the center.
			for id, p := range got {
				d := math.Hypot(p.X-cx, p.Y-cy)
				if !approx(d, radius) {
					t.Errorf("distance(%s) = %v, want %v", id, d, radius)
				}
			}

			// Consecutive input-order nodes are 2π/n apart.
			wantStep := 2 * math.Pi / float64(n)
			for i := range ids {
				p := got[ids[i]]
				q := got[ids[(i+1)%n]]
				a := math.Atan2(p.Y-cy, p.X-cx)
				b := math.Atan2(q.Y-cy, q.X-cx)
				step := math.Mod(b-a+4*math.Pi, 2*math.Pi)
				if !approx(step, wantStep) {
					t.Errorf("angular step %s->%s = %v, want %v", ids[i], ids[(i+1)%n], step, wantStep)
				}
			}
		})
	}
}

func TestComputeCircularLayoutRadiusClamped(t *testing.T) {
	// Margin exceeding half the smaller dimension clamps the radius to
	// zero: everything collapses onto the center.
	got := ComputeCircularLayout([]string{"a", "b"}, 100, 100, 80)

	for id, p := range got {
		if !approx(p.X, 50) || !approx(p.Y, 50) {
			t.Errorf("%s = (%v, %v), want center (50, 50)", id, p.X, p.Y)
		}
	}
}

func TestComputeCircularLayoutRectangular(t *testing.T) {
	// The smaller dimension bounds the radius.
	got := ComputeCircularLayout([]string{"a"}, 800, 400, 50)

	p := got["a"]
	if !approx(p.X, 550) || !approx(p.Y, 200) {
		t.Errorf("position = (%v, %v), want (550, 200)", p.X, p.Y)
	}
}

func TestComputeCircularLayoutOrderDependent(t *testing.T) {
	fwd := ComputeCircularLayout([]string{"a", "b", "c"}, 400, 400, 50)
	rev := ComputeCircularLayout([]string{"c", "b", "a"}, 400, 400, 50)

	if approx(fwd["a"].X, rev["a"].X) && approx(fwd["a"].Y, rev["a"].Y) {
		t.Error("reordering input left node \"a\" in place, want order-dependent layout")
	}

	// First input id always lands at angle 0.
	if !approx(rev["c"].X, fwd["a"].X) || !approx(rev["c"].Y, fwd["a"].Y) {
		t.Error("first id of reversed input not at angle 0 position")
	}
}
