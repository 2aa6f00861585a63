package surface

import (
	"strings"
	"testing"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
)

func TestTermDimensions(t *testing.T) {
	s := NewTerm(80, 24)

	if s.Width() != 80 {
		t.Errorf("Width() = %g, want 80", s.Width())
	}
	// Rows count double to compensate for cell aspect.
	if s.Height() != 48 {
		t.Errorf("Height() = %g, want 48", s.Height())
	}
}

func TestTermMinimumSize(t *testing.T) {
	s := NewTerm(0, -3)
	if s.Width() != 1 || s.Height() != 2 {
		t.Errorf("size = %gx%g, want clamped 1x2", s.Width(), s.Height())
	}
}

func TestTermRenderShowsLabels(t *testing.T) {
	s := NewTerm(40, 12)
	r := viz.NewRenderer(s, viz.WithMargin(4), viz.WithNodeRadius(2))

	r.RenderWaitForGraph(viz.GraphSnapshot{
		Nodes: []string{"P1", "P2"},
		Edges: []viz.Edge{{From: "P1", To: "P2"}},
	})

	out := s.PlainString()
	if !strings.Contains(out, "P1") {
		t.Errorf("output missing label P1:\n%s", out)
	}
	if !strings.Contains(out, "P2") {
		t.Errorf("output missing label P2:\n%s", out)
	}
}

func TestTermClear(t *testing.T) {
	s := NewTerm(20, 6)
	s.DrawCircleWithLabel(viz.Circle{X: 10, Y: 6, Radius: 2, Label: "X", Fill: "#ffffff"})

	s.Clear()

	if got := s.PlainString(); strings.TrimSpace(got) != "" {
		t.Errorf("grid not empty after Clear:\n%q", got)
	}
}

func TestTermClipsOutOfRange(t *testing.T) {
	s := NewTerm(10, 4)

	// Points far outside the grid must be dropped, not wrap or panic.
	s.DrawArrowSegment(viz.Segment{X1: -50, Y1: -50, X2: 500, Y2: 500, Color: "#ffffff", Width: 1})
	s.DrawCircleWithLabel(viz.Circle{X: 900, Y: 900, Radius: 3, Label: "far"})

	out := s.PlainString()
	if strings.Contains(out, "far") {
		t.Errorf("out-of-range label drawn:\n%s", out)
	}
}

func TestSlopeGlyph(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
		want   rune
	}{
		{"horizontal", 10, 0, '─'},
		{"vertical", 0, 10, '│'},
		{"down-right", 10, 10, '╲'},
		{"up-right", 10, -10, '╱'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slopeGlyph(tt.dx, tt.dy); got != tt.want {
				t.Errorf("slopeGlyph(%g, %g) = %q, want %q", tt.dx, tt.dy, got, tt.want)
			}
		})
	}
}

func TestTermStringHasAllRows(t *testing.T) {
	s := NewTerm(10, 5)
	if got := strings.Count(s.PlainString(), "\n"); got != 4 {
		t.Errorf("newlines = %d, want 4", got)
	}
}
