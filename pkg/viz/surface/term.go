package surface

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
)

// cellAspect compensates for terminal cells being roughly twice as
// tall as wide: one cell is one logical unit across and two down.
const cellAspect = 2.0

// Term is a rune-cell surface for terminal block graphics. Logical
// width equals the column count; logical height is twice the row count
// so circles keep their shape. Colors are applied with lipgloss when
// the grid is stringified.
type Term struct {
	cols, rows int
	cells      []rune
	colors     []viz.Color
	background viz.Color
}

var _ viz.Surface = (*Term)(nil)

// NewTerm creates a terminal surface with the given cell grid size.
func NewTerm(cols, rows int) *Term {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	t := &Term{
		cols:   cols,
		rows:   rows,
		cells:  make([]rune, cols*rows),
		colors: make([]viz.Color, cols*rows),
	}
	t.Clear()
	return t
}

// Clear fills the grid with blanks.
func (t *Term) Clear() {
	for i := range t.cells {
		t.cells[i] = ' '
		t.colors[i] = ""
	}
	t.background = ""
}

// FillBackground records the background color used when stringifying.
// Terminal cells stay blank; the terminal shows its own background
// through them.
func (t *Term) FillBackground(c viz.Color) { t.background = c }

// DrawCircleWithLabel plots a circle outline and writes the label
// through its center.
func (t *Term) DrawCircleWithLabel(c viz.Circle) {
	// Sample enough points that adjacent cells connect.
	steps := int(math.Ceil(c.Radius * 8))
	if steps < 8 {
		steps = 8
	}
	for i := 0; i < steps; i++ {
		angle := 2 * math.Pi * float64(i) / float64(steps)
		x := c.X + c.Radius*math.Cos(angle)
		y := c.Y + c.Radius*math.Sin(angle)
		t.set(x, y, '·', c.Stroke)
	}

	label := []rune(c.Label)
	if len(label) == 0 {
		return
	}
	startX := c.X - float64(len(label))/2
	for i, r := range label {
		t.set(startX+float64(i), c.Y, r, c.Fill)
	}
}

// DrawArrowSegment plots one line segment cell by cell, picking a
// glyph from the segment's slope.
func (t *Term) DrawArrowSegment(s viz.Segment) {
	glyph := slopeGlyph(s.X2-s.X1, s.Y2-s.Y1)

	length := math.Hypot(s.X2-s.X1, s.Y2-s.Y1)
	steps := int(math.Ceil(length))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		t.set(s.X1+f*(s.X2-s.X1), s.Y1+f*(s.Y2-s.Y1), glyph, s.Color)
	}
}

func slopeGlyph(dx, dy float64) rune {
	if math.Abs(dy) < math.Abs(dx)/2 {
		return '─'
	}
	if math.Abs(dx) < math.Abs(dy)/2 {
		return '│'
	}
	if (dx > 0) == (dy > 0) {
		return '╲'
	}
	return '╱'
}

// set plots one logical point onto the cell grid. Out-of-range points
// are clipped.
func (t *Term) set(x, y float64, r rune, c viz.Color) {
	col := int(math.Round(x))
	row := int(math.Round(y / cellAspect))
	if col < 0 || col >= t.cols || row < 0 || row >= t.rows {
		return
	}
	idx := row*t.cols + col
	t.cells[idx] = r
	t.colors[idx] = c
}

// Width returns the logical width (one unit per column).
func (t *Term) Width() float64 { return float64(t.cols) }

// Height returns the logical height (two units per row).
func (t *Term) Height() float64 { return float64(t.rows) * cellAspect }

// String renders the grid with ANSI colors via lipgloss.
func (t *Term) String() string {
	base := lipgloss.NewStyle()
	if t.background != "" {
		base = base.Background(lipgloss.Color(string(t.background)))
	}

	var sb strings.Builder
	for row := 0; row < t.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := 0; col < t.cols; col++ {
			idx := row*t.cols + col
			r, c := t.cells[idx], t.colors[idx]
			if c == "" && t.background == "" {
				sb.WriteRune(r)
				continue
			}
			style := base
			if c != "" {
				style = style.Foreground(lipgloss.Color(string(c)))
			}
			sb.WriteString(style.Render(string(r)))
		}
	}
	return sb.String()
}

// PlainString renders the grid without colors, for tests and logs.
func (t *Term) PlainString() string {
	var sb strings.Builder
	for row := 0; row < t.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		start := row * t.cols
		sb.WriteString(strings.TrimRight(string(t.cells[start:start+t.cols]), " "))
	}
	return sb.String()
}
