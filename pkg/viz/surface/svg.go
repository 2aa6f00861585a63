package surface

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
)

const svgFontSize = 13

// SVG records draw calls and emits them as a standalone SVG document.
// The viewBox stays in logical units; the document width and height
// carry the pixel ratio, which is the SVG equivalent of a scale
// transform.
type SVG struct {
	width, height float64
	ratio         float64
	body          bytes.Buffer
}

var _ viz.Surface = (*SVG)(nil)

// NewSVG creates an SVG surface with the given logical size and device
// pixel ratio. Ratios <= 0 fall back to 1.
func NewSVG(width, height float64, ratio float64) *SVG {
	if ratio <= 0 {
		ratio = 1
	}
	return &SVG{width: width, height: height, ratio: ratio}
}

// Clear discards all recorded content.
func (s *SVG) Clear() { s.body.Reset() }

// FillBackground records a full-surface rectangle.
func (s *SVG) FillBackground(c viz.Color) {
	fmt.Fprintf(&s.body, `  <rect x="0" y="0" width="%g" height="%g" fill="%s"/>`+"\n",
		s.width, s.height, c)
}

// DrawCircleWithLabel records a circle and its centered label.
func (s *SVG) DrawCircleWithLabel(c viz.Circle) {
	fmt.Fprintf(&s.body, `  <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
		c.X, c.Y, c.Radius, c.Fill, c.Stroke)
	if c.Label != "" {
		fmt.Fprintf(&s.body, `  <text x="%.2f" y="%.2f" fill="%s" font-family="sans-serif" font-size="%d" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
			c.X, c.Y, c.Text, svgFontSize, escapeXML(c.Label))
	}
}

// DrawArrowSegment records one line segment.
func (s *SVG) DrawArrowSegment(seg viz.Segment) {
	fmt.Fprintf(&s.body, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%g" stroke-linecap="round"/>`+"\n",
		seg.X1, seg.Y1, seg.X2, seg.Y2, seg.Color, seg.Width)
}

// Width returns the logical width.
func (s *SVG) Width() float64 { return s.width }

// Height returns the logical height.
func (s *SVG) Height() float64 { return s.height }

// Bytes assembles the complete SVG document from the recorded calls.
func (s *SVG) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %g %g" width="%.0f" height="%.0f">`+"\n",
		s.width, s.height, s.width*s.ratio, s.height*s.ratio)
	buf.Write(s.body.Bytes())
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeXML(s string) string { return xmlEscaper.Replace(s) }
