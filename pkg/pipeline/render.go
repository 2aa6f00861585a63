package pipeline

import (
	"bytes"
	"math"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz/nodelink"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz/surface"
)

// pngRatio is the device pixel ratio for PNG artifacts. Doubling the
// physical resolution keeps exported diagrams crisp on dense displays.
const pngRatio = 2.0

// renderArtifact draws one diagram kind in one output format.
//
// SVG, PNG, and TXT artifacts use the circular renderer on the matching
// surface; DOT artifacts are Graphviz exports of the same data.
func renderArtifact(kind, format string, graph viz.GraphSnapshot, states viz.StateDiagram, opts Options) ([]byte, error) {
	theme := themeByName(opts.Theme)

	switch format {
	case FormatSVG:
		s := surface.NewSVG(float64(opts.Width), float64(opts.Height), 1)
		draw(s, kind, graph, states, theme)
		return s.Bytes(), nil

	case FormatPNG:
		s, err := surface.NewRaster(float64(opts.Width), float64(opts.Height), pngRatio)
		if err != nil {
			return nil, err
		}
		draw(s, kind, graph, states, theme)
		var buf bytes.Buffer
		if err := s.EncodePNG(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case FormatDOT:
		nopts := nodelink.Options{Theme: theme}
		if kind == KindStates {
			return []byte(nodelink.StatesToDOT(states.States, states.Current, nopts)), nil
		}
		return []byte(nodelink.ToDOT(graph, nopts)), nil

	case FormatTXT:
		s := surface.NewTerm(termCols, termRows)
		draw(s, kind, graph, states, theme, TermGeometry(s.Width(), s.Height())...)
		return []byte(s.PlainString()), nil

	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
	}
}

// TermGeometry scales the renderer's pixel-unit defaults down to cell
// units. The stock margin and node radius suit 800x600 canvases; on a
// character grid they would collapse the layout ring to a point.
func TermGeometry(width, height float64) []viz.RendererOption {
	short := math.Min(width, height)
	return []viz.RendererOption{
		viz.WithMargin(short / 6),
		viz.WithNodeRadius(short / 8),
		viz.WithHeadLength(short / 16),
	}
}

// draw renders the requested diagram kind onto a surface.
func draw(s viz.Surface, kind string, graph viz.GraphSnapshot, states viz.StateDiagram, theme viz.Theme, extra ...viz.RendererOption) {
	rend := viz.NewRenderer(s, append([]viz.RendererOption{viz.WithTheme(theme)}, extra...)...)
	if kind == KindStates {
		rend.RenderStateDiagram(states.States, states.Current)
	} else {
		rend.RenderWaitForGraph(graph)
	}
}
