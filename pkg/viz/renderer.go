package viz

import "math"

// Geometry defaults in logical units.
const (
	DefaultNodeRadius = 24.0
	DefaultHeadLength = 10.0
	DefaultLineWidth  = 2.0
)

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithTheme sets the color theme.
func WithTheme(t Theme) RendererOption { return func(r *Renderer) { r.theme = t } }

// WithNodeRadius sets the node circle radius in logical units.
func WithNodeRadius(radius float64) RendererOption {
	return func(r *Renderer) { r.nodeRadius = radius }
}

// WithMargin sets the distance between the layout circle and the
// nearest surface edge.
func WithMargin(margin float64) RendererOption { return func(r *Renderer) { r.margin = margin } }

// WithHeadLength sets the arrow head stroke length in logical units.
func WithHeadLength(l float64) RendererOption { return func(r *Renderer) { r.headLen = l } }

// Renderer draws wait-for graphs and state diagrams onto one surface.
//
// Every render call is layout then draw, fully synchronous, with no
// state retained across calls, so rendering the same snapshot twice
// produces identical output. Renderers hold no locks; the caller
// serializes renders on a surface.
type Renderer struct {
	surface    Surface
	theme      Theme
	nodeRadius float64
	headLen    float64
	lineWidth  float64
	margin     float64
}

// NewRenderer binds a renderer to a surface. A nil surface yields an
// inert renderer whose render methods do nothing, so hosts without a
// drawing backend need not guard call sites.
func NewRenderer(s Surface, opts ...RendererOption) *Renderer {
	r := &Renderer{
		surface:    s,
		theme:      DefaultTheme(),
		nodeRadius: DefaultNodeRadius,
		headLen:    DefaultHeadLength,
		lineWidth:  DefaultLineWidth,
		margin:     DefaultMargin,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Theme returns the renderer's color theme.
func (r *Renderer) Theme() Theme { return r.theme }

// RenderWaitForGraph draws the snapshot as a ring of process nodes
// connected by arrow-tipped wait-for edges.
//
// The surface is cleared and repainted first, so no stale frame content
// survives. Edges whose endpoints are not both in the node set are
// dropped silently; the snapshot producer is not fully trusted by this
// layer. Nodes in the deadlocked set are filled with the alert color.
func (r *Renderer) RenderWaitForGraph(snap GraphSnapshot) {
	if r.surface == nil {
		return
	}
	s := r.surface
	s.Clear()
	s.FillBackground(r.theme.Background)

	pos := ComputeCircularLayout(snap.Nodes, s.Width(), s.Height(), r.margin)

	for _, e := range snap.Edges {
		from, okF := pos[e.From]
		to, okT := pos[e.To]
		if !okF || !okT {
			continue
		}
		r.drawArrow(from, to)
	}

	for _, id := range snap.Nodes {
		fill := r.theme.Node
		if snap.IsDeadlocked(id) {
			fill = r.theme.NodeAlert
		}
		r.drawNode(pos[id], id, fill)
	}
}

// RenderStateDiagram draws the states as a ring of nodes with no
// edges. The state equal to current is filled with the active color,
// all others with the idle color. When current matches no state, no
// node is marked active; that is not an error.
func (r *Renderer) RenderStateDiagram(states StateList, current string) {
	if r.surface == nil {
		return
	}
	s := r.surface
	s.Clear()
	s.FillBackground(r.theme.Background)

	pos := ComputeCircularLayout(states, s.Width(), s.Height(), r.margin)

	for _, id := range states {
		fill := r.theme.NodeIdle
		if id == current {
			fill = r.theme.NodeActive
		}
		r.drawNode(pos[id], id, fill)
	}
}

func (r *Renderer) drawNode(p Point, label string, fill Color) {
	r.surface.DrawCircleWithLabel(Circle{
		X:      p.X,
		Y:      p.Y,
		Radius: r.nodeRadius,
		Fill:   fill,
		Stroke: r.theme.Stroke,
		Label:  label,
		Text:   r.theme.Label,
	})
}

// drawArrow draws a directed edge between two node centers: a shaft
// pulled in by the node radius at both ends so it touches the circle
// boundaries, plus a chevron head of two strokes rotated ±30 degrees
// off the reversed shaft angle.
func (r *Renderer) drawArrow(from, to Point) {
	angle := math.Atan2(to.Y-from.Y, to.X-from.X)

	sx := from.X + r.nodeRadius*math.Cos(angle)
	sy := from.Y + r.nodeRadius*math.Sin(angle)
	ex := to.X - r.nodeRadius*math.Cos(angle)
	ey := to.Y - r.nodeRadius*math.Sin(angle)

	r.stroke(sx, sy, ex, ey)
	r.stroke(ex, ey,
		ex-r.headLen*math.Cos(angle-math.Pi/6),
		ey-r.headLen*math.Sin(angle-math.Pi/6))
	r.stroke(ex, ey,
		ex-r.headLen*math.Cos(angle+math.Pi/6),
		ey-r.headLen*math.Sin(angle+math.Pi/6))
}

func (r *Renderer) stroke(x1, y1, x2, y2 float64) {
	r.surface.DrawArrowSegment(Segment{
		X1: x1, Y1: y1, X2: x2, Y2: y2,
		Color: r.theme.Edge,
		Width: r.lineWidth,
	})
}
