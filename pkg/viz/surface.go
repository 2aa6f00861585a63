package viz

// Color is a CSS-style hex color token ("#rrggbb"). Colors are
// implementation-defined theme constants, not part of the snapshot
// wire contract.
type Color string

// Circle contains all data needed to draw one labeled node circle.
// Coordinates are logical units; the surface transform absorbs any
// device pixel ratio.
type Circle struct {
	X, Y   float64 // Center position
	Radius float64
	Fill   Color
	Stroke Color
	Label  string // Rendered centered inside the circle
	Text   Color  // Label color
}

// Segment contains positioning data for one straight stroke of an
// edge: the shaft or one side of the arrowhead chevron.
type Segment struct {
	X1, Y1, X2, Y2 float64
	Color          Color
	Width          float64 // Stroke width in logical units
}

// Surface is the capability interface every drawing backend implements.
// Width and Height report logical dimensions; all drawing coordinates
// are logical too. Implementations apply any device-pixel-ratio scale
// once at construction.
//
// A surface has a single writer. Implementations perform no locking.
type Surface interface {
	// Clear erases all previously drawn content.
	Clear()
	// FillBackground paints the whole surface with one color.
	FillBackground(c Color)
	// DrawCircleWithLabel draws a filled, outlined circle with a
	// centered text label.
	DrawCircleWithLabel(c Circle)
	// DrawArrowSegment draws one straight line segment of an arrow.
	DrawArrowSegment(s Segment)
	// Width returns the logical width.
	Width() float64
	// Height returns the logical height.
	Height() float64
}
