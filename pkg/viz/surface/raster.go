package surface

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
)

const (
	rasterFontSize    = 13.0
	rasterStrokeWidth = 2.0
)

// Raster is a software-rendered RGBA surface. The physical buffer is
// the logical size multiplied by the pixel ratio; a one-time scale
// transform applied at construction keeps all drawing coordinates in
// logical units.
type Raster struct {
	dc            *gg.Context
	width, height float64
	ratio         float64
}

var _ viz.Surface = (*Raster)(nil)

// NewRaster allocates a raster surface with the given logical size and
// device pixel ratio. A ratio of 2 doubles the physical resolution
// without changing any drawing coordinates. Ratios <= 0 fall back to 1.
func NewRaster(width, height float64, ratio float64) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster surface needs positive dimensions, got %gx%g", width, height)
	}
	if ratio <= 0 {
		ratio = 1
	}

	dc := gg.NewContext(int(math.Round(width*ratio)), int(math.Round(height*ratio)))
	dc.Scale(ratio, ratio)

	fnt, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse embedded font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(fnt, &truetype.Options{
		Size:    rasterFontSize * ratio,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	return &Raster{dc: dc, width: width, height: height, ratio: ratio}, nil
}

// Clear erases the buffer to opaque white.
func (r *Raster) Clear() {
	r.dc.SetHexColor("#ffffff")
	r.dc.Clear()
}

// FillBackground paints the full logical area with one color.
func (r *Raster) FillBackground(c viz.Color) {
	r.dc.SetHexColor(string(c))
	r.dc.DrawRectangle(0, 0, r.width, r.height)
	r.dc.Fill()
}

// DrawCircleWithLabel draws a filled, outlined circle with centered text.
func (r *Raster) DrawCircleWithLabel(c viz.Circle) {
	r.dc.SetHexColor(string(c.Fill))
	r.dc.DrawCircle(c.X, c.Y, c.Radius)
	r.dc.FillPreserve()

	r.dc.SetHexColor(string(c.Stroke))
	r.dc.SetLineWidth(rasterStrokeWidth)
	r.dc.Stroke()

	if c.Label != "" {
		r.dc.SetHexColor(string(c.Text))
		r.drawStringCentered(c.Label, c.X, c.Y)
	}
}

// drawStringCentered anchors text at its visual center. The font face
// is sized for physical pixels, so measurement happens outside the
// logical transform.
func (r *Raster) drawStringCentered(s string, x, y float64) {
	w, h := r.dc.MeasureString(s)
	r.dc.DrawString(s, x-w/(2*r.ratio), y+h/(2*r.ratio)*0.7)
}

// DrawArrowSegment strokes one straight line segment.
func (r *Raster) DrawArrowSegment(s viz.Segment) {
	r.dc.SetHexColor(string(s.Color))
	r.dc.SetLineWidth(s.Width)
	r.dc.DrawLine(s.X1, s.Y1, s.X2, s.Y2)
	r.dc.Stroke()
}

// Width returns the logical width.
func (r *Raster) Width() float64 { return r.width }

// Height returns the logical height.
func (r *Raster) Height() float64 { return r.height }

// Ratio returns the device pixel ratio applied at construction.
func (r *Raster) Ratio() float64 { return r.ratio }

// Image returns the backing image at physical resolution.
func (r *Raster) Image() image.Image { return r.dc.Image() }

// EncodePNG writes the surface content as PNG.
func (r *Raster) EncodePNG(w io.Writer) error { return r.dc.EncodePNG(w) }

// SavePNG writes the surface content to a PNG file.
func (r *Raster) SavePNG(path string) error { return r.dc.SavePNG(path) }
