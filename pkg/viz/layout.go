package viz

import "math"

// DefaultMargin is the default distance in logical units kept between
// the layout circle and the nearest surface edge.
const DefaultMargin = 50.0

// Point is a position in logical drawing units.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// ComputeCircularLayout places ids evenly on a circle centered in a
// surface of the given logical dimensions.
//
// The center is (width/2, height/2) and the radius is
// min(width/2, height/2) - margin, clamped to zero. Position i of n is
// placed at angle 2π·i/n, so layout is deterministic in input order:
// reordering ids reorders the ring.
//
// An empty id slice returns an empty map. A single id is placed at
// angle 0 on the radius, not at the center, keeping the contract
// uniform across n.
func ComputeCircularLayout(ids []string, width, height, margin float64) map[string]Point {
	positions := make(map[string]Point, len(ids))
	if len(ids) == 0 {
		return positions
	}

	cx := width / 2
	cy := height / 2
	radius := math.Min(width/2, height/2) - margin
	if radius < 0 {
		radius = 0
	}

	n := float64(len(ids))
	for i, id := range ids {
		angle := 2 * math.Pi * float64(i) / n
		positions[id] = Point{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		}
	}
	return positions
}
