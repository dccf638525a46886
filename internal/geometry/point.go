package geometry

import "math"

// Point is a minimal concrete geometry: a single coordinate pair.
//
// It exists so that built-in data providers can materialise features read
// from coordinate columns without pulling in an external geometry library.
// Everything beyond a point (lines, polygons) comes from external Geometry
// implementations.
type Point struct {
	X float64
	Y float64
}

// NewPoint creates a point geometry.
func NewPoint(x, y float64) *Point {
	return &Point{X: x, Y: y}
}

// Envelope returns the degenerate envelope covering the point.
func (p *Point) Envelope() Envelope {
	return PointEnvelope(p.X, p.Y)
}

// Intersects reports whether the point lies within the envelope.
func (p *Point) Intersects(env Envelope) bool {
	return env.Contains(p.X, p.Y)
}

// Distance returns the Euclidean distance between the point and the
// nearest corner-constrained location of the other geometry's envelope.
// For two points this is the exact point distance.
func (p *Point) Distance(other Geometry) float64 {
	if other == nil {
		return math.NaN()
	}
	if op, ok := other.(*Point); ok {
		return math.Hypot(p.X-op.X, p.Y-op.Y)
	}
	env := other.Envelope()
	dx := axisDistance(p.X, env.MinX, env.MaxX)
	dy := axisDistance(p.Y, env.MinY, env.MaxY)
	return math.Hypot(dx, dy)
}

// Copy returns an independently owned copy of the point.
func (p *Point) Copy() Geometry {
	cpy := *p
	return &cpy
}

// Type returns TypePoint.
func (p *Point) Type() GeometryType { return TypePoint }

// IsValid reports whether both coordinates are finite numbers.
func (p *Point) IsValid() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// axisDistance returns the distance from v to the interval [lo, hi],
// zero when v lies inside it.
func axisDistance(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}
