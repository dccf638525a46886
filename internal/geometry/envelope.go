package geometry

import "fmt"

// Envelope is an axis-aligned bounding rectangle in coordinate space.
//
// The zero Envelope is not meaningful; use NewEnvelope or start from a
// geometry's Envelope(). An Envelope is a value type and is never mutated
// in place: operations return new envelopes.
type Envelope struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewEnvelope creates an envelope from two corner coordinates.
// The corners may be given in any order; the result is normalised.
func NewEnvelope(x1, y1, x2, y2 float64) Envelope {
	e := Envelope{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
	if e.MinX > e.MaxX {
		e.MinX, e.MaxX = e.MaxX, e.MinX
	}
	if e.MinY > e.MaxY {
		e.MinY, e.MaxY = e.MaxY, e.MinY
	}
	return e
}

// PointEnvelope creates the degenerate envelope covering a single coordinate.
func PointEnvelope(x, y float64) Envelope {
	return Envelope{MinX: x, MinY: y, MaxX: x, MaxY: y}
}

// Intersects reports whether the two envelopes share any point.
// Touching edges count as intersecting.
func (e Envelope) Intersects(other Envelope) bool {
	return e.MinX <= other.MaxX && e.MaxX >= other.MinX &&
		e.MinY <= other.MaxY && e.MaxY >= other.MinY
}

// Contains reports whether the coordinate lies inside or on the boundary.
func (e Envelope) Contains(x, y float64) bool {
	return x >= e.MinX && x <= e.MaxX && y >= e.MinY && y <= e.MaxY
}

// Union returns the smallest envelope covering both envelopes.
func (e Envelope) Union(other Envelope) Envelope {
	out := e
	if other.MinX < out.MinX {
		out.MinX = other.MinX
	}
	if other.MinY < out.MinY {
		out.MinY = other.MinY
	}
	if other.MaxX > out.MaxX {
		out.MaxX = other.MaxX
	}
	if other.MaxY > out.MaxY {
		out.MaxY = other.MaxY
	}
	return out
}

// Width returns the horizontal extent.
func (e Envelope) Width() float64 { return e.MaxX - e.MinX }

// Height returns the vertical extent.
func (e Envelope) Height() float64 { return e.MaxY - e.MinY }

// String returns a compact representation for logging.
func (e Envelope) String() string {
	return fmt.Sprintf("[%g %g, %g %g]", e.MinX, e.MinY, e.MaxX, e.MaxY)
}
