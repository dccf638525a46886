package geometry

// GeometryType classifies a geometry for type-based filtering.
type GeometryType string //nolint:revive // geometry.GeometryType is clearer than geometry.Type in calling code

// Geometry type constants.
const (
	TypePoint           GeometryType = "point"
	TypeMultiPoint      GeometryType = "multipoint"
	TypeLineString      GeometryType = "linestring"
	TypeMultiLineString GeometryType = "multilinestring"
	TypePolygon         GeometryType = "polygon"
	TypeMultiPolygon    GeometryType = "multipolygon"
	TypeCollection      GeometryType = "collection"
)

// AllGeometryTypes returns all valid geometry type values.
func AllGeometryTypes() []GeometryType {
	return []GeometryType{
		TypePoint, TypeMultiPoint, TypeLineString, TypeMultiLineString,
		TypePolygon, TypeMultiPolygon, TypeCollection,
	}
}

// Geometry is the opaque shape capability implemented by external geometry
// libraries. The engine never inspects coordinates beyond the envelope.
type Geometry interface {
	// Envelope returns the minimal axis-aligned bounding rectangle.
	Envelope() Envelope

	// Intersects reports whether the geometry intersects the envelope.
	Intersects(env Envelope) bool

	// Distance returns the distance to another geometry.
	Distance(other Geometry) float64

	// Copy returns an independently owned deep copy.
	Copy() Geometry

	// Type returns the geometry classification.
	Type() GeometryType

	// IsValid reports whether the geometry is well-formed.
	IsValid() bool
}

// Transformer is the coordinate transformation capability. Implementations
// must not mutate the input geometry; they return a transformed copy.
type Transformer interface {
	Transform(g Geometry) (Geometry, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(g Geometry) (Geometry, error)

// Transform implements Transformer.
func (f TransformerFunc) Transform(g Geometry) (Geometry, error) { return f(g) }
