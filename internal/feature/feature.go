package feature

import (
	"github.com/google/uuid"

	"github.com/tidefall/geocore/internal/geometry"
)

// Style carries rendering hints for a feature. It is intentionally opaque
// to the engine: renderer plugins interpret it. A single Style may be
// shared by many features, so callers must treat it as immutable once
// assigned.
type Style struct {
	Name       string
	Properties map[string]string
}

// Feature is the atomic unit of spatial data: an immutable identity, an
// optional exclusively-owned geometry, exactly one attribute table and an
// optional shared style.
//
// The id is the sole basis of equality and is fixed at construction.
type Feature struct {
	id    string
	geom  geometry.Geometry
	attrs *AttributeTable
	style *Style
}

// New creates a feature with a freshly generated unique id and an empty
// attribute table.
func New() *Feature {
	return NewWithID(uuid.NewString())
}

// NewWithID creates a feature with the given id. An empty id is replaced
// with a freshly generated one.
func NewWithID(id string) *Feature {
	if id == "" {
		id = uuid.NewString()
	}
	return &Feature{
		id:    id,
		attrs: NewAttributeTable(),
	}
}

// ID returns the feature identity. It never changes after construction.
func (f *Feature) ID() string { return f.id }

// Geometry returns the feature geometry, nil when absent.
func (f *Feature) Geometry() geometry.Geometry { return f.geom }

// SetGeometry assigns the geometry. The feature takes exclusive ownership;
// nil clears it.
func (f *Feature) SetGeometry(g geometry.Geometry) { f.geom = g }

// Attributes returns the feature's attribute table. Never nil.
func (f *Feature) Attributes() *AttributeTable { return f.attrs }

// Style returns the shared style, nil when absent.
func (f *Feature) Style() *Style { return f.style }

// SetStyle assigns the shared style. Many features may reference the same
// Style instance.
func (f *Feature) SetStyle(s *Style) { f.style = s }

// IsValid reports whether the feature is valid: true when geometry is
// absent or reports itself valid.
func (f *Feature) IsValid() bool {
	return f.geom == nil || f.geom.IsValid()
}

// BoundingBox returns the geometry envelope. It is derived, never stored;
// ok is false when the feature has no geometry.
func (f *Feature) BoundingBox() (geometry.Envelope, bool) {
	if f.geom == nil {
		return geometry.Envelope{}, false
	}
	return f.geom.Envelope(), true
}

// Equal reports identity equality: two features are equal when their ids
// are equal, regardless of geometry or attributes.
func (f *Feature) Equal(other *Feature) bool {
	return other != nil && f.id == other.id
}

// Copy produces a new Feature sharing the same id with independently owned
// deep copies of geometry and attributes. The style reference is shared.
//
// Keeping the id is intentional: Copy duplicates content, not identity.
// Callers that need a new feature must assign a fresh identity afterward,
// for example feature.NewWithID(uuid.NewString()) populated from the copy.
func (f *Feature) Copy() *Feature {
	cpy := &Feature{
		id:    f.id,
		attrs: f.attrs.DeepCopy(),
		style: f.style,
	}
	if f.geom != nil {
		cpy.geom = f.geom.Copy()
	}
	return cpy
}

// Transform replaces the geometry in place with the transformed result.
// Attributes and style are untouched. A feature without geometry is left
// unchanged. Returns ErrNilTransformer when t is nil.
func (f *Feature) Transform(t geometry.Transformer) error {
	if t == nil {
		return ErrNilTransformer
	}
	if f.geom == nil {
		return nil
	}
	out, err := t.Transform(f.geom)
	if err != nil {
		return err
	}
	f.geom = out
	return nil
}
