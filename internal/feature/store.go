package feature

import (
	"iter"

	"github.com/tidefall/geocore/internal/geometry"
)

// Store is an ordered container of features. Insertion order is
// significant for enumeration and index access, not for query results.
//
// The store holds references; it does not own feature lifetime beyond
// that. Duplicate instances (by identity) are rejected, duplicate ids are
// legal.
//
// Thread Safety: read operations are safe for concurrent use by multiple
// readers. Mutation is not safe concurrently with any other operation on
// the same store; see the package documentation.
type Store struct {
	features []*Feature
}

// NewStore creates an empty feature store.
func NewStore() *Store {
	return &Store{features: make([]*Feature, 0)}
}

// NewStoreFromSlice creates a store holding the given features in the
// given order. Nil entries are skipped.
func NewStoreFromSlice(features []*Feature) *Store {
	s := NewStore()
	for _, f := range features {
		if f != nil {
			s.features = append(s.features, f)
		}
	}
	return s
}

// Add appends a feature. Returns ErrNilFeature for nil. A feature instance
// already present (reference identity) is not added twice; the call is a
// no-op in that case.
func (s *Store) Add(f *Feature) error {
	if f == nil {
		return ErrNilFeature
	}
	for _, existing := range s.features {
		if existing == f {
			return nil
		}
	}
	s.features = append(s.features, f)
	return nil
}

// Remove removes the first reference-equal occurrence of the feature.
// Removal is by instance identity, not by id. Returns whether anything
// was removed.
func (s *Store) Remove(f *Feature) bool {
	if f == nil {
		return false
	}
	for i, existing := range s.features {
		if existing == f {
			s.features = append(s.features[:i], s.features[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes all features.
func (s *Store) Clear() {
	s.features = s.features[:0]
}

// Len returns the number of features.
func (s *Store) Len() int { return len(s.features) }

// At returns the feature at an insertion-order index.
// Returns ErrIndexOutOfRange outside [0, Len).
func (s *Store) At(index int) (*Feature, error) {
	if index < 0 || index >= len(s.features) {
		return nil, ErrIndexOutOfRange
	}
	return s.features[index], nil
}

// GetByID returns the first feature whose id equals the given id.
// ok is false when no feature matches.
//
// Duplicate ids are legal in a store and only the first match is returned;
// this is a documented property, not a uniqueness guarantee. The scan is
// O(n): callers needing frequent id lookup should layer an external index
// over this contract.
func (s *Store) GetByID(id string) (*Feature, bool) {
	for _, f := range s.features {
		if f.id == id {
			return f, true
		}
	}
	return nil, false
}

// All returns the features in insertion order as a lazy, restartable
// sequence.
func (s *Store) All() iter.Seq[*Feature] {
	snapshot := s.features
	return func(yield func(*Feature) bool) {
		for _, f := range snapshot {
			if !yield(f) {
				return
			}
		}
	}
}

// InExtent returns the features whose bounding box intersects the query
// envelope. Features without geometry are never returned. The sequence is
// lazy and restartable and does not consume store state.
func (s *Store) InExtent(env geometry.Envelope) iter.Seq[*Feature] {
	snapshot := s.features
	return func(yield func(*Feature) bool) {
		for _, f := range snapshot {
			bbox, ok := f.BoundingBox()
			if !ok || !bbox.Intersects(env) {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}

// FilterByAttribute returns the features having the named attribute equal
// to the given value. Features lacking the attribute are excluded.
func (s *Store) FilterByAttribute(name string, value Value) iter.Seq[*Feature] {
	snapshot := s.features
	return func(yield func(*Feature) bool) {
		for _, f := range snapshot {
			v, ok := f.Attributes().Get(name)
			if !ok || !v.Equal(value) {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}

// FilterByGeometryType returns the features whose geometry has the given
// type. Features without geometry are excluded.
func (s *Store) FilterByGeometryType(gt geometry.GeometryType) iter.Seq[*Feature] {
	snapshot := s.features
	return func(yield func(*Feature) bool) {
		for _, f := range snapshot {
			if f.geom == nil || f.geom.Type() != gt {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}

// Extent returns the union of all feature bounding boxes. ok is false when
// the store is empty or no feature has geometry. The extent is recomputed
// from scratch on each call (O(n)); callers performing repeated extent
// reads after bulk mutation should batch.
func (s *Store) Extent() (geometry.Envelope, bool) {
	var ext geometry.Envelope
	found := false
	for _, f := range s.features {
		bbox, ok := f.BoundingBox()
		if !ok {
			continue
		}
		if !found {
			ext = bbox
			found = true
			continue
		}
		ext = ext.Union(bbox)
	}
	return ext, found
}
