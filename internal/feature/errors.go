package feature

import "errors"

// Domain errors for the feature package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, feature.ErrNilFeature) {
//	    // handle invalid argument
//	}
//
// Absence is not an error in this package: lookups that find nothing
// return ok=false or an empty sequence.
var (
	// ErrNilFeature is returned when a nil feature is passed where one is required.
	ErrNilFeature = errors.New("feature: nil feature")

	// ErrEmptyName is returned when an attribute name is empty.
	ErrEmptyName = errors.New("feature: empty attribute name")

	// ErrIndexOutOfRange is returned by index-based access outside [0, Len).
	ErrIndexOutOfRange = errors.New("feature: index out of range")

	// ErrNilTransformer is returned when Transform is called with a nil transformer.
	ErrNilTransformer = errors.New("feature: nil transformer")

	// ErrValueKind is returned by typed accessors when the stored value has
	// a different kind.
	ErrValueKind = errors.New("feature: value kind mismatch")
)
