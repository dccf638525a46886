package plugin

import "sort"

// Type is a plugin category. A plugin may occupy several categories
// simultaneously; membership is carried by a TypeSet.
type Type string

// Plugin type constants.
const (
	TypeTool         Type = "tool"
	TypeDataProvider Type = "data_provider"
	TypeAnalysis     Type = "analysis"
	TypeRenderer     Type = "renderer"
	TypeConverter    Type = "converter"
	TypeUIExtension  Type = "ui_extension"
	TypeService      Type = "service"
)

// AllTypes returns all valid plugin type values.
func AllTypes() []Type {
	return []Type{
		TypeTool, TypeDataProvider, TypeAnalysis, TypeRenderer,
		TypeConverter, TypeUIExtension, TypeService,
	}
}

// TypeSet is an explicit set over plugin types. The zero value is the
// empty set and is usable.
type TypeSet map[Type]struct{}

// NewTypeSet builds a set from the given types.
func NewTypeSet(types ...Type) TypeSet {
	s := make(TypeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// Has reports set membership.
func (s TypeSet) Has(t Type) bool {
	_, ok := s[t]
	return ok
}

// Union returns a new set containing the members of both sets.
func (s TypeSet) Union(other TypeSet) TypeSet {
	out := make(TypeSet, len(s)+len(other))
	for t := range s {
		out[t] = struct{}{}
	}
	for t := range other {
		out[t] = struct{}{}
	}
	return out
}

// List returns the members in lexical order.
func (s TypeSet) List() []Type {
	out := make([]Type, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ProviderCapability is an optional data-provider operation.
type ProviderCapability string

// Data-provider capability constants.
const (
	CapRead           ProviderCapability = "read"
	CapWrite          ProviderCapability = "write"
	CapCreate         ProviderCapability = "create"
	CapDelete         ProviderCapability = "delete"
	CapSpatialIndex   ProviderCapability = "spatial_index"
	CapAttributeIndex ProviderCapability = "attribute_index"
	CapTransaction    ProviderCapability = "transaction"
	CapBulkInsert     ProviderCapability = "bulk_insert"
)

// AllProviderCapabilities returns all valid capability values.
func AllProviderCapabilities() []ProviderCapability {
	return []ProviderCapability{
		CapRead, CapWrite, CapCreate, CapDelete,
		CapSpatialIndex, CapAttributeIndex, CapTransaction, CapBulkInsert,
	}
}

// CapabilitySet is an explicit set over provider capabilities.
type CapabilitySet map[ProviderCapability]struct{}

// NewCapabilitySet builds a set from the given capabilities.
func NewCapabilitySet(caps ...ProviderCapability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Has reports set membership.
func (s CapabilitySet) Has(c ProviderCapability) bool {
	_, ok := s[c]
	return ok
}

// Union returns a new set containing the members of both sets.
func (s CapabilitySet) Union(other CapabilitySet) CapabilitySet {
	out := make(CapabilitySet, len(s)+len(other))
	for c := range s {
		out[c] = struct{}{}
	}
	for c := range other {
		out[c] = struct{}{}
	}
	return out
}

// List returns the members in lexical order.
func (s CapabilitySet) List() []ProviderCapability {
	out := make([]ProviderCapability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
