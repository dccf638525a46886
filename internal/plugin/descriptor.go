package plugin

import "fmt"

// Descriptor describes a plugin's identity and requirements. It is
// immutable once the plugin is registered.
type Descriptor struct {
	// ID uniquely identifies the plugin and is stable across versions.
	ID string

	// Name is the human-readable display name.
	Name string

	// Description is a short description of what the plugin does.
	Description string

	// Version is the plugin's semantic version.
	Version string

	// Author names the plugin's author or organisation.
	Author string

	// MinEngineVersion is the lowest host version the plugin accepts.
	// Empty means any host version.
	MinEngineVersion string

	// Dependencies lists the plugin ids that must be started before this
	// plugin initializes, in declaration order.
	Dependencies []string

	// Types declares the categories the plugin occupies.
	Types TypeSet
}

// Validate checks that the descriptor is well-formed: non-empty id,
// parseable versions and no self-dependency.
func (d Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: empty plugin id", ErrInvalidArgument)
	}
	if d.Version == "" {
		return fmt.Errorf("%w: plugin %q has no version", ErrInvalidArgument, d.ID)
	}
	if _, err := ParseVersion(d.Version); err != nil {
		return fmt.Errorf("plugin %q version: %w", d.ID, err)
	}
	if d.MinEngineVersion != "" {
		if _, err := ParseVersion(d.MinEngineVersion); err != nil {
			return fmt.Errorf("plugin %q min engine version: %w", d.ID, err)
		}
	}
	for _, dep := range d.Dependencies {
		if dep == d.ID {
			return fmt.Errorf("%w: plugin %q depends on itself", ErrDependency, d.ID)
		}
		if dep == "" {
			return fmt.Errorf("%w: plugin %q has an empty dependency id", ErrInvalidArgument, d.ID)
		}
	}
	return nil
}

// Clone returns an independent copy of the descriptor.
func (d Descriptor) Clone() Descriptor {
	out := d
	if d.Dependencies != nil {
		out.Dependencies = make([]string, len(d.Dependencies))
		copy(out.Dependencies, d.Dependencies)
	}
	if d.Types != nil {
		out.Types = d.Types.Union(nil)
	}
	return out
}

// String returns "name vVersion" for logging.
func (d Descriptor) String() string {
	name := d.Name
	if name == "" {
		name = d.ID
	}
	return fmt.Sprintf("%s v%s", name, d.Version)
}
