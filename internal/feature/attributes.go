package feature

// AttributeTable is an ordered mapping from attribute name to Value.
//
// Names are case-sensitive and unique. Insertion order is preserved for
// enumeration and index-based access; setting an existing name replaces
// the value in place without moving it.
//
// An AttributeTable is owned exclusively by one Feature and carries no
// internal locking.
type AttributeTable struct {
	names  []string
	values map[string]Value
}

// NewAttributeTable creates an empty attribute table.
func NewAttributeTable() *AttributeTable {
	return &AttributeTable{
		names:  make([]string, 0),
		values: make(map[string]Value),
	}
}

// Set adds or replaces the value for a name. An existing name keeps its
// position in enumeration order. Returns ErrEmptyName for an empty name.
func (t *AttributeTable) Set(name string, value Value) error {
	if name == "" {
		return ErrEmptyName
	}
	if _, exists := t.values[name]; !exists {
		t.names = append(t.names, name)
	}
	t.values[name] = value
	return nil
}

// Get returns the value for a name. ok is false when the name is absent.
func (t *AttributeTable) Get(name string) (Value, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Has reports whether the name is present.
func (t *AttributeTable) Has(name string) bool {
	_, ok := t.values[name]
	return ok
}

// Remove deletes a name and its value, preserving the order of the rest.
// Returns whether anything was removed.
func (t *AttributeTable) Remove(name string) bool {
	if _, ok := t.values[name]; !ok {
		return false
	}
	delete(t.values, name)
	for i, n := range t.names {
		if n == name {
			t.names = append(t.names[:i], t.names[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes all attributes.
func (t *AttributeTable) Clear() {
	t.names = t.names[:0]
	t.values = make(map[string]Value)
}

// Len returns the number of attributes.
func (t *AttributeTable) Len() int { return len(t.names) }

// NameAt returns the attribute name at an insertion-order index.
// Returns ErrIndexOutOfRange outside [0, Len).
func (t *AttributeTable) NameAt(index int) (string, error) {
	if index < 0 || index >= len(t.names) {
		return "", ErrIndexOutOfRange
	}
	return t.names[index], nil
}

// At returns the value at an insertion-order index.
// Returns ErrIndexOutOfRange outside [0, Len).
func (t *AttributeTable) At(index int) (Value, error) {
	name, err := t.NameAt(index)
	if err != nil {
		return Value{}, err
	}
	return t.values[name], nil
}

// Names returns the attribute names in insertion order. The slice is a copy.
func (t *AttributeTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// GetString returns the string attribute for a name.
// Returns ErrValueKind when the value holds a different kind.
func (t *AttributeTable) GetString(name string) (string, error) {
	v, ok := t.values[name]
	if !ok {
		return "", ErrValueKind
	}
	s, ok := v.AsString()
	if !ok {
		return "", ErrValueKind
	}
	return s, nil
}

// GetFloat returns the float attribute for a name.
// Returns ErrValueKind when the value holds a different kind.
func (t *AttributeTable) GetFloat(name string) (float64, error) {
	v, ok := t.values[name]
	if !ok {
		return 0, ErrValueKind
	}
	f, ok := v.AsFloat()
	if !ok {
		return 0, ErrValueKind
	}
	return f, nil
}

// GetInt returns the int attribute for a name.
// Returns ErrValueKind when the value holds a different kind.
func (t *AttributeTable) GetInt(name string) (int64, error) {
	v, ok := t.values[name]
	if !ok {
		return 0, ErrValueKind
	}
	i, ok := v.AsInt()
	if !ok {
		return 0, ErrValueKind
	}
	return i, nil
}

// GetBool returns the bool attribute for a name.
// Returns ErrValueKind when the value holds a different kind.
func (t *AttributeTable) GetBool(name string) (bool, error) {
	v, ok := t.values[name]
	if !ok {
		return false, ErrValueKind
	}
	b, ok := v.AsBool()
	if !ok {
		return false, ErrValueKind
	}
	return b, nil
}

// DeepCopy creates an independent copy of the table. Values are immutable,
// so copying the name order and the map is sufficient.
func (t *AttributeTable) DeepCopy() *AttributeTable {
	cpy := &AttributeTable{
		names:  make([]string, len(t.names)),
		values: make(map[string]Value, len(t.values)),
	}
	copy(cpy.names, t.names)
	for k, v := range t.values {
		cpy.values[k] = v
	}
	return cpy
}
