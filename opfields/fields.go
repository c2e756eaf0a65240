// Package opfields implements OperationFields, the ordered name/value
// container attached to CREATE and UPDATE operations.
package opfields

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/lw64/graphdoc/opvalue"
)

// ErrFieldDuplicate is returned by Add when the field name is already
// present.
var ErrFieldDuplicate = errors.New("field already exists")

// ErrUnknownField is returned by Update and Remove when the field name is
// not present.
var ErrUnknownField = errors.New("unknown field")

// Fields is an ordered set of named OperationValues. Keys always iterate in
// sorted order regardless of insertion order, which is what gives the
// canonical encoder a deterministic byte representation for free.
type Fields struct {
	values map[string]opvalue.Value
}

// New returns an empty Fields container.
func New() *Fields {
	return &Fields{values: make(map[string]opvalue.Value)}
}

// Len reports the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.values)
}

// IsEmpty reports whether the container has no fields.
func (f *Fields) IsEmpty() bool {
	return f.Len() == 0
}

// Add inserts a new field. It returns ErrFieldDuplicate if name is already
// present.
func (f *Fields) Add(name string, value opvalue.Value) error {
	if _, exists := f.values[name]; exists {
		return fmt.Errorf("%w: %q", ErrFieldDuplicate, name)
	}
	f.values[name] = value
	return nil
}

// Update overwrites an existing field's value. It returns ErrUnknownField if
// name is not present.
func (f *Fields) Update(name string, value opvalue.Value) error {
	if _, exists := f.values[name]; !exists {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	f.values[name] = value
	return nil
}

// Remove deletes a field. It returns ErrUnknownField if name is not present.
func (f *Fields) Remove(name string) error {
	if _, exists := f.values[name]; !exists {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	delete(f.values, name)
	return nil
}

// Get returns the field's value and whether it was present.
func (f *Fields) Get(name string) (opvalue.Value, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Keys returns the field names in sorted order.
func (f *Fields) Keys() []string {
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Iter calls fn for each field in sorted key order, stopping early if fn
// returns false.
func (f *Fields) Iter(fn func(name string, value opvalue.Value) bool) {
	for _, k := range f.Keys() {
		if !fn(k, f.values[k]) {
			return
		}
	}
}

// Equal reports whether two Fields hold the same name/value pairs.
func (f *Fields) Equal(other *Fields) bool {
	if f.Len() != other.Len() {
		return false
	}
	for k, v := range f.values {
		ov, ok := other.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalCBOR encodes the fields as a CBOR map using its own canonical
// encoding mode, whatever mode the outer encoder uses. The map keys are
// ordered by canonical CBOR's rule (shorter keys first, then bytewise), not
// by the Keys/Iter order, and that ordering gives identical byte output
// regardless of how the fields were built up.
func (f *Fields) MarshalCBOR() ([]byte, error) {
	ordered := make(map[string]opvalue.Value, len(f.values))
	for k, v := range f.values {
		if !v.IsValid() {
			return nil, fmt.Errorf("%w: field %q has no value", ErrUnknownField, k)
		}
		ordered[k] = v
	}
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return mode.Marshal(ordered)
}

// UnmarshalCBOR decodes a field map.
func (f *Fields) UnmarshalCBOR(data []byte) error {
	var raw map[string]opvalue.Value
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.values = raw
	if f.values == nil {
		f.values = make(map[string]opvalue.Value)
	}
	return nil
}
