package pipeline

import "encoding/json"

// Field holds a derived value that may be written at most once.
// The zero value is unset.
type Field[T any] struct {
	value T
	set   bool
}

// Set stores v. It returns ErrFieldSet if the field already holds a value.
func (f *Field[T]) Set(v T) error {
	if f.set {
		return ErrFieldSet
	}
	f.value = v
	f.set = true
	return nil
}

// Get returns the value and whether it has been set.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}

// Value returns the value, or the zero value of T when unset.
func (f Field[T]) Value() T {
	return f.value
}

// IsSet reports whether the field has been written.
func (f Field[T]) IsSet() bool {
	return f.set
}

// MarshalJSON encodes an unset field as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
