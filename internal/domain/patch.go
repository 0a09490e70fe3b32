package domain

import "encoding/json"

// Field is one member of a patch request. Set is false when the key was absent,
// Null is true when the key was present with a JSON null.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](value T) Field[T] {
	return Field[T]{Set: true, Value: value}
}

func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// HasValue reports whether the patch sets a non-null value.
func (f Field[T]) HasValue() bool {
	return f.Set && !f.Null
}

// Apply writes the patch into a required field. A null patch is reported
// through the returned bool so callers can reject it.
func (f Field[T]) Apply(dst *T) bool {
	if !f.Set {
		return true
	}
	if f.Null {
		return false
	}
	*dst = f.Value
	return true
}

// ApplyNullable writes the patch into an optional field, clearing it on null.
func (f Field[T]) ApplyNullable(dst **T) {
	if !f.Set {
		return
	}
	if f.Null {
		*dst = nil
		return
	}
	value := f.Value
	*dst = &value
}
