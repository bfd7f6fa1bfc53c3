// Package optional provides a JSON field wrapper that distinguishes an absent
// field from an explicit null.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value is a field of a partial update request.
// Present reports whether the field appeared in the payload; Valid is false
// when it appeared as null.
type Value[T any] struct {
	Present bool
	Valid   bool
	V       T
}

// Of returns a present, non-null Value holding v.
func Of[T any](v T) Value[T] {
	return Value[T]{Present: true, Valid: true, V: v}
}

// Null returns a present Value that clears the field.
func Null[T any]() Value[T] {
	return Value[T]{Present: true}
}

// Ptr returns nil for null and a pointer to the value otherwise.
func (v Value[T]) Ptr() *T {
	if !v.Valid {
		return nil
	}
	out := v.V
	return &out
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	v.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		v.Valid = false
		var zero T
		v.V = zero
		return nil
	}
	if err := json.Unmarshal(data, &v.V); err != nil {
		return err
	}
	v.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}
