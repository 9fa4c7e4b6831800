package models

import (
	"encoding/json"
	"strings"
)

// Nullable tracks three states of a field in a partial-update payload:
// absent (Set false), explicit null (Set true, Valid false), or a value.
type Nullable[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if strings.TrimSpace(string(data)) == "null" {
		n.Valid = false
		var zero T
		n.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Ptr returns nil for null and a pointer to the value otherwise.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// Column returns the value to hand to a gorm Updates map: nil for null.
func (n Nullable[T]) Column() any {
	if !n.Valid {
		return nil
	}
	return n.Value
}
