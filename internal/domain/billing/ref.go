package billing

import (
	"bytes"
	"encoding/json"

	ierr "github.com/flexprice/curbside/internal/errors"
)

// Ref is a provider field that arrives either as a bare id or as the expanded
// object. The zero value is an absent reference.
type Ref[T any] struct {
	id       string
	expanded *T
}

// Reference returns a Ref that carries only an id
func Reference[T any](id string) Ref[T] {
	return Ref[T]{id: id}
}

// Expanded returns a Ref that carries the full object
func Expanded[T any](id string, obj *T) Ref[T] {
	return Ref[T]{id: id, expanded: obj}
}

// ID returns the referenced id, empty when absent
func (r Ref[T]) ID() string {
	return r.id
}

// Get narrows the reference to the expanded object
func (r Ref[T]) Get() (*T, bool) {
	return r.expanded, r.expanded != nil
}

// IsZero reports whether nothing is referenced
func (r Ref[T]) IsZero() bool {
	return r.id == "" && r.expanded == nil
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.expanded != nil {
		return json.Marshal(r.expanded)
	}
	if r.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.id)
}

func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = Ref[T]{}

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		return json.Unmarshal(data, &r.id)
	case data[0] == '{':
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &head); err != nil {
			return err
		}
		var obj T
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		r.id = head.ID
		r.expanded = &obj
		return nil
	default:
		return ierr.NewErrorf("reference must be a string or an object, got %s", string(data[:1])).
			Mark(ierr.ErrValidation)
	}
}
