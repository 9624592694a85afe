package domain

import (
	"unique"

	"github.com/google/uuid"
)

// TaskID identifies a task within a graph. Identifiers are interned so that
// comparisons and map lookups on hot scheduler paths stay cheap.
type TaskID struct {
	h unique.Handle[string]
}

// NewTaskID interns s as a TaskID.
func NewTaskID(s string) TaskID {
	return TaskID{h: unique.Make(s)}
}

// NewTaskIDs interns every element of s.
func NewTaskIDs(s []string) []TaskID {
	res := make([]TaskID, len(s))
	for i, v := range s {
		res[i] = NewTaskID(v)
	}
	return res
}

// GenerateTaskID returns a fresh random identifier.
func GenerateTaskID() TaskID {
	return NewTaskID(uuid.NewString())
}

// String returns the identifier text.
func (id TaskID) String() string {
	var zero unique.Handle[string]
	if id.h == zero {
		return ""
	}
	return id.h.Value()
}

// IsZero reports whether the identifier was never set.
func (id TaskID) IsZero() bool {
	var zero unique.Handle[string]
	return id.h == zero
}

// MarshalText implements encoding.TextMarshaler.
func (id TaskID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *TaskID) UnmarshalText(text []byte) error {
	id.h = unique.Make(string(text))
	return nil
}
