package enums

import (
	"fmt"
	"slices"
)

// set is the closed, ordered list of values for one enum type. Parsing is
// case sensitive; callers normalise input first.
type set[T ~string] struct {
	label  string
	values []T
}

func newSet[T ~string](label string, values ...T) set[T] {
	return set[T]{label: label, values: values}
}

func (s set[T]) has(v T) bool { return slices.Contains(s.values, v) }

// rank is the position of v in declaration order, or -1.
func (s set[T]) rank(v T) int { return slices.Index(s.values, v) }

func (s set[T]) parse(raw string) (T, error) {
	if v := T(raw); s.has(v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", s.label, raw)
}
