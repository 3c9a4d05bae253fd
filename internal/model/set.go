package model

import (
	"encoding/json"
	"sort"
)

// StringSet is an unordered collection of unique strings.
//
// It marshals to a sorted JSON array so that the persisted representation
// is deterministic, and it never marshals to null.
type StringSet map[string]struct{}

// NewStringSet creates a set containing the given values.
// Duplicate values are collapsed.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts a value into the set.
func (s StringSet) Add(value string) {
	s[value] = struct{}{}
}

// Contains reports whether value is a member of the set.
func (s StringSet) Contains(value string) bool {
	_, ok := s[value]
	return ok
}

// Len returns the number of members.
func (s StringSet) Len() int {
	return len(s)
}

// Values returns the members in sorted order.
// The order carries no meaning; sorting only keeps output stable.
func (s StringSet) Values() []string {
	values := make([]string, 0, len(s))
	for v := range s {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Equal reports whether both sets have exactly the same members.
func (s StringSet) Equal(other StringSet) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted JSON array.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON decodes a JSON array into the set, collapsing duplicates.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewStringSet(values...)
	return nil
}
