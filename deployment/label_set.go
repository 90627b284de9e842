package deployment

import (
	"maps"
	"slices"
	"strings"
)

// LabelSet represents a set of labels on an address book entry.
type LabelSet map[string]struct{}

// NewLabelSet initializes a new LabelSet with any number of labels.
func NewLabelSet(labels ...string) LabelSet {
	set := make(LabelSet, len(labels))
	set.Add(labels...)

	return set
}

// Add inserts labels into the set.
func (s LabelSet) Add(labels ...string) {
	for _, l := range labels {
		s[l] = struct{}{}
	}
}

// Contains checks if the set contains every given label.
func (s LabelSet) Contains(labels ...string) bool {
	for _, l := range labels {
		if _, ok := s[l]; !ok {
			return false
		}
	}

	return true
}

// List returns the labels as a sorted slice.
func (s LabelSet) List() []string {
	return slices.Sorted(maps.Keys(s))
}

// String returns the labels as a sorted, space-separated string.
func (s LabelSet) String() string {
	return strings.Join(s.List(), " ")
}

// Equal checks if two LabelSets hold the same labels.
func (s LabelSet) Equal(other LabelSet) bool {
	return maps.Equal(s, other)
}

// Clone returns a copy of the set.
func (s LabelSet) Clone() LabelSet {
	out := make(LabelSet, len(s))
	maps.Copy(out, s)

	return out
}
