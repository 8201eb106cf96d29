package ecs

import (
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ComponentTypeSet is a sorted, duplicate-free list of component type names.
// Two entities share an archetype iff their sets are equal.
type ComponentTypeSet []string

// NewComponentTypeSet sorts and de-duplicates names into a set.
func NewComponentTypeSet(names ...string) ComponentTypeSet {
	set := make(ComponentTypeSet, len(names))
	copy(set, names)
	slices.Sort(set)
	return slices.Compact(set)
}

// With returns a new set that also contains name.
func (s ComponentTypeSet) With(name string) ComponentTypeSet {
	idx, found := slices.BinarySearch(s, name)
	if found {
		return s.clone()
	}
	out := make(ComponentTypeSet, 0, len(s)+1)
	out = append(out, s[:idx]...)
	out = append(out, name)
	return append(out, s[idx:]...)
}

// Without returns a new set with name removed.
func (s ComponentTypeSet) Without(name string) ComponentTypeSet {
	idx, found := slices.BinarySearch(s, name)
	if !found {
		return s.clone()
	}
	out := make(ComponentTypeSet, 0, len(s)-1)
	out = append(out, s[:idx]...)
	return append(out, s[idx+1:]...)
}

// Contains reports whether name is in the set.
func (s ComponentTypeSet) Contains(name string) bool {
	_, found := slices.BinarySearch(s, name)
	return found
}

// Index returns the position of name in the set, or -1.
func (s ComponentTypeSet) Index(name string) int {
	idx, found := slices.BinarySearch(s, name)
	if !found {
		return -1
	}
	return idx
}

// ContainsAll reports whether s is a superset of other. Both sets are sorted
// so this is a single merge pass.
func (s ComponentTypeSet) ContainsAll(other ComponentTypeSet) bool {
	i := 0
	for _, name := range other {
		for i < len(s) && s[i] < name {
			i++
		}
		if i == len(s) || s[i] != name {
			return false
		}
		i++
	}
	return true
}

// Equal compares two sets element by element.
func (s ComponentTypeSet) Equal(other ComponentTypeSet) bool {
	return slices.Equal(s, other)
}

// IsSorted reports whether the set upholds the sorted, duplicate-free rule.
func (s ComponentTypeSet) IsSorted() bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] >= s[i] {
			return false
		}
	}
	return true
}

// Hash returns a 64-bit hash of the set, used to bucket archetype lookups.
func (s ComponentTypeSet) Hash() uint64 {
	d := xxhash.New()
	for _, name := range s {
		_, _ = d.WriteString(name)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

func (s ComponentTypeSet) String() string {
	return "{" + strings.Join(s, ", ") + "}"
}

func (s ComponentTypeSet) clone() ComponentTypeSet {
	return slices.Clone(s)
}
