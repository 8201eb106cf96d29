package ecs

// StringIndex is a handle into a StringInterner. Components that logically
// hold a string store a StringIndex instead so rows stay fixed-size.
type StringIndex uint32

// StringInterner is a growable string table with a free list. Indices are
// recycled after Delete; slots are never compacted.
//
// Callers own the indices they intern. Reading an index after deleting it is
// not an error from the interner's point of view: Get returns whatever the
// slot holds, which may already be a newer string.
type StringInterner struct {
	slots []string
	free  []StringIndex
	freed []bool
}

// NewStringInterner creates an empty interner.
func NewStringInterner() *StringInterner {
	return &StringInterner{}
}

// Intern stores s and returns its index, reusing a freed slot when one is
// available.
func (si *StringInterner) Intern(s string) StringIndex {
	if n := len(si.free); n > 0 {
		idx := si.free[n-1]
		si.free = si.free[:n-1]
		si.slots[idx] = s
		si.freed[idx] = false
		return idx
	}

	si.slots = append(si.slots, s)
	si.freed = append(si.freed, false)
	return StringIndex(len(si.slots) - 1)
}

// Get returns the string stored at idx. An out-of-range index panics.
func (si *StringInterner) Get(idx StringIndex) string {
	return si.slots[idx]
}

// Lookup is the checked form of Get. It reports false for indices that are
// out of range or currently on the free list.
func (si *StringInterner) Lookup(idx StringIndex) (string, bool) {
	if int(idx) >= len(si.slots) || si.freed[idx] {
		return "", false
	}
	return si.slots[idx], true
}

// Delete returns idx to the free list. The slot keeps its contents until it
// is reused. Deleting an index that is already free panics.
func (si *StringInterner) Delete(idx StringIndex) {
	if int(idx) >= len(si.slots) {
		panic("ecs: string index out of range")
	}
	if si.freed[idx] {
		panic("ecs: string index deleted twice")
	}
	si.freed[idx] = true
	si.free = append(si.free, idx)
}

// Len returns the number of slots, live and free.
func (si *StringInterner) Len() int {
	return len(si.slots)
}

// Free returns the number of slots on the free list.
func (si *StringInterner) Free() int {
	return len(si.free)
}

// restore replaces the interner state with persisted slots and free list.
func (si *StringInterner) restore(slots []string, free []StringIndex) error {
	si.slots = append(si.slots[:0], slots...)
	si.freed = make([]bool, len(slots))
	si.free = si.free[:0]
	for _, idx := range free {
		if int(idx) >= len(slots) {
			return malformedf("free string index %d out of range (%d slots)", idx, len(slots))
		}
		if si.freed[idx] {
			return malformedf("free string index %d listed twice", idx)
		}
		si.freed[idx] = true
		si.free = append(si.free, idx)
	}
	return nil
}
