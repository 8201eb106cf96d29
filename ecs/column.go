package ecs

// column is a type-erased dense array of one component type. Every column of
// an archetype has exactly one element per row.
type column interface {
	Len() int
	// Get returns a pointer to the element at row, as any.
	Get(row int) any
	// Set overwrites row with value (T or *T). Returns false on a type mismatch.
	Set(row int, value any) bool
	// Append adds value (T or *T) as a new last row. Returns false on a type mismatch.
	Append(value any) bool
	AppendZero()
	// AppendFrom moves the element at row of src (which must hold the same
	// type) to the end of this column. src is left untouched; the caller
	// removes the row afterwards.
	AppendFrom(src column, row int)
	// AppendClone appends a deep copy of row.
	AppendClone(row int)
	// SwapRemove replaces row with the last element and shrinks by one.
	SwapRemove(row int)
	// OwnedStrings returns the string indices owned by the element at row.
	OwnedStrings(row int) []StringIndex
	// RemapStrings rewrites the string indices owned by the element at row.
	RemapStrings(row int, fn func(StringIndex) StringIndex)
}

// Cloner is implemented by components that hold references (slices, maps,
// pointers) and need a deep copy when an entity is cloned. Components that
// do not implement it are copied by value.
type Cloner[T any] interface {
	Clone() T
}

// StringOwner is implemented by components that own interned strings. The
// scene deletes the indices returned by OwnedStrings when the component is
// removed from its entity or the entity is destroyed. When an entity is
// cloned, RemapStrings is called on the copy with a function that interns a
// fresh duplicate of each string, so the clone owns its own indices.
//
// Components that hold StringIndex values without implementing StringOwner
// are never released by the scene; freeing them is the caller's job.
type StringOwner interface {
	OwnedStrings() []StringIndex
	RemapStrings(fn func(StringIndex) StringIndex)
}

// typedColumn is the concrete column for component type T.
type typedColumn[T any] struct {
	data []T
}

func newTypedColumn[T any]() column {
	return &typedColumn[T]{}
}

func (c *typedColumn[T]) Len() int {
	return len(c.data)
}

func (c *typedColumn[T]) Get(row int) any {
	return &c.data[row]
}

func (c *typedColumn[T]) Set(row int, value any) bool {
	v, ok := unwrap[T](value)
	if !ok {
		return false
	}
	c.data[row] = v
	return true
}

func (c *typedColumn[T]) Append(value any) bool {
	v, ok := unwrap[T](value)
	if !ok {
		return false
	}
	c.data = append(c.data, v)
	return true
}

func (c *typedColumn[T]) AppendZero() {
	var zero T
	c.data = append(c.data, zero)
}

func (c *typedColumn[T]) AppendFrom(src column, row int) {
	other := src.(*typedColumn[T])
	c.data = append(c.data, other.data[row])
}

func (c *typedColumn[T]) AppendClone(row int) {
	v := c.data[row]
	if cl, ok := any(&c.data[row]).(Cloner[T]); ok {
		v = cl.Clone()
	}
	c.data = append(c.data, v)
}

func (c *typedColumn[T]) SwapRemove(row int) {
	last := len(c.data) - 1
	if row != last {
		c.data[row], c.data[last] = c.data[last], c.data[row]
	}
	var zero T
	c.data[last] = zero
	c.data = c.data[:last]
}

func (c *typedColumn[T]) OwnedStrings(row int) []StringIndex {
	if owner, ok := any(&c.data[row]).(StringOwner); ok {
		return owner.OwnedStrings()
	}
	return nil
}

func (c *typedColumn[T]) RemapStrings(row int, fn func(StringIndex) StringIndex) {
	if owner, ok := any(&c.data[row]).(StringOwner); ok {
		owner.RemapStrings(fn)
	}
}

// unwrap accepts either T or *T.
func unwrap[T any](value any) (T, bool) {
	if ptr, ok := value.(*T); ok && ptr != nil {
		return *ptr, true
	}
	v, ok := value.(T)
	return v, ok
}
