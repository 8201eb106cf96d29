package ecs_test

import (
	"testing"

	"github.com/plus3/tessera/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternerReusesFreedIndex(t *testing.T) {
	si := ecs.NewStringInterner()

	idx := si.Intern("foo")
	si.Delete(idx)
	idx2 := si.Intern("bar")

	assert.Equal(t, idx, idx2)
	assert.Equal(t, "bar", si.Get(idx2))
	assert.Equal(t, 1, si.Len())
	assert.Equal(t, 0, si.Free())
}

func TestInternerAppendsWhenFreeListEmpty(t *testing.T) {
	si := ecs.NewStringInterner()

	a := si.Intern("a")
	b := si.Intern("b")
	c := si.Intern("a")

	assert.Equal(t, ecs.StringIndex(0), a)
	assert.Equal(t, ecs.StringIndex(1), b)
	assert.Equal(t, ecs.StringIndex(2), c, "equal strings are not deduplicated")
	assert.Equal(t, 3, si.Len())
}

func TestInternerFreeListIsLIFO(t *testing.T) {
	si := ecs.NewStringInterner()
	a := si.Intern("a")
	b := si.Intern("b")
	si.Intern("c")

	si.Delete(a)
	si.Delete(b)
	assert.Equal(t, 2, si.Free())

	assert.Equal(t, b, si.Intern("x"))
	assert.Equal(t, a, si.Intern("y"))
	assert.Equal(t, 3, si.Len())
}

func TestInternerDeleteKeepsSlotContents(t *testing.T) {
	si := ecs.NewStringInterner()
	idx := si.Intern("stale")
	si.Delete(idx)

	assert.Equal(t, "stale", si.Get(idx))

	_, ok := si.Lookup(idx)
	assert.False(t, ok)
}

func TestInternerLookup(t *testing.T) {
	si := ecs.NewStringInterner()
	idx := si.Intern("hello")

	s, ok := si.Lookup(idx)
	require.True(t, ok)
	assert.Equal(t, "hello", s)

	_, ok = si.Lookup(idx + 10)
	assert.False(t, ok)
}

func TestInternerPanics(t *testing.T) {
	t.Run("get out of range", func(t *testing.T) {
		si := ecs.NewStringInterner()
		assert.Panics(t, func() { si.Get(3) })
	})

	t.Run("double delete", func(t *testing.T) {
		si := ecs.NewStringInterner()
		idx := si.Intern("x")
		si.Delete(idx)
		assert.Panics(t, func() { si.Delete(idx) })
	})

	t.Run("delete out of range", func(t *testing.T) {
		si := ecs.NewStringInterner()
		assert.Panics(t, func() { si.Delete(0) })
	})
}
