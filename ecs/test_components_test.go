package ecs_test

import (
	"slices"
	"testing"

	"github.com/plus3/tessera/ecs"
	"github.com/stretchr/testify/require"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

type Score int32

// Inventory holds a slice, so it needs a deep copy when cloned.
type Inventory struct {
	Items []string
}

func (i *Inventory) Clone() Inventory {
	return Inventory{Items: slices.Clone(i.Items)}
}

// Label owns an interned string.
type Label struct {
	Text ecs.StringIndex
}

func (l *Label) OwnedStrings() []ecs.StringIndex {
	return []ecs.StringIndex{l.Text}
}

func (l *Label) RemapStrings(fn func(ecs.StringIndex) ecs.StringIndex) {
	l.Text = fn(l.Text)
}

// AssetRef holds a string index it does not own.
type AssetRef struct {
	Path ecs.StringIndex
}

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[PlayerController](registry)
	ecs.RegisterComponent[Score](registry)
	ecs.RegisterComponent[Inventory](registry)
	ecs.RegisterComponent[Label](registry)
	ecs.RegisterComponent[AssetRef](registry)
	return registry
}

// newTestScene creates a scene that re-validates itself after every mutation.
func newTestScene(t testing.TB) *ecs.Scene {
	t.Helper()
	return ecs.NewScene(newTestRegistry(), ecs.WithValidation(true))
}

// requireRowAt asserts the entity's record and that its archetype row points
// back at it.
func requireRowAt(t *testing.T, scene *ecs.Scene, id ecs.EntityID, arch *ecs.Archetype, row int) {
	t.Helper()
	rec, ok := scene.Record(id)
	require.True(t, ok)
	require.Equal(t, arch.ID(), rec.Archetype)
	require.Equal(t, row, rec.Row)
	require.Equal(t, id, arch.EntityAt(row))
}
