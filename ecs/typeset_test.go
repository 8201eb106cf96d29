package ecs_test

import (
	"testing"

	"github.com/plus3/tessera/ecs"
	"github.com/stretchr/testify/assert"
)

func TestComponentTypeSetSortsAndDedupes(t *testing.T) {
	set := ecs.NewComponentTypeSet("Velocity", "EntityName", "Position", "Velocity")

	assert.Equal(t, ecs.ComponentTypeSet{"EntityName", "Position", "Velocity"}, set)
	assert.True(t, set.IsSorted())
	assert.Equal(t, "{EntityName, Position, Velocity}", set.String())
}

func TestComponentTypeSetWithWithout(t *testing.T) {
	base := ecs.NewComponentTypeSet("EntityName", "Velocity")

	with := base.With("Position")
	assert.Equal(t, ecs.ComponentTypeSet{"EntityName", "Position", "Velocity"}, with)
	assert.Equal(t, ecs.ComponentTypeSet{"EntityName", "Velocity"}, base, "With must not modify the receiver")

	assert.Equal(t, base, base.With("Velocity"))

	without := with.Without("Velocity")
	assert.Equal(t, ecs.ComponentTypeSet{"EntityName", "Position"}, without)
	assert.Equal(t, with, with.Without("Missing"))
}

func TestComponentTypeSetContainsAll(t *testing.T) {
	set := ecs.NewComponentTypeSet("A", "B", "C", "D")

	tests := []struct {
		name  string
		query ecs.ComponentTypeSet
		want  bool
	}{
		{"empty", nil, true},
		{"single", ecs.NewComponentTypeSet("C"), true},
		{"subset", ecs.NewComponentTypeSet("A", "D"), true},
		{"equal", ecs.NewComponentTypeSet("A", "B", "C", "D"), true},
		{"missing", ecs.NewComponentTypeSet("A", "E"), false},
		{"superset", ecs.NewComponentTypeSet("A", "B", "C", "D", "E"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, set.ContainsAll(tt.query))
		})
	}
}

func TestComponentTypeSetHash(t *testing.T) {
	a := ecs.NewComponentTypeSet("Position", "Velocity")
	b := ecs.NewComponentTypeSet("Velocity", "Position")
	c := ecs.NewComponentTypeSet("PositionVelocity")

	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestComponentTypeSetIndex(t *testing.T) {
	set := ecs.NewComponentTypeSet("A", "B", "C")
	assert.Equal(t, 1, set.Index("B"))
	assert.Equal(t, -1, set.Index("Z"))
	assert.True(t, set.Contains("C"))
	assert.False(t, ecs.ComponentTypeSet{"B", "A"}.IsSorted())
}
