package ecs_test

import (
	"testing"

	"github.com/plus3/tessera/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsFlushOrder(t *testing.T) {
	scene := newTestScene(t)
	keep := scene.Spawn("keep", Position{})
	drop := scene.Spawn("drop", Position{})

	cmds := ecs.NewCommands()
	var order []string
	cmds.Defer(func() { order = append(order, "defer") })
	cmds.Spawn("spawned", Health{Current: 1})
	cmds.AddComponent(keep.ID, "Velocity", Velocity{DX: 1})
	cmds.RemoveComponent(keep.ID, "Position")
	cmds.Destroy(drop.ID)
	cmds.AddComponent(drop.ID, "Health", Health{})

	assert.Equal(t, 6, cmds.Len())
	assert.Equal(t, 2, scene.EntityCount(), "nothing is applied before Flush")

	cmds.Flush(scene)

	assert.Equal(t, []string{"defer"}, order)
	assert.Equal(t, 0, cmds.Len())
	assert.False(t, drop.Valid())
	assert.False(t, ecs.HasComponent[Position](keep))
	assert.True(t, ecs.HasComponent[Velocity](keep))

	spawned := 0
	for e := range scene.Query("Health") {
		assert.Equal(t, "spawned", e.Name())
		spawned++
	}
	assert.Equal(t, 1, spawned)
}

func TestCommandsDeferSeesAppliedChanges(t *testing.T) {
	scene := newTestScene(t)
	cmds := ecs.NewCommands()

	cmds.Spawn("late")
	var count int
	cmds.Defer(func() { count = scene.EntityCount() })
	cmds.Flush(scene)

	assert.Equal(t, 1, count)
}

func TestCommandsReuse(t *testing.T) {
	scene := newTestScene(t)
	cmds := ecs.NewCommands()

	cmds.Spawn("first")
	cmds.Flush(scene)
	cmds.Flush(scene)

	require.Equal(t, 1, scene.EntityCount())
}
