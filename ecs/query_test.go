package ecs_test

import (
	"testing"

	"github.com/plus3/tessera/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryExecute(t *testing.T) {
	scene := newTestScene(t)
	scene.Spawn("a", Position{X: 1}, Velocity{DX: 1})
	scene.Spawn("b", Position{X: 2}, Velocity{DX: 2}, Health{})
	scene.Spawn("c", Position{X: 3})

	q := ecs.NewQuery[movable](scene)
	q.Execute()

	assert.Equal(t, 2, q.Len())
	sum := float32(0)
	for _, m := range q.Iter() {
		sum += m.X
	}
	assert.Equal(t, float32(3), sum)
}

func TestQueryPanicsBeforeExecute(t *testing.T) {
	scene := newTestScene(t)
	q := ecs.NewQuery[movable](scene)

	assert.Panics(t, func() { q.Iter() })
	assert.Panics(t, func() { q.Values() })
}

func TestQueryPicksUpNewArchetypes(t *testing.T) {
	scene := newTestScene(t)
	scene.Spawn("a", Position{}, Velocity{})

	q := ecs.NewQuery[movable](scene)
	require.Len(t, q.Archetypes(), 1)

	scene.Spawn("b", Position{}, Velocity{}, Health{})
	scene.Spawn("c", Health{})

	assert.Len(t, q.Archetypes(), 2)

	q.Execute()
	assert.Equal(t, 2, q.Len())
}

func TestQuerySnapshotSurvivesDeferredChanges(t *testing.T) {
	scene := newTestScene(t)
	for range 4 {
		scene.Spawn("e", Position{}, Velocity{})
	}

	q := ecs.NewQuery[movable](scene)
	q.Execute()

	cmds := ecs.NewCommands()
	visited := 0
	for e := range q.Iter() {
		visited++
		cmds.Destroy(e.ID)
	}
	cmds.Flush(scene)

	assert.Equal(t, 4, visited)
	assert.Equal(t, 0, scene.EntityCount())

	q.Execute()
	assert.Equal(t, 0, q.Len())
}
