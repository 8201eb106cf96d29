package components_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/plus3/tessera/components"
	"github.com/plus3/tessera/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementSystem(t *testing.T) {
	scene := ecs.NewScene(components.NewRegistry(), ecs.WithValidation(true))
	ship := scene.Spawn("ship",
		components.NewTransform(mgl64.Vec3{1, 0, 0}),
		components.Motion{Velocity: mgl64.Vec3{2, 0, -4}, Spin: math.Pi})
	rock := scene.Spawn("rock", components.NewTransform(mgl64.Vec3{}))

	sched := ecs.NewScheduler(scene)
	sched.Register(&components.MovementSystem{})
	sched.Once(0.5)

	tr := ecs.GetComponent[components.Transform](ship)
	assert.True(t, tr.Position.ApproxEqual(mgl64.Vec3{2, 0, -2}))
	assert.InDelta(t, math.Pi/2, tr.Yaw, 1e-9)
	assert.True(t, tr.Forward().ApproxEqual(mgl64.Vec3{1, 0, 0}))
	assert.Equal(t, mgl64.Vec3{}, ecs.GetComponent[components.Transform](rock).Position)
}

func TestDecaySystem(t *testing.T) {
	scene := ecs.NewScene(components.NewRegistry())
	fading := scene.Spawn("fading", components.Health{Current: 2, Max: 2})

	sched := ecs.NewScheduler(scene)
	sched.Register(&components.DecaySystem{})

	sched.Once(0.1)
	require.True(t, fading.Valid())
	assert.Equal(t, 1, ecs.GetComponent[components.Health](fading).Current)

	sched.Once(0.1)
	assert.False(t, fading.Valid())
}

func TestComponentsRoundTrip(t *testing.T) {
	registry := components.NewRegistry()
	scene := ecs.NewScene(registry)
	scene.Spawn("knight",
		components.NewTransform(mgl64.Vec3{1.5, 2, -3}),
		components.Tag{Text: scene.Strings().Intern("hero")},
		components.Inventory{Items: []string{"sword"}},
	)

	var buf bytes.Buffer
	require.NoError(t, scene.Serialize(&buf))
	assert.Contains(t, buf.String(), "position: [1.5, 2, -3]")

	loaded, err := ecs.Deserialize(&buf, registry)
	require.NoError(t, err)

	var found bool
	for e := range loaded.Query("Transform", "Tag", "Inventory") {
		found = true
		assert.Equal(t, mgl64.Vec3{1.5, 2, -3}, ecs.GetComponent[components.Transform](e).Position)
		assert.Equal(t, "hero", loaded.Strings().Get(ecs.GetComponent[components.Tag](e).Text))
		assert.Equal(t, []string{"sword"}, ecs.GetComponent[components.Inventory](e).Items)
	}
	assert.True(t, found)
}

func TestCloneCopiesInventory(t *testing.T) {
	scene := ecs.NewScene(components.NewRegistry())
	src := scene.Spawn("chest", components.Inventory{Items: []string{"gold"}})

	clone, ok := src.Clone()
	require.True(t, ok)
	ecs.GetComponent[components.Inventory](clone).Items[0] = "lead"

	assert.Equal(t, []string{"gold"}, ecs.GetComponent[components.Inventory](src).Items)
}
