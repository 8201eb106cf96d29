package ecs_test

import (
	"path/filepath"
	"testing"

	"github.com/plus3/tessera/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageActive(t *testing.T) {
	stage := ecs.NewStage(newTestRegistry())

	first := stage.Active()
	require.NotNil(t, first)
	assert.Same(t, first, stage.Active())

	next := ecs.NewScene(newTestRegistry())
	prev := stage.SetActive(next)

	assert.Same(t, first, prev)
	assert.Same(t, next, stage.Active())
}

func TestStageLoad(t *testing.T) {
	registry := newTestRegistry()
	src := ecs.NewScene(registry)
	src.Spawn("Hero", Position{X: 4})
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, src.Save(path))

	stage := ecs.NewStage(registry)
	require.NoError(t, stage.Load(path))

	assert.Equal(t, src.ID(), stage.Active().ID())
	assert.Equal(t, 1, stage.Active().EntityCount())
}

func TestStageLoadFailureKeepsActive(t *testing.T) {
	stage := ecs.NewStage(newTestRegistry())
	before := stage.Active()

	err := stage.Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.Same(t, before, stage.Active())
}
