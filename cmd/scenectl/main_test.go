package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/plus3/tessera/components"
	"github.com/plus3/tessera/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const worldScript = `
local ship = spawn("ship", {
	Transform = { position = {0, 0, 0}, scale = {1, 1, 1} },
	Motion = { velocity = {1, 0, 0} },
})
spawn("beacon", { Transform = { position = {5, 5, 5}, scale = {1, 1, 1} }, Health = { current = 3, max = 3 } })
clone(ship)
`

func TestBuildSimulateValidate(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "world.lua")
	require.NoError(t, os.WriteFile(scriptPath, []byte(worldScript), 0o644))
	out := filepath.Join(dir, "world.yaml")

	require.NoError(t, run([]string{"build", "-out", out, scriptPath}))

	scene, err := ecs.Load(out, components.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 3, scene.EntityCount())

	require.NoError(t, run([]string{"simulate", "-frames", "10", "-dt", "0.1", out}))

	scene, err = ecs.Load(out, components.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 2, scene.EntityCount(), "the beacon decays away")
	for e := range scene.Query("Motion") {
		assert.InDelta(t, 1.0, ecs.GetComponent[components.Transform](e).Position.X(), 1e-9)
	}

	require.NoError(t, run([]string{"validate", out}))
	require.NoError(t, run([]string{"dump", out}))
}

func TestBuildRunsEachScriptOnce(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TESSERA_CONFIG", "")
	require.NoError(t, os.Mkdir("scripts", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("scripts", "one.lua"), []byte(`create_entity("one")`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join("scripts", "two.lua"), []byte(`create_entity("two")`), 0o644))

	count := func(path string) int {
		t.Helper()
		scene, err := ecs.Load(path, components.NewRegistry())
		require.NoError(t, err)
		return scene.EntityCount()
	}

	t.Run("named script found in scripts dir", func(t *testing.T) {
		require.NoError(t, run([]string{"build", "-out", "named.yaml", "one.lua"}))
		assert.Equal(t, 1, count("named.yaml"))
	})

	t.Run("no scripts runs the scripts dir", func(t *testing.T) {
		require.NoError(t, run([]string{"build", "-out", "all.yaml"}))
		assert.Equal(t, 2, count("all.yaml"))
	})

	t.Run("named script inside -dir", func(t *testing.T) {
		require.NoError(t, run([]string{"build", "-out", "both.yaml", "-dir", "scripts", "one.lua"}))
		assert.Equal(t, 2, count("both.yaml"))
	})
}

func TestRunErrors(t *testing.T) {
	assert.Error(t, run(nil))
	assert.Error(t, run([]string{"frobnicate"}))
	assert.Error(t, run([]string{"build"}))
	assert.Error(t, run([]string{"dump"}))
	assert.Error(t, run([]string{"validate", filepath.Join(t.TempDir(), "missing.yaml")}))
	assert.Error(t, run([]string{"pull", "-out", "x.yaml"}))
}
