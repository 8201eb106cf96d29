package scenestore

import (
	"context"
	"io/fs"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/plus3/tessera/config"
	"github.com/plus3/tessera/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type marker struct {
	Value int
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrations, migrationsDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	body, err := fs.ReadFile(migrations, names[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "-- +goose Down")
}

// openTestStore connects to the database named by TESSERA_TEST_DSN, skipping
// the test when it is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TESSERA_TEST_DSN")
	if dsn == "" {
		t.Skip("TESSERA_TEST_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := Open(ctx, config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))

	version, err := RunMigrations(ctx, store.Pool)
	require.NoError(t, err)
	require.EqualValues(t, 1, version, "migrating twice is a no-op")
	return store
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[marker](registry)
	scene := ecs.NewScene(registry)
	scene.Spawn("a", marker{Value: 1})
	scene.Spawn("b", marker{Value: 2})

	name := "test-" + uuid.NewString()
	snap, err := store.Save(ctx, name, scene)
	require.NoError(t, err)
	assert.Equal(t, scene.ID(), snap.SceneID)
	assert.Equal(t, 2, snap.Entities)
	t.Cleanup(func() { store.Delete(context.Background(), snap.ID) })

	loaded, err := store.Load(ctx, snap.ID, registry)
	require.NoError(t, err)
	assert.Equal(t, scene.ID(), loaded.ID())
	assert.Equal(t, 2, loaded.EntityCount())

	latest, meta, err := store.LoadLatest(ctx, name, registry)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, meta.ID)
	assert.Equal(t, 2, latest.EntityCount())

	snaps, err := store.List(ctx)
	require.NoError(t, err)
	found := false
	for _, s := range snaps {
		found = found || s.ID == snap.ID
	}
	assert.True(t, found)
}

func TestSnapshotNotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	registry := ecs.NewComponentRegistry()

	_, err := store.Load(ctx, uuid.New(), registry)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	_, _, err = store.LoadLatest(ctx, "missing-"+uuid.NewString(), registry)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	assert.ErrorIs(t, store.Delete(ctx, uuid.New()), ErrSnapshotNotFound)
}

func TestDecodeMalformedBody(t *testing.T) {
	_, err := decode(uuid.New(), "version: 99", ecs.NewComponentRegistry(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ecs.ErrMalformedScene)
	assert.True(t, strings.HasPrefix(err.Error(), "snapshot "))
}
