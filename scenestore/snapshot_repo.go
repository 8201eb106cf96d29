package scenestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/plus3/tessera/ecs"
	"go.uber.org/zap"
)

// ErrSnapshotNotFound is returned when no snapshot matches a lookup.
var ErrSnapshotNotFound = errors.New("scenestore: snapshot not found")

// Snapshot describes one stored scene without its body.
type Snapshot struct {
	ID         uuid.UUID
	Name       string
	SceneID    uuid.UUID
	Entities   int
	Archetypes int
	SavedAt    time.Time
}

// Save serializes scene and stores it under name. Several snapshots may
// share a name; LoadLatest picks the newest.
func (s *Store) Save(ctx context.Context, name string, scene *ecs.Scene) (Snapshot, error) {
	var body bytes.Buffer
	if err := scene.Serialize(&body); err != nil {
		return Snapshot{}, fmt.Errorf("serialize scene %s: %w", scene.ID(), err)
	}

	snap := Snapshot{
		ID:         uuid.New(),
		Name:       name,
		SceneID:    scene.ID(),
		Entities:   scene.EntityCount(),
		Archetypes: scene.ArchetypeCount(),
	}
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO scene_snapshots (id, name, scene_id, entities, archetypes, body)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING saved_at`,
		snap.ID, snap.Name, snap.SceneID, snap.Entities, snap.Archetypes, body.String(),
	).Scan(&snap.SavedAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot %s: %w", name, err)
	}

	s.log.Info("scene snapshot saved",
		zap.String("name", name),
		zap.Stringer("snapshot", snap.ID),
		zap.Stringer("scene", snap.SceneID),
		zap.Int("entities", snap.Entities),
		zap.Int("bytes", body.Len()))
	return snap, nil
}

// Load fetches a snapshot by id and deserializes it.
func (s *Store) Load(ctx context.Context, id uuid.UUID, registry *ecs.ComponentRegistry, opts ...ecs.Option) (*ecs.Scene, error) {
	var body string
	err := s.Pool.QueryRow(ctx,
		`SELECT body FROM scene_snapshots WHERE id = $1`, id,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot %s: %w", id, err)
	}
	return decode(id, body, registry, opts)
}

// LoadLatest fetches the newest snapshot stored under name.
func (s *Store) LoadLatest(ctx context.Context, name string, registry *ecs.ComponentRegistry, opts ...ecs.Option) (*ecs.Scene, Snapshot, error) {
	var (
		snap Snapshot
		body string
	)
	err := s.Pool.QueryRow(ctx,
		`SELECT id, name, scene_id, entities, archetypes, saved_at, body
		 FROM scene_snapshots WHERE name = $1
		 ORDER BY saved_at DESC LIMIT 1`, name,
	).Scan(&snap.ID, &snap.Name, &snap.SceneID, &snap.Entities, &snap.Archetypes, &snap.SavedAt, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("select snapshot %s: %w", name, err)
	}

	scene, err := decode(snap.ID, body, registry, opts)
	if err != nil {
		return nil, Snapshot{}, err
	}
	return scene, snap, nil
}

// List returns every snapshot, newest first.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, name, scene_id, entities, archetypes, saved_at
		 FROM scene_snapshots ORDER BY saved_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.SceneID, &snap.Entities, &snap.Archetypes, &snap.SavedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// Delete removes a snapshot.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM scene_snapshots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return nil
}

func decode(id uuid.UUID, body string, registry *ecs.ComponentRegistry, opts []ecs.Option) (*ecs.Scene, error) {
	scene, err := ecs.Deserialize(strings.NewReader(body), registry, opts...)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", id, err)
	}
	return scene, nil
}
