package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/plus3/tessera/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movementSystem struct {
	Movers ecs.Query[movable]
}

func (s *movementSystem) Execute(frame *ecs.UpdateFrame) {
	dt := float32(frame.DeltaTime)
	for _, m := range s.Movers.Iter() {
		m.X += m.DX * dt
		m.Y += m.DY * dt
	}
}

// reaperSystem destroys every entity whose health reached zero.
type reaperSystem struct {
	Living ecs.Query[living]
	reaped int
}

func (s *reaperSystem) Execute(frame *ecs.UpdateFrame) {
	for e, l := range s.Living.Iter() {
		if l.Current <= 0 {
			frame.Commands.Destroy(e.ID)
			s.reaped++
		}
	}
}

type frameCounter struct {
	frames []uint64
}

func (s *frameCounter) Execute(frame *ecs.UpdateFrame) {
	s.frames = append(s.frames, frame.Frame)
}

func TestSchedulerOnce(t *testing.T) {
	scene := newTestScene(t)
	e := scene.Spawn("mover", Position{}, Velocity{DX: 2, DY: -1})

	sched := ecs.NewScheduler(scene)
	sched.Register(&movementSystem{})

	sched.Once(0.5)
	sched.Once(0.5)

	pos := ecs.GetComponent[Position](e)
	assert.Equal(t, Position{X: 2, Y: -1}, *pos)
}

func TestSchedulerFlushesCommands(t *testing.T) {
	scene := newTestScene(t)
	scene.Spawn("dead", Health{Current: 0})
	alive := scene.Spawn("alive", Health{Current: 5})

	reaper := &reaperSystem{}
	sched := ecs.NewScheduler(scene)
	sched.Register(reaper)

	sched.Once(0.016)

	assert.Equal(t, 1, reaper.reaped)
	assert.Equal(t, 1, scene.EntityCount())
	assert.True(t, alive.Valid())
}

func TestSchedulerSeesNewEntitiesNextFrame(t *testing.T) {
	scene := newTestScene(t)
	sched := ecs.NewScheduler(scene)
	sched.Register(&movementSystem{})

	sched.Once(1)
	e := scene.Spawn("late", Position{}, Velocity{DX: 1})
	sched.Once(1)

	assert.Equal(t, float32(1), ecs.GetComponent[Position](e).X)
}

func TestSchedulerStats(t *testing.T) {
	scene := newTestScene(t)
	counter := &frameCounter{}
	sched := ecs.NewScheduler(scene)
	sched.Register(&movementSystem{})
	sched.Register(counter)

	for range 3 {
		sched.Once(0.1)
	}

	stats := sched.GetStats()
	assert.Equal(t, 2, stats.SystemCount)
	assert.Equal(t, uint64(3), stats.Frames)
	assert.Equal(t, int64(6), stats.TotalExecutions)
	require.Len(t, stats.Systems, 2)
	assert.Equal(t, "movementSystem", stats.Systems[0].Name)
	assert.Equal(t, "frameCounter", stats.Systems[1].Name)
	assert.Equal(t, int64(3), stats.Systems[1].ExecutionCount)
	assert.LessOrEqual(t, stats.Systems[0].MinDuration, stats.Systems[0].MaxDuration)
	assert.Equal(t, []uint64{0, 1, 2}, counter.frames)
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	scene := newTestScene(t)
	counter := &frameCounter{}
	sched := ecs.NewScheduler(scene)
	sched.Register(counter)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.NotZero(t, sched.GetStats().Frames)
}
