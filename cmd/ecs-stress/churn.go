package main

import (
	"math/rand"

	"github.com/plus3/tessera/components"
	"github.com/plus3/tessera/ecs"
)

// churnSystem drives the move protocol: every frame it toggles components on
// random entities, clones a few and destroys a few, all through the frame's
// command buffer.
type churnSystem struct {
	rng    *rand.Rand
	churn  int
	cloneN int
	live   []ecs.EntityID

	moves    int64
	clones   int64
	destroys int64
}

func newChurnSystem(rng *rand.Rand, churn, clones int) *churnSystem {
	return &churnSystem{rng: rng, churn: churn, cloneN: clones}
}

func (s *churnSystem) track(id ecs.EntityID) {
	s.live = append(s.live, id)
}

func (s *churnSystem) pick() (int, ecs.EntityID, bool) {
	if len(s.live) == 0 {
		return 0, 0, false
	}
	i := s.rng.Intn(len(s.live))
	return i, s.live[i], true
}

func (s *churnSystem) Execute(frame *ecs.UpdateFrame) {
	scene := frame.Scene
	cmds := frame.Commands

	for range s.churn {
		_, id, ok := s.pick()
		if !ok {
			return
		}
		switch s.rng.Intn(3) {
		case 0:
			if scene.HasComponent(id, "Motion") {
				cmds.RemoveComponent(id, "Motion")
			} else {
				cmds.AddComponent(id, "Motion", components.Motion{Velocity: randomVec(s.rng, 5)})
			}
		case 1:
			if scene.HasComponent(id, "Health") {
				cmds.RemoveComponent(id, "Health")
			} else {
				cmds.AddComponent(id, "Health", components.Health{Current: 100, Max: 100})
			}
		case 2:
			if scene.HasComponent(id, "Inventory") {
				cmds.RemoveComponent(id, "Inventory")
			} else {
				cmds.AddComponent(id, "Inventory", components.Inventory{Items: []string{"coin"}})
			}
		}
		s.moves++
	}

	for range s.cloneN {
		_, src, ok := s.pick()
		if !ok {
			break
		}
		cmds.Defer(func() {
			if id, ok := scene.CloneEntity(src); ok {
				s.track(id)
				s.clones++
			}
		})
	}

	// Keep the population stable: destroy as many as were cloned.
	for range s.cloneN {
		i, id, ok := s.pick()
		if !ok {
			break
		}
		cmds.Destroy(id)
		last := len(s.live) - 1
		s.live[i] = s.live[last]
		s.live = s.live[:last]
		s.destroys++
	}
}
