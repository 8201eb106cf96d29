package components

import (
	"github.com/plus3/tessera/ecs"
)

// Movable is the view used by MovementSystem.
type Movable struct {
	*Transform
	*Motion
}

// MovementSystem integrates Motion into Transform.
type MovementSystem struct {
	Movers ecs.Query[Movable]
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	dt := frame.DeltaTime
	for _, m := range s.Movers.Iter() {
		m.Position = m.Position.Add(m.Velocity.Mul(dt))
		m.Yaw += m.Spin * dt
	}
}

type mortal struct {
	*Health
}

// DecaySystem drains one point of health per frame and queues entities
// that reach zero for destruction.
type DecaySystem struct {
	Mortals ecs.Query[mortal]
}

func (s *DecaySystem) Execute(frame *ecs.UpdateFrame) {
	for e, m := range s.Mortals.Iter() {
		m.Current--
		if m.Current <= 0 {
			frame.Commands.Destroy(e.ID)
		}
	}
}
