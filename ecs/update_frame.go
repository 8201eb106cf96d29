package ecs

// UpdateFrame is handed to every system during one Scheduler step.
type UpdateFrame struct {
	DeltaTime float64
	Frame     uint64
	Commands  *Commands
	Scene     *Scene
}

// System is one step of per-frame logic. Systems may hold Query fields,
// which the Scheduler binds to its scene on registration, and any state
// that should persist between frames. Structural changes go through
// frame.Commands.
type System interface {
	Execute(frame *UpdateFrame)
}
