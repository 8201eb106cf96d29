package ecs

import "github.com/kamstrup/intmap"

// Commands buffers structural changes so they can be applied after
// iteration. Swap-and-pop removal reorders rows, so destroying or moving
// entities while a query walks an archetype would skip or repeat rows.
type Commands struct {
	spawns   []spawnCommand
	destroys []EntityID
	adds     []addComponentCommand
	removes  []removeComponentCommand
	defers   []func()
}

// NewCommands creates an empty command buffer.
func NewCommands() *Commands {
	return &Commands{}
}

type spawnCommand struct {
	name       string
	components []any
}

type addComponentCommand struct {
	entity EntityID
	name   string
	value  any
}

type removeComponentCommand struct {
	entity EntityID
	name   string
}

// Defer queues a function to run after all other commands.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Spawn queues creation of a named entity with the given components.
func (c *Commands) Spawn(name string, components ...any) {
	c.spawns = append(c.spawns, spawnCommand{name: name, components: components})
}

// Destroy queues an entity for destruction.
func (c *Commands) Destroy(entity EntityID) {
	c.destroys = append(c.destroys, entity)
}

// AddComponent queues attaching value under the named component.
func (c *Commands) AddComponent(entity EntityID, name string, value any) {
	c.adds = append(c.adds, addComponentCommand{entity: entity, name: name, value: value})
}

// RemoveComponent queues detaching the named component.
func (c *Commands) RemoveComponent(entity EntityID, name string) {
	c.removes = append(c.removes, removeComponentCommand{entity: entity, name: name})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.destroys) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies the buffered commands to scene in a fixed order: destroys,
// removes, adds, spawns, then deferred functions. Component changes to an
// entity destroyed in the same flush are dropped. The buffer is reset.
func (c *Commands) Flush(scene *Scene) {
	destroyed := intmap.NewSet[EntityID](len(c.destroys))

	for _, id := range c.destroys {
		scene.DestroyEntity(id)
		destroyed.Add(id)
	}

	for _, cmd := range c.removes {
		if !destroyed.Has(cmd.entity) {
			scene.RemoveComponent(cmd.entity, cmd.name)
		}
	}

	for _, cmd := range c.adds {
		if !destroyed.Has(cmd.entity) {
			scene.AddComponent(cmd.entity, cmd.name, cmd.value)
		}
	}

	for _, cmd := range c.spawns {
		scene.Spawn(cmd.name, cmd.components...)
	}

	for _, fn := range c.defers {
		fn()
	}

	c.spawns = c.spawns[:0]
	c.destroys = c.destroys[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
}
