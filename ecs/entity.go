package ecs

// EntityID encodes a slot index (lower 32 bits) and a generation (upper 32
// bits). The generation changes when the slot is recycled, so a stale id never
// resolves to the entity that took its place. The zero id is never issued.
type EntityID uint64

// NewEntityID creates an EntityID from a slot index and generation.
func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

// Index extracts the slot index.
func (e EntityID) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// Generation extracts the generation.
func (e EntityID) Generation() uint32 {
	return uint32(e >> 32)
}

// entityPool allocates entity ids from a free list of slots.
type entityPool struct {
	generations []uint32
	free        []uint32
}

func newEntityPool() *entityPool {
	return &entityPool{
		generations: make([]uint32, 0, 256),
	}
}

func (p *entityPool) create() EntityID {
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		return NewEntityID(idx, p.generations[idx])
	}
	idx := uint32(len(p.generations))
	p.generations = append(p.generations, 1)
	return NewEntityID(idx, 1)
}

func (p *entityPool) alive(id EntityID) bool {
	idx := id.Index()
	return int(idx) < len(p.generations) && p.generations[idx] == id.Generation()
}

func (p *entityPool) destroy(id EntityID) {
	if !p.alive(id) {
		return
	}
	idx := id.Index()
	p.generations[idx]++
	if p.generations[idx] == 0 {
		p.generations[idx] = 1
	}
	p.free = append(p.free, idx)
}

// Entity is a handle pairing an id with the scene that owns it.
type Entity struct {
	ID    EntityID
	scene *Scene
}

// Scene returns the scene the entity belongs to.
func (e Entity) Scene() *Scene {
	return e.scene
}

// Valid reports whether the entity is still alive in its scene.
func (e Entity) Valid() bool {
	return e.scene != nil && e.scene.Alive(e.ID)
}

// Name returns the entity's name, or "" when the entity is gone.
func (e Entity) Name() string {
	name, ok := e.scene.EntityName(e.ID)
	if !ok {
		return ""
	}
	return name
}

// SetName replaces the entity's name, releasing the previous string.
func (e Entity) SetName(name string) bool {
	return e.scene.SetEntityName(e.ID, name)
}

// Has reports whether the entity carries the named component.
func (e Entity) Has(name string) bool {
	return e.scene.HasComponent(e.ID, name)
}

// Get returns a pointer to the named component, or nil.
func (e Entity) Get(name string) any {
	return e.scene.GetComponent(e.ID, name)
}

// Add attaches or overwrites the named component.
func (e Entity) Add(name string, value any) bool {
	return e.scene.AddComponent(e.ID, name, value)
}

// Remove detaches the named component.
func (e Entity) Remove(name string) bool {
	return e.scene.RemoveComponent(e.ID, name)
}

// Destroy removes the entity from its scene.
func (e Entity) Destroy() bool {
	return e.scene.DestroyEntity(e.ID)
}

// Clone duplicates the entity and all of its components.
func (e Entity) Clone() (Entity, bool) {
	id, ok := e.scene.CloneEntity(e.ID)
	if !ok {
		return Entity{}, false
	}
	return Entity{ID: id, scene: e.scene}, true
}

// AddComponent attaches value to the entity under T's registered name. T must
// be registered.
func AddComponent[T any](e Entity, value T) bool {
	return e.scene.AddComponent(e.ID, e.scene.mustNameOf(typeOf[T]()), value)
}

// RemoveComponent detaches T from the entity.
func RemoveComponent[T any](e Entity) bool {
	name, ok := e.scene.nameOf(typeOf[T]())
	if !ok {
		return false
	}
	return e.scene.RemoveComponent(e.ID, name)
}

// HasComponent reports whether the entity carries T.
func HasComponent[T any](e Entity) bool {
	name, ok := e.scene.nameOf(typeOf[T]())
	if !ok {
		return false
	}
	return e.scene.HasComponent(e.ID, name)
}

// GetComponent returns a pointer to the entity's T, or nil. The pointer is
// valid until the entity's archetype next changes shape.
func GetComponent[T any](e Entity) *T {
	return ReadComponent[T](e.scene, e.ID)
}

// ReadComponent returns a pointer to id's T, or nil.
func ReadComponent[T any](s *Scene, id EntityID) *T {
	name, ok := s.nameOf(typeOf[T]())
	if !ok {
		return nil
	}
	comp := s.GetComponent(id, name)
	if comp == nil {
		return nil
	}
	return comp.(*T)
}
