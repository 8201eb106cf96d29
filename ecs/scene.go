package ecs

import (
	"fmt"
	"iter"
	"reflect"
	"slices"

	"github.com/google/uuid"
	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

// EntityRecord locates an entity: the archetype holding it and its row there.
type EntityRecord struct {
	Archetype ArchetypeID
	Row       int
}

// ArchetypeRecord is a component index entry: the column inside one
// archetype where a component type is stored.
type ArchetypeRecord struct {
	Column int
}

// Scene owns every archetype, the entity index, the component index and the
// string interner. It is not safe for concurrent use; all mutations are
// expected to come from one update loop.
//
// Archetypes live in an arena indexed by ArchetypeID and are never removed,
// so an ArchetypeID resolves for the scene's whole lifetime.
type Scene struct {
	id       uuid.UUID
	registry *ComponentRegistry
	log      *zap.Logger
	validate bool

	archetypes []*Archetype
	byType     map[uint64][]ArchetypeID

	entities   *intmap.Map[EntityID, EntityRecord]
	components map[string]*intmap.Map[ArchetypeID, ArchetypeRecord]

	strings *StringInterner
	pool    *entityPool
}

// Option configures a Scene.
type Option func(*Scene)

// WithLogger sets the scene's logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scene) {
		s.log = log
	}
}

// WithValidation makes every mutation re-check the scene's invariants and
// panic when one is broken. Meant for tests and debug builds.
func WithValidation(enabled bool) Option {
	return func(s *Scene) {
		s.validate = enabled
	}
}

// WithID sets the scene id instead of generating a random one.
func WithID(id uuid.UUID) Option {
	return func(s *Scene) {
		s.id = id
	}
}

// NewScene creates an empty scene using the given component registry.
func NewScene(registry *ComponentRegistry, opts ...Option) *Scene {
	s := &Scene{
		id:         uuid.New(),
		registry:   registry,
		log:        zap.NewNop(),
		byType:     make(map[uint64][]ArchetypeID),
		entities:   intmap.New[EntityID, EntityRecord](256),
		components: make(map[string]*intmap.Map[ArchetypeID, ArchetypeRecord]),
		strings:    NewStringInterner(),
		pool:       newEntityPool(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the scene's id.
func (s *Scene) ID() uuid.UUID {
	return s.id
}

// Registry returns the component registry the scene was built with.
func (s *Scene) Registry() *ComponentRegistry {
	return s.registry
}

// Strings returns the scene's string interner.
func (s *Scene) Strings() *StringInterner {
	return s.strings
}

// Alive reports whether id names a live entity.
func (s *Scene) Alive(id EntityID) bool {
	return s.entities.Has(id)
}

// Entity returns a handle for a live entity.
func (s *Scene) Entity(id EntityID) (Entity, bool) {
	if !s.entities.Has(id) {
		return Entity{}, false
	}
	return Entity{ID: id, scene: s}, true
}

// Record returns the entity's location.
func (s *Scene) Record(id EntityID) (EntityRecord, bool) {
	return s.entities.Get(id)
}

// EntityCount returns the number of live entities.
func (s *Scene) EntityCount() int {
	return s.entities.Len()
}

// Archetype returns the archetype with the given id.
func (s *Scene) Archetype(id ArchetypeID) (*Archetype, bool) {
	if int(id) >= len(s.archetypes) {
		return nil, false
	}
	return s.archetypes[id], true
}

// Archetypes iterates every archetype in id order, including empty ones.
func (s *Scene) Archetypes() iter.Seq[*Archetype] {
	return func(yield func(*Archetype) bool) {
		for _, a := range s.archetypes {
			if !yield(a) {
				return
			}
		}
	}
}

// ArchetypeCount returns the number of archetypes ever created.
func (s *Scene) ArchetypeCount() int {
	return len(s.archetypes)
}

// FindArchetype returns the archetype for a type set, or nil.
func (s *Scene) FindArchetype(set ComponentTypeSet) *Archetype {
	for _, id := range s.byType[set.Hash()] {
		if a := s.archetypes[id]; a.typ.Equal(set) {
			return a
		}
	}
	return nil
}

// CreateEntity creates an entity whose only component is its name. The
// {EntityName} archetype is created with the first entity.
func (s *Scene) CreateEntity(name string) Entity {
	return s.spawn(name, nil, nil)
}

// Spawn creates a named entity carrying the given components (values or
// pointers of registered types) and places it directly in its final
// archetype, without passing through the intermediate ones.
func (s *Scene) Spawn(name string, components ...any) Entity {
	names := make([]string, len(components))
	for i, comp := range components {
		t := reflect.TypeOf(comp)
		if t == nil {
			panic("ecs: cannot spawn a nil component")
		}
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		names[i] = s.mustNameOf(t)
	}
	return s.spawn(name, names, components)
}

func (s *Scene) spawn(name string, names []string, values []any) Entity {
	set := NewComponentTypeSet(append([]string{EntityNameComponent}, names...)...)
	if len(set) != len(names)+1 {
		panic("ecs: duplicate component in " + set.String())
	}
	for i, compName := range names {
		if !s.registry.mustLookup(compName).accepts(values[i]) {
			panic(fmt.Sprintf("ecs: value of type %T is not a %s", values[i], compName))
		}
	}

	arch := s.archetypeFor(set)
	id := s.pool.create()
	for i, compName := range names {
		arch.columns[s.mustArchetypeRecord(compName, arch.id).Column].Append(values[i])
	}
	col := s.mustArchetypeRecord(EntityNameComponent, arch.id).Column
	arch.columns[col].Append(EntityName{Name: s.strings.Intern(name)})
	arch.entities = append(arch.entities, id)
	s.entities.Put(id, EntityRecord{Archetype: arch.id, Row: len(arch.entities) - 1})

	s.mutated()
	return Entity{ID: id, scene: s}
}

// DestroyEntity removes an entity and releases the strings its components
// own. Returns false if the entity does not exist.
func (s *Scene) DestroyEntity(id EntityID) bool {
	rec, ok := s.entities.Get(id)
	if !ok {
		return false
	}
	arch := s.archetypes[rec.Archetype]

	for _, col := range arch.columns {
		s.releaseStrings(col, rec.Row)
	}
	if moved, swapped := arch.swapRemove(rec.Row); swapped {
		s.entities.Put(moved, EntityRecord{Archetype: arch.id, Row: rec.Row})
	}
	s.entities.Del(id)
	s.pool.destroy(id)

	s.mutated()
	return true
}

// CloneEntity creates a new entity in the same archetype with a deep copy of
// every component. Returns false if the source does not exist.
func (s *Scene) CloneEntity(id EntityID) (EntityID, bool) {
	rec, ok := s.entities.Get(id)
	if !ok {
		return 0, false
	}
	arch := s.archetypes[rec.Archetype]

	clone := s.pool.create()
	arch.entities = append(arch.entities, clone)
	row := len(arch.entities) - 1
	for _, col := range arch.columns {
		col.AppendClone(rec.Row)
		col.RemapStrings(row, s.duplicateString)
	}
	s.entities.Put(clone, EntityRecord{Archetype: arch.id, Row: row})

	s.mutated()
	return clone, true
}

// AddComponent attaches value under the named component type, moving the
// entity to the archetype that includes it. If the entity already has the
// component, the value is overwritten in place and any strings the old value
// owned but the new one does not are released. Returns false if the entity
// does not exist. An unregistered name, a value of the wrong type or the
// EntityName component panics; rename entities with SetEntityName.
func (s *Scene) AddComponent(id EntityID, name string, value any) bool {
	if name == EntityNameComponent {
		panic("ecs: the EntityName component cannot be added; use SetEntityName")
	}
	desc := s.registry.mustLookup(name)
	if !desc.accepts(value) {
		panic(fmt.Sprintf("ecs: value of type %T is not a %s", value, name))
	}

	rec, ok := s.entities.Get(id)
	if !ok {
		return false
	}
	from := s.archetypes[rec.Archetype]

	if ar, ok := s.archetypeRecord(name, from.id); ok {
		col := from.columns[ar.Column]
		old := col.OwnedStrings(rec.Row)
		col.Set(rec.Row, value)
		s.releaseReplaced(old, col.OwnedStrings(rec.Row))
		return true
	}

	to := s.archetypeFor(from.typ.With(name))
	s.moveEntity(id, from, rec.Row, to)
	to.columns[s.mustArchetypeRecord(name, to.id).Column].Append(value)

	s.mutated()
	return true
}

// RemoveComponent detaches the named component, moving the entity to the
// archetype without it. Returns false if the entity does not exist or does
// not have the component. Removing EntityName panics.
func (s *Scene) RemoveComponent(id EntityID, name string) bool {
	if name == EntityNameComponent {
		panic("ecs: the EntityName component cannot be removed")
	}

	rec, ok := s.entities.Get(id)
	if !ok {
		return false
	}
	from := s.archetypes[rec.Archetype]

	ar, ok := s.archetypeRecord(name, from.id)
	if !ok {
		return false
	}
	s.releaseStrings(from.columns[ar.Column], rec.Row)

	to := s.archetypeFor(from.typ.Without(name))
	s.moveEntity(id, from, rec.Row, to)

	s.mutated()
	return true
}

// HasComponent reports whether the entity has the named component.
func (s *Scene) HasComponent(id EntityID, name string) bool {
	rec, ok := s.entities.Get(id)
	if !ok {
		return false
	}
	_, ok = s.archetypeRecord(name, rec.Archetype)
	return ok
}

// GetComponent returns a pointer to the entity's named component, or nil when
// the entity or the component is absent.
func (s *Scene) GetComponent(id EntityID, name string) any {
	rec, ok := s.entities.Get(id)
	if !ok {
		return nil
	}
	ar, ok := s.archetypeRecord(name, rec.Archetype)
	if !ok {
		return nil
	}
	return s.archetypes[rec.Archetype].columns[ar.Column].Get(rec.Row)
}

// EntityName returns the entity's name.
func (s *Scene) EntityName(id EntityID) (string, bool) {
	name, ok := s.GetComponent(id, EntityNameComponent).(*EntityName)
	if !ok {
		return "", false
	}
	return s.strings.Get(name.Name), true
}

// SetEntityName interns a new name for the entity and releases the old one.
func (s *Scene) SetEntityName(id EntityID, value string) bool {
	name, ok := s.GetComponent(id, EntityNameComponent).(*EntityName)
	if !ok {
		return false
	}
	old := name.Name
	name.Name = s.strings.Intern(value)
	s.strings.Delete(old)
	return true
}

// Query yields every entity whose archetype contains all the named
// components. Entities come in row order within an archetype; the order
// across archetypes is unspecified. The scene must not be structurally
// modified while iterating; queue changes on a Commands buffer instead.
func (s *Scene) Query(names ...string) iter.Seq[Entity] {
	set := NewComponentTypeSet(names...)
	return func(yield func(Entity) bool) {
		for _, arch := range s.archetypes {
			if !arch.typ.ContainsAll(set) {
				continue
			}
			for _, id := range arch.entities {
				if !yield(Entity{ID: id, scene: s}) {
					return
				}
			}
		}
	}
}

// archetypeFor returns the archetype for set, creating it on first use.
func (s *Scene) archetypeFor(set ComponentTypeSet) *Archetype {
	if a := s.FindArchetype(set); a != nil {
		return a
	}
	return s.createArchetype(set)
}

// createArchetype adds a new archetype for set and registers its columns in
// the component index. set must be sorted and not yet present.
func (s *Scene) createArchetype(set ComponentTypeSet) *Archetype {
	if !set.IsSorted() {
		panic("ecs: archetype type set " + set.String() + " is not sorted")
	}
	if s.FindArchetype(set) != nil {
		panic("ecs: archetype " + set.String() + " already exists")
	}

	id := ArchetypeID(len(s.archetypes))
	arch := newArchetype(id, set.clone(), s.registry)
	s.archetypes = append(s.archetypes, arch)

	h := set.Hash()
	s.byType[h] = append(s.byType[h], id)

	for col, name := range arch.typ {
		index, ok := s.components[name]
		if !ok {
			index = intmap.New[ArchetypeID, ArchetypeRecord](16)
			s.components[name] = index
		}
		index.Put(id, ArchetypeRecord{Column: col})
	}

	s.log.Debug("archetype created",
		zap.Uint32("archetype", uint32(id)),
		zap.Stringer("type", set))
	return arch
}

// moveEntity relocates an entity from one archetype to another after its
// component set changed. Columns shared by both archetypes are copied
// forward; columns only in from are dropped. Columns only in to are left one
// row short for the caller to fill.
func (s *Scene) moveEntity(id EntityID, from *Archetype, fromRow int, to *Archetype) {
	rec, ok := s.entities.Get(id)
	if !ok || rec.Archetype != from.id || rec.Row != fromRow {
		panic(fmt.Sprintf("ecs: entity %d is not at row %d of archetype %d", id, fromRow, from.id))
	}

	for i, name := range from.typ {
		ar, ok := s.archetypeRecord(name, to.id)
		if !ok {
			continue
		}
		to.columns[ar.Column].AppendFrom(from.columns[i], fromRow)
	}
	to.entities = append(to.entities, id)

	if moved, swapped := from.swapRemove(fromRow); swapped {
		s.entities.Put(moved, EntityRecord{Archetype: from.id, Row: fromRow})
	}

	s.entities.Put(id, EntityRecord{Archetype: to.id, Row: len(to.entities) - 1})
}

// archetypeRecord looks up the column of a component in an archetype.
func (s *Scene) archetypeRecord(name string, arch ArchetypeID) (ArchetypeRecord, bool) {
	return s.components[name].Get(arch)
}

func (s *Scene) mustArchetypeRecord(name string, arch ArchetypeID) ArchetypeRecord {
	ar, ok := s.archetypeRecord(name, arch)
	if !ok {
		panic(fmt.Sprintf("ecs: archetype %d has no %s column", arch, name))
	}
	return ar
}

func (s *Scene) releaseStrings(col column, row int) {
	for _, idx := range col.OwnedStrings(row) {
		s.strings.Delete(idx)
	}
}

// releaseReplaced deletes the indices in old that are not also in current.
func (s *Scene) releaseReplaced(old, current []StringIndex) {
	for _, idx := range old {
		if !slices.Contains(current, idx) {
			s.strings.Delete(idx)
		}
	}
}

func (s *Scene) duplicateString(idx StringIndex) StringIndex {
	return s.strings.Intern(s.strings.Get(idx))
}

// mutated runs the invariant check when validation is enabled.
func (s *Scene) mutated() {
	if !s.validate {
		return
	}
	if err := s.Validate(); err != nil {
		panic(err)
	}
}

func (s *Scene) nameOf(t reflect.Type) (string, bool) {
	desc, ok := s.registry.LookupType(t)
	if !ok {
		return "", false
	}
	return desc.Name, true
}

func (s *Scene) mustNameOf(t reflect.Type) string {
	name, ok := s.nameOf(t)
	if !ok {
		panic("ecs: component type " + t.String() + " not registered")
	}
	return name
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}
