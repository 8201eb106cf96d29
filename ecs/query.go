package ecs

import "iter"

// Query wraps a View with caching for repeated iteration. It caches the list
// of matching archetypes, rebuilding it whenever the scene's archetype count
// changes, and snapshots the matching rows on Execute. The uncached View is
// always a correct fallback.
type Query[T any] struct {
	view               *View[T]
	scene              *Scene
	cachedArchetypes   []*Archetype
	lastArchetypeCount int

	cachedEntities   []Entity
	cachedComponents []T
	cacheValid       bool
}

// NewQuery creates a Query over the scene.
func NewQuery[T any](scene *Scene) *Query[T] {
	q := &Query[T]{}
	q.Init(scene)
	return q
}

// Init binds the Query to a scene. The Scheduler calls it for every Query
// field of a registered system.
func (q *Query[T]) Init(scene *Scene) {
	q.view = NewView[T](scene)
	q.scene = scene
	q.cachedArchetypes = nil
	q.lastArchetypeCount = -1
	q.cacheValid = false
}

// Execute snapshots the matching entities and component pointers. The
// Scheduler calls it at the start of every frame; the snapshot stays valid
// until the scene is structurally modified.
func (q *Query[T]) Execute() {
	q.invalidateIfNeeded()
	q.ensureArchetypeCache()

	q.cachedEntities = q.cachedEntities[:0]
	q.cachedComponents = q.cachedComponents[:0]

	for _, arch := range q.cachedArchetypes {
		q.view.iterArchetype(arch, func(e Entity, item T) bool {
			q.cachedEntities = append(q.cachedEntities, e)
			q.cachedComponents = append(q.cachedComponents, item)
			return true
		})
	}

	q.cacheValid = true
}

// Archetypes returns the cached matching archetypes, refreshing the cache
// first if new archetypes were created.
func (q *Query[T]) Archetypes() []*Archetype {
	q.invalidateIfNeeded()
	q.ensureArchetypeCache()
	return q.cachedArchetypes
}

func (q *Query[T]) invalidateIfNeeded() {
	if count := len(q.scene.archetypes); count != q.lastArchetypeCount {
		q.cachedArchetypes = nil
		q.lastArchetypeCount = count
	}
}

func (q *Query[T]) ensureArchetypeCache() {
	if q.cachedArchetypes != nil {
		return
	}

	q.cachedArchetypes = make([]*Archetype, 0)
	for _, arch := range q.scene.archetypes {
		if q.view.matchesArchetype(arch) {
			q.cachedArchetypes = append(q.cachedArchetypes, arch)
		}
	}
}

// Iter yields the rows captured by the last Execute.
// Panics if Execute has not been called.
func (q *Query[T]) Iter() iter.Seq2[Entity, T] {
	if !q.cacheValid {
		panic("ecs: Query.Iter() called before Query.Execute()")
	}

	return func(yield func(Entity, T) bool) {
		for i := range q.cachedEntities {
			if !yield(q.cachedEntities[i], q.cachedComponents[i]) {
				return
			}
		}
	}
}

// Values yields only the view structs captured by the last Execute.
// Panics if Execute has not been called.
func (q *Query[T]) Values() iter.Seq[T] {
	if !q.cacheValid {
		panic("ecs: Query.Values() called before Query.Execute()")
	}

	return func(yield func(T) bool) {
		for i := range q.cachedComponents {
			if !yield(q.cachedComponents[i]) {
				return
			}
		}
	}
}

// Len returns the number of rows captured by the last Execute.
func (q *Query[T]) Len() int {
	return len(q.cachedEntities)
}
