package ecs

import "iter"

// ArchetypeID is a small sequential id, stable for the archetype's lifetime.
type ArchetypeID uint32

// Archetype stores every entity that has exactly one component type set.
// Components live in one dense column per type, all of the same length as
// entities; row r of every column belongs to entities[r].
type Archetype struct {
	id       ArchetypeID
	typ      ComponentTypeSet
	columns  []column
	entities []EntityID
}

func newArchetype(id ArchetypeID, typ ComponentTypeSet, registry *ComponentRegistry) *Archetype {
	a := &Archetype{
		id:      id,
		typ:     typ,
		columns: make([]column, len(typ)),
	}
	for i, name := range typ {
		a.columns[i] = registry.mustLookup(name).newColumn()
	}
	return a
}

// ID returns the archetype's id.
func (a *Archetype) ID() ArchetypeID {
	return a.id
}

// Type returns the archetype's component type set. Do not modify it.
func (a *Archetype) Type() ComponentTypeSet {
	return a.typ
}

// Len returns the number of rows.
func (a *Archetype) Len() int {
	return len(a.entities)
}

// HasComponent reports whether the archetype stores the named component.
func (a *Archetype) HasComponent(name string) bool {
	return a.typ.Contains(name)
}

// EntityAt returns the owner of row.
func (a *Archetype) EntityAt(row int) EntityID {
	return a.entities[row]
}

// Entities iterates rows in order, yielding row index and owner.
func (a *Archetype) Entities() iter.Seq2[int, EntityID] {
	return func(yield func(int, EntityID) bool) {
		for row, id := range a.entities {
			if !yield(row, id) {
				return
			}
		}
	}
}

// Component returns a pointer to the named component at row, or nil when the
// archetype does not store it.
func (a *Archetype) Component(row int, name string) any {
	col := a.typ.Index(name)
	if col < 0 {
		return nil
	}
	return a.columns[col].Get(row)
}

// swapRemove removes row from every column and from entities using
// swap-and-pop. When another row was moved into the hole it returns that
// row's owner and true.
func (a *Archetype) swapRemove(row int) (EntityID, bool) {
	last := len(a.entities) - 1
	for _, col := range a.columns {
		col.SwapRemove(row)
	}

	if row == last {
		a.entities = a.entities[:last]
		return 0, false
	}

	moved := a.entities[last]
	a.entities[row] = moved
	a.entities = a.entities[:last]
	return moved, true
}
