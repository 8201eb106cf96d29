package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// eface is the memory layout of an interface value.
type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// View is a typed query over the scene. T must be a struct whose fields are
// pointers to registered component types:
//
//	view := ecs.NewView[struct {
//		*Position
//		*Velocity
//		Sprite *Sprite `ecs:"optional"`
//	}](scene)
//
// Embedded fields are always required. Named fields can be marked optional
// with the `ecs:"optional"` tag and are nil when absent.
//
// Pointers handed out by a view are valid until the entity's archetype next
// changes shape.
type View[T any] struct {
	scene       *Scene
	names       []string
	optional    []bool
	fieldOffset []uintptr
	required    ComponentTypeSet
}

// NewView creates a view for the struct type T.
func NewView[T any](scene *Scene) *View[T] {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("ecs: View type parameter must be a struct")
	}

	v := &View[T]{
		scene:       scene,
		names:       make([]string, 0, structType.NumField()),
		optional:    make([]bool, 0, structType.NumField()),
		fieldOffset: make([]uintptr, 0, structType.NumField()),
	}

	required := make([]string, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Pointer {
			panic("ecs: View struct fields must be pointer types")
		}

		name := scene.mustNameOf(field.Type.Elem())

		isOptional := false
		if !field.Anonymous {
			switch tag := field.Tag.Get("ecs"); tag {
			case "":
			case "optional":
				isOptional = true
			default:
				panic("ecs: invalid ecs tag value \"" + tag + "\" (only \"optional\" is supported)")
			}
		}

		v.names = append(v.names, name)
		v.optional = append(v.optional, isOptional)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
		if !isOptional {
			required = append(required, name)
		}
	}
	v.required = NewComponentTypeSet(required...)

	return v
}

// Fill points the fields of ptr at the entity's components. It returns false
// if the entity is gone or lacks a required component.
func (v *View[T]) Fill(id EntityID, ptr *T) bool {
	rec, ok := v.scene.entities.Get(id)
	if !ok {
		return false
	}
	arch := v.scene.archetypes[rec.Archetype]
	if !v.matchesArchetype(arch) {
		return false
	}
	v.populate(unsafe.Pointer(ptr), arch, rec.Row, v.columnIndices(arch))
	return true
}

// Get returns a populated view struct for the entity, or nil.
func (v *View[T]) Get(id EntityID) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

// Iter yields every entity that has all required components.
func (v *View[T]) Iter() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		for _, arch := range v.scene.archetypes {
			if !v.matchesArchetype(arch) || arch.Len() == 0 {
				continue
			}
			if !v.iterArchetype(arch, yield) {
				return
			}
		}
	}
}

// Values yields only the view structs.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates an entity named name carrying every non-nil component of
// data. A nil required component panics.
func (v *View[T]) Spawn(name string, data T) Entity {
	structPtr := unsafe.Pointer(&data)

	names := make([]string, 0, len(v.names))
	values := make([]any, 0, len(v.names))
	for i, compName := range v.names {
		componentPtr := *(*unsafe.Pointer)(unsafe.Add(structPtr, v.fieldOffset[i]))
		if componentPtr == nil {
			if !v.optional[i] {
				panic("ecs: required component " + compName + " is nil in View.Spawn")
			}
			continue
		}
		desc := v.scene.registry.mustLookup(compName)
		names = append(names, compName)
		values = append(values, reflect.NewAt(desc.Type, componentPtr).Interface())
	}

	return v.scene.spawn(name, names, values)
}

// matchesArchetype checks the required components; optional ones may be
// missing.
func (v *View[T]) matchesArchetype(arch *Archetype) bool {
	return arch.typ.ContainsAll(v.required)
}

// columnIndices maps each view field to its column in arch, or -1.
func (v *View[T]) columnIndices(arch *Archetype) []int {
	cols := make([]int, len(v.names))
	for i, name := range v.names {
		cols[i] = -1
		if ar, ok := v.scene.archetypeRecord(name, arch.id); ok {
			cols[i] = ar.Column
		}
	}
	return cols
}

func (v *View[T]) iterArchetype(arch *Archetype, yield func(Entity, T) bool) bool {
	cols := v.columnIndices(arch)

	var result T
	resultPtr := unsafe.Pointer(&result)
	for row, id := range arch.entities {
		v.populate(resultPtr, arch, row, cols)
		if !yield(Entity{ID: id, scene: v.scene}, result) {
			return false
		}
	}
	return true
}

func (v *View[T]) populate(resultPtr unsafe.Pointer, arch *Archetype, row int, cols []int) {
	for i, col := range cols {
		fieldPtr := unsafe.Add(resultPtr, v.fieldOffset[i])
		if col == -1 {
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}
		component := arch.columns[col].Get(row)
		*(*unsafe.Pointer)(fieldPtr) = (*eface)(unsafe.Pointer(&component)).data
	}
}
