package ecs

import (
	"fmt"
	"reflect"
	"slices"

	"gopkg.in/yaml.v3"
)

// EntityNameComponent is the type name of the component every entity carries.
const EntityNameComponent = "EntityName"

// EntityName holds an entity's display name as an interned string.
// The scene owns the string: it is released when the entity is destroyed.
type EntityName struct {
	Name StringIndex `yaml:"name"`
}

func (n *EntityName) OwnedStrings() []StringIndex {
	return []StringIndex{n.Name}
}

func (n *EntityName) RemapStrings(fn func(StringIndex) StringIndex) {
	n.Name = fn(n.Name)
}

// TypeDescriptor describes one registered component type: its name, Go type,
// size, and the codec used to persist instances.
type TypeDescriptor struct {
	Name string
	Type reflect.Type
	Size uintptr

	newColumn func() column
}

// Serialize encodes instance (a T or *T) into a YAML node.
func (d *TypeDescriptor) Serialize(instance any) (*yaml.Node, error) {
	node := &yaml.Node{}
	if err := node.Encode(instance); err != nil {
		return nil, fmt.Errorf("serialize %s: %w", d.Name, err)
	}
	return node, nil
}

// Deserialize decodes node into dst, which must be a *T for the described type.
func (d *TypeDescriptor) Deserialize(dst any, node *yaml.Node) error {
	if t := reflect.TypeOf(dst); t == nil || t.Kind() != reflect.Pointer || t.Elem() != d.Type {
		return fmt.Errorf("deserialize %s: destination is %T, want *%s", d.Name, dst, d.Type)
	}
	if err := node.Decode(dst); err != nil {
		return fmt.Errorf("deserialize %s: %w", d.Name, err)
	}
	return nil
}

// accepts reports whether value is a T or a non-nil *T for the described type.
func (d *TypeDescriptor) accepts(value any) bool {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return false
	}
	if v.Type() == d.Type {
		return true
	}
	return v.Kind() == reflect.Pointer && v.Type().Elem() == d.Type && !v.IsNil()
}

// ComponentRegistry maps component type names to descriptors. A registry is
// populated at startup and read-only afterwards; several scenes may share one.
type ComponentRegistry struct {
	byName map[string]*TypeDescriptor
	byType map[reflect.Type]*TypeDescriptor
}

// NewComponentRegistry creates a registry with the EntityName component
// already registered.
func NewComponentRegistry() *ComponentRegistry {
	r := &ComponentRegistry{
		byName: make(map[string]*TypeDescriptor),
		byType: make(map[reflect.Type]*TypeDescriptor),
	}
	RegisterComponent[EntityName](r, EntityNameComponent)
	return r
}

// RegisterComponent registers T under name, or under T's Go type name when no
// name is given. Registering the same type twice under the same name returns
// the existing descriptor; any other clash panics.
func RegisterComponent[T any](r *ComponentRegistry, name ...string) *TypeDescriptor {
	t := reflect.TypeFor[T]()

	// Components are plain values. Pointers, maps, channels and functions
	// cannot be columns.
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		panic("ecs: component " + t.String() + " must be a value type")
	}

	typeName := t.Name()
	if len(name) > 0 {
		typeName = name[0]
	}
	if typeName == "" {
		panic("ecs: component " + t.String() + " needs an explicit name")
	}

	if existing, ok := r.byName[typeName]; ok {
		if existing.Type != t {
			panic("ecs: component name " + typeName + " already registered for " + existing.Type.String())
		}
		return existing
	}
	if existing, ok := r.byType[t]; ok {
		panic("ecs: component type " + t.String() + " already registered as " + existing.Name)
	}

	desc := &TypeDescriptor{
		Name:      typeName,
		Type:      t,
		Size:      t.Size(),
		newColumn: newTypedColumn[T],
	}
	r.byName[typeName] = desc
	r.byType[t] = desc
	return desc
}

// Lookup returns the descriptor registered under name.
func (r *ComponentRegistry) Lookup(name string) (*TypeDescriptor, bool) {
	desc, ok := r.byName[name]
	return desc, ok
}

// LookupType returns the descriptor registered for a Go type.
func (r *ComponentRegistry) LookupType(t reflect.Type) (*TypeDescriptor, bool) {
	desc, ok := r.byType[t]
	return desc, ok
}

// Names returns every registered component name in sorted order.
func (r *ComponentRegistry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NameOf returns the registered component name for T.
func NameOf[T any](r *ComponentRegistry) (string, bool) {
	desc, ok := r.byType[reflect.TypeFor[T]()]
	if !ok {
		return "", false
	}
	return desc.Name, true
}

func (r *ComponentRegistry) mustLookup(name string) *TypeDescriptor {
	desc, ok := r.byName[name]
	if !ok {
		panic("ecs: component type " + name + " not registered")
	}
	return desc
}
