// Package script builds and edits scenes from Lua. Entity ids cross into Lua
// as numbers; component values cross as tables shaped like their YAML form.
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/plus3/tessera/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM bound to one scene.
// Single-goroutine access only, like the scene itself.
type Engine struct {
	vm    *lua.LState
	scene *ecs.Scene
	log   *zap.Logger
}

// NewEngine creates a Lua VM with the scene API installed as globals.
func NewEngine(scene *ecs.Scene, log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, scene: scene, log: log}
	for name, fn := range map[string]lua.LGFunction{
		"create_entity":    e.createEntity,
		"spawn":            e.spawn,
		"destroy":          e.destroy,
		"clone":            e.clone,
		"add_component":    e.addComponent,
		"remove_component": e.removeComponent,
		"has_component":    e.hasComponent,
		"get_component":    e.getComponent,
		"entity_name":      e.entityName,
		"set_name":         e.setName,
		"query":            e.query,
		"entity_count":     e.entityCount,
		"intern":           e.intern,
		"lookup_string":    e.lookupString,
		"log":              e.logMessage,
	} {
		vm.SetGlobal(name, vm.NewFunction(fn))
	}
	return e
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// Scene returns the scene the engine edits.
func (e *Engine) Scene() *ecs.Scene {
	return e.scene
}

// DoString runs a chunk of Lua.
func (e *Engine) DoString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("run lua: %w", err)
	}
	return nil
}

// DoFile runs a Lua file.
func (e *Engine) DoFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return nil
}

// LoadDir runs every .lua file in dir in name order. A missing directory is
// not an error.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		if err := e.DoFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) checkEntity(L *lua.LState, n int) ecs.EntityID {
	return ecs.EntityID(uint64(L.CheckNumber(n)))
}

func (e *Engine) checkDescriptor(L *lua.LState, n int) *ecs.TypeDescriptor {
	name := L.CheckString(n)
	desc, ok := e.scene.Registry().Lookup(name)
	if !ok {
		L.ArgError(n, fmt.Sprintf("%v %q", ecs.ErrUnknownComponent, name))
	}
	return desc
}

// decodeComponent turns a Lua table into a new component value of the
// described type and returns a pointer to it.
func (e *Engine) decodeComponent(L *lua.LState, desc *ecs.TypeDescriptor, lv lua.LValue) any {
	node, err := toNode(lv)
	if err != nil {
		L.RaiseError("%s: %v", desc.Name, err)
	}
	ptr := reflect.New(desc.Type).Interface()
	if err := desc.Deserialize(ptr, node); err != nil {
		L.RaiseError("%v", err)
	}
	return ptr
}

// create_entity(name) -> id
func (e *Engine) createEntity(L *lua.LState) int {
	ent := e.scene.CreateEntity(L.CheckString(1))
	L.Push(lua.LNumber(ent.ID))
	return 1
}

// spawn(name, {Component = {...}, ...}) -> id
func (e *Engine) spawn(L *lua.LState) int {
	name := L.CheckString(1)
	comps := L.OptTable(2, L.NewTable())

	var values []any
	var err error
	comps.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		key, ok := k.(lua.LString)
		if !ok {
			err = fmt.Errorf("component keys must be type names, got %s", k.Type())
			return
		}
		desc, ok := e.scene.Registry().Lookup(string(key))
		if !ok {
			err = fmt.Errorf("%w %q", ecs.ErrUnknownComponent, string(key))
			return
		}
		values = append(values, e.decodeComponent(L, desc, v))
	})
	if err != nil {
		L.ArgError(2, err.Error())
	}

	ent := e.scene.Spawn(name, values...)
	L.Push(lua.LNumber(ent.ID))
	return 1
}

// destroy(id) -> bool
func (e *Engine) destroy(L *lua.LState) int {
	L.Push(lua.LBool(e.scene.DestroyEntity(e.checkEntity(L, 1))))
	return 1
}

// clone(id) -> id | nil
func (e *Engine) clone(L *lua.LState) int {
	id, ok := e.scene.CloneEntity(e.checkEntity(L, 1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(id))
	return 1
}

// add_component(id, type, {...}) -> bool
func (e *Engine) addComponent(L *lua.LState) int {
	id := e.checkEntity(L, 1)
	desc := e.checkDescriptor(L, 2)
	if desc.Name == ecs.EntityNameComponent {
		L.ArgError(2, "use set_name to rename an entity")
	}
	value := e.decodeComponent(L, desc, L.Get(3))
	L.Push(lua.LBool(e.scene.AddComponent(id, desc.Name, value)))
	return 1
}

// remove_component(id, type) -> bool
func (e *Engine) removeComponent(L *lua.LState) int {
	id := e.checkEntity(L, 1)
	name := L.CheckString(2)
	if name == ecs.EntityNameComponent {
		L.ArgError(2, "the EntityName component cannot be removed")
	}
	L.Push(lua.LBool(e.scene.RemoveComponent(id, name)))
	return 1
}

// has_component(id, type) -> bool
func (e *Engine) hasComponent(L *lua.LState) int {
	L.Push(lua.LBool(e.scene.HasComponent(e.checkEntity(L, 1), L.CheckString(2))))
	return 1
}

// get_component(id, type) -> table | nil
func (e *Engine) getComponent(L *lua.LState) int {
	id := e.checkEntity(L, 1)
	desc := e.checkDescriptor(L, 2)

	comp := e.scene.GetComponent(id, desc.Name)
	if comp == nil {
		L.Push(lua.LNil)
		return 1
	}
	node, err := desc.Serialize(comp)
	if err != nil {
		L.RaiseError("%v", err)
	}
	lv, err := fromNode(L, node)
	if err != nil {
		L.RaiseError("%s: %v", desc.Name, err)
	}
	L.Push(lv)
	return 1
}

// entity_name(id) -> string | nil
func (e *Engine) entityName(L *lua.LState) int {
	name, ok := e.scene.EntityName(e.checkEntity(L, 1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(name))
	return 1
}

// set_name(id, name) -> bool
func (e *Engine) setName(L *lua.LState) int {
	L.Push(lua.LBool(e.scene.SetEntityName(e.checkEntity(L, 1), L.CheckString(2))))
	return 1
}

// query(type, ...) -> {id, ...}
func (e *Engine) query(L *lua.LState) int {
	names := make([]string, L.GetTop())
	for i := range names {
		names[i] = L.CheckString(i + 1)
	}

	result := L.NewTable()
	for ent := range e.scene.Query(names...) {
		result.Append(lua.LNumber(ent.ID))
	}
	L.Push(result)
	return 1
}

// entity_count() -> number
func (e *Engine) entityCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.scene.EntityCount()))
	return 1
}

// intern(s) -> index
func (e *Engine) intern(L *lua.LState) int {
	L.Push(lua.LNumber(e.scene.Strings().Intern(L.CheckString(1))))
	return 1
}

// lookup_string(index) -> string | nil
func (e *Engine) lookupString(L *lua.LState) int {
	s, ok := e.scene.Strings().Lookup(ecs.StringIndex(L.CheckNumber(1)))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(s))
	return 1
}

// log(msg)
func (e *Engine) logMessage(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}
