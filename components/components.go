// Package components is the component set shared by the command-line tools:
// spatial state built on mathgl vectors plus a few gameplay components that
// exercise cloning and string ownership.
package components

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/plus3/tessera/ecs"
)

// Transform places an entity in the world.
type Transform struct {
	Position mgl64.Vec3 `yaml:"position,flow"`
	Scale    mgl64.Vec3 `yaml:"scale,flow"`
	Yaw      float64    `yaml:"yaw"`
}

// NewTransform returns a unit-scale transform at pos.
func NewTransform(pos mgl64.Vec3) Transform {
	return Transform{Position: pos, Scale: mgl64.Vec3{1, 1, 1}}
}

// Forward is the unit vector the transform faces on the XZ plane.
func (t *Transform) Forward() mgl64.Vec3 {
	return mgl64.Rotate3DY(t.Yaw).Mul3x1(mgl64.Vec3{0, 0, 1})
}

// Motion moves an entity every frame.
type Motion struct {
	Velocity mgl64.Vec3 `yaml:"velocity,flow"`
	Spin     float64    `yaml:"spin"` // radians per second around Y
}

type Health struct {
	Current int `yaml:"current"`
	Max     int `yaml:"max"`
}

// Tag is a free-form label. The scene owns the string.
type Tag struct {
	Text ecs.StringIndex `yaml:"text"`
}

func (t *Tag) OwnedStrings() []ecs.StringIndex {
	return []ecs.StringIndex{t.Text}
}

func (t *Tag) RemapStrings(fn func(ecs.StringIndex) ecs.StringIndex) {
	t.Text = fn(t.Text)
}

// Sprite refers to an asset path interned by whoever loads the assets. The
// scene never releases it.
type Sprite struct {
	Asset ecs.StringIndex `yaml:"asset"`
	Layer int             `yaml:"layer"`
}

type Inventory struct {
	Items []string `yaml:"items,flow"`
}

func (i *Inventory) Clone() Inventory {
	return Inventory{Items: slices.Clone(i.Items)}
}

// Register adds every component in this package to r.
func Register(r *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Transform](r)
	ecs.RegisterComponent[Motion](r)
	ecs.RegisterComponent[Health](r)
	ecs.RegisterComponent[Tag](r)
	ecs.RegisterComponent[Sprite](r)
	ecs.RegisterComponent[Inventory](r)
}

// NewRegistry returns a registry holding EntityName and this package's
// components.
func NewRegistry() *ecs.ComponentRegistry {
	r := ecs.NewComponentRegistry()
	Register(r)
	return r
}
