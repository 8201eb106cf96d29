package ecs_test

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/plus3/tessera/ecs"
)

var sceneID = uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")

func Example() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)

	scene := ecs.NewScene(registry)
	hero := scene.CreateEntity("Hero")
	ecs.AddComponent(hero, Position{X: 1, Y: 2})
	ecs.AddComponent(hero, Velocity{DX: 1})

	for e := range scene.Query("Position", "Velocity") {
		pos := ecs.GetComponent[Position](e)
		fmt.Printf("%s at (%.0f, %.0f)\n", e.Name(), pos.X, pos.Y)
	}
	fmt.Println("archetypes:", scene.ArchetypeCount())

	// Output:
	// Hero at (1, 2)
	// archetypes: 3
}

func ExampleView() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	scene := ecs.NewScene(registry)

	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](scene)

	scene.Spawn("a", Position{X: 1}, Velocity{DX: 2})
	scene.Spawn("b", Position{X: 10})

	for e, item := range view.Iter() {
		item.X += item.DX
		fmt.Println(e.Name(), item.X)
	}

	// Output:
	// a 3
}

func ExampleScene_Serialize() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	scene := ecs.NewScene(registry, ecs.WithID(sceneID))
	scene.Spawn("Hero", Position{X: 1, Y: 2})

	if err := scene.Serialize(os.Stdout); err != nil {
		fmt.Println(err)
	}

	// Output:
	// version: 1
	// scene: 7d444840-9dc0-11d1-b245-5ffdce74fad2
	// strings:
	//   slots:
	//     - Hero
	//   free: []
	// entities:
	//   generations: [1]
	//   free: []
	// archetypes:
	//   - id: 0
	//     type: [EntityName, Position]
	//     rows:
	//       - entity: 4294967296
	//         components:
	//           EntityName:
	//             name: 0
	//           Position:
	//             x: 1
	//             "y": 2
}
