package ecs

// Stage holds the application's active scene. The main loop owns one Stage
// and passes it, or the scene it returns, to whatever needs it.
type Stage struct {
	registry *ComponentRegistry
	opts     []Option
	active   *Scene
}

// NewStage creates a stage that builds scenes with the given registry and
// options when it needs an empty one.
func NewStage(registry *ComponentRegistry, opts ...Option) *Stage {
	return &Stage{registry: registry, opts: opts}
}

// Active returns the active scene, creating an empty one on first access.
func (st *Stage) Active() *Scene {
	if st.active == nil {
		st.active = NewScene(st.registry, st.opts...)
	}
	return st.active
}

// SetActive replaces the active scene and returns the previous one, which
// may be nil.
func (st *Stage) SetActive(scene *Scene) *Scene {
	prev := st.active
	st.active = scene
	return prev
}

// Load reads a scene file and makes it active. On error the active scene is
// left unchanged.
func (st *Stage) Load(path string) error {
	scene, err := Load(path, st.registry, st.opts...)
	if err != nil {
		return err
	}
	st.active = scene
	return nil
}
