package ecs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const sceneFormatVersion = 1

// sceneDocument is the on-disk form of a scene: the interner, the id pool and
// one block per archetype listing its type set and its rows.
type sceneDocument struct {
	Version    int                 `yaml:"version"`
	Scene      string              `yaml:"scene"`
	Strings    stringsDocument     `yaml:"strings"`
	Entities   poolDocument        `yaml:"entities"`
	Archetypes []archetypeDocument `yaml:"archetypes"`
}

type stringsDocument struct {
	Slots []string      `yaml:"slots"`
	Free  []StringIndex `yaml:"free,flow"`
}

type poolDocument struct {
	Generations []uint32 `yaml:"generations,flow"`
	Free        []uint32 `yaml:"free,flow"`
}

type archetypeDocument struct {
	ID   ArchetypeID   `yaml:"id"`
	Type []string      `yaml:"type,flow"`
	Rows []rowDocument `yaml:"rows"`
}

type rowDocument struct {
	Entity     EntityID             `yaml:"entity"`
	Components map[string]yaml.Node `yaml:"components"`
}

// Serialize writes the scene as a YAML document. Every component is encoded
// with its registered descriptor.
func (s *Scene) Serialize(w io.Writer) error {
	doc := sceneDocument{
		Version: sceneFormatVersion,
		Scene:   s.id.String(),
		Strings: stringsDocument{
			Slots: s.strings.slots,
			Free:  s.strings.free,
		},
		Entities: poolDocument{
			Generations: s.pool.generations,
			Free:        s.pool.free,
		},
		Archetypes: make([]archetypeDocument, 0, len(s.archetypes)),
	}

	for _, arch := range s.archetypes {
		ad := archetypeDocument{
			ID:   arch.id,
			Type: arch.typ,
			Rows: make([]rowDocument, 0, len(arch.entities)),
		}
		for row, id := range arch.entities {
			rd := rowDocument{
				Entity:     id,
				Components: make(map[string]yaml.Node, len(arch.typ)),
			}
			for col, name := range arch.typ {
				node, err := s.registry.mustLookup(name).Serialize(arch.columns[col].Get(row))
				if err != nil {
					return fmt.Errorf("archetype %d row %d: %w", arch.id, row, err)
				}
				rd.Components[name] = *node
			}
			ad.Rows = append(ad.Rows, rd)
		}
		doc.Archetypes = append(doc.Archetypes, ad)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return enc.Close()
}

// Deserialize reads a scene written by Serialize. Archetypes keep their ids,
// entities keep their ids and rows, and every entity record is re-resolved
// against the rebuilt archetype arena before the scene is returned. Any
// problem with the input is reported as an error wrapping ErrMalformedScene;
// the returned scene is nil in that case.
func Deserialize(r io.Reader, registry *ComponentRegistry, opts ...Option) (scene *Scene, err error) {
	defer func() {
		if p := recover(); p != nil {
			scene = nil
			err = fmt.Errorf("%w: %v", ErrMalformedScene, p)
		}
	}()

	var doc sceneDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedScene, err)
	}
	if doc.Version != sceneFormatVersion {
		return nil, malformedf("unsupported version %d", doc.Version)
	}
	id, err := uuid.Parse(doc.Scene)
	if err != nil {
		return nil, fmt.Errorf("%w: scene id: %w", ErrMalformedScene, err)
	}

	s := NewScene(registry, append(opts[:len(opts):len(opts)], WithID(id))...)
	validate := s.validate
	s.validate = false

	if err := s.strings.restore(doc.Strings.Slots, doc.Strings.Free); err != nil {
		return nil, err
	}
	if err := s.pool.restore(doc.Entities.Generations, doc.Entities.Free); err != nil {
		return nil, err
	}

	for i, ad := range doc.Archetypes {
		if err := s.loadArchetype(ArchetypeID(i), ad); err != nil {
			return nil, err
		}
	}

	for _, idx := range s.pool.free {
		if s.entities.Has(NewEntityID(idx, s.pool.generations[idx])) {
			return nil, malformedf("entity slot %d is both free and live", idx)
		}
	}

	if err := s.relinkArchetypes(); err != nil {
		return nil, err
	}
	if err := s.checkOwnedStrings(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedScene, err)
	}

	s.validate = validate
	s.log.Debug("scene loaded",
		zap.Stringer("scene", s.id),
		zap.Int("archetypes", len(s.archetypes)),
		zap.Int("entities", s.entities.Len()))
	return s, nil
}

func (s *Scene) loadArchetype(want ArchetypeID, ad archetypeDocument) error {
	if ad.ID != want {
		return malformedf("archetype %d listed at position %d", ad.ID, want)
	}

	set := ComponentTypeSet(ad.Type)
	if !set.IsSorted() {
		return malformedf("archetype %d: type %s is not sorted", ad.ID, set)
	}
	descs := make([]*TypeDescriptor, len(set))
	for i, name := range set {
		desc, ok := s.registry.Lookup(name)
		if !ok {
			return fmt.Errorf("%w: archetype %d: %w %q", ErrMalformedScene, ad.ID, ErrUnknownComponent, name)
		}
		descs[i] = desc
	}
	if s.FindArchetype(set) != nil {
		return malformedf("archetype %d: type %s listed twice", ad.ID, set)
	}

	arch := s.createArchetype(set)
	for row, rd := range ad.Rows {
		if !s.pool.alive(rd.Entity) {
			return malformedf("archetype %d row %d: entity %d is not allocated", ad.ID, row, rd.Entity)
		}
		if s.entities.Has(rd.Entity) {
			return malformedf("archetype %d row %d: entity %d listed twice", ad.ID, row, rd.Entity)
		}
		if len(rd.Components) != len(set) {
			return malformedf("archetype %d row %d: %d components, want %d", ad.ID, row, len(rd.Components), len(set))
		}

		for col, name := range set {
			node, ok := rd.Components[name]
			if !ok {
				return malformedf("archetype %d row %d: missing %s", ad.ID, row, name)
			}
			arch.columns[col].AppendZero()
			if err := descs[col].Deserialize(arch.columns[col].Get(row), &node); err != nil {
				return fmt.Errorf("%w: archetype %d row %d: %w", ErrMalformedScene, ad.ID, row, err)
			}
		}
		arch.entities = append(arch.entities, rd.Entity)
		s.entities.Put(rd.Entity, EntityRecord{Archetype: arch.id, Row: row})
	}
	return nil
}

// relinkArchetypes re-resolves every entity record's archetype id against the
// archetype arena. Records only hold ids, so this is a lookup per entity that
// fails on ids with no archetype or rows past its end.
func (s *Scene) relinkArchetypes() error {
	for id, rec := range s.entities.All() {
		arch, ok := s.Archetype(rec.Archetype)
		if !ok {
			return malformedf("entity %d: archetype %d does not exist", id, rec.Archetype)
		}
		if rec.Row >= arch.Len() || arch.entities[rec.Row] != id {
			return malformedf("entity %d: not at row %d of archetype %d", id, rec.Row, rec.Archetype)
		}
	}
	return nil
}

// checkOwnedStrings verifies that every string owned by a component refers
// to a live interner slot and that no slot has two owners.
func (s *Scene) checkOwnedStrings() error {
	owners := make(map[StringIndex]bool)
	for _, arch := range s.archetypes {
		for col, c := range arch.columns {
			for row := range arch.entities {
				for _, idx := range c.OwnedStrings(row) {
					if _, ok := s.strings.Lookup(idx); !ok {
						return malformedf("archetype %d row %d: %s refers to free string %d", arch.id, row, arch.typ[col], idx)
					}
					if owners[idx] {
						return malformedf("archetype %d row %d: %s string %d owned twice", arch.id, row, arch.typ[col], idx)
					}
					owners[idx] = true
				}
			}
		}
	}
	return nil
}

func (p *entityPool) restore(generations []uint32, free []uint32) error {
	p.generations = append(p.generations[:0], generations...)
	p.free = p.free[:0]
	seen := make(map[uint32]bool, len(free))
	for _, idx := range free {
		if int(idx) >= len(generations) {
			return malformedf("free entity slot %d out of range", idx)
		}
		if seen[idx] {
			return malformedf("free entity slot %d listed twice", idx)
		}
		seen[idx] = true
		p.free = append(p.free, idx)
	}
	for idx, gen := range p.generations {
		if gen == 0 {
			return malformedf("entity slot %d has generation 0", idx)
		}
	}
	return nil
}

// Save writes the scene to path. The document is written to a temporary
// file in the same directory and renamed over path, so a failed save leaves
// any existing file untouched.
func (s *Scene) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create scene file %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if err := s.Serialize(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("save scene %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("save scene %s: %w", path, err)
	}
	if info, err := os.Stat(path); err == nil {
		os.Chmod(tmpPath, info.Mode())
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("save scene %s: %w", path, err)
	}
	return nil
}

// Load reads a scene from path. A missing file or malformed contents return
// a nil scene and an error.
func Load(path string, registry *ComponentRegistry, opts ...Option) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene file %s: %w", path, err)
	}
	defer f.Close()

	s, err := Deserialize(f, registry, opts...)
	if err != nil {
		return nil, fmt.Errorf("load scene %s: %w", path, err)
	}
	return s, nil
}
