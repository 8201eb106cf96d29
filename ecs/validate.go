package ecs

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
)

// Validate checks every structural invariant of the scene:
//
//   - every column of an archetype is as long as its entity list
//   - the record of every row owner points back at that row
//   - every record points at a row owned by its entity
//   - no two archetypes share a type set
//   - the component index agrees with each archetype's column layout
//
// All violations are returned joined together.
func (s *Scene) Validate() error {
	var errs []error

	seen := make(map[string]ArchetypeID, len(s.archetypes))
	for i, arch := range s.archetypes {
		if arch.id != ArchetypeID(i) {
			errs = append(errs, fmt.Errorf("archetype at slot %d has id %d", i, arch.id))
		}
		if !arch.typ.IsSorted() {
			errs = append(errs, fmt.Errorf("archetype %d: type %s is not sorted", arch.id, arch.typ))
		}
		key := arch.typ.String()
		if other, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("archetypes %d and %d share type %s", other, arch.id, key))
		}
		seen[key] = arch.id

		if len(arch.columns) != len(arch.typ) {
			errs = append(errs, fmt.Errorf("archetype %d: %d columns for %d types", arch.id, len(arch.columns), len(arch.typ)))
		}
		for col, c := range arch.columns {
			if c.Len() != len(arch.entities) {
				errs = append(errs, fmt.Errorf("archetype %d: column %d has %d rows, want %d", arch.id, col, c.Len(), len(arch.entities)))
			}
		}
		for col, name := range arch.typ {
			ar, ok := s.archetypeRecord(name, arch.id)
			if !ok {
				errs = append(errs, fmt.Errorf("archetype %d: component index has no entry for %s", arch.id, name))
			} else if ar.Column != col {
				errs = append(errs, fmt.Errorf("archetype %d: component index puts %s in column %d, want %d", arch.id, name, ar.Column, col))
			}
		}

		for row, id := range arch.entities {
			rec, ok := s.entities.Get(id)
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("archetype %d row %d: entity %d has no record", arch.id, row, id))
			case rec.Archetype != arch.id || rec.Row != row:
				errs = append(errs, fmt.Errorf("archetype %d row %d: entity %d recorded at archetype %d row %d", arch.id, row, id, rec.Archetype, rec.Row))
			}
		}
	}

	for id, rec := range s.entities.All() {
		arch, ok := s.Archetype(rec.Archetype)
		if !ok {
			errs = append(errs, fmt.Errorf("entity %d: archetype %d does not exist", id, rec.Archetype))
			continue
		}
		if rec.Row < 0 || rec.Row >= len(arch.entities) || arch.entities[rec.Row] != id {
			errs = append(errs, fmt.Errorf("entity %d: row %d of archetype %d is not its own", id, rec.Row, rec.Archetype))
		}
		if !s.pool.alive(id) {
			errs = append(errs, fmt.Errorf("entity %d: id is not allocated", id))
		}
	}

	for name, index := range s.components {
		for archID, ar := range index.All() {
			arch, ok := s.Archetype(archID)
			if !ok || ar.Column >= len(arch.typ) || arch.typ[ar.Column] != name {
				errs = append(errs, fmt.Errorf("component index: %s in archetype %d column %d is stale", name, archID, ar.Column))
			}
		}
	}

	return errors.Join(errs...)
}

// Dump writes a human-readable listing of every archetype, its rows and the
// entity index to w.
func (s *Scene) Dump(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "scene %s: %d archetypes, %d entities, %d strings (%d free)\n",
		s.id, len(s.archetypes), s.entities.Len(), s.strings.Len(), s.strings.Free())

	for _, arch := range s.archetypes {
		fmt.Fprintf(tw, "archetype %d %s rows=%d\n", arch.id, arch.typ, len(arch.entities))
		for row, id := range arch.entities {
			name := ""
			if ar, ok := s.archetypeRecord(EntityNameComponent, arch.id); ok {
				if n, ok := s.strings.Lookup(arch.columns[ar.Column].Get(row).(*EntityName).Name); ok {
					name = n
				}
			}
			fmt.Fprintf(tw, "  row %d\tentity %d\t%q\n", row, id, name)
		}
	}

	ids := slices.Sorted(s.entities.Keys())
	fmt.Fprintln(tw, "entity index")
	for _, id := range ids {
		rec, _ := s.entities.Get(id)
		fmt.Fprintf(tw, "  entity %d\tarchetype %d\trow %d\n", id, rec.Archetype, rec.Row)
	}

	return tw.Flush()
}
