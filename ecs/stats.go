package ecs

// SceneStats is a point-in-time summary of a scene's storage.
type SceneStats struct {
	ArchetypeCount      int
	EmptyArchetypeCount int
	TotalEntityCount    int
	InternedStrings     int
	FreeStrings         int
	ArchetypeBreakdown  []ArchetypeStats
}

// ArchetypeStats describes one archetype.
type ArchetypeStats struct {
	ID          ArchetypeID
	Type        ComponentTypeSet
	EntityCount int
	RowBytes    uintptr
}

// CollectStats walks the scene and summarizes it. Empty archetypes are
// counted separately because they are never reclaimed.
func (s *Scene) CollectStats() SceneStats {
	stats := SceneStats{
		ArchetypeCount:     len(s.archetypes),
		TotalEntityCount:   s.entities.Len(),
		InternedStrings:    s.strings.Len(),
		FreeStrings:        s.strings.Free(),
		ArchetypeBreakdown: make([]ArchetypeStats, 0, len(s.archetypes)),
	}

	for _, arch := range s.archetypes {
		if arch.Len() == 0 {
			stats.EmptyArchetypeCount++
		}
		var rowBytes uintptr
		for _, name := range arch.typ {
			rowBytes += s.registry.mustLookup(name).Size
		}
		stats.ArchetypeBreakdown = append(stats.ArchetypeBreakdown, ArchetypeStats{
			ID:          arch.id,
			Type:        arch.typ,
			EntityCount: arch.Len(),
			RowBytes:    rowBytes,
		})
	}

	return stats
}
