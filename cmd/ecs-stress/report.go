package main

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"text/template"
	"time"

	"github.com/plus3/tessera/ecs"
)

// Report collects what one stress run did to the scene and what it cost.
type Report struct {
	Duration       time.Duration
	Entities       int
	Components     int
	Systems        int
	ChurnPerFrame  int
	ClonesPerFrame int

	Frames    FrameTimes
	Elapsed   time.Duration
	Moves     int64
	Clones    int64
	Destroys  int64
	Scene     ecs.SceneStats
	ShowGC    bool
	MemBefore runtime.MemStats
	MemAfter  runtime.MemStats
}

// FrameTimes records how long each scheduler pass took.
type FrameTimes struct {
	samples []time.Duration

	Count         int
	Min, Max, Avg time.Duration
	P50, P99      time.Duration
}

// Record adds one frame.
func (f *FrameTimes) Record(d time.Duration) {
	f.samples = append(f.samples, d)
}

// Summarize fills in the aggregate fields from the recorded frames.
func (f *FrameTimes) Summarize() {
	f.Count = len(f.samples)
	if f.Count == 0 {
		return
	}
	sorted := slices.Clone(f.samples)
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	f.Min = sorted[0]
	f.Max = sorted[f.Count-1]
	f.Avg = total / time.Duration(f.Count)
	f.P50 = sorted[(f.Count-1)/2]
	f.P99 = sorted[(f.Count-1)*99/100]
}

// FramesPerSecond is the achieved scheduler rate over the whole run.
func (r *Report) FramesPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Frames.Count) / r.Elapsed.Seconds()
}

// StructuralChangesPerFrame averages the moves, clones and destroys the churn
// system applied each frame.
func (r *Report) StructuralChangesPerFrame() float64 {
	if r.Frames.Count == 0 {
		return 0
	}
	return float64(r.Moves+r.Clones+r.Destroys) / float64(r.Frames.Count)
}

// AllocsPerFrame is the heap objects allocated per frame on average.
func (r *Report) AllocsPerFrame() float64 {
	if r.Frames.Count == 0 {
		return 0
	}
	return float64(r.MemAfter.Mallocs-r.MemBefore.Mallocs) / float64(r.Frames.Count)
}

const reportTemplate = `
# Scene churn report

Ran {{.Frames.Count}} frames in {{.Elapsed}} ({{printf "%.1f" .FramesPerSecond}} fps, target duration {{.Duration}}).
Started from {{.Entities}} entities over {{.Components}} component types with {{.Systems}} systems,
churning {{.ChurnPerFrame}} entities and cloning {{.ClonesPerFrame}} per frame.

## Frame time
| min | p50 | avg | p99 | max |
|-----|-----|-----|-----|-----|
| {{.Frames.Min}} | {{.Frames.P50}} | {{.Frames.Avg}} | {{.Frames.P99}} | {{.Frames.Max}} |

## Structural changes
- archetype moves: {{.Moves}}
- clones: {{.Clones}}
- destroys: {{.Destroys}}
- per frame: {{printf "%.1f" .StructuralChangesPerFrame}}

## Scene at exit
- entities: {{.Scene.TotalEntityCount}}
- archetypes: {{.Scene.ArchetypeCount}}, of which {{.Scene.EmptyArchetypeCount}} empty
- interned strings: {{.Scene.InternedStrings}}, of which {{.Scene.FreeStrings}} free
{{range .Scene.ArchetypeBreakdown}}{{if .EntityCount}}  - #{{.ID}} {{.Type}}: {{.EntityCount}} rows x {{.RowBytes}} B
{{end}}{{end}}
## Heap
- in use: {{mb .MemBefore.HeapAlloc}} MiB -> {{mb .MemAfter.HeapAlloc}} MiB
- allocated during run: {{mb (delta .MemAfter.TotalAlloc .MemBefore.TotalAlloc)}} MiB ({{printf "%.0f" .AllocsPerFrame}} objects/frame)
- from OS: {{mb .MemAfter.Sys}} MiB
- GC cycles: {{cycles .MemAfter.NumGC .MemBefore.NumGC}}
{{- if .ShowGC}}
- GC pause total: {{pause .MemAfter.PauseTotalNs .MemBefore.PauseTotalNs}}
{{- end}}
`

var reportFuncs = template.FuncMap{
	"mb": func(b uint64) string {
		return fmt.Sprintf("%.2f", float64(b)/(1<<20))
	},
	"delta": func(after, before uint64) uint64 {
		return after - before
	},
	"cycles": func(after, before uint32) uint32 {
		return after - before
	},
	"pause": func(after, before uint64) time.Duration {
		return time.Duration(after - before)
	},
}

var reportTmpl = template.Must(template.New("report").Funcs(reportFuncs).Parse(reportTemplate))

// Generate writes the report as markdown.
func (r *Report) Generate(w io.Writer) error {
	r.Frames.Summarize()
	return reportTmpl.Execute(w, r)
}
