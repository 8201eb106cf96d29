package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/plus3/tessera/components"
	"github.com/plus3/tessera/ecs"
	"github.com/plus3/tessera/script"
	"go.uber.org/zap"
)

func runBuild(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	out := fs.String("out", "", "Scene file to write.")
	dir := fs.String("dir", "", "Directory of .lua files to run first (defaults to scene.scripts_dir when no scripts are named).")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("build: -out is required")
	}
	if *dir == "" && fs.NArg() == 0 {
		*dir = a.cfg.Scene.ScriptsDir
	}

	scene := a.stage.Active()
	engine := script.NewEngine(scene, a.log.Named("lua"))
	defer engine.Close()

	var ranDir string
	if *dir != "" {
		if err := engine.LoadDir(*dir); err != nil {
			return err
		}
		ranDir, _ = filepath.Abs(*dir)
	}
	for _, path := range fs.Args() {
		path = a.resolveScript(path)
		if abs, err := filepath.Abs(path); err == nil && filepath.Dir(abs) == ranDir {
			a.log.Debug("script already run from directory", zap.String("file", path))
			continue
		}
		if err := engine.DoFile(path); err != nil {
			return err
		}
	}

	if err := scene.Save(*out); err != nil {
		return err
	}
	a.log.Info("scene built",
		zap.String("file", *out),
		zap.Int("entities", scene.EntityCount()),
		zap.Int("archetypes", scene.ArchetypeCount()))
	return nil
}

// resolveScript looks up a relative script path in the working directory
// first and then in scene.scripts_dir.
func (a *app) resolveScript(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return filepath.Join(a.cfg.Scene.ScriptsDir, path)
	}
	return path
}

func runDump(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := oneArg(fs)
	if err != nil {
		return err
	}
	scene, err := a.loadScene(path)
	if err != nil {
		return err
	}
	return scene.Dump(os.Stdout)
}

func runValidate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := oneArg(fs)
	if err != nil {
		return err
	}
	scene, err := a.loadScene(path)
	if err != nil {
		return err
	}
	if err := scene.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	stats := scene.CollectStats()
	fmt.Printf("%s: ok (%d entities, %d archetypes, %d empty)\n",
		path, stats.TotalEntityCount, stats.ArchetypeCount, stats.EmptyArchetypeCount)
	return nil
}

func runSimulate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	frames := fs.Int("frames", 60, "Number of frames to run.")
	dt := fs.Float64("dt", 1.0/60, "Seconds per frame.")
	out := fs.String("out", "", "Write the resulting scene here (defaults to the input file).")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := oneArg(fs)
	if err != nil {
		return err
	}
	scene, err := a.loadScene(path)
	if err != nil {
		return err
	}

	sched := ecs.NewScheduler(scene)
	sched.Register(&components.MovementSystem{})
	sched.Register(&components.DecaySystem{})
	for range *frames {
		sched.Once(*dt)
	}

	for _, s := range sched.GetStats().Systems {
		a.log.Info("system stats",
			zap.String("system", s.Name),
			zap.Int64("runs", s.ExecutionCount),
			zap.Duration("avg", s.AvgDuration),
			zap.Duration("max", s.MaxDuration))
	}

	if *out == "" {
		*out = path
	}
	return scene.Save(*out)
}
