// Command scenectl builds, inspects, simulates and stores scenes.
//
//	scenectl [-config file] <command> [flags]
//
// Commands:
//
//	build     run Lua scripts against an empty scene and save it
//	dump      print a scene file's archetypes, rows and entity index
//	validate  check a scene file's invariants
//	simulate  run the movement and decay systems over a scene file
//	push      store a scene file in Postgres
//	pull      fetch a stored scene into a file
//	list      list stored scenes
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/plus3/tessera/components"
	"github.com/plus3/tessera/config"
	"github.com/plus3/tessera/ecs"
	"go.uber.org/zap"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, app *app, args []string) error
}

var commands = []command{
	{"build", "build -out scene.yaml [-dir scripts] [script.lua...]", runBuild},
	{"dump", "dump scene.yaml", runDump},
	{"validate", "validate scene.yaml", runValidate},
	{"simulate", "simulate [-frames n] [-dt s] [-out file] scene.yaml", runSimulate},
	{"push", "push -name name scene.yaml", runPush},
	{"pull", "pull (-name name | -id uuid) -out scene.yaml", runPull},
	{"list", "list", runList},
}

// app carries what every command needs.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	stage *ecs.Stage
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "scenectl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("scenectl", flag.ContinueOnError)
	cfgPath := fs.String("config", os.Getenv("TESSERA_CONFIG"), "Path to a TOML config file.")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		usage(fs)
		return errors.New("missing command")
	}

	cfg, err := config.LoadOrDefault(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	a := &app{
		cfg: cfg,
		log: log,
		stage: ecs.NewStage(components.NewRegistry(),
			ecs.WithLogger(log.Named("scene")),
			ecs.WithValidation(cfg.Scene.Validate)),
	}

	name := fs.Arg(0)
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd.run(context.Background(), a, fs.Args()[1:])
		}
	}
	usage(fs)
	return fmt.Errorf("unknown command %q", name)
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "usage: scenectl [-config file] <command> [flags]")
	fs.PrintDefaults()
	fmt.Fprintln(out, "\ncommands:")
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %s\n", cmd.usage)
	}
}

// loadScene reads a scene file into the stage and returns it.
func (a *app) loadScene(path string) (*ecs.Scene, error) {
	if err := a.stage.Load(path); err != nil {
		return nil, err
	}
	scene := a.stage.Active()
	a.log.Debug("scene loaded", zap.String("file", path), zap.Stringer("scene", scene.ID()))
	return scene, nil
}

// oneArg returns the single positional argument of a command.
func oneArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected one scene file, got %d arguments", fs.Name(), fs.NArg())
	}
	return fs.Arg(0), nil
}
