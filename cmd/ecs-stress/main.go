package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/profile"
	"github.com/plus3/tessera/components"
	"github.com/plus3/tessera/config"
	"github.com/plus3/tessera/ecs"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", os.Getenv("TESSERA_CONFIG"), "Path to a TOML config file.")
	duration := flag.Duration("duration", 0, "The total duration the test should run for (overrides config).")
	entityCount := flag.Int("entities", 0, "The initial number of entities to create (overrides config).")
	churn := flag.Int("churn", -1, "Add/remove operations per frame (overrides config).")
	profileMode := flag.String("profile", "", "Write a profile to the working directory: cpu, mem or allocs.")
	validate := flag.Bool("validate", false, "Validate scene invariants after the run.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *duration > 0 {
		cfg.Stress.Duration = *duration
	}
	if *entityCount > 0 {
		cfg.Stress.Entities = *entityCount
	}
	if *churn >= 0 {
		cfg.Stress.ChurnPerFrame = *churn
	}

	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if stop := startProfile(*profileMode); stop != nil {
		defer stop()
	}

	log.Info("starting ECS stress test",
		zap.Duration("duration", cfg.Stress.Duration),
		zap.Int("entities", cfg.Stress.Entities),
		zap.Int("churn", cfg.Stress.ChurnPerFrame))

	// 1. Setup Registry, Scene, and Scheduler
	registry := components.NewRegistry()
	scene := ecs.NewScene(registry, ecs.WithLogger(log.Named("scene")))
	rng := rand.New(rand.NewSource(cfg.Stress.Seed))

	churner := newChurnSystem(rng, cfg.Stress.ChurnPerFrame, cfg.Stress.ClonesPerFrame)
	scheduler := ecs.NewScheduler(scene)
	scheduler.Register(&components.MovementSystem{})
	scheduler.Register(churner)

	// 2. Populate the scene with initial entities
	for i := 0; i < cfg.Stress.Entities; i++ {
		churner.track(spawnRandomEntity(scene, rng, i))
	}
	log.Info("population complete", zap.Int("archetypes", scene.ArchetypeCount()))

	// 3. Run the simulation loop
	report := &Report{
		Duration:       cfg.Stress.Duration,
		Entities:       cfg.Stress.Entities,
		Components:     len(registry.Names()),
		Systems:        scheduler.GetStats().SystemCount,
		ChurnPerFrame:  cfg.Stress.ChurnPerFrame,
		ClonesPerFrame: cfg.Stress.ClonesPerFrame,
		ShowGC:         *gcPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemBefore)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Stress.Duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			scheduler.Once(deltaTime.Seconds())
			updateDuration := time.Since(updateStart)

			report.Frames.Record(updateDuration)
		}
	}

	report.Elapsed = time.Since(startTime)
	report.Moves = churner.moves
	report.Clones = churner.clones
	report.Destroys = churner.destroys
	report.Scene = scene.CollectStats()
	runtime.ReadMemStats(&report.MemAfter)

	log.Info("simulation finished", zap.Int("frames", len(report.Frames.samples)))

	if *validate || cfg.Scene.Validate {
		if err := scene.Validate(); err != nil {
			return fmt.Errorf("scene invariants broken after run: %w", err)
		}
		log.Info("scene invariants hold")
	}

	// 4. Generate Report to Console
	if err := report.Generate(os.Stdout); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	return nil
}

// startProfile starts pkg/profile in the requested mode and returns its stop
// function, or nil when profiling is off.
func startProfile(mode string) func() {
	var opt func(*profile.Profile)
	switch mode {
	case "":
		return nil
	case "cpu":
		opt = profile.CPUProfile
	case "mem":
		opt = profile.MemProfile
	case "allocs":
		opt = profile.MemProfileAllocs
	default:
		fmt.Fprintf(os.Stderr, "unknown profile mode %q, profiling disabled\n", mode)
		return nil
	}
	p := profile.Start(opt, profile.ProfilePath("."), profile.NoShutdownHook)
	return p.Stop
}

// spawnRandomEntity creates an entity with a Transform and a random subset
// of the other components.
func spawnRandomEntity(scene *ecs.Scene, rng *rand.Rand, n int) ecs.EntityID {
	comps := []any{components.NewTransform(randomVec(rng, 100))}
	if rng.Intn(2) == 0 {
		comps = append(comps, components.Motion{Velocity: randomVec(rng, 5), Spin: rng.Float64()})
	}
	if rng.Intn(3) == 0 {
		comps = append(comps, components.Health{Current: 100, Max: 100})
	}
	if rng.Intn(4) == 0 {
		comps = append(comps, components.Inventory{Items: []string{"coin"}})
	}
	if rng.Intn(5) == 0 {
		comps = append(comps, components.Tag{Text: scene.Strings().Intern(fmt.Sprintf("tag-%d", n))})
	}
	return scene.Spawn(fmt.Sprintf("entity-%d", n), comps...).ID
}

func randomVec(rng *rand.Rand, scale float64) mgl64.Vec3 {
	return mgl64.Vec3{
		(rng.Float64()*2 - 1) * scale,
		(rng.Float64()*2 - 1) * scale,
		(rng.Float64()*2 - 1) * scale,
	}
}
