package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/plus3/tessera/scenestore"
)

// openStore connects to Postgres and applies pending migrations.
func (a *app) openStore(ctx context.Context) (*scenestore.Store, error) {
	store, err := scenestore.Open(ctx, a.cfg.Database, a.log.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return store, nil
}

func runPush(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	name := fs.String("name", "", "Snapshot name.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := oneArg(fs)
	if err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("push: -name is required")
	}

	scene, err := a.loadScene(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Save(ctx, *name, scene)
	if err != nil {
		return err
	}
	fmt.Println(snap.ID)
	return nil
}

func runPull(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("pull", flag.ContinueOnError)
	name := fs.String("name", "", "Fetch the newest snapshot with this name.")
	id := fs.String("id", "", "Fetch the snapshot with this id.")
	out := fs.String("out", "", "Scene file to write.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" || (*name == "") == (*id == "") {
		return fmt.Errorf("pull: -out and exactly one of -name or -id are required")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := a.stage.Active().Registry()
	if *id != "" {
		snapID, err := uuid.Parse(*id)
		if err != nil {
			return fmt.Errorf("pull: bad id: %w", err)
		}
		scene, err := store.Load(ctx, snapID, registry)
		if err != nil {
			return err
		}
		a.stage.SetActive(scene)
	} else {
		scene, _, err := store.LoadLatest(ctx, *name, registry)
		if err != nil {
			return err
		}
		a.stage.SetActive(scene)
	}

	return a.stage.Active().Save(*out)
}

func runList(ctx context.Context, a *app, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSCENE\tENTITIES\tARCHETYPES\tSAVED")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			s.ID, s.Name, s.SceneID, s.Entities, s.Archetypes, s.SavedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
