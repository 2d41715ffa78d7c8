// Package main provides import-overrides, which validates the ability entries of
// an override file against the ability catalog and stores each one in the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/warchief/internal/arena"
	"github.com/cory-johannsen/warchief/internal/config"
	"github.com/cory-johannsen/warchief/internal/game/ability"
	"github.com/cory-johannsen/warchief/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	file := flag.String("file", "", "override file to import; defaults to content.overrides_file")
	prune := flag.Bool("prune", false, "delete stored overrides that the file does not name")
	dryRun := flag.Bool("dry-run", false, "validate only; do not touch the database")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	path := *file
	if path == "" {
		path = cfg.Content.OverridesFile
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: import-overrides -file <overrides.yaml> [-config <path>] [-prune] [-dry-run]")
		os.Exit(1)
	}

	catalog, err := ability.LoadDirectory(cfg.Content.AbilitiesDir)
	if err != nil {
		log.Fatalf("loading abilities: %v", err)
	}
	set, err := arena.LoadOverrideSet(path)
	if err != nil {
		log.Fatalf("loading overrides: %v", err)
	}
	overrides := set.Abilities
	if len(set.Stances) > 0 {
		fmt.Fprintf(os.Stderr, "skipping %d stance override(s): stance overrides are read from the file at startup\n", len(set.Stances))
	}
	// Applying to a scratch resolver rejects unknown names and invalid patches.
	if err := ability.ApplyOverrides(ability.NewResolver(catalog), overrides); err != nil {
		log.Fatalf("validating overrides: %v", err)
	}
	if *dryRun {
		fmt.Fprintf(os.Stdout, "%d override(s) valid [%s]\n", len(overrides), time.Since(start))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer store.Close()
	if err := store.RequireSchema(ctx); err != nil {
		log.Fatalf("checking database schema: %v", err)
	}
	repo := store.Overrides()

	named := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		if _, err := repo.Upsert(ctx, o); err != nil {
			log.Fatalf("storing override %q: %v", o.Name, err)
		}
		named[o.Name] = true
	}

	removed := 0
	if *prune {
		stored, err := repo.List(ctx)
		if err != nil {
			log.Fatalf("listing overrides: %v", err)
		}
		for _, s := range stored {
			if named[s.Override.Name] {
				continue
			}
			if err := repo.Delete(ctx, s.Override.Name); err != nil {
				log.Fatalf("deleting override %q: %v", s.Override.Name, err)
			}
			removed++
		}
	}

	fmt.Fprintf(os.Stdout, "imported %d override(s), pruned %d [%s]\n", len(overrides), removed, time.Since(start))
}
