// Package main provides the schema migration tool for the override and
// combat audit tables.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/cory-johannsen/warchief/internal/config"
	"github.com/cory-johannsen/warchief/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("dir", "migrations", "directory holding the migration files")
	action := flag.String("action", "up", "one of: up, down, version, force")
	steps := flag.Int("steps", 0, "number of steps for up or down (0 = all)")
	forceVersion := flag.Int("version", -1, "version to record when -action=force")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	m, err := migrate.New("file://"+*dir, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("creating migrator: %v", err)
	}
	defer m.Close()

	switch *action {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "force":
		if *forceVersion < 0 {
			log.Fatalf("-action=force requires -version")
		}
		err = m.Force(*forceVersion)
	case "version":
	default:
		log.Fatalf("invalid action %q: must be up, down, version or force", *action)
	}

	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		log.Fatalf("migration %s failed: %v", *action, err)
	}

	version, dirty, verr := m.Version()
	if errors.Is(verr, migrate.ErrNilVersion) {
		version, dirty = 0, false
	} else if verr != nil {
		log.Fatalf("reading version: %v", verr)
	}
	elapsed := time.Since(start)

	switch {
	case *action == "version":
		fmt.Fprintf(os.Stdout, "version=%d dirty=%v latest=%d [%s]\n", version, dirty, postgres.LatestSchema, elapsed)
	case noChange:
		fmt.Fprintf(os.Stdout, "no changes (version=%d dirty=%v) [%s]\n", version, dirty, elapsed)
	default:
		fmt.Fprintf(os.Stdout, "%s complete: version=%d dirty=%v [%s]\n", *action, version, dirty, elapsed)
	}
	if *action == "up" && *steps == 0 && version != postgres.LatestSchema {
		fmt.Fprintf(os.Stderr, "warning: schema at %d but this build expects %d\n", version, postgres.LatestSchema)
	}
}
