// Command migrate applies the embedded diagnoses schema migrations.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/verdant/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "VERDANT_DB_DSN"

func main() {
	var (
		dsn     = flag.String("dsn", "", "Database connection string (default $"+envDSN+", then the [database] config)")
		up      = flag.Bool("up", false, "Apply all pending migrations")
		down    = flag.Bool("down", false, "Revert all migrations")
		steps   = flag.Int("steps", 0, "Migrate N steps (positive=up, negative=down)")
		version = flag.Bool("version", false, "Print the current schema version")
		force   = flag.Int("force", -1, "Force the schema version without migrating")
	)
	flag.Parse()

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	if *dsn == "" {
		*dsn = os.Getenv(envDSN)
	}
	if *dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("no -dsn or $%s, and config load failed: %v", envDSN, err)
		}
		*dsn = cfg.Database.URL()
	}

	m, err := newMigrator(*dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			return
		}
		if err != nil {
			log.Fatalf("read version: %v", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			log.Fatalf("force version: %v", err)
		}
		fmt.Printf("forced to version %d\n", *force)
	case *up:
		run("up", m.Up)
	case *down:
		run("down", m.Down)
	case *steps != 0:
		run(fmt.Sprintf("%d steps", *steps), func() error { return m.Steps(*steps) })
	default:
		fmt.Println("usage: migrate [-dsn <connection-string>] -up | -down | -steps N | -version | -force N")
		flag.PrintDefaults()
	}
}

func newMigrator(dsn string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

func run(name string, fn func() error) {
	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("no change")
		return
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", name, err)
	}
	fmt.Printf("migrate %s complete\n", name)
}
