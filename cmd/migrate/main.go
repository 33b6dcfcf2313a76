// Package main applies or rolls back the tutorhub schema migrations.
//
// Usage: migrate up | down [N|all] | version | force V
//
// Import Path: tutorhub.io/tutorhub/cmd/migrate
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"tutorhub.io/tutorhub/internal/config"
	"tutorhub.io/tutorhub/internal/infrastructure"
	"tutorhub.io/tutorhub/internal/pkg/logger"
)

var errUsage = errors.New("usage")

func main() {
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()
	if err := run(flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
		}
		fmt.Fprintf(os.Stderr, "migrate error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	db, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	m, err := infrastructure.NewMigrator(db)
	if err != nil {
		return err
	}
	defer m.Close()

	return execute(m, args, os.Stdout)
}

// migrator is the subset of infrastructure.Migrator the commands drive.
type migrator interface {
	Up() (uint, error)
	Down(steps int) error
	Version() (uint, bool, error)
	Force(version int) error
}

func execute(m migrator, args []string, out io.Writer) error {
	switch args[0] {
	case "up":
		v, err := m.Up()
		if err != nil {
			return err
		}
		logger.Info("Migrations applied", zap.Uint("version", v))
		fmt.Fprintf(out, "version: %d\n", v)

	case "down":
		steps := 1
		if len(args) > 1 {
			if args[1] == "all" {
				steps = 0
			} else {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 1 {
					return fmt.Errorf("down: invalid steps argument %q: %w", args[1], errUsage)
				}
				steps = n
			}
		}
		if err := m.Down(steps); err != nil {
			return err
		}
		logger.Info("Migrations rolled back", zap.Int("steps", steps))

	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "version: %d  dirty: %v\n", v, dirty)

	case "force":
		if len(args) < 2 {
			return fmt.Errorf("force: version argument required: %w", errUsage)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("force: invalid version %q: %w", args[1], errUsage)
		}
		if err := m.Force(v); err != nil {
			return err
		}
		logger.Info("Migration version forced", zap.Int("version", v))

	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
	return nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `Usage: migrate <command> [args]

Commands:
  up           Apply all pending migrations
  down [N|all] Roll back N migrations (default: 1)
  version      Print current migration version
  force V      Set the version without running migrations`)
}
