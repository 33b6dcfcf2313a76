// Package main loads a YAML school fixture into a new partition. The load is
// one transaction; a failing fixture leaves nothing behind.
//
// Usage: seed [-migrate] fixture.yaml
//
// Import Path: tutorhub.io/tutorhub/cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"tutorhub.io/tutorhub/internal/blob"
	"tutorhub.io/tutorhub/internal/config"
	"tutorhub.io/tutorhub/internal/infrastructure"
	"tutorhub.io/tutorhub/internal/pkg/logger"
	"tutorhub.io/tutorhub/internal/repository"
	"tutorhub.io/tutorhub/internal/service"
)

func main() {
	migrateFirst := flag.Bool("migrate", false, "apply pending migrations before seeding")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: seed [-migrate] fixture.yaml")
		os.Exit(2)
	}
	if err := run(flag.Arg(0), *migrateFirst); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, migrateFirst bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	fx, err := decodeFixture(f)
	if err != nil {
		return err
	}

	ctx := context.Background()

	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	if migrateFirst || cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	blobs, err := blob.NewLocal(cfg.Storage.FilesRoot)
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}
	opts := service.Options{
		BcryptCost:        cfg.Security.BcryptCost,
		MinPasswordLength: cfg.Security.MinPassword,
		MaxUploadBytes:    cfg.Storage.MaxUploadBytes,
	}
	build := func(c *repository.Client) *service.Services { return service.New(c, nil, blobs, opts) }

	logger.Info("Starting data seeding...", zap.String("fixture", path))
	sum, err := applyAtomic(ctx, repository.NewClient(db.Driver), build, fx)
	if err != nil {
		return err
	}
	logger.Info("Data seeding completed successfully",
		zap.Int64("partition", sum.Partition.ID()),
		zap.Any("created", sum.Created),
	)
	return nil
}
