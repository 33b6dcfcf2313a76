package modules

import (
	"context"
	"fmt"

	"tutorhub.io/tutorhub/internal/blob"
	"tutorhub.io/tutorhub/internal/config"
	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/infrastructure"
	"tutorhub.io/tutorhub/internal/pkg/worker"
	"tutorhub.io/tutorhub/internal/repository"
)

// Infrastructure holds shared cross-cutting dependencies for all modules.
// It is a provider, not a Module.
type Infrastructure struct {
	Config *config.Config
	DB     *infrastructure.DatabaseClients
	Client *repository.Client
	Pools  *worker.Pools
	Events *domain.EventDispatcher
	Blobs  *blob.Local
}

// NewInfrastructure initializes the database, worker pools, event
// dispatcher and blob store.
func NewInfrastructure(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize: cfg.Worker.GeneralPoolSize,
		BlobPoolSize:    cfg.Worker.BlobPoolSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	blobs, err := blob.NewLocal(cfg.Storage.FilesRoot)
	if err != nil {
		pools.Shutdown()
		db.Close()
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	return &Infrastructure{
		Config: cfg,
		DB:     db,
		Client: repository.NewClient(db.Driver),
		Pools:  pools,
		Events: domain.NewEventDispatcher(),
		Blobs:  blobs,
	}, nil
}

// Close releases infra resources in reverse dependency order.
func (i *Infrastructure) Close() {
	if i == nil {
		return
	}
	if i.Pools != nil {
		i.Pools.Shutdown()
	}
	if i.DB != nil {
		i.DB.Close()
	}
}
