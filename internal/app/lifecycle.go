package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tutorhub.io/tutorhub/internal/pkg/logger"
)

// Start verifies the database is reachable before traffic is accepted.
func (a *Application) Start(ctx context.Context) error {
	if a.DB != nil {
		if err := a.DB.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
	}
	logger.Info("Application started", zap.Int("modules", len(a.Modules)))
	return nil
}

// Shutdown gracefully shuts down all application components. Worker pools
// drain before the database closes so queued blob removals can finish.
func (a *Application) Shutdown() {
	shutdownCtx := context.Background()

	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Shutdown(shutdownCtx); err != nil {
			logger.Warn("module shutdown returned error",
				zap.String("module", mod.Name()),
				zap.Error(err),
			)
		}
	}

	if a.Pools != nil {
		a.Pools.Shutdown()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
