// Package app is the composition root.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"tutorhub.io/tutorhub/internal/api/handlers"
	"tutorhub.io/tutorhub/internal/app/modules"
	"tutorhub.io/tutorhub/internal/config"
	"tutorhub.io/tutorhub/internal/infrastructure"
	"tutorhub.io/tutorhub/internal/pkg/worker"
)

// Application holds composed application dependencies.
type Application struct {
	Config  *config.Config
	Router  *gin.Engine
	DB      *infrastructure.DatabaseClients
	Pools   *worker.Pools
	Modules []modules.Module
}

// Bootstrap initializes all dependencies using module-oriented manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	infra, err := modules.NewInfrastructure(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}
	return compose(cfg, infra), nil
}

func compose(cfg *config.Config, infra *modules.Infrastructure) *Application {
	school := modules.NewSchoolModule(infra)
	allModules := []modules.Module{
		school,
		modules.NewAttachmentModule(infra),
	}
	for _, mod := range allModules {
		mod.RegisterEventHandlers(infra.Events)
	}

	serverDeps := modules.NewServerDeps(cfg, infra, allModules)
	server := handlers.NewServer(serverDeps)

	return &Application{
		Config:  cfg,
		Router:  newRouter(cfg, server, school.Services().Accounts, serverDeps.JWTCfg),
		DB:      infra.DB,
		Pools:   infra.Pools,
		Modules: allModules,
	}
}
