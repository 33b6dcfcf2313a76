package modules

import (
	"context"

	"tutorhub.io/tutorhub/internal/api/handlers"
	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/service"
)

// SchoolModule wires the partition-scoped entity services.
type SchoolModule struct {
	infra    *Infrastructure
	services *service.Services
}

// NewSchoolModule creates the entity services on the shared client.
func NewSchoolModule(infra *Infrastructure) *SchoolModule {
	sec := infra.Config.Security
	return &SchoolModule{
		infra: infra,
		services: service.New(infra.Client, infra.Events, infra.Blobs, service.Options{
			BcryptCost:        sec.BcryptCost,
			MinPasswordLength: sec.MinPassword,
			MaxUploadBytes:    infra.Config.Storage.MaxUploadBytes,
		}),
	}
}

func (m *SchoolModule) Name() string { return "school" }

// Services exposes the wired services to other modules and commands.
func (m *SchoolModule) Services() *service.Services { return m.services }

func (m *SchoolModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Services = m.services
}

func (m *SchoolModule) RegisterEventHandlers(events *domain.EventDispatcher) {
	if events == nil || m == nil || m.infra == nil {
		return
	}
	service.RegisterDeletionLog(events, m.infra.Pools)
}

func (m *SchoolModule) Shutdown(context.Context) error { return nil }
