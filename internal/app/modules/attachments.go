package modules

import (
	"context"

	"tutorhub.io/tutorhub/internal/api/handlers"
	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/service"
)

// AttachmentModule owns the blob store side of attachments: the upload
// limit and post-commit blob removal.
type AttachmentModule struct {
	infra *Infrastructure
}

// NewAttachmentModule creates the attachment module.
func NewAttachmentModule(infra *Infrastructure) *AttachmentModule {
	return &AttachmentModule{infra: infra}
}

func (m *AttachmentModule) Name() string { return "attachments" }

func (m *AttachmentModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.MaxUploadBytes = m.infra.Config.Storage.MaxUploadBytes
}

func (m *AttachmentModule) RegisterEventHandlers(events *domain.EventDispatcher) {
	if events == nil || m == nil || m.infra == nil {
		return
	}
	service.RegisterBlobCleanup(events, m.infra.Blobs, m.infra.Pools)
}

func (m *AttachmentModule) Shutdown(context.Context) error { return nil }
