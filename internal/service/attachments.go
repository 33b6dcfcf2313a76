package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"tutorhub.io/tutorhub/internal/blob"
	"tutorhub.io/tutorhub/internal/domain"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/pkg/logger"
	"tutorhub.io/tutorhub/internal/pkg/worker"
	"tutorhub.io/tutorhub/internal/repository"
)

// Upload describes one file attached to an owner entity.
type Upload struct {
	OwnerKind   domain.OwnerKind
	OwnerID     int64
	FileName    string
	ContentType string
	Body        io.Reader
}

// AttachmentService stores attachment metadata through the partitioned
// store and contents in a blob.Store. Blobs of deleted rows are removed
// after commit by the BlobsReleased handler.
type AttachmentService struct {
	base
	blobs    blob.Store
	maxBytes int64
	now      func() time.Time
}

// NewAttachmentService creates an AttachmentService.
func NewAttachmentService(client *repository.Client, events *domain.EventDispatcher, blobs blob.Store, maxBytes int64) *AttachmentService {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &AttachmentService{
		base:     base{client: client, events: events},
		blobs:    blobs,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func checkOwnerKind(kind domain.OwnerKind) error {
	if kind.Valid() {
		return nil
	}
	return apperrors.Validation(apperrors.CodeUnsupportedOwnerKind, "unsupported attachment owner kind").
		WithParams(map[string]interface{}{"owner_kind": string(kind)}).
		WithFieldErrors([]apperrors.FieldError{{Field: "ownerKind", Code: apperrors.FieldInvalid, Message: "unsupported owner kind"}})
}

func ownerExists(r *repository.Repositories, kind domain.OwnerKind) (string, func(context.Context, domain.Partition, int64) (bool, error)) {
	switch kind {
	case domain.OwnerTeacher:
		return "Teacher", r.Teachers.Exists
	case domain.OwnerCustomer:
		return "Customer", r.Customers.Exists
	case domain.OwnerStudent:
		return "Student", r.Students.Exists
	case domain.OwnerGroup:
		return "Group", r.Groups.Exists
	default:
		return "Lesson", r.Lessons.Exists
	}
}

func requireOwner(ctx context.Context, r *repository.Repositories, p domain.Partition, kind domain.OwnerKind, id int64) error {
	if err := checkOwnerKind(kind); err != nil {
		return err
	}
	entity, exists := ownerExists(r, kind)
	return requireRef(ctx, p, "ownerId", entity, id, exists)
}

// Upload stores the body and records its metadata. The blob is removed
// again when the metadata cannot be written.
func (s *AttachmentService) Upload(ctx context.Context, p domain.Partition, up Upload) (domain.Attachment, error) {
	a := domain.Attachment{
		OwnerKind:   up.OwnerKind,
		OwnerID:     up.OwnerID,
		FileName:    strings.TrimSpace(up.FileName),
		ContentType: up.ContentType,
		UploadedAt:  s.now().UTC(),
	}
	if a.FileName == "" {
		return domain.Attachment{}, apperrors.ErrMissingFields("Attachment", []string{"fileName"})
	}
	if err := requireOwner(ctx, s.client.Repositories, p, up.OwnerKind, up.OwnerID); err != nil {
		return domain.Attachment{}, err
	}

	key, size, err := s.blobs.Put(p.ID(), up.Body, s.maxBytes)
	if errors.Is(err, blob.ErrTooLarge) {
		return domain.Attachment{}, apperrors.Validation(apperrors.CodeAttachmentTooLarge, "attachment exceeds the size limit").
			WithParams(map[string]interface{}{"max_bytes": s.maxBytes})
	}
	if err != nil {
		return domain.Attachment{}, apperrors.Persistence(err, "store attachment content")
	}
	a.StorageKey = key
	a.SizeBytes = size

	var created domain.Attachment
	err = s.client.WithTx(ctx, func(r *repository.Repositories) error {
		if err := requireOwner(ctx, r, p, up.OwnerKind, up.OwnerID); err != nil {
			return err
		}
		var err error
		created, err = r.Attachments.Create(ctx, p, a)
		return err
	})
	if err != nil {
		if derr := s.blobs.Delete(key); derr != nil {
			logger.FromContext(ctx).Warn("Orphaned attachment blob", zap.String("key", key), zap.Error(derr))
		}
		return domain.Attachment{}, err
	}
	return created, nil
}

func (s *AttachmentService) Get(ctx context.Context, p domain.Partition, id int64) (domain.Attachment, error) {
	return s.client.Attachments.Get(ctx, p, id)
}

// ListByOwner lists the attachments of one owner entity.
func (s *AttachmentService) ListByOwner(ctx context.Context, p domain.Partition, kind domain.OwnerKind, ownerID int64) ([]domain.Attachment, error) {
	if err := checkOwnerKind(kind); err != nil {
		return nil, err
	}
	rows, err := s.client.Attachments.ListBy(ctx, p, repository.ColOwnerID, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Attachment, 0, len(rows))
	for _, a := range rows {
		if a.OwnerKind == kind {
			out = append(out, a)
		}
	}
	return out, nil
}

// Open returns the metadata and a reader over the content. The caller
// closes the reader.
func (s *AttachmentService) Open(ctx context.Context, p domain.Partition, id int64) (domain.Attachment, io.ReadCloser, error) {
	a, err := s.client.Attachments.Get(ctx, p, id)
	if err != nil {
		return domain.Attachment{}, nil, err
	}
	rc, err := s.blobs.Open(a.StorageKey)
	if errors.Is(err, blob.ErrNotFound) {
		return domain.Attachment{}, nil, apperrors.ErrEntityNotFound("Attachment", id, p.ID())
	}
	if err != nil {
		return domain.Attachment{}, nil, apperrors.Persistence(err, "open attachment content")
	}
	return a, rc, nil
}

// Delete removes the attachment row; its blob is released after commit.
func (s *AttachmentService) Delete(ctx context.Context, p domain.Partition, id int64) (domain.Attachment, error) {
	var former domain.Attachment
	err := s.deleteWith(ctx, p, "Attachment", id, func(r *repository.Repositories, c *cascade) error {
		var err error
		if former, err = r.Attachments.Delete(ctx, p, id); err != nil {
			return err
		}
		c.blobKeys = append(c.blobKeys, former.StorageKey)
		c.count("Attachment", 1)
		return nil
	})
	if err != nil {
		return domain.Attachment{}, err
	}
	return former, nil
}

// DetachedSubmitter runs tasks outside the request lifecycle.
type DetachedSubmitter interface {
	SubmitDetached(poolName string, task worker.Task) error
}

// RegisterBlobCleanup removes released blobs on the blob worker pool.
// Failures are logged and never reach the caller of the delete.
func RegisterBlobCleanup(events *domain.EventDispatcher, blobs blob.Store, pools DetachedSubmitter) {
	events.Register(domain.EventBlobsReleased, func(ctx context.Context, e *domain.DomainEvent) error {
		payload, err := domain.DecodeBlobsReleased(e)
		if err != nil {
			return err
		}
		log := logger.FromContext(ctx).With(zap.Int64("partition", e.PartitionID))
		return pools.SubmitDetached(worker.PoolBlob, func(context.Context) {
			for _, key := range payload.Keys {
				if err := blobs.Delete(key); err != nil {
					log.Warn("Blob removal failed", zap.String("key", key), zap.Error(err))
				}
			}
		})
	})
}
