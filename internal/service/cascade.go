package service

import (
	"context"

	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/repository"
)

// cascade deletes an aggregate's dependents inside one transaction and
// records what went away. Dependents are removed before their owner so
// foreign keys hold at every statement.
type cascade struct {
	r        *repository.Repositories
	p        domain.Partition
	removed  map[string]int
	blobKeys []string
}

func newCascade(r *repository.Repositories, p domain.Partition) *cascade {
	return &cascade{r: r, p: p, removed: map[string]int{}}
}

func (c *cascade) count(entity string, n int) {
	if n > 0 {
		c.removed[entity] += n
	}
}

// attachments removes the attachment rows of one owner and queues their
// blobs for removal after commit.
func (c *cascade) attachments(ctx context.Context, kind domain.OwnerKind, ownerID int64) error {
	rows, err := c.r.Attachments.ListBy(ctx, c.p, repository.ColOwnerID, ownerID)
	if err != nil {
		return err
	}
	for _, a := range rows {
		if a.OwnerKind != kind {
			continue
		}
		if _, err := c.r.Attachments.Delete(ctx, c.p, a.ID); err != nil {
			return err
		}
		c.blobKeys = append(c.blobKeys, a.StorageKey)
		c.count("Attachment", 1)
	}
	return nil
}

// student removes one student with its attendance and attachments.
func (c *cascade) student(ctx context.Context, id int64) error {
	att, err := c.r.Attendance.DeleteBy(ctx, c.p, repository.ColStudentID, id)
	if err != nil {
		return err
	}
	c.count("Attendance", len(att))
	if err := c.attachments(ctx, domain.OwnerStudent, id); err != nil {
		return err
	}
	if _, err := c.r.Students.Delete(ctx, c.p, id); err != nil {
		return err
	}
	c.count("Student", 1)
	return nil
}

// lesson removes one lesson with its attendance and attachments.
func (c *cascade) lesson(ctx context.Context, id int64) error {
	att, err := c.r.Attendance.DeleteBy(ctx, c.p, repository.ColLessonID, id)
	if err != nil {
		return err
	}
	c.count("Attendance", len(att))
	if err := c.attachments(ctx, domain.OwnerLesson, id); err != nil {
		return err
	}
	if _, err := c.r.Lessons.Delete(ctx, c.p, id); err != nil {
		return err
	}
	c.count("Lesson", 1)
	return nil
}

func (c *cascade) students(ctx context.Context, column string, owner int64) error {
	rows, err := c.r.Students.ListBy(ctx, c.p, column, owner)
	if err != nil {
		return err
	}
	for _, s := range rows {
		if err := c.student(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

func (c *cascade) lessons(ctx context.Context, groupID int64) error {
	rows, err := c.r.Lessons.ListBy(ctx, c.p, repository.ColGroupID, groupID)
	if err != nil {
		return err
	}
	for _, l := range rows {
		if err := c.lesson(ctx, l.ID); err != nil {
			return err
		}
	}
	return nil
}

// publish emits EntityDeleted and, when blobs were released, BlobsReleased.
func (c *cascade) publish(ctx context.Context, events *domain.EventDispatcher, aggregate string, id int64) {
	logCascade(ctx, c.p, aggregate, id, c.removed)
	if events == nil {
		return
	}
	var out []*domain.DomainEvent
	if payload, err := (domain.EntityDeletedPayload{Removed: c.removed}).ToJSON(); err == nil {
		out = append(out, domain.NewEvent(domain.EventEntityDeleted, c.p, aggregate, id, payload))
	}
	if len(c.blobKeys) > 0 {
		if payload, err := (domain.BlobsReleasedPayload{Keys: c.blobKeys}).ToJSON(); err == nil {
			out = append(out, domain.NewEvent(domain.EventBlobsReleased, c.p, aggregate, id, payload))
		}
	}
	events.Publish(ctx, out...)
}
