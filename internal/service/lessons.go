package service

import (
	"context"

	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/repository"
)

// LessonService manages scheduled lessons of a group.
type LessonService struct {
	base
}

func (s *LessonService) Create(ctx context.Context, p domain.Partition, l domain.Lesson) (domain.Lesson, error) {
	var created domain.Lesson
	err := s.client.WithTx(ctx, func(r *repository.Repositories) error {
		if err := checkMandatory(domain.LessonSchema, l); err != nil {
			return err
		}
		if err := requireRef(ctx, p, "groupId", "Group", l.GroupID, r.Groups.Exists); err != nil {
			return err
		}
		var err error
		created, err = r.Lessons.Create(ctx, p, l)
		return err
	})
	if err != nil {
		return domain.Lesson{}, err
	}
	return created, nil
}

func (s *LessonService) Get(ctx context.Context, p domain.Partition, id int64) (domain.Lesson, error) {
	return s.client.Lessons.Get(ctx, p, id)
}

func (s *LessonService) List(ctx context.Context, p domain.Partition) ([]domain.Lesson, error) {
	return s.client.Lessons.List(ctx, p)
}

// Update replaces the lesson and returns the prior value.
func (s *LessonService) Update(ctx context.Context, p domain.Partition, l domain.Lesson) (domain.Lesson, error) {
	prior, _, err := s.Replace(ctx, p, l)
	return prior, err
}

// Replace updates the lesson and rereads it in the same transaction. It
// returns the row before and after the update.
func (s *LessonService) Replace(ctx context.Context, p domain.Partition, l domain.Lesson) (domain.Lesson, domain.Lesson, error) {
	return replaceIn(ctx, s.client,
		func(r *repository.Repositories) (domain.Lesson, error) {
			if err := checkMandatory(domain.LessonUpdateSchema, l); err != nil {
				return domain.Lesson{}, err
			}
			if err := requireRef(ctx, p, "groupId", "Group", l.GroupID, r.Groups.Exists); err != nil {
				return domain.Lesson{}, err
			}
			return r.Lessons.Update(ctx, p, l)
		},
		func(r *repository.Repositories) (domain.Lesson, error) { return r.Lessons.Get(ctx, p, l.ID) })
}

// Delete removes the lesson with its attendance and attachments.
func (s *LessonService) Delete(ctx context.Context, p domain.Partition, id int64) (domain.Lesson, error) {
	var former domain.Lesson
	err := s.deleteWith(ctx, p, "Lesson", id, func(r *repository.Repositories, c *cascade) error {
		var err error
		if former, err = r.Lessons.Get(ctx, p, id); err != nil {
			return err
		}
		return c.lesson(ctx, id)
	})
	if err != nil {
		return domain.Lesson{}, err
	}
	return former, nil
}
