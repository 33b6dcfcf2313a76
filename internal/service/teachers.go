package service

import (
	"context"

	"tutorhub.io/tutorhub/internal/domain"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/repository"
)

// TeacherService manages teachers. A teacher still leading a group cannot
// be deleted.
type TeacherService struct {
	base
}

func (s *TeacherService) Create(ctx context.Context, p domain.Partition, t domain.Teacher) (domain.Teacher, error) {
	if err := checkAmount("hourlyRate", t.HourlyRate); err != nil {
		return domain.Teacher{}, err
	}
	return s.client.Teachers.Create(ctx, p, t)
}

func (s *TeacherService) Get(ctx context.Context, p domain.Partition, id int64) (domain.Teacher, error) {
	return s.client.Teachers.Get(ctx, p, id)
}

func (s *TeacherService) List(ctx context.Context, p domain.Partition) ([]domain.Teacher, error) {
	return s.client.Teachers.List(ctx, p)
}

// Update replaces the teacher and returns the prior value.
func (s *TeacherService) Update(ctx context.Context, p domain.Partition, t domain.Teacher) (domain.Teacher, error) {
	prior, _, err := s.Replace(ctx, p, t)
	return prior, err
}

// Replace updates the teacher and rereads it in the same transaction. It
// returns the row before and after the update.
func (s *TeacherService) Replace(ctx context.Context, p domain.Partition, t domain.Teacher) (domain.Teacher, domain.Teacher, error) {
	if err := checkAmount("hourlyRate", t.HourlyRate); err != nil {
		return domain.Teacher{}, domain.Teacher{}, err
	}
	return replaceIn(ctx, s.client,
		func(r *repository.Repositories) (domain.Teacher, error) { return r.Teachers.Update(ctx, p, t) },
		func(r *repository.Repositories) (domain.Teacher, error) { return r.Teachers.Get(ctx, p, t.ID) })
}

// Groups lists the groups led by teacher id.
func (s *TeacherService) Groups(ctx context.Context, p domain.Partition, id int64) ([]domain.Group, error) {
	if _, err := s.client.Teachers.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.client.Groups.ListBy(ctx, p, repository.ColTeacherID, id)
}

// Delete removes the teacher and its attachments. It fails with a conflict
// while any group references the teacher.
func (s *TeacherService) Delete(ctx context.Context, p domain.Partition, id int64) (domain.Teacher, error) {
	var former domain.Teacher
	err := s.deleteWith(ctx, p, "Teacher", id, func(r *repository.Repositories, c *cascade) error {
		n, err := r.Groups.CountBy(ctx, p, repository.ColTeacherID, id)
		if err != nil {
			return err
		}
		if n > 0 {
			if _, err := r.Teachers.Get(ctx, p, id); err != nil {
				return err
			}
			return apperrors.Conflict(apperrors.CodeTeacherInUse, "teacher still leads groups").
				WithParams(map[string]interface{}{"entity": "Teacher", "id": id, "groups": n})
		}
		if err := c.attachments(ctx, domain.OwnerTeacher, id); err != nil {
			return err
		}
		former, err = r.Teachers.Delete(ctx, p, id)
		return err
	})
	if err != nil {
		return domain.Teacher{}, err
	}
	return former, nil
}
