package service

import (
	"context"

	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/repository"
)

// GroupService manages groups. Deleting a group deletes its students and
// lessons.
type GroupService struct {
	base
}

func (s *GroupService) Create(ctx context.Context, p domain.Partition, g domain.Group) (domain.Group, error) {
	if err := checkAmount("lessonPrice", g.LessonPrice); err != nil {
		return domain.Group{}, err
	}
	var created domain.Group
	err := s.client.WithTx(ctx, func(r *repository.Repositories) error {
		if err := checkMandatory(domain.GroupSchema, g); err != nil {
			return err
		}
		if err := requireRef(ctx, p, "teacherId", "Teacher", g.TeacherID, r.Teachers.Exists); err != nil {
			return err
		}
		var err error
		created, err = r.Groups.Create(ctx, p, g)
		return err
	})
	if err != nil {
		return domain.Group{}, err
	}
	return created, nil
}

func (s *GroupService) Get(ctx context.Context, p domain.Partition, id int64) (domain.Group, error) {
	return s.client.Groups.Get(ctx, p, id)
}

func (s *GroupService) List(ctx context.Context, p domain.Partition) ([]domain.Group, error) {
	return s.client.Groups.List(ctx, p)
}

// Update replaces the group and returns the prior value.
func (s *GroupService) Update(ctx context.Context, p domain.Partition, g domain.Group) (domain.Group, error) {
	prior, _, err := s.Replace(ctx, p, g)
	return prior, err
}

// Replace updates the group and rereads it in the same transaction. It
// returns the row before and after the update.
func (s *GroupService) Replace(ctx context.Context, p domain.Partition, g domain.Group) (domain.Group, domain.Group, error) {
	if err := checkAmount("lessonPrice", g.LessonPrice); err != nil {
		return domain.Group{}, domain.Group{}, err
	}
	return replaceIn(ctx, s.client,
		func(r *repository.Repositories) (domain.Group, error) {
			if err := checkMandatory(domain.GroupUpdateSchema, g); err != nil {
				return domain.Group{}, err
			}
			if err := requireRef(ctx, p, "teacherId", "Teacher", g.TeacherID, r.Teachers.Exists); err != nil {
				return domain.Group{}, err
			}
			return r.Groups.Update(ctx, p, g)
		},
		func(r *repository.Repositories) (domain.Group, error) { return r.Groups.Get(ctx, p, g.ID) })
}

// Students lists the members of group id.
func (s *GroupService) Students(ctx context.Context, p domain.Partition, id int64) ([]domain.Student, error) {
	if _, err := s.client.Groups.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.client.Students.ListBy(ctx, p, repository.ColGroupID, id)
}

// Lessons lists the lessons of group id.
func (s *GroupService) Lessons(ctx context.Context, p domain.Partition, id int64) ([]domain.Lesson, error) {
	if _, err := s.client.Groups.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.client.Lessons.ListBy(ctx, p, repository.ColGroupID, id)
}

// Delete removes the group, its students, its lessons (each with attendance
// and attachments) and its own attachments in one transaction.
func (s *GroupService) Delete(ctx context.Context, p domain.Partition, id int64) (domain.Group, error) {
	var former domain.Group
	err := s.deleteWith(ctx, p, "Group", id, func(r *repository.Repositories, c *cascade) error {
		var err error
		if former, err = r.Groups.Get(ctx, p, id); err != nil {
			return err
		}
		if err := c.students(ctx, repository.ColGroupID, id); err != nil {
			return err
		}
		if err := c.lessons(ctx, id); err != nil {
			return err
		}
		if err := c.attachments(ctx, domain.OwnerGroup, id); err != nil {
			return err
		}
		_, err = r.Groups.Delete(ctx, p, id)
		return err
	})
	if err != nil {
		return domain.Group{}, err
	}
	return former, nil
}
