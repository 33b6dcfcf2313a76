package service

import (
	"context"

	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/repository"
)

// StudentService manages students. A student's customer and group must
// exist in the same partition.
type StudentService struct {
	base
}

func checkStudentRefs(ctx context.Context, r *repository.Repositories, p domain.Partition, st domain.Student) error {
	if err := requireRef(ctx, p, "customerId", "Customer", st.CustomerID, r.Customers.Exists); err != nil {
		return err
	}
	return requireRef(ctx, p, "groupId", "Group", st.GroupID, r.Groups.Exists)
}

func (s *StudentService) Create(ctx context.Context, p domain.Partition, st domain.Student) (domain.Student, error) {
	var created domain.Student
	err := s.client.WithTx(ctx, func(r *repository.Repositories) error {
		if err := checkMandatory(domain.StudentSchema, st); err != nil {
			return err
		}
		if err := checkStudentRefs(ctx, r, p, st); err != nil {
			return err
		}
		var err error
		created, err = r.Students.Create(ctx, p, st)
		return err
	})
	if err != nil {
		return domain.Student{}, err
	}
	return created, nil
}

func (s *StudentService) Get(ctx context.Context, p domain.Partition, id int64) (domain.Student, error) {
	return s.client.Students.Get(ctx, p, id)
}

func (s *StudentService) List(ctx context.Context, p domain.Partition) ([]domain.Student, error) {
	return s.client.Students.List(ctx, p)
}

// Update replaces the student and returns the prior value.
func (s *StudentService) Update(ctx context.Context, p domain.Partition, st domain.Student) (domain.Student, error) {
	prior, _, err := s.Replace(ctx, p, st)
	return prior, err
}

// Replace updates the student and rereads it in the same transaction. It
// returns the row before and after the update.
func (s *StudentService) Replace(ctx context.Context, p domain.Partition, st domain.Student) (domain.Student, domain.Student, error) {
	return replaceIn(ctx, s.client,
		func(r *repository.Repositories) (domain.Student, error) {
			if err := checkMandatory(domain.StudentUpdateSchema, st); err != nil {
				return domain.Student{}, err
			}
			if err := checkStudentRefs(ctx, r, p, st); err != nil {
				return domain.Student{}, err
			}
			return r.Students.Update(ctx, p, st)
		},
		func(r *repository.Repositories) (domain.Student, error) { return r.Students.Get(ctx, p, st.ID) })
}

// Attendance lists the attendance rows of student id.
func (s *StudentService) Attendance(ctx context.Context, p domain.Partition, id int64) ([]domain.Attendance, error) {
	if _, err := s.client.Students.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.client.Attendance.ListBy(ctx, p, repository.ColStudentID, id)
}

// Delete removes the student with its attendance and attachments.
func (s *StudentService) Delete(ctx context.Context, p domain.Partition, id int64) (domain.Student, error) {
	var former domain.Student
	err := s.deleteWith(ctx, p, "Student", id, func(r *repository.Repositories, c *cascade) error {
		var err error
		if former, err = r.Students.Get(ctx, p, id); err != nil {
			return err
		}
		return c.student(ctx, id)
	})
	if err != nil {
		return domain.Student{}, err
	}
	return former, nil
}
