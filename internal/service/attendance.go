package service

import (
	"context"

	"tutorhub.io/tutorhub/internal/domain"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/repository"
)

// AttendanceService records which students attended a lesson.
type AttendanceService struct {
	base
}

// Record marks student as present at lesson. Both must exist in p, the
// student must belong to the lesson's group, and a pair is recorded once.
func (s *AttendanceService) Record(ctx context.Context, p domain.Partition, a domain.Attendance) (domain.Attendance, error) {
	var created domain.Attendance
	err := s.client.WithTx(ctx, func(r *repository.Repositories) error {
		if err := checkMandatory(domain.AttendanceSchema, a); err != nil {
			return err
		}
		lesson, err := r.Lessons.Get(ctx, p, a.LessonID)
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return apperrors.ErrReferenceNotFound("lessonId", "Lesson", a.LessonID)
		}
		if err != nil {
			return err
		}
		student, err := r.Students.Get(ctx, p, a.StudentID)
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return apperrors.ErrReferenceNotFound("studentId", "Student", a.StudentID)
		}
		if err != nil {
			return err
		}
		if student.GroupID != lesson.GroupID {
			return apperrors.Validation(apperrors.CodeStudentNotInGroup, "student is not a member of the lesson's group").
				WithParams(map[string]interface{}{"student": student.ID, "group": lesson.GroupID}).
				WithFieldErrors([]apperrors.FieldError{{Field: "studentId", Code: apperrors.FieldInvalid, Message: "student is not in the lesson's group"}})
		}

		created, err = r.Attendance.Create(ctx, p, a)
		if apperrors.KindOf(err) == apperrors.KindConflict {
			return apperrors.Wrap(err, apperrors.KindConflict, apperrors.CodeDuplicateAttendance, "attendance already recorded").
				WithParams(map[string]interface{}{"lesson": a.LessonID, "student": a.StudentID})
		}
		return err
	})
	if err != nil {
		return domain.Attendance{}, err
	}
	return created, nil
}

func (s *AttendanceService) Get(ctx context.Context, p domain.Partition, id int64) (domain.Attendance, error) {
	return s.client.Attendance.Get(ctx, p, id)
}

// ByLesson lists the attendance rows of lesson id.
func (s *AttendanceService) ByLesson(ctx context.Context, p domain.Partition, lessonID int64) ([]domain.Attendance, error) {
	if _, err := s.client.Lessons.Get(ctx, p, lessonID); err != nil {
		return nil, err
	}
	return s.client.Attendance.ListBy(ctx, p, repository.ColLessonID, lessonID)
}

// Update replaces the note of an attendance row. The lesson and student of
// a row are fixed; changing them is rejected.
func (s *AttendanceService) Update(ctx context.Context, p domain.Partition, a domain.Attendance) (domain.Attendance, error) {
	var prior domain.Attendance
	err := s.client.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		prior, err = updateAttendance(ctx, r, p, a)
		return err
	})
	if err != nil {
		return domain.Attendance{}, err
	}
	return prior, nil
}

func updateAttendance(ctx context.Context, r *repository.Repositories, p domain.Partition, a domain.Attendance) (domain.Attendance, error) {
	if err := checkMandatory(domain.AttendanceUpdateSchema, a); err != nil {
		return domain.Attendance{}, err
	}
	current, err := r.Attendance.Get(ctx, p, a.ID)
	if err != nil {
		return domain.Attendance{}, err
	}
	if current.LessonID != a.LessonID || current.StudentID != a.StudentID {
		return domain.Attendance{}, apperrors.ErrInvalidRequestField("lessonId", "lesson and student of an attendance row cannot change")
	}
	return r.Attendance.Update(ctx, p, a)
}

// Annotate replaces the note of attendance row id. The row before and after
// the change are read in the same transaction as the write.
func (s *AttendanceService) Annotate(ctx context.Context, p domain.Partition, id int64, note string) (domain.Attendance, domain.Attendance, error) {
	return replaceIn(ctx, s.client,
		func(r *repository.Repositories) (domain.Attendance, error) {
			current, err := r.Attendance.Get(ctx, p, id)
			if err != nil {
				return domain.Attendance{}, err
			}
			current.Note = note
			return updateAttendance(ctx, r, p, current)
		},
		func(r *repository.Repositories) (domain.Attendance, error) { return r.Attendance.Get(ctx, p, id) })
}

// Delete removes one attendance row.
func (s *AttendanceService) Delete(ctx context.Context, p domain.Partition, id int64) (domain.Attendance, error) {
	return s.client.Attendance.Delete(ctx, p, id)
}
