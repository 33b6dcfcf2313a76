package handlers

import (
	"github.com/gin-gonic/gin"

	"tutorhub.io/tutorhub/internal/domain"
)

// Teachers serves /teachers.
func (s *Server) Teachers() crud[domain.Teacher] {
	return crud[domain.Teacher]{svc: s.svc.Teachers, setID: func(e *domain.Teacher, id int64) { e.ID = id }}
}

// Customers serves /customers.
func (s *Server) Customers() crud[domain.Customer] {
	return crud[domain.Customer]{svc: s.svc.Customers, setID: func(e *domain.Customer, id int64) { e.ID = id }}
}

// Students serves /students.
func (s *Server) Students() crud[domain.Student] {
	return crud[domain.Student]{svc: s.svc.Students, setID: func(e *domain.Student, id int64) { e.ID = id }}
}

// Groups serves /groups.
func (s *Server) Groups() crud[domain.Group] {
	return crud[domain.Group]{svc: s.svc.Groups, setID: func(e *domain.Group, id int64) { e.ID = id }}
}

// Lessons serves /lessons.
func (s *Server) Lessons() crud[domain.Lesson] {
	return crud[domain.Lesson]{svc: s.svc.Lessons, setID: func(e *domain.Lesson, id int64) { e.ID = id }}
}

// ListTeacherGroups handles GET /teachers/:id/groups.
func (s *Server) ListTeacherGroups() gin.HandlerFunc { return childList(s.svc.Teachers.Groups) }

// ListCustomerStudents handles GET /customers/:id/students.
func (s *Server) ListCustomerStudents() gin.HandlerFunc { return childList(s.svc.Customers.Students) }

// ListGroupStudents handles GET /groups/:id/students.
func (s *Server) ListGroupStudents() gin.HandlerFunc { return childList(s.svc.Groups.Students) }

// ListGroupLessons handles GET /groups/:id/lessons.
func (s *Server) ListGroupLessons() gin.HandlerFunc { return childList(s.svc.Groups.Lessons) }

// ListStudentAttendance handles GET /students/:id/attendance.
func (s *Server) ListStudentAttendance() gin.HandlerFunc { return childList(s.svc.Students.Attendance) }

// ListLessonAttendance handles GET /lessons/:id/attendance.
func (s *Server) ListLessonAttendance() gin.HandlerFunc { return childList(s.svc.Attendance.ByLesson) }
