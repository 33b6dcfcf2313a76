package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tutorhub.io/tutorhub/internal/domain"
)

type attendanceRequest struct {
	StudentID int64  `json:"student_id"`
	Note      string `json:"note"`
}

// RecordAttendance handles POST /lessons/:id/attendance.
func (s *Server) RecordAttendance(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req attendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := s.svc.Attendance.Record(c.Request.Context(), p, domain.Attendance{
		LessonID:  lessonID,
		StudentID: req.StudentID,
		Note:      req.Note,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateAttendance handles PUT /attendance/:id. Only the note can change.
func (s *Server) UpdateAttendance(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	if !bindJSON(c, &req) {
		return
	}

	_, current, err := s.svc.Attendance.Annotate(c.Request.Context(), p, id, req.Note)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, current)
}

// DeleteAttendance handles DELETE /attendance/:id.
func (s *Server) DeleteAttendance(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	former, err := s.svc.Attendance.Delete(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, former)
}
