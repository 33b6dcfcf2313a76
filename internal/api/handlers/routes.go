package handlers

import "github.com/gin-gonic/gin"

// RegisterPublic mounts the routes reachable without a token.
func (s *Server) RegisterPublic(rg gin.IRoutes) {
	rg.GET("/health/live", s.GetLiveness)
	rg.GET("/health/ready", s.GetReadiness)
	rg.POST("/auth/register", s.Register)
	rg.POST("/auth/login", s.Login)
}

// RegisterProtected mounts the partition-scoped routes. rg must run
// middleware.JWTAuth.
func (s *Server) RegisterProtected(rg gin.IRoutes) {
	rg.GET("/auth/me", s.GetCurrentAccount)

	mountCRUD(rg, "/teachers", s.Teachers())
	rg.GET("/teachers/:id/groups", s.ListTeacherGroups())

	mountCRUD(rg, "/customers", s.Customers())
	rg.GET("/customers/:id/students", s.ListCustomerStudents())

	mountCRUD(rg, "/students", s.Students())
	rg.GET("/students/:id/attendance", s.ListStudentAttendance())

	mountCRUD(rg, "/groups", s.Groups())
	rg.GET("/groups/:id/students", s.ListGroupStudents())
	rg.GET("/groups/:id/lessons", s.ListGroupLessons())

	mountCRUD(rg, "/lessons", s.Lessons())
	rg.GET("/lessons/:id/attendance", s.ListLessonAttendance())
	rg.POST("/lessons/:id/attendance", s.RecordAttendance)

	rg.PUT("/attendance/:id", s.UpdateAttendance)
	rg.DELETE("/attendance/:id", s.DeleteAttendance)

	rg.GET("/accounts", s.ListAccounts)
	rg.POST("/accounts", s.CreateAccount)
	rg.GET("/accounts/:id", s.GetAccount)
	rg.PUT("/accounts/:id", s.UpdateAccount)
	rg.DELETE("/accounts/:id", s.DeleteAccount)

	rg.GET("/attachments", s.ListAttachments)
	rg.POST("/attachments", s.UploadAttachment)
	rg.GET("/attachments/:id", s.GetAttachment)
	rg.GET("/attachments/:id/content", s.DownloadAttachment)
	rg.DELETE("/attachments/:id", s.DeleteAttachment)
}

func mountCRUD[T any](rg gin.IRoutes, path string, h crud[T]) {
	rg.GET(path, h.List)
	rg.POST(path, h.Create)
	rg.GET(path+"/:id", h.Get)
	rg.PUT(path+"/:id", h.Update)
	rg.DELETE(path+"/:id", h.Delete)
}
