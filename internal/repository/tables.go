// Package repository binds the entity tables to a database executor and
// owns transaction boundaries.
//
// Import Path: tutorhub.io/tutorhub/internal/repository
package repository

import (
	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/store"
)

// Partition-scoped tables.
var (
	Teachers    = store.MustTable("teachers", domain.TeacherSchema, domain.TeacherUpdateSchema)
	Customers   = store.MustTable("customers", domain.CustomerSchema, domain.CustomerUpdateSchema)
	Students    = store.MustTable("students", domain.StudentSchema, domain.StudentUpdateSchema)
	Groups      = store.MustTable("groups", domain.GroupSchema, domain.GroupUpdateSchema)
	Lessons     = store.MustTable("lessons", domain.LessonSchema, domain.LessonUpdateSchema)
	Attendance  = store.MustTable("attendance", domain.AttendanceSchema, domain.AttendanceUpdateSchema)
	Accounts    = store.MustTable("accounts", domain.AccountSchema, domain.AccountUpdateSchema)
	Attachments = store.MustTable("attachments", domain.AttachmentSchema, domain.AttachmentUpdateSchema)
)

// Column names used by ownership lookups and cascades.
const (
	ColCustomerID = "customer_id"
	ColGroupID    = "group_id"
	ColTeacherID  = "teacher_id"
	ColLessonID   = "lesson_id"
	ColStudentID  = "student_id"
	ColOwnerKind  = "owner_kind"
	ColOwnerID    = "owner_id"
)
