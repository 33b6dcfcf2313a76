package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"tutorhub.io/tutorhub/internal/mapping"
)

// Group is a class led by one teacher. Groups own students and lessons.
type Group struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	TeacherID   int64               `json:"teacher_id"`
	Subject     string              `json:"subject,omitempty"`
	LessonPrice decimal.NullDecimal `json:"lesson_price"`
}

var (
	GroupSchema = mapping.MustSchema("Group",
		mapping.IDField("id", func(g *Group) *int64 { return &g.ID }).MustBuild(),
		mapping.TextField("name", func(g *Group) *string { return &g.Name }).Mandatory().MustBuild(),
		mapping.IntField("teacherId", func(g *Group) *int64 { return &g.TeacherID }).
			Column("teacher_id").Mandatory().MustBuild(),
		mapping.TextField("subject", func(g *Group) *string { return &g.Subject }).MustBuild(),
		mapping.DecimalField("lessonPrice", func(g *Group) *decimal.NullDecimal { return &g.LessonPrice }).
			Column("lesson_price").MustBuild(),
	)
	GroupUpdateSchema = GroupSchema.MustWithMandatory("id")
)

func (g Group) String() string { return GroupSchema.Map(g).String() }

func (g Group) Equal(o Group) bool { return GroupSchema.Equal(g, o) }

// Lesson is one scheduled meeting of a group.
type Lesson struct {
	ID              int64     `json:"id"`
	GroupID         int64     `json:"group_id"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int64     `json:"duration_minutes"`
	Topic           string    `json:"topic,omitempty"`
	Canceled        bool      `json:"canceled"`
}

var (
	LessonSchema = mapping.MustSchema("Lesson",
		mapping.IDField("id", func(l *Lesson) *int64 { return &l.ID }).MustBuild(),
		mapping.IntField("groupId", func(l *Lesson) *int64 { return &l.GroupID }).
			Column("group_id").Mandatory().MustBuild(),
		mapping.TimestampField("startsAt", func(l *Lesson) *time.Time { return &l.StartsAt }).
			Column("starts_at").Mandatory().MustBuild(),
		mapping.IntField("durationMinutes", func(l *Lesson) *int64 { return &l.DurationMinutes }).
			Column("duration_minutes").Mandatory().MustBuild(),
		mapping.TextField("topic", func(l *Lesson) *string { return &l.Topic }).MustBuild(),
		mapping.BoolField("canceled", func(l *Lesson) *bool { return &l.Canceled }).MustBuild(),
	)
	LessonUpdateSchema = LessonSchema.MustWithMandatory("id")
)

func (l Lesson) String() string { return LessonSchema.Map(l).String() }

func (l Lesson) Equal(o Lesson) bool { return LessonSchema.Equal(l, o) }

// Attendance records that a student attended a lesson. A (lesson, student)
// pair is unique within a partition.
type Attendance struct {
	ID        int64  `json:"id"`
	LessonID  int64  `json:"lesson_id"`
	StudentID int64  `json:"student_id"`
	Note      string `json:"note,omitempty"`
}

var (
	AttendanceSchema = mapping.MustSchema("Attendance",
		mapping.IDField("id", func(a *Attendance) *int64 { return &a.ID }).MustBuild(),
		mapping.IntField("lessonId", func(a *Attendance) *int64 { return &a.LessonID }).
			Column("lesson_id").Mandatory().MustBuild(),
		mapping.IntField("studentId", func(a *Attendance) *int64 { return &a.StudentID }).
			Column("student_id").Mandatory().MustBuild(),
		mapping.TextField("note", func(a *Attendance) *string { return &a.Note }).MustBuild(),
	)
	AttendanceUpdateSchema = AttendanceSchema.MustWithMandatory("id")
)

func (a Attendance) String() string { return AttendanceSchema.Map(a).String() }

func (a Attendance) Equal(o Attendance) bool { return AttendanceSchema.Equal(a, o) }
