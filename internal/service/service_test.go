package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tutorhub.io/tutorhub/internal/blob"
	"tutorhub.io/tutorhub/internal/domain"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/pkg/worker"
	"tutorhub.io/tutorhub/internal/repository"
	"tutorhub.io/tutorhub/internal/testutil"
)

var (
	p7 = domain.MustPartition(7)
	p8 = domain.MustPartition(8)
)

// inlinePool runs detached tasks synchronously.
type inlinePool struct{ calls int }

func (p *inlinePool) SubmitDetached(_ string, task worker.Task) error {
	p.calls++
	task(context.Background())
	return nil
}

type fixture struct {
	svc    *Services
	client *repository.Client
	drv    *entsql.Driver
	blobs  *blob.Local
	pool   *inlinePool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.OpenSQLite(t))
}

func newFixtureOn(t *testing.T, drv *entsql.Driver) *fixture {
	t.Helper()
	client := repository.NewClient(drv)
	blobs, err := blob.NewLocal(t.TempDir())
	require.NoError(t, err)

	events := domain.NewEventDispatcher()
	pool := &inlinePool{}
	RegisterBlobCleanup(events, blobs, pool)

	svc := New(client, events, blobs, Options{BcryptCost: bcrypt.MinCost, MinPasswordLength: 6, MaxUploadBytes: 16})
	return &fixture{svc: svc, client: client, drv: drv, blobs: blobs, pool: pool}
}

func requireCode(t *testing.T, err error, kind error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok, "expected *AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// school builds teacher → group → customer → two students → lesson with
// attendance in partition p.
type school struct {
	teacher  domain.Teacher
	group    domain.Group
	customer domain.Customer
	students []domain.Student
	lesson   domain.Lesson
}

func newSchool(t *testing.T, f *fixture, p domain.Partition) school {
	t.Helper()
	ctx := context.Background()
	var s school
	var err error

	s.teacher, err = f.svc.Teachers.Create(ctx, p, domain.Teacher{Name: "Ann"})
	require.NoError(t, err)
	s.group, err = f.svc.Groups.Create(ctx, p, domain.Group{Name: "Algebra", TeacherID: s.teacher.ID})
	require.NoError(t, err)
	s.customer, err = f.svc.Customers.Create(ctx, p, domain.Customer{Name: "Parent", Phone: "555"})
	require.NoError(t, err)
	for _, name := range []string{"Jane", "John"} {
		st, err := f.svc.Students.Create(ctx, p, domain.Student{CustomerID: s.customer.ID, GroupID: s.group.ID, Name: name})
		require.NoError(t, err)
		s.students = append(s.students, st)
	}
	s.lesson, err = f.svc.Lessons.Create(ctx, p, domain.Lesson{
		GroupID:         s.group.ID,
		StartsAt:        time.Date(2024, 9, 2, 15, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	for _, st := range s.students {
		_, err := f.svc.Attendance.Record(ctx, p, domain.Attendance{LessonID: s.lesson.ID, StudentID: st.ID})
		require.NoError(t, err)
	}
	return s
}

func TestCustomerDelete_CascadesToStudents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := newSchool(t, f, p7)

	att, err := f.svc.Attachments.Upload(ctx, p7, Upload{
		OwnerKind: domain.OwnerStudent,
		OwnerID:   s.students[0].ID,
		FileName:  "report.txt",
		Body:      strings.NewReader("A+"),
	})
	require.NoError(t, err)

	former, err := f.svc.Customers.Delete(ctx, p7, s.customer.ID)
	require.NoError(t, err)
	assert.True(t, former.Equal(s.customer))

	_, err = f.svc.Customers.Get(ctx, p7, s.customer.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	for _, st := range s.students {
		_, err := f.svc.Students.Get(ctx, p7, st.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	}
	rows, err := f.svc.Attendance.ByLesson(ctx, p7, s.lesson.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	_, err = f.svc.Attachments.Get(ctx, p7, att.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// The blob is released after commit.
	assert.Equal(t, 1, f.pool.calls)
	_, err = f.blobs.Open(att.StorageKey)
	assert.ErrorIs(t, err, blob.ErrNotFound)

	// Siblings outside the ownership tree survive.
	_, err = f.svc.Groups.Get(ctx, p7, s.group.ID)
	assert.NoError(t, err)
	_, err = f.svc.Lessons.Get(ctx, p7, s.lesson.ID)
	assert.NoError(t, err)
}

func TestCustomerDelete_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := newSchool(t, f, p7)

	// The attachment step runs after students and attendance are deleted.
	require.NoError(t, f.drv.Exec(ctx, "DROP TABLE attachments", []any{}, nil))

	former, err := f.svc.Customers.Delete(ctx, p7, s.customer.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.Zero(t, former)

	_, err = f.svc.Customers.Get(ctx, p7, s.customer.ID)
	assert.NoError(t, err)
	students, err := f.svc.Customers.Students(ctx, p7, s.customer.ID)
	require.NoError(t, err)
	assert.Len(t, students, 2)
	rows, err := f.svc.Attendance.ByLesson(ctx, p7, s.lesson.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Zero(t, f.pool.calls)
}

func TestCustomerUpdate_CrossPartition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.svc.Customers.Create(ctx, p7, domain.Customer{Name: "Acme", Phone: "1"})
	require.NoError(t, err)

	_, err = f.svc.Customers.Update(ctx, p8, domain.Customer{ID: c.ID, Name: "Other", Phone: "2"})
	requireCode(t, err, apperrors.ErrNotFound, "CUSTOMER_NOT_FOUND")

	got, err := f.svc.Customers.Get(ctx, p7, c.ID)
	require.NoError(t, err)
	assert.True(t, got.Equal(c))

	prior, err := f.svc.Customers.Update(ctx, p7, domain.Customer{ID: c.ID, Name: "Acme Ltd", Phone: "1"})
	require.NoError(t, err)
	assert.True(t, prior.Equal(c))
}

func TestStudentCreate_ReferencesMustBeInPartition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := newSchool(t, f, p7)

	otherCustomer, err := f.svc.Customers.Create(ctx, p8, domain.Customer{Name: "Elsewhere", Phone: "9"})
	require.NoError(t, err)

	_, err = f.svc.Students.Create(ctx, p7, domain.Student{CustomerID: otherCustomer.ID, GroupID: s.group.ID, Name: "X"})
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeReferenceNotFound)
	appErr, _ := apperrors.IsAppError(err)
	require.Len(t, appErr.FieldErrors, 1)
	assert.Equal(t, "customerId", appErr.FieldErrors[0].Field)

	_, err = f.svc.Students.Create(ctx, p7, domain.Student{Name: "Y"})
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeMissingFields)

	moved := s.students[0]
	moved.GroupID = 9999
	_, err = f.svc.Students.Update(ctx, p7, moved)
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeReferenceNotFound)

	_, err = f.svc.Groups.Create(ctx, p8, domain.Group{Name: "G", TeacherID: s.teacher.ID})
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeReferenceNotFound)

	_, err = f.svc.Lessons.Create(ctx, p8, domain.Lesson{GroupID: s.group.ID, StartsAt: time.Now(), DurationMinutes: 30})
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeReferenceNotFound)
}

func TestTeacherDelete_InUse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := newSchool(t, f, p7)

	_, err := f.svc.Teachers.Delete(ctx, p7, s.teacher.ID)
	requireCode(t, err, apperrors.ErrConflict, apperrors.CodeTeacherInUse)

	groups, err := f.svc.Teachers.Groups(ctx, p7, s.teacher.ID)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	_, err = f.svc.Groups.Delete(ctx, p7, s.group.ID)
	require.NoError(t, err)
	_, err = f.svc.Teachers.Delete(ctx, p7, s.teacher.ID)
	require.NoError(t, err)

	_, err = f.svc.Teachers.Delete(ctx, p7, s.teacher.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGroupDelete_CascadesToStudentsAndLessons(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := newSchool(t, f, p7)
	keep := newSchool(t, f, p7)

	_, err := f.svc.Groups.Delete(ctx, p7, s.group.ID)
	require.NoError(t, err)

	students, err := f.svc.Students.List(ctx, p7)
	require.NoError(t, err)
	assert.Len(t, students, 2)
	for _, st := range students {
		assert.Equal(t, keep.group.ID, st.GroupID)
	}
	lessons, err := f.svc.Lessons.List(ctx, p7)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, keep.lesson.ID, lessons[0].ID)

	rows, err := f.svc.Attendance.ByLesson(ctx, p7, keep.lesson.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// The customer is not owned by the group.
	_, err = f.svc.Customers.Get(ctx, p7, s.customer.ID)
	assert.NoError(t, err)
}

func TestAttendanceRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := newSchool(t, f, p7)
	other := newSchool(t, f, p7)

	_, err := f.svc.Attendance.Record(ctx, p7, domain.Attendance{LessonID: s.lesson.ID, StudentID: s.students[0].ID})
	requireCode(t, err, apperrors.ErrConflict, apperrors.CodeDuplicateAttendance)

	_, err = f.svc.Attendance.Record(ctx, p7, domain.Attendance{LessonID: s.lesson.ID, StudentID: other.students[0].ID})
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeStudentNotInGroup)

	_, err = f.svc.Attendance.Record(ctx, p8, domain.Attendance{LessonID: s.lesson.ID, StudentID: s.students[0].ID})
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeReferenceNotFound)

	rows, err := f.svc.Students.Attendance(ctx, p7, s.students[0].ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	row.Note = "late"
	_, err = f.svc.Attendance.Update(ctx, p7, row)
	require.NoError(t, err)

	row.StudentID = s.students[1].ID
	_, err = f.svc.Attendance.Update(ctx, p7, row)
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeInvalidRequestField)

	_, err = f.svc.Attendance.Delete(ctx, p7, rows[0].ID)
	require.NoError(t, err)
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ann, p, err := f.svc.Accounts.Register(ctx, Registration{
		PartitionName: "North",
		Account:       AccountInput{Username: "ann", Password: "secret1"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", ann.PasswordHash)

	_, _, err = f.svc.Accounts.Register(ctx, Registration{
		PartitionName: "South",
		Account:       AccountInput{Username: "ann", Password: "secret2"},
	})
	requireCode(t, err, apperrors.ErrConflict, apperrors.CodeUsernameTaken)

	_, gotP, err := f.svc.Accounts.Login(ctx, "ann", "secret1")
	require.NoError(t, err)
	assert.Equal(t, p, gotP)

	_, _, err = f.svc.Accounts.Login(ctx, "ann", "wrong-pass")
	requireCode(t, err, apperrors.ErrUnauthorized, apperrors.CodeAuthFailed)
	_, _, err = f.svc.Accounts.Login(ctx, "nobody", "secret1")
	requireCode(t, err, apperrors.ErrUnauthorized, apperrors.CodeAuthFailed)

	resolved, err := f.svc.Accounts.ResolvePartition(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, p, resolved)

	_, err = f.svc.Accounts.Create(ctx, p, AccountInput{Username: "bob", Password: "123"})
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeInvalidRequestField)

	bob, err := f.svc.Accounts.Create(ctx, p, AccountInput{Username: "bob", Password: "bobpass"})
	require.NoError(t, err)

	_, err = f.svc.Accounts.Update(ctx, p, AccountInput{ID: bob.ID, Username: "bob", DisplayName: "Bob"})
	require.NoError(t, err)
	_, _, err = f.svc.Accounts.Login(ctx, "bob", "bobpass")
	assert.NoError(t, err, "empty password on update keeps the old one")

	_, err = f.svc.Accounts.Delete(ctx, p, bob.ID)
	require.NoError(t, err)
	_, err = f.svc.Accounts.Delete(ctx, p, ann.ID)
	requireCode(t, err, apperrors.ErrConflict, apperrors.CodeLastAccount)
}

func TestAttachments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := newSchool(t, f, p7)

	_, err := f.svc.Attachments.Upload(ctx, p7, Upload{OwnerKind: "invoice", OwnerID: 1, FileName: "a", Body: strings.NewReader("x")})
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeUnsupportedOwnerKind)

	_, err = f.svc.Attachments.Upload(ctx, p8, Upload{OwnerKind: domain.OwnerGroup, OwnerID: s.group.ID, FileName: "a", Body: strings.NewReader("x")})
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeReferenceNotFound)

	_, err = f.svc.Attachments.Upload(ctx, p7, Upload{OwnerKind: domain.OwnerGroup, OwnerID: s.group.ID, FileName: "big", Body: strings.NewReader(strings.Repeat("x", 17))})
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeAttachmentTooLarge)

	a, err := f.svc.Attachments.Upload(ctx, p7, Upload{
		OwnerKind:   domain.OwnerGroup,
		OwnerID:     s.group.ID,
		FileName:    "plan.txt",
		ContentType: "text/plain",
		Body:        strings.NewReader("week 1"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), a.SizeBytes)

	list, err := f.svc.Attachments.ListByOwner(ctx, p7, domain.OwnerGroup, s.group.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	none, err := f.svc.Attachments.ListByOwner(ctx, p7, domain.OwnerTeacher, s.group.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, rc, err := f.svc.Attachments.Open(ctx, p7, a.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "week 1", string(body))

	_, _, err = f.svc.Attachments.Open(ctx, p8, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Attachments.Delete(ctx, p7, a.ID)
	require.NoError(t, err)
	_, err = f.blobs.Open(a.StorageKey)
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestRegisterDeletionLog(t *testing.T) {
	ctx := context.Background()
	events := domain.NewEventDispatcher()
	pool := &inlinePool{}
	RegisterDeletionLog(events, pool)

	payload, err := domain.EntityDeletedPayload{Removed: map[string]int{"Student": 2}}.ToJSON()
	require.NoError(t, err)
	events.Publish(ctx, domain.NewEvent(domain.EventEntityDeleted, p7, "Customer", 3, payload))
	assert.Equal(t, 1, pool.calls)

	// Malformed payloads are reported by the dispatcher and never reach the pool.
	err = events.Dispatch(ctx, domain.NewEvent(domain.EventEntityDeleted, p7, "Customer", 3, []byte("{")))
	assert.Error(t, err)
	assert.Equal(t, 1, pool.calls)
}

func TestMoneyAmounts_MustFitStoredPrecision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rate := func(v string) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.RequireFromString(v)) }

	for _, v := range []string{"12.345", "10000000000", "-10000000000.00"} {
		_, err := f.svc.Teachers.Create(ctx, p7, domain.Teacher{Name: "Ann", HourlyRate: rate(v)})
		requireCode(t, err, apperrors.ErrValidation, apperrors.CodeInvalidRequestField)
		appErr, _ := apperrors.IsAppError(err)
		require.Len(t, appErr.FieldErrors, 1, v)
		assert.Equal(t, "hourlyRate", appErr.FieldErrors[0].Field, v)
	}

	tc, err := f.svc.Teachers.Create(ctx, p7, domain.Teacher{Name: "Ann", HourlyRate: rate("9999999999.99")})
	require.NoError(t, err)
	tc.HourlyRate = rate("40.125")
	_, _, err = f.svc.Teachers.Replace(ctx, p7, tc)
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeInvalidRequestField)

	_, err = f.svc.Groups.Create(ctx, p7, domain.Group{Name: "G", TeacherID: tc.ID, LessonPrice: rate("0.001")})
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeInvalidRequestField)
	g, err := f.svc.Groups.Create(ctx, p7, domain.Group{Name: "G", TeacherID: tc.ID, LessonPrice: rate("25.50")})
	require.NoError(t, err)
	g.LessonPrice = rate("1e12")
	_, _, err = f.svc.Groups.Replace(ctx, p7, g)
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeInvalidRequestField)

	got, err := f.svc.Groups.Get(ctx, p7, g.ID)
	require.NoError(t, err)
	assert.True(t, got.LessonPrice.Decimal.Equal(decimal.RequireFromString("25.5")))
}

func TestReplace_ReturnsPriorAndCurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := newSchool(t, f, p7)

	c := s.customer
	c.Name = "Parent Two"
	prior, current, err := f.svc.Customers.Replace(ctx, p7, c)
	require.NoError(t, err)
	assert.True(t, prior.Equal(s.customer))
	assert.True(t, current.Equal(c))

	moved := s.students[0]
	moved.GroupID = 9999
	prior2, current2, err := f.svc.Students.Replace(ctx, p7, moved)
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeReferenceNotFound)
	assert.Zero(t, prior2)
	assert.Zero(t, current2)

	rows, err := f.svc.Attendance.ByLesson(ctx, p7, s.lesson.ID)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	before, after, err := f.svc.Attendance.Annotate(ctx, p7, rows[0].ID, "left early")
	require.NoError(t, err)
	assert.Empty(t, before.Note)
	assert.Equal(t, "left early", after.Note)
	assert.Equal(t, before.StudentID, after.StudentID)

	_, _, err = f.svc.Attendance.Annotate(ctx, p8, rows[0].ID, "x")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAccounts_PasswordRequiredOnCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, err := f.svc.Accounts.Register(ctx, Registration{
		PartitionName: "North",
		Account:       AccountInput{Username: "ann"},
	})
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeMissingFields)
	appErr, _ := apperrors.IsAppError(err)
	require.Len(t, appErr.FieldErrors, 1)
	assert.Equal(t, "password", appErr.FieldErrors[0].Field)

	_, p, err := f.svc.Accounts.Register(ctx, Registration{
		PartitionName: "North",
		Account:       AccountInput{Username: "ann", Password: "secret1"},
	})
	require.NoError(t, err)

	created, err := f.svc.Accounts.Create(ctx, p, AccountInput{Username: "bob"})
	requireCode(t, err, apperrors.ErrValidation, apperrors.CodeMissingFields)
	assert.Zero(t, created)
	appErr, _ = apperrors.IsAppError(err)
	require.Len(t, appErr.FieldErrors, 1)
	assert.Equal(t, "password", appErr.FieldErrors[0].Field)
}

func TestAccountDelete_Lookups(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ann, p, err := f.svc.Accounts.Register(ctx, Registration{
		PartitionName: "North",
		Account:       AccountInput{Username: "ann", Password: "secret1"},
	})
	require.NoError(t, err)
	carl, q, err := f.svc.Accounts.Register(ctx, Registration{
		PartitionName: "South",
		Account:       AccountInput{Username: "carl", Password: "secret3"},
	})
	require.NoError(t, err)
	_, err = f.svc.Accounts.Create(ctx, q, AccountInput{Username: "dora", Password: "secret4"})
	require.NoError(t, err)

	former, err := f.svc.Accounts.Delete(ctx, p, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Zero(t, former)

	_, err = f.svc.Accounts.Delete(ctx, p, carl.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	former, err = f.svc.Accounts.Delete(ctx, p, ann.ID)
	requireCode(t, err, apperrors.ErrConflict, apperrors.CodeLastAccount)
	assert.Zero(t, former)

	former, err = f.svc.Accounts.Delete(ctx, q, carl.ID)
	require.NoError(t, err)
	assert.Equal(t, "carl", former.Username)
}
