package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorhub.io/tutorhub/internal/domain"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/testutil"
)

func newPostgresFixture(t *testing.T) (*fixture, domain.Partition) {
	t.Helper()
	f := newFixtureOn(t, testutil.OpenPostgres(t, "service"))
	_, p, err := f.svc.Accounts.Register(context.Background(), Registration{
		PartitionName: "North",
		Account:       AccountInput{Username: "ann", Password: "secret1"},
	})
	require.NoError(t, err)
	return f, p
}

func TestPostgres_CustomerDeleteCascades(t *testing.T) {
	ctx := context.Background()
	f, p := newPostgresFixture(t)
	s := newSchool(t, f, p)

	att, err := f.svc.Attachments.Upload(ctx, p, Upload{
		OwnerKind: domain.OwnerStudent,
		OwnerID:   s.students[0].ID,
		FileName:  "report.txt",
		Body:      strings.NewReader("A+"),
	})
	require.NoError(t, err)
	got, err := f.svc.Attachments.Get(ctx, p, att.ID)
	require.NoError(t, err)
	assert.True(t, att.Equal(got), "want %v, got %v", att, got)

	former, err := f.svc.Customers.Delete(ctx, p, s.customer.ID)
	require.NoError(t, err)
	assert.True(t, former.Equal(s.customer))

	for _, st := range s.students {
		_, err := f.svc.Students.Get(ctx, p, st.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	}
	rows, err := f.svc.Attendance.ByLesson(ctx, p, s.lesson.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	_, err = f.svc.Attachments.Get(ctx, p, att.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 1, f.pool.calls)
}

func TestPostgres_ReplaceReadsCommittedRow(t *testing.T) {
	ctx := context.Background()
	f, p := newPostgresFixture(t)
	s := newSchool(t, f, p)

	l := s.lesson
	l.StartsAt = l.StartsAt.Add(1500*time.Millisecond + 42*time.Nanosecond)
	l.Topic = "Review"
	prior, current, err := f.svc.Lessons.Replace(ctx, p, l)
	require.NoError(t, err)
	assert.True(t, prior.Equal(s.lesson))
	want := l
	want.StartsAt = l.StartsAt.Truncate(time.Microsecond)
	assert.True(t, current.Equal(want), "want %v, got %v", want, current)
}

func TestPostgres_ConcurrentAccountDeletesKeepOne(t *testing.T) {
	ctx := context.Background()
	f, p := newPostgresFixture(t)

	accounts, err := f.svc.Accounts.List(ctx, p)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	bob, err := f.svc.Accounts.Create(ctx, p, AccountInput{Username: "bob", Password: "bobpass"})
	require.NoError(t, err)

	ids := []int64{accounts[0].ID, bob.ID}
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = f.svc.Accounts.Delete(ctx, p, id)
		}(i, id)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			requireCode(t, err, apperrors.ErrConflict, apperrors.CodeLastAccount)
		}
	}
	assert.Equal(t, 1, failed)

	left, err := f.svc.Accounts.List(ctx, p)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
