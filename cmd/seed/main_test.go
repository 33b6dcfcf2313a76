package main

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/repository"
	"tutorhub.io/tutorhub/internal/service"
	"tutorhub.io/tutorhub/internal/testutil"
)

func buildServices(c *repository.Client) *service.Services {
	return service.New(c, nil, nil, service.Options{BcryptCost: bcrypt.MinCost, MinPasswordLength: 6})
}

func newClient(t *testing.T) *repository.Client {
	t.Helper()
	return repository.NewClient(testutil.OpenSQLite(t))
}

func loadFixture(t *testing.T) *fixture {
	t.Helper()
	f, err := os.Open("testdata/school.yaml")
	require.NoError(t, err)
	defer f.Close()
	fx, err := decodeFixture(f)
	require.NoError(t, err)
	return fx
}

func TestApply_SchoolFixture(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)
	svc := buildServices(client)

	sum, err := applyAtomic(ctx, client, buildServices, loadFixture(t))
	require.NoError(t, err)
	assert.True(t, sum.Partition.Valid())
	assert.Equal(t, map[string]int{
		"Account":    1,
		"Teacher":    2,
		"Group":      1,
		"Customer":   1,
		"Student":    2,
		"Lesson":     1,
		"Attendance": 2,
	}, sum.Created)

	teachers, err := svc.Teachers.List(ctx, sum.Partition)
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "42.5", teachers[0].HourlyRate.Decimal.String())
	assert.Equal(t, []string{"math", "physics"}, []string(teachers[0].Subjects))

	students, err := svc.Students.List(ctx, sum.Partition)
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.NotNil(t, students[0].BirthDate)
	assert.Equal(t, "2013-05-17", students[0].BirthDate.Format("2006-01-02"))

	_, _, err = svc.Accounts.Login(ctx, "admin", "change-me-now")
	assert.NoError(t, err)
}

func TestApply_Failures(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown teacher key",
			doc: `partition: P
account: {username: u1, password: secret-pw}
groups:
  - {key: g, name: G, teacher: nobody}`,
			want: `teacher "nobody" is not defined`,
		},
		{
			name: "bad decimal",
			doc: `partition: P
account: {username: u1, password: secret-pw}
teachers:
  - {key: t, name: T, hourly_rate: lots}`,
			want: "hourly_rate",
		},
		{
			name: "duplicate key",
			doc: `partition: P
account: {username: u1, password: secret-pw}
customers:
  - {key: c, name: A, phone: "1"}
  - {key: c, name: B, phone: "2"}`,
			want: `duplicate customer key "c"`,
		},
		{
			name: "missing mandatory field",
			doc: `partition: P
account: {username: u1, password: secret-pw}
customers:
  - {key: c, name: A}`,
			want: "MISSING_MANDATORY_FIELDS",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			fx, err := decodeFixture(strings.NewReader(tt.doc))
			require.NoError(t, err)
			client := newClient(t)
			sum, err := applyAtomic(ctx, client, buildServices, fx)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, sum)

			// The registration before the failing row is rolled back too.
			_, _, err = client.FindAccountByUsername(ctx, "u1")
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
			_, _, err = buildServices(client).Accounts.Register(ctx, service.Registration{
				PartitionName: "P",
				Account:       service.AccountInput{Username: "u1", Password: "secret-pw"},
			})
			assert.NoError(t, err)
		})
	}
}

func TestDecodeFixture_RejectsUnknownKeys(t *testing.T) {
	_, err := decodeFixture(strings.NewReader("partition: P\nteachres: []\n"))
	assert.Error(t, err)
}
