package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorhub.io/tutorhub/internal/domain"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/testutil"
)

func TestWithTx_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	c := NewClient(testutil.OpenSQLite(t))
	p := domain.MustPartition(1)

	err := c.WithTx(ctx, func(r *Repositories) error {
		_, err := r.Customers.Create(ctx, p, domain.Customer{Name: "Kept", Phone: "1"})
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = c.WithTx(ctx, func(r *Repositories) error {
		if _, err := r.Customers.Create(ctx, p, domain.Customer{Name: "Dropped", Phone: "2"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Panics(t, func() {
		_ = c.WithTx(ctx, func(r *Repositories) error {
			_, _ = r.Customers.Create(ctx, p, domain.Customer{Name: "Panicked", Phone: "3"})
			panic("boom")
		})
	})

	list, err := c.Customers.List(ctx, p)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Kept", list[0].Name)
}

func TestWithTx_KeepsErrorKind(t *testing.T) {
	ctx := context.Background()
	c := NewClient(testutil.OpenSQLite(t))

	err := c.WithTx(ctx, func(r *Repositories) error {
		_, err := r.Teachers.Get(ctx, domain.MustPartition(1), 42)
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestWithTx_CommitFaultIsPersistence(t *testing.T) {
	ctx := context.Background()
	drv := testutil.OpenSQLite(t)
	require.NoError(t, drv.Exec(ctx, "PRAGMA foreign_keys = ON", []any{}, nil))
	c := NewClient(drv)

	p, err := c.CreatePartition(ctx, "Deferred")
	require.NoError(t, err)

	// With deferred checks the dangling references only fail at commit.
	err = c.WithTx(ctx, func(r *Repositories) error {
		if err := r.exec.Exec(ctx, "PRAGMA defer_foreign_keys = ON", []any{}, nil); err != nil {
			return err
		}
		_, err := r.Students.Create(ctx, p, domain.Student{CustomerID: 404, GroupID: 404, Name: "Orphan"})
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.Equal(t, apperrors.KindPersistence, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "FOREIGN KEY")
}

func TestPartitionsAndAccountLookup(t *testing.T) {
	ctx := context.Background()
	c := NewClient(testutil.OpenSQLite(t))

	p, err := c.CreatePartition(ctx, "North branch")
	require.NoError(t, err)
	assert.True(t, p.Valid())

	other, err := c.CreatePartition(ctx, "South branch")
	require.NoError(t, err)
	assert.NotEqual(t, p.ID(), other.ID())

	created, err := c.Accounts.Create(ctx, other, domain.Account{Username: "ann", PasswordHash: "h"})
	require.NoError(t, err)

	got, gotP, err := c.FindAccountByUsername(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, other, gotP)
	assert.True(t, got.Equal(created))

	_, _, err = c.FindAccountByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, c.Ping(ctx))
}

func TestAtomic_JoinsNestedUnits(t *testing.T) {
	ctx := context.Background()
	c := NewClient(testutil.OpenSQLite(t))
	p := domain.MustPartition(1)

	boom := errors.New("boom")
	err := c.Atomic(ctx, func(tx *Client) error {
		err := tx.WithTx(ctx, func(r *Repositories) error {
			_, err := r.Customers.Create(ctx, p, domain.Customer{Name: "First", Phone: "1"})
			return err
		})
		require.NoError(t, err)
		if _, err := tx.Customers.Create(ctx, p, domain.Customer{Name: "Second", Phone: "2"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := c.Customers.List(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, got, "a committed inner unit must roll back with the outer one")

	err = c.Atomic(ctx, func(tx *Client) error {
		return tx.WithTx(ctx, func(r *Repositories) error {
			_, err := r.Customers.Create(ctx, p, domain.Customer{Name: "Kept", Phone: "3"})
			return err
		})
	})
	require.NoError(t, err)
	got, err = c.Customers.List(ctx, p)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Kept", got[0].Name)
}
