package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"tutorhub.io/tutorhub/internal/domain"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/store"
)

// Repositories is the set of stores bound to one executor: either the
// driver itself or an open transaction.
type Repositories struct {
	Teachers    *store.Store[domain.Teacher]
	Customers   *store.Store[domain.Customer]
	Students    *store.Store[domain.Student]
	Groups      *store.Store[domain.Group]
	Lessons     *store.Store[domain.Lesson]
	Attendance  *store.Store[domain.Attendance]
	Accounts    *store.Store[domain.Account]
	Attachments *store.Store[domain.Attachment]

	exec    dialect.ExecQuerier
	dialect string
}

func bind(exec dialect.ExecQuerier, dialectName string) *Repositories {
	return &Repositories{
		Teachers:    Teachers.Bind(exec, dialectName),
		Customers:   Customers.Bind(exec, dialectName),
		Students:    Students.Bind(exec, dialectName),
		Groups:      Groups.Bind(exec, dialectName),
		Lessons:     Lessons.Bind(exec, dialectName),
		Attendance:  Attendance.Bind(exec, dialectName),
		Accounts:    Accounts.Bind(exec, dialectName),
		Attachments: Attachments.Bind(exec, dialectName),
		exec:        exec,
		dialect:     dialectName,
	}
}

// Client runs single statements on the driver and multi-step units of work
// in transactions.
type Client struct {
	drv    *entsql.Driver
	joined bool
	*Repositories
}

// NewClient wraps an ent SQL driver (PostgreSQL in production, SQLite in
// tests).
func NewClient(drv *entsql.Driver) *Client {
	return &Client{drv: drv, Repositories: bind(drv, drv.Dialect())}
}

// WithTx runs fn in one transaction. A returned error or a panic rolls the
// transaction back; the error is returned unchanged so its kind survives.
// Failing to begin or commit is a persistence fault.
func (c *Client) WithTx(ctx context.Context, fn func(r *Repositories) error) error {
	if c.joined {
		return fn(c.Repositories)
	}
	tx, err := c.drv.Tx(ctx)
	if err != nil {
		return apperrors.Persistence(err, "begin tx")
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(bind(tx, c.dialect)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w: rolling back: %v", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Persistence(err, "commit tx")
	}
	return nil
}

// Atomic runs fn with a client bound to one transaction. Units of work
// started through that client join it instead of committing on their own, so
// fn commits or rolls back as a whole. Callers see events of the joined units
// before the outer commit.
func (c *Client) Atomic(ctx context.Context, fn func(tx *Client) error) error {
	return c.WithTx(ctx, func(r *Repositories) error {
		return fn(&Client{drv: c.drv, joined: true, Repositories: r})
	})
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.drv.DB().PingContext(ctx)
}

// Close closes the underlying driver.
func (c *Client) Close() error {
	return c.drv.Close()
}
