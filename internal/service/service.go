// Package service orchestrates partition-scoped entity operations.
//
// Every exported operation takes the caller's partition explicitly. Writes
// that touch more than one row run in a single transaction through
// repository.Client.WithTx, and the first failure rolls the whole unit back
// and is returned unchanged.
//
// Import Path: tutorhub.io/tutorhub/internal/service
package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tutorhub.io/tutorhub/internal/blob"
	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/mapping"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/pkg/logger"
	"tutorhub.io/tutorhub/internal/repository"
)

// Services is the full set of entity services sharing one client.
type Services struct {
	Teachers    *TeacherService
	Customers   *CustomerService
	Students    *StudentService
	Groups      *GroupService
	Lessons     *LessonService
	Attendance  *AttendanceService
	Accounts    *AccountService
	Attachments *AttachmentService
}

// Options tune the account and attachment services.
type Options struct {
	BcryptCost        int
	MinPasswordLength int
	MaxUploadBytes    int64
}

// New wires every service. events may be nil, in which case post-commit
// notifications are dropped.
func New(client *repository.Client, events *domain.EventDispatcher, blobs blob.Store, opts Options) *Services {
	b := base{client: client, events: events}
	return &Services{
		Teachers:    &TeacherService{base: b},
		Customers:   &CustomerService{base: b},
		Students:    &StudentService{base: b},
		Groups:      &GroupService{base: b},
		Lessons:     &LessonService{base: b},
		Attendance:  &AttendanceService{base: b},
		Accounts:    NewAccountService(client, opts.BcryptCost, opts.MinPasswordLength),
		Attachments: NewAttachmentService(client, events, blobs, opts.MaxUploadBytes),
	}
}

type base struct {
	client *repository.Client
	events *domain.EventDispatcher
}

// deleteWith runs a cascading delete of one aggregate in a transaction and
// publishes what it removed once the transaction has committed.
func (b base) deleteWith(ctx context.Context, p domain.Partition, aggregate string, id int64,
	fn func(r *repository.Repositories, c *cascade) error) error {
	var c *cascade
	err := b.client.WithTx(ctx, func(r *repository.Repositories) error {
		c = newCascade(r, p)
		return fn(r, c)
	})
	if err != nil {
		return err
	}
	c.publish(ctx, b.events, aggregate, id)
	return nil
}

// replaceIn runs update and the reread of the updated row in one
// transaction, so the returned current row is the one this update wrote.
func replaceIn[T any](ctx context.Context, client *repository.Client,
	update func(r *repository.Repositories) (T, error),
	reread func(r *repository.Repositories) (T, error)) (prior, current T, err error) {
	err = client.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		if prior, err = update(r); err != nil {
			return err
		}
		current, err = reread(r)
		return err
	})
	if err != nil {
		var zero T
		return zero, zero, err
	}
	return prior, current, nil
}

// Money columns are NUMERIC(12, 2).
const (
	amountScale  = 2
	amountDigits = 12
)

var amountLimit = decimal.New(1, amountDigits-amountScale)

// checkAmount rejects a money value the database would round or refuse.
func checkAmount(field string, d decimal.NullDecimal) error {
	if !d.Valid {
		return nil
	}
	if !d.Decimal.Equal(d.Decimal.Truncate(amountScale)) {
		return apperrors.ErrInvalidRequestField(field, fmt.Sprintf("must have at most %d decimal places", amountScale))
	}
	if d.Decimal.Abs().GreaterThanOrEqual(amountLimit) {
		return apperrors.ErrInvalidRequestField(field, fmt.Sprintf("must be less than %s", amountLimit.String()))
	}
	return nil
}

// requireRef fails with a field-level validation error when id does not name
// a row of p.
func requireRef(ctx context.Context, p domain.Partition, field, entity string, id int64,
	exists func(context.Context, domain.Partition, int64) (bool, error)) error {
	ok, err := exists(ctx, p, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrReferenceNotFound(field, entity, id)
	}
	return nil
}

// checkMandatory reports unset mandatory fields before references are
// resolved, so a missing id is not reported as a dangling reference.
func checkMandatory[T any](schema *mapping.Schema[T], e T) error {
	m := schema.Map(e)
	if !m.CanBeInserted() {
		return apperrors.ErrMissingFields(schema.Entity(), m.MissingMandatoryFieldNames())
	}
	return nil
}

func logCascade(ctx context.Context, p domain.Partition, aggregate string, id int64, removed map[string]int) {
	fields := []zap.Field{
		zap.String("aggregate", aggregate),
		zap.Int64("id", id),
		zap.Int64("partition", p.ID()),
	}
	for entity, n := range removed {
		fields = append(fields, zap.Int(entity, n))
	}
	logger.FromContext(ctx).Debug("Cascade delete committed", fields...)
}
