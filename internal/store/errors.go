package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"tutorhub.io/tutorhub/internal/domain"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
)

// SQLSTATE codes classified by the store.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// isUniqueViolation recognizes unique-constraint failures from PostgreSQL
// (pgx) and SQLite. SQLite is matched on the message so the production
// binary does not link the cgo driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// classify turns a storage fault into a Conflict (unique violation) or a
// Persistence error carrying the cause. AppErrors pass through unchanged.
func classify(err error, op, entity string, p domain.Partition) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.IsAppError(err); ok {
		return err
	}
	params := map[string]interface{}{"entity": entity, "partition": p.ID(), "operation": op}
	switch {
	case isUniqueViolation(err):
		return apperrors.Wrap(err, apperrors.KindConflict, apperrors.CodeDuplicate,
			strings.ToLower(entity)+" already exists").WithParams(params)
	case isForeignKeyViolation(err):
		return apperrors.Wrap(err, apperrors.KindConflict, apperrors.CodeReferenceInUse,
			strings.ToLower(entity)+" violates a reference constraint").WithParams(params)
	default:
		return apperrors.Persistence(err, op+" "+strings.ToLower(entity)).WithParams(params)
	}
}
