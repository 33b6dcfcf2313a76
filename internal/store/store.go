package store

import (
	"context"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"go.uber.org/zap"

	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/mapping"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/pkg/logger"
)

// errNoRows marks an insert that produced no row.
var errNoRows = errors.New("statement affected no rows")

// Store executes partition-scoped CRUD for one entity type against one
// executor. A Store bound to a transaction participates in it; a Store bound
// to a driver runs each statement on its own.
type Store[T any] struct {
	table   *Table[T]
	exec    dialect.ExecQuerier
	dialect string
}

// Table returns the table definition.
func (s *Store[T]) Table() *Table[T] { return s.table }

func (s *Store[T]) entity() string { return s.table.Entity() }

func (s *Store[T]) builder() *entsql.DialectBuilder { return entsql.Dialect(s.dialect) }

func (s *Store[T]) checkPartition(p domain.Partition) error {
	if !p.Valid() {
		return apperrors.Validation(apperrors.CodeInvalidPartition, "a valid partition is required").
			WithParams(map[string]interface{}{"entity": s.entity()})
	}
	return nil
}

func (s *Store[T]) checkID(id int64) error {
	if id <= 0 {
		return apperrors.ErrInvalidID(s.entity(), id)
	}
	return nil
}

func (s *Store[T]) notFound(p domain.Partition, id int64) error {
	return apperrors.ErrEntityNotFound(s.entity(), id, p.ID())
}

// scoped restricts a statement to the partition and, when id > 0, to one row.
func (s *Store[T]) scoped(p domain.Partition, id int64) *entsql.Predicate {
	if id > 0 {
		return entsql.And(entsql.EQ(PartitionColumn, p.ID()), entsql.EQ(s.table.pk, id))
	}
	return entsql.EQ(PartitionColumn, p.ID())
}

// Create inserts e into partition p and returns it with the assigned id.
// Any id already present on e is ignored.
func (s *Store[T]) Create(ctx context.Context, p domain.Partition, e T) (T, error) {
	var zero T
	if err := s.checkPartition(p); err != nil {
		return zero, err
	}
	s.table.create.Normalize(&e)
	m := s.table.create.Map(e)
	if !m.CanBeInserted() {
		return zero, apperrors.ErrMissingFields(s.entity(), m.MissingMandatoryFieldNames())
	}

	cols := m.InsertColumns()
	names := make([]string, 0, len(cols)+1)
	values := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		names = append(names, c.Name)
		values = append(values, c.Value)
	}
	names = append(names, PartitionColumn)
	values = append(values, p.ID())

	query, args := s.builder().Insert(s.table.name).
		Columns(names...).
		Values(values...).
		Returning(s.table.pk).
		Query()

	id, err := s.queryID(ctx, query, args)
	if err != nil {
		return zero, classify(err, "create", s.entity(), p)
	}
	s.table.create.SetID(&e, id)

	logger.FromContext(ctx).Debug("Entity created",
		zap.String("entity", s.entity()),
		zap.Int64("id", id),
		zap.Int64("partition", p.ID()),
	)
	return e, nil
}

func (s *Store[T]) queryID(ctx context.Context, query string, args []any) (int64, error) {
	var rows entsql.Rows
	if err := s.exec.Query(ctx, query, args, &rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, errNoRows
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return 0, err
	}
	return id, rows.Err()
}

// Get returns the row with id in partition p. A row owned by another
// partition is reported exactly like a missing one.
func (s *Store[T]) Get(ctx context.Context, p domain.Partition, id int64) (T, error) {
	var zero T
	if err := s.checkPartition(p); err != nil {
		return zero, err
	}
	if err := s.checkID(id); err != nil {
		return zero, err
	}
	return s.getOne(ctx, p, id, false)
}

func (s *Store[T]) getOne(ctx context.Context, p domain.Partition, id int64, lock bool) (T, error) {
	var zero T
	rows, err := s.selectRows(ctx, s.scoped(p, id), lock)
	if err != nil {
		return zero, classify(err, "get", s.entity(), p)
	}
	if len(rows) == 0 {
		return zero, s.notFound(p, id)
	}
	return rows[0], nil
}

// selectRows runs a scoped select. Row locks are only requested where the
// dialect supports them; SQLite serializes writers instead.
func (s *Store[T]) selectRows(ctx context.Context, where *entsql.Predicate, lock bool) ([]T, error) {
	sel := s.builder().Select(s.table.create.Columns()...).
		From(entsql.Table(s.table.name)).
		Where(where).
		OrderBy(s.table.pk)
	if lock && s.dialect == dialect.Postgres {
		sel.ForUpdate()
	}
	query, args := sel.Query()

	var rows entsql.Rows
	if err := s.exec.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var e T
		if err := rows.Scan(s.table.create.Targets(&e)...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table.name, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update replaces every non-key column of the row identified by e's id in
// partition p and returns the row as it was before the update.
func (s *Store[T]) Update(ctx context.Context, p domain.Partition, e T) (T, error) {
	var zero T
	if err := s.checkPartition(p); err != nil {
		return zero, err
	}
	s.table.update.Normalize(&e)
	m := s.table.update.Map(e)
	if !m.CanBeInserted() {
		return zero, apperrors.ErrMissingFields(s.entity(), m.MissingMandatoryFieldNames())
	}
	id := m.ID()
	if err := s.checkID(id); err != nil {
		return zero, err
	}

	prior, err := s.getOne(ctx, p, id, true)
	if err != nil {
		return zero, err
	}

	upd := s.builder().Update(s.table.name)
	for _, c := range m.UpdateColumns() {
		upd.Set(c.Name, c.Value)
	}
	query, args := upd.Where(s.scoped(p, id)).Query()

	n, err := s.execAffected(ctx, query, args)
	if err != nil {
		return zero, classify(err, "update", s.entity(), p)
	}
	if n == 0 {
		return zero, s.notFound(p, id)
	}

	logger.FromContext(ctx).Debug("Entity updated",
		zap.String("entity", s.entity()),
		zap.Int64("id", id),
		zap.Int64("partition", p.ID()),
	)
	return prior, nil
}

func (s *Store[T]) execAffected(ctx context.Context, query string, args []any) (int64, error) {
	var res entsql.Result
	if err := s.exec.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the row with id from partition p and returns its former
// value.
func (s *Store[T]) Delete(ctx context.Context, p domain.Partition, id int64) (T, error) {
	var zero T
	if err := s.checkPartition(p); err != nil {
		return zero, err
	}
	if err := s.checkID(id); err != nil {
		return zero, err
	}

	former, err := s.getOne(ctx, p, id, true)
	if err != nil {
		return zero, err
	}

	query, args := s.builder().Delete(s.table.name).Where(s.scoped(p, id)).Query()
	n, err := s.execAffected(ctx, query, args)
	if err != nil {
		return zero, classify(err, "delete", s.entity(), p)
	}
	if n == 0 {
		return zero, s.notFound(p, id)
	}

	logger.FromContext(ctx).Debug("Entity deleted",
		zap.String("entity", s.entity()),
		zap.Int64("id", id),
		zap.Int64("partition", p.ID()),
	)
	return former, nil
}

// List returns every row of partition p ordered by id.
func (s *Store[T]) List(ctx context.Context, p domain.Partition) ([]T, error) {
	if err := s.checkPartition(p); err != nil {
		return nil, err
	}
	rows, err := s.selectRows(ctx, s.scoped(p, 0), false)
	if err != nil {
		return nil, classify(err, "list", s.entity(), p)
	}
	return rows, nil
}

// ListForUpdate is List with every returned row locked until the enclosing
// transaction ends. Rows are locked in id order.
func (s *Store[T]) ListForUpdate(ctx context.Context, p domain.Partition) ([]T, error) {
	if err := s.checkPartition(p); err != nil {
		return nil, err
	}
	rows, err := s.selectRows(ctx, s.scoped(p, 0), true)
	if err != nil {
		return nil, classify(err, "lock", s.entity(), p)
	}
	return rows, nil
}

func (s *Store[T]) checkColumn(column string) error {
	if !s.table.create.HasColumn(column) {
		return apperrors.Internal(apperrors.CodeInternal,
			fmt.Sprintf("%s has no column %q", s.table.name, column))
	}
	return nil
}

// ListBy returns the rows of partition p whose column equals value.
func (s *Store[T]) ListBy(ctx context.Context, p domain.Partition, column string, value any) ([]T, error) {
	if err := s.checkPartition(p); err != nil {
		return nil, err
	}
	if err := s.checkColumn(column); err != nil {
		return nil, err
	}
	rows, err := s.selectRows(ctx, entsql.And(s.scoped(p, 0), entsql.EQ(column, value)), false)
	if err != nil {
		return nil, classify(err, "list", s.entity(), p)
	}
	return rows, nil
}

// Exists reports whether id names a row of partition p. Non-positive ids
// never exist.
func (s *Store[T]) Exists(ctx context.Context, p domain.Partition, id int64) (bool, error) {
	if err := s.checkPartition(p); err != nil {
		return false, err
	}
	if id <= 0 {
		return false, nil
	}
	n, err := s.count(ctx, p, s.scoped(p, id))
	return n > 0, err
}

// CountBy counts the rows of partition p whose column equals value. Used for
// "is this id referenced" checks.
func (s *Store[T]) CountBy(ctx context.Context, p domain.Partition, column string, value any) (int, error) {
	if err := s.checkPartition(p); err != nil {
		return 0, err
	}
	if err := s.checkColumn(column); err != nil {
		return 0, err
	}
	return s.count(ctx, p, entsql.And(s.scoped(p, 0), entsql.EQ(column, value)))
}

func (s *Store[T]) count(ctx context.Context, p domain.Partition, where *entsql.Predicate) (int, error) {
	query, args := s.builder().Select().
		Count().
		From(entsql.Table(s.table.name)).
		Where(where).
		Query()

	var rows entsql.Rows
	if err := s.exec.Query(ctx, query, args, &rows); err != nil {
		return 0, classify(err, "count", s.entity(), p)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, classify(err, "count", s.entity(), p)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, classify(err, "count", s.entity(), p)
	}
	return n, nil
}

// DeleteBy removes every row of partition p whose column equals value and
// returns the removed rows.
func (s *Store[T]) DeleteBy(ctx context.Context, p domain.Partition, column string, value any) ([]T, error) {
	if err := s.checkPartition(p); err != nil {
		return nil, err
	}
	if err := s.checkColumn(column); err != nil {
		return nil, err
	}
	where := func() *entsql.Predicate {
		return entsql.And(s.scoped(p, 0), entsql.EQ(column, value))
	}

	removed, err := s.selectRows(ctx, where(), true)
	if err != nil {
		return nil, classify(err, "delete", s.entity(), p)
	}
	if len(removed) == 0 {
		return nil, nil
	}

	query, args := s.builder().Delete(s.table.name).Where(where()).Query()
	if _, err := s.execAffected(ctx, query, args); err != nil {
		return nil, classify(err, "delete", s.entity(), p)
	}
	return removed, nil
}

// Schema exposes the create schema for callers that compare or print
// entities generically.
func (s *Store[T]) Schema() *mapping.Schema[T] { return s.table.create }
