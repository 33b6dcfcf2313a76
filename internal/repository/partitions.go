package repository

import (
	"context"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"tutorhub.io/tutorhub/internal/domain"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
)

const partitionsTable = "partitions"

// CreatePartition registers a new tenant and returns its scope.
func (r *Repositories) CreatePartition(ctx context.Context, name string) (domain.Partition, error) {
	query, args := entsql.Dialect(r.dialect).Insert(partitionsTable).
		Columns("name").
		Values(name).
		Returning("id").
		Query()

	var rows entsql.Rows
	if err := r.exec.Query(ctx, query, args, &rows); err != nil {
		return domain.Partition{}, apperrors.Persistence(err, "create partition")
	}
	defer rows.Close()

	if !rows.Next() {
		err := rows.Err()
		if err == nil {
			err = errors.New("insert returned no id")
		}
		return domain.Partition{}, apperrors.Persistence(err, "create partition")
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return domain.Partition{}, apperrors.Persistence(err, "create partition")
	}
	return domain.NewPartition(id)
}

// FindAccountByUsername looks a login up across all partitions and returns
// it with the partition it belongs to. This is the only unscoped read; it
// exists to resolve the caller's partition.
func (r *Repositories) FindAccountByUsername(ctx context.Context, username string) (domain.Account, domain.Partition, error) {
	columns := append(Accounts.CreateSchema().Columns(), "partition_id")
	query, args := entsql.Dialect(r.dialect).Select(columns...).
		From(entsql.Table(Accounts.Name())).
		Where(entsql.EQ("username", username)).
		Query()

	var rows entsql.Rows
	if err := r.exec.Query(ctx, query, args, &rows); err != nil {
		return domain.Account{}, domain.Partition{}, apperrors.Persistence(err, "find account")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Account{}, domain.Partition{}, apperrors.Persistence(err, "find account")
		}
		return domain.Account{}, domain.Partition{}, apperrors.NotFound(apperrors.NotFoundCode("Account"), "account not found").
			WithParams(map[string]interface{}{"entity": "Account", "username": username})
	}

	var (
		a           domain.Account
		partitionID int64
	)
	targets := append(Accounts.CreateSchema().Targets(&a), &partitionID)
	if err := rows.Scan(targets...); err != nil {
		return domain.Account{}, domain.Partition{}, apperrors.Persistence(fmt.Errorf("scan account: %w", err), "find account")
	}
	p, err := domain.NewPartition(partitionID)
	if err != nil {
		return domain.Account{}, domain.Partition{}, err
	}
	return a, p, nil
}
