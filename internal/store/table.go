// Package store is the generic partitioned store.
//
// A Table describes where one entity type lives and which field schemas
// govern its create and update operations. Binding a Table to an executor
// (a driver or an open transaction) yields a Store whose every operation is
// filtered or stamped by the caller's partition. There is no unscoped
// operation: the partition is a mandatory parameter of every method and the
// partition column is never exposed through the entity schema.
//
// Import Path: tutorhub.io/tutorhub/internal/store
package store

import (
	"fmt"
	"slices"

	"entgo.io/ent/dialect"

	"tutorhub.io/tutorhub/internal/mapping"
)

// PartitionColumn is the hidden tenant column every scoped table carries.
const PartitionColumn = "partition_id"

// Table binds an entity schema pair to a backing table.
type Table[T any] struct {
	name   string
	create *mapping.Schema[T]
	update *mapping.Schema[T]
	pk     string
}

// NewTable validates that both schemas describe the same columns, share a
// primary key, and do not claim the partition column.
func NewTable[T any](name string, create, update *mapping.Schema[T]) (*Table[T], error) {
	if name == "" {
		return nil, fmt.Errorf("store: table name must not be empty")
	}
	if create == nil || update == nil {
		return nil, fmt.Errorf("store: table %s: create and update schemas are required", name)
	}
	if !slices.Equal(create.Columns(), update.Columns()) {
		return nil, fmt.Errorf("store: table %s: create and update schemas differ in columns", name)
	}
	pk, ok := create.PrimaryKey()
	if !ok {
		return nil, fmt.Errorf("store: table %s: schema %s has no primary key", name, create.Entity())
	}
	if create.HasColumn(PartitionColumn) {
		return nil, fmt.Errorf("store: table %s: %s is reserved", name, PartitionColumn)
	}
	return &Table[T]{name: name, create: create, update: update, pk: pk.Column()}, nil
}

// MustTable is NewTable for package-level declarations.
func MustTable[T any](name string, create, update *mapping.Schema[T]) *Table[T] {
	t, err := NewTable(name, create, update)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

// Entity returns the entity kind name used in errors and logs.
func (t *Table[T]) Entity() string { return t.create.Entity() }

// CreateSchema returns the schema validating inserts.
func (t *Table[T]) CreateSchema() *mapping.Schema[T] { return t.create }

// UpdateSchema returns the schema validating updates.
func (t *Table[T]) UpdateSchema() *mapping.Schema[T] { return t.update }

// Bind returns a Store executing against exec with the given SQL dialect
// (dialect.Postgres or dialect.SQLite).
func (t *Table[T]) Bind(exec dialect.ExecQuerier, dialectName string) *Store[T] {
	return &Store[T]{table: t, exec: exec, dialect: dialectName}
}
