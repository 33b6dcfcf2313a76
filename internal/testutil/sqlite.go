// Package testutil opens throwaway databases for package tests.
//
// OpenSQLite is the default for store and service tests. OpenPostgres runs
// the same code against PostgreSQL with the real migrations when a server is
// available.
package testutil

import (
	"context"
	"database/sql"
	_ "embed"
	"testing"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// OpenSQLite returns an ent driver over a fresh in-memory SQLite database
// holding the application schema. The pool is limited to one connection so
// every statement sees the same in-memory database; callers must not start a
// second statement outside an open transaction.
func OpenSQLite(t *testing.T) *entsql.Driver {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.ExecContext(context.Background(), sqliteSchema); err != nil {
		t.Fatalf("apply sqlite schema: %v", err)
	}
	return entsql.OpenDB(dialect.SQLite, db)
}
