package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"tutorhub.io/tutorhub/internal/infrastructure"
)

var nonIdentChars = regexp.MustCompile(`[^a-z0-9_]+`)

const postgresImage = "postgres:16-alpine"

// OpenPostgres returns an ent driver over an isolated PostgreSQL schema with
// every migration applied. The server comes from TEST_DATABASE_URL or
// DATABASE_URL. Without either, one container is shared by every test of the
// process; the test is skipped when docker is unavailable or
// TUTORHUB_TESTCONTAINERS=0.
func OpenPostgres(t *testing.T, prefix string) *entsql.Driver {
	t.Helper()

	dsn := postgresDSN(t)
	schema := newSchemaName(prefix)
	ctx := context.Background()

	adminDB, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open postgres admin connection: %v", err)
	}
	t.Cleanup(func() { _ = adminDB.Close() })

	if err := adminDB.PingContext(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}

	if _, err := adminDB.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA "%s"`, schema)); err != nil {
		t.Fatalf("create test schema %q: %v", schema, err)
	}
	t.Cleanup(func() {
		_, _ = adminDB.ExecContext(context.Background(), fmt.Sprintf(`DROP SCHEMA IF EXISTS "%s" CASCADE`, schema))
	})

	schemaDSN, err := dsnWithSearchPath(dsn, schema)
	if err != nil {
		t.Fatalf("build postgres DSN with search_path: %v", err)
	}

	migrateDB, err := sql.Open("pgx", schemaDSN)
	if err != nil {
		t.Fatalf("open postgres migration connection: %v", err)
	}
	_, err = infrastructure.MigrateUp(migrateDB)
	_ = migrateDB.Close()
	if err != nil {
		t.Fatalf("apply migrations to %q: %v", schema, err)
	}

	testDB, err := sql.Open("pgx", schemaDSN)
	if err != nil {
		t.Fatalf("open postgres test connection: %v", err)
	}
	t.Cleanup(func() { _ = testDB.Close() })

	return entsql.OpenDB(dialect.Postgres, testDB)
}

var shared struct {
	once sync.Once
	dsn  string
	err  error
}

func postgresDSN(t *testing.T) string {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn != "" {
		return dsn
	}
	if os.Getenv("TUTORHUB_TESTCONTAINERS") == "0" {
		t.Skip("PostgreSQL disabled: TUTORHUB_TESTCONTAINERS=0 and no TEST_DATABASE_URL")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	shared.once.Do(func() { shared.dsn, shared.err = startPostgres(context.Background()) })
	if shared.err != nil {
		t.Fatalf("start postgres container: %v", shared.err)
	}
	return shared.dsn
}

// startPostgres runs the container left for the testcontainers reaper to
// remove when the test binary exits.
func startPostgres(ctx context.Context) (string, error) {
	ctr, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("tutorhub"),
		tcpostgres.WithUsername("tutorhub"),
		tcpostgres.WithPassword("tutorhub"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return "", err
	}
	return ctr.ConnectionString(ctx, "sslmode=disable")
}

func dsnWithSearchPath(dsn, schema string) (string, error) {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse DSN: %w", err)
		}
		q := u.Query()
		q.Set("search_path", schema)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	if strings.Contains(dsn, "search_path=") {
		re := regexp.MustCompile(`search_path=\S+`)
		return re.ReplaceAllString(dsn, "search_path="+schema), nil
	}
	return dsn + " search_path=" + schema, nil
}

func newSchemaName(prefix string) string {
	base := strings.ToLower(prefix)
	base = nonIdentChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")
	if base == "" {
		base = "test"
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	const maxPostgresIdentLen = 63
	maxBaseLen := maxPostgresIdentLen - len("t__") - len(suffix)
	if len(base) > maxBaseLen {
		base = base[:maxBaseLen]
	}
	return fmt.Sprintf("t_%s_%s", base, suffix)
}
