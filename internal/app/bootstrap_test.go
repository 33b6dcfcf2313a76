package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorhub.io/tutorhub/internal/app/modules"
	"tutorhub.io/tutorhub/internal/blob"
	"tutorhub.io/tutorhub/internal/config"
	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/pkg/logger"
	"tutorhub.io/tutorhub/internal/pkg/worker"
	"tutorhub.io/tutorhub/internal/repository"
	"tutorhub.io/tutorhub/internal/testutil"
)

func init() {
	_ = logger.Init("error", "json")
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, AllowCredentials: true},
		Log:    config.LogConfig{Level: "error", Format: "json"},
		Security: config.SecurityConfig{
			JWTSecret:   "0123456789abcdef0123456789abcdef",
			TokenTTL:    time.Hour,
			Issuer:      "tutorhub",
			BcryptCost:  4,
			MinPassword: 6,
		},
		Worker:  config.WorkerConfig{GeneralPoolSize: 2, BlobPoolSize: 1},
		Storage: config.StorageConfig{FilesRoot: t.TempDir(), MaxUploadBytes: 1024},
	}
}

func TestBootstrap_NoDB(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database = config.DatabaseConfig{
		Host:     "localhost",
		Port:     65432, // nothing listens here
		User:     "test",
		Password: "test",
		Database: "test",
		SSLMode:  "disable",
		MaxConns: 5,
		MinConns: 1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app, err := Bootstrap(ctx, cfg)
	require.Error(t, err, "Bootstrap should fail without database")
	assert.Nil(t, app, "Application should be nil on bootstrap failure")
}

func TestCompose_ServesAPI(t *testing.T) {
	cfg := testConfig(t)
	pools, err := worker.NewPools(context.Background(), worker.PoolConfig{GeneralPoolSize: 2, BlobPoolSize: 1})
	require.NoError(t, err)
	blobs, err := blob.NewLocal(cfg.Storage.FilesRoot)
	require.NoError(t, err)

	app := compose(cfg, &modules.Infrastructure{
		Config: cfg,
		Client: repository.NewClient(testutil.OpenSQLite(t)),
		Pools:  pools,
		Events: domain.NewEventDispatcher(),
		Blobs:  blobs,
	})
	t.Cleanup(app.Shutdown)
	require.Len(t, app.Modules, 2)
	require.NoError(t, app.Start(context.Background()))

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/teachers", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"partition_name":"North","username":"alice","password":"secret-pw"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestApplication_Shutdown_Nil(t *testing.T) {
	app := &Application{}

	assert.NotPanics(t, func() {
		app.Shutdown()
	}, "Shutdown on empty Application should not panic")
}
