// Package handlers implements the tutorhub HTTP API.
//
// Handlers translate between JSON and domain values and pass the caller's
// partition, resolved by middleware.JWTAuth, explicitly to the services.
// Route registration is done by the app package.
//
// Import Path: tutorhub.io/tutorhub/internal/api/handlers
package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"tutorhub.io/tutorhub/internal/api/middleware"
	"tutorhub.io/tutorhub/internal/domain"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/service"
)

// Pinger reports database reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies of every handler.
type Server struct {
	svc            *service.Services
	db             Pinger
	jwtCfg         middleware.JWTConfig
	maxUploadBytes int64
}

// ServerDeps holds all dependencies for creating a Server.
type ServerDeps struct {
	Services       *service.Services
	DB             Pinger
	JWTCfg         middleware.JWTConfig
	MaxUploadBytes int64
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		svc:            deps.Services,
		db:             deps.DB,
		jwtCfg:         deps.JWTCfg,
		maxUploadBytes: deps.MaxUploadBytes,
	}
}

// listResponse wraps collections so the body is always an object.
type listResponse[T any] struct {
	Items []T `json:"items"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items}
}

// partition returns the caller's partition. It aborts the request when the
// route was reached without authentication.
func partition(c *gin.Context) (domain.Partition, bool) {
	p, ok := middleware.GetPartition(c.Request.Context())
	if !ok {
		fail(c, apperrors.Unauthorized(apperrors.CodeTokenInvalid, "authentication required"))
		return domain.Partition{}, false
	}
	return p, true
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, apperrors.ErrInvalidRequestField(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		fail(c, apperrors.Wrap(err, apperrors.KindValidation, apperrors.CodeValidationFailed, "invalid request body"))
		return false
	}
	return true
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
