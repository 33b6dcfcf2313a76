package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/pkg/logger"
)

type contextKey string

const (
	// RequestIDHeader is the HTTP header for request tracing.
	RequestIDHeader = "X-Request-ID"

	ctxKeyRequestID contextKey = "request_id"
	ctxKeyUsername  contextKey = "username"
	ctxKeyPartition contextKey = "partition"
)

// RequestID injects a unique request ID into the context, the response
// header and the request-scoped logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			id, _ := uuid.NewV7()
			rid = id.String()
		}
		c.Set(string(ctxKeyRequestID), rid)
		c.Writer.Header().Set(RequestIDHeader, rid)

		ctx := context.WithValue(c.Request.Context(), ctxKeyRequestID, rid)
		ctx = logger.WithContext(ctx, logger.With(zap.String("request_id", rid)))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// SetCaller stores the authenticated username and its partition in ctx and
// extends the request logger with both.
func SetCaller(ctx context.Context, username string, p domain.Partition) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUsername, username)
	ctx = context.WithValue(ctx, ctxKeyPartition, p)
	return logger.WithContext(ctx, logger.FromContext(ctx).With(
		zap.String("username", username),
		zap.Int64("partition", p.ID()),
	))
}

// GetUsername extracts the authenticated username from context.
func GetUsername(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUsername).(string); ok {
		return v
	}
	return ""
}

// GetPartition extracts the caller's partition from context.
func GetPartition(ctx context.Context) (domain.Partition, bool) {
	p, ok := ctx.Value(ctxKeyPartition).(domain.Partition)
	return p, ok && p.Valid()
}
