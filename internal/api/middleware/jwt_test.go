package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorhub.io/tutorhub/internal/domain"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
)

var testJWT = JWTConfig{
	SigningKey: []byte("test-signing-key-0123456789abcdef0123"),
	Issuer:     "tutorhub",
	ExpiresIn:  time.Hour,
}

type fakeResolver map[string]int64

func (f fakeResolver) ResolvePartition(_ context.Context, username string) (domain.Partition, error) {
	id, ok := f[username]
	if !ok {
		return domain.Partition{}, apperrors.Unauthorized(apperrors.CodeTokenInvalid, "unknown account")
	}
	return domain.MustPartition(id), nil
}

func authRouter(resolver PartitionResolver) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), ErrorHandler(), JWTAuth(testJWT, resolver))
	router.GET("/me", func(c *gin.Context) {
		ctx := c.Request.Context()
		p, ok := GetPartition(ctx)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": GetUsername(ctx), "partition": p.ID()})
	})
	return router
}

func doAuth(router http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, expiresAt, err := GenerateToken(testJWT, "alice")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := testJWT.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.NotBefore)
}

func TestValidateToken_Rejects(t *testing.T) {
	t.Run("wrong key", func(t *testing.T) {
		other := testJWT
		other.SigningKey = []byte("another-signing-key-0123456789abcdef")
		token, _, err := GenerateToken(other, "alice")
		require.NoError(t, err)
		_, err = testJWT.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := testJWT
		other.Issuer = "someone-else"
		token, _, err := GenerateToken(other, "alice")
		require.NoError(t, err)
		_, err = testJWT.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("expired", func(t *testing.T) {
		expired := testJWT
		expired.ExpiresIn = -time.Minute
		token, _, err := GenerateToken(expired, "alice")
		require.NoError(t, err)
		_, err = testJWT.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("none algorithm", func(t *testing.T) {
		now := time.Now()
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{
			Username: "alice",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "tutorhub",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = testJWT.ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestJWTAuth(t *testing.T) {
	router := authRouter(fakeResolver{"alice": 7})
	valid, _, err := GenerateToken(testJWT, "alice")
	require.NoError(t, err)
	ghost, _, err := GenerateToken(testJWT, "ghost")
	require.NoError(t, err)
	expiredCfg := testJWT
	expiredCfg.ExpiresIn = -time.Minute
	expired, _, err := GenerateToken(expiredCfg, "alice")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, apperrors.CodeTokenInvalid},
		{"bad scheme", "Basic " + valid, http.StatusUnauthorized, apperrors.CodeTokenInvalid},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, apperrors.CodeTokenInvalid},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, apperrors.CodeTokenExpired},
		{"deleted account", "Bearer " + ghost, http.StatusUnauthorized, apperrors.CodeTokenInvalid},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doAuth(router, tt.header)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), tt.code)
				return
			}
			assert.JSONEq(t, `{"username":"alice","partition":7}`, w.Body.String())
		})
	}
}
