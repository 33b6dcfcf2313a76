package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tutorhub.io/tutorhub/internal/api/middleware"
	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/pkg/logger"
	"tutorhub.io/tutorhub/internal/service"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	PartitionName string `json:"partition_name"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
}

type tokenResponse struct {
	Token       string         `json:"token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Account     domain.Account `json:"account"`
	PartitionID int64          `json:"partition_id"`
}

// Register handles POST /auth/register: a new partition with its first
// account. The response carries a token for that account.
func (s *Server) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	a, p, err := s.svc.Accounts.Register(c.Request.Context(), service.Registration{
		PartitionName: req.PartitionName,
		Account: service.AccountInput{
			Username:    req.Username,
			Password:    req.Password,
			Email:       req.Email,
			DisplayName: req.DisplayName,
		},
	})
	if err != nil {
		fail(c, err)
		return
	}
	s.respondToken(c, http.StatusCreated, a, p)
}

// Login handles POST /auth/login.
func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	a, p, err := s.svc.Accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn("login failed", zap.String("username", req.Username))
		fail(c, err)
		return
	}
	s.respondToken(c, http.StatusOK, a, p)
}

func (s *Server) respondToken(c *gin.Context, status int, a domain.Account, p domain.Partition) {
	token, expiresAt, err := middleware.GenerateToken(s.jwtCfg, a.Username)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, tokenResponse{
		Token:       token,
		ExpiresAt:   expiresAt,
		Account:     a,
		PartitionID: p.ID(),
	})
}
