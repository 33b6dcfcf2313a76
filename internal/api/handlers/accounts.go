package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tutorhub.io/tutorhub/internal/api/middleware"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/service"
)

type accountRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func (r accountRequest) input(id int64) service.AccountInput {
	return service.AccountInput{
		ID:          id,
		Username:    r.Username,
		Password:    r.Password,
		Email:       r.Email,
		DisplayName: r.DisplayName,
	}
}

// GetCurrentAccount handles GET /auth/me.
func (s *Server) GetCurrentAccount(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	username := middleware.GetUsername(ctx)
	accounts, err := s.svc.Accounts.List(ctx, p)
	if err != nil {
		fail(c, err)
		return
	}
	for _, a := range accounts {
		if a.Username == username {
			c.JSON(http.StatusOK, gin.H{"account": a, "partition_id": p.ID()})
			return
		}
	}
	fail(c, apperrors.Unauthorized(apperrors.CodeTokenInvalid, "account no longer exists"))
}

// ListAccounts handles GET /accounts.
func (s *Server) ListAccounts(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	items, err := s.svc.Accounts.List(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newList(items))
}

// GetAccount handles GET /accounts/:id.
func (s *Server) GetAccount(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := s.svc.Accounts.Get(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// CreateAccount handles POST /accounts.
func (s *Server) CreateAccount(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	var req accountRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := s.svc.Accounts.Create(c.Request.Context(), p, req.input(0))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// UpdateAccount handles PUT /accounts/:id. An empty password keeps the
// current one.
func (s *Server) UpdateAccount(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req accountRequest
	if !bindJSON(c, &req) {
		return
	}
	_, a, err := s.svc.Accounts.Replace(c.Request.Context(), p, req.input(id))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteAccount handles DELETE /accounts/:id.
func (s *Server) DeleteAccount(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	former, err := s.svc.Accounts.Delete(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, former)
}
