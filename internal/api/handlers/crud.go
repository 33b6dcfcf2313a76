package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"tutorhub.io/tutorhub/internal/domain"
)

// entityService is the partition-scoped CRUD surface shared by the entity
// services.
type entityService[T any] interface {
	Create(ctx context.Context, p domain.Partition, e T) (T, error)
	Get(ctx context.Context, p domain.Partition, id int64) (T, error)
	List(ctx context.Context, p domain.Partition) ([]T, error)
	Replace(ctx context.Context, p domain.Partition, e T) (prior, current T, err error)
	Delete(ctx context.Context, p domain.Partition, id int64) (T, error)
}

// crud serves the five entity routes for one service. setID copies the path
// id into an update body; a body id is never trusted.
type crud[T any] struct {
	svc   entityService[T]
	setID func(e *T, id int64)
}

// Create handles POST /<entities>.
func (h crud[T]) Create(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	var in T
	if !bindJSON(c, &in) {
		return
	}
	created, err := h.svc.Create(c.Request.Context(), p, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Get handles GET /<entities>/:id.
func (h crud[T]) Get(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.svc.Get(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// List handles GET /<entities>.
func (h crud[T]) List(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	items, err := h.svc.List(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newList(items))
}

// Update handles PUT /<entities>/:id and responds with the row as this
// update stored it.
func (h crud[T]) Update(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in T
	if !bindJSON(c, &in) {
		return
	}
	h.setID(&in, id)

	_, current, err := h.svc.Replace(c.Request.Context(), p, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, current)
}

// Delete handles DELETE /<entities>/:id and responds with the removed row.
func (h crud[T]) Delete(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	former, err := h.svc.Delete(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, former)
}

// childList serves GET /<parents>/:id/<children>.
func childList[C any](list func(ctx context.Context, p domain.Partition, id int64) ([]C, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := partition(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		items, err := list(c.Request.Context(), p, id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, newList(items))
	}
}
