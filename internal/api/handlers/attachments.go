package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tutorhub.io/tutorhub/internal/domain"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/pkg/logger"
	"tutorhub.io/tutorhub/internal/service"
)

// multipartOverhead bounds the form framing around the file part.
const multipartOverhead = 1 << 20

// ownerQuery reads owner_kind and owner_id from the query string.
func ownerQuery(c *gin.Context) (domain.OwnerKind, int64, bool) {
	kind := domain.OwnerKind(c.Query("owner_kind"))
	id, err := strconv.ParseInt(c.Query("owner_id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, apperrors.ErrInvalidRequestField("owner_id", "must be a positive integer"))
		return "", 0, false
	}
	return kind, id, true
}

// UploadAttachment handles POST /attachments?owner_kind=&owner_id= with a
// multipart "file" part.
func (s *Server) UploadAttachment(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	kind, ownerID, ok := ownerQuery(c)
	if !ok {
		return
	}
	if s.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes+multipartOverhead)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, apperrors.Validation(apperrors.CodeAttachmentTooLarge, "attachment exceeds the size limit").
				WithParams(map[string]interface{}{"max_bytes": s.maxUploadBytes}))
			return
		}
		fail(c, apperrors.ErrInvalidRequestField("file", "a multipart file part is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, apperrors.Wrap(err, apperrors.KindValidation, apperrors.CodeValidationFailed, "unreadable upload"))
		return
	}
	defer f.Close()

	created, err := s.svc.Attachments.Upload(c.Request.Context(), p, service.Upload{
		OwnerKind:   kind,
		OwnerID:     ownerID,
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListAttachments handles GET /attachments?owner_kind=&owner_id=.
func (s *Server) ListAttachments(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	kind, ownerID, ok := ownerQuery(c)
	if !ok {
		return
	}
	items, err := s.svc.Attachments.ListByOwner(c.Request.Context(), p, kind, ownerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newList(items))
}

// GetAttachment handles GET /attachments/:id.
func (s *Server) GetAttachment(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := s.svc.Attachments.Get(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DownloadAttachment handles GET /attachments/:id/content.
func (s *Server) DownloadAttachment(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, rc, err := s.svc.Attachments.Open(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	defer func() {
		if err := rc.Close(); err != nil {
			logger.FromContext(c.Request.Context()).Warn("close attachment content", zap.Error(err))
		}
	}()

	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": a.FileName})
	if disposition == "" {
		disposition = fmt.Sprintf("attachment; filename=%q", "attachment-"+strconv.FormatInt(a.ID, 10))
	}
	c.DataFromReader(http.StatusOK, a.SizeBytes, contentType, rc, map[string]string{
		"Content-Disposition": disposition,
	})
}

// DeleteAttachment handles DELETE /attachments/:id.
func (s *Server) DeleteAttachment(c *gin.Context) {
	p, ok := partition(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	former, err := s.svc.Attachments.Delete(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, former)
}
