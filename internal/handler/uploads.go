package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/civic-issue-reporter/internal/apperror"
	"github.com/iliyamo/civic-issue-reporter/internal/blob"
)

// UploadHandler serves stored photos by reference.  The route is public so
// photo links in issue JSON open without a token.
type UploadHandler struct {
	Photos blob.Store
}

func NewUploadHandler(s blob.Store) *UploadHandler { return &UploadHandler{Photos: s} }

// Get handles GET /uploads/:name.
func (h *UploadHandler) Get(c echo.Context) error {
	name, ok := blob.ValidName(c.Param("name"))
	if !ok {
		return apperror.E(apperror.NotFound, "photo not found")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	data, ct, err := h.Photos.Open(ctx, name)
	switch {
	case errors.Is(err, blob.ErrNotFound):
		return apperror.E(apperror.NotFound, "photo not found")
	case err != nil:
		return apperror.Wrap(apperror.Internal, "read photo failed", err)
	}
	// names are random and never rewritten
	c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	return c.Blob(http.StatusOK, ct, data)
}
