package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/civic-issue-reporter/internal/apperror"
	"github.com/iliyamo/civic-issue-reporter/internal/blob"
	"github.com/iliyamo/civic-issue-reporter/internal/service"
)

// IssueHandler exposes the issue registry over HTTP.  Authorization is
// left to the service; handlers only decode input and encode output.
type IssueHandler struct {
	Issues        *service.IssueService
	MaxPhotoBytes int64
}

func NewIssueHandler(s *service.IssueService, maxPhotoBytes int64) *IssueHandler {
	return &IssueHandler{Issues: s, MaxPhotoBytes: maxPhotoBytes}
}

type statusReq struct {
	Status string `json:"status"`
}

// Create accepts either a JSON body or a multipart form with the text
// fields and an optional "photo" file.  Owner and status in the body, if
// any, are ignored.
func (h *IssueHandler) Create(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}

	var in service.CreateInput
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		in, err = h.readForm(c)
	} else if err = c.Bind(&in); err != nil {
		err = invalidBody(err)
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	is, err := h.Issues.Create(ctx, caller, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, is)
}

func (h *IssueHandler) readForm(c echo.Context) (service.CreateInput, error) {
	in := service.CreateInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Location:    c.FormValue("location"),
	}
	fh, err := c.FormFile("photo")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return in, nil
	case err != nil:
		return in, invalidBody(err)
	}
	if fh.Size > h.MaxPhotoBytes {
		return in, apperror.E(apperror.Validation, "photo exceeds size limit")
	}
	f, err := fh.Open()
	if err != nil {
		return in, invalidBody(err)
	}
	defer f.Close()

	data, ct, err := blob.ReadPhoto(f, h.MaxPhotoBytes)
	switch {
	case errors.Is(err, blob.ErrTooLarge):
		return in, apperror.Wrap(apperror.Validation, "photo exceeds size limit", err)
	case errors.Is(err, blob.ErrUnsupportedType):
		return in, apperror.Wrap(apperror.Validation, "photo must be a jpeg, png, gif or webp image", err)
	case errors.Is(err, blob.ErrEmpty):
		return in, apperror.Wrap(apperror.Validation, "photo is empty", err)
	case err != nil:
		return in, invalidBody(err)
	}
	in.Photo, in.PhotoType = data, ct
	return in, nil
}

// List returns the issues visible to the caller, newest first.
func (h *IssueHandler) List(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	out, err := h.Issues.List(ctx, caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateStatus handles PATCH /api/issues/:id with body {"status": "..."}.
func (h *IssueHandler) UpdateStatus(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	is, err := h.Issues.UpdateStatus(ctx, caller, c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, is)
}

// Delete handles DELETE /api/issues/:id.
func (h *IssueHandler) Delete(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Issues.Delete(ctx, caller, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Issue deleted successfully"})
}
