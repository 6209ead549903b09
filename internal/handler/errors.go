package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/civic-issue-reporter/internal/apperror"
	"github.com/iliyamo/civic-issue-reporter/internal/middleware"
	"github.com/iliyamo/civic-issue-reporter/internal/model"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error   apperror.Kind `json:"error"`
	Message string        `json:"message"`
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(k apperror.Kind) int {
	switch k {
	case apperror.MissingToken, apperror.InvalidToken, apperror.ExpiredToken,
		apperror.InvalidUser, apperror.InvalidCredentials:
		return http.StatusUnauthorized
	case apperror.Forbidden:
		return http.StatusForbidden
	case apperror.NotFound:
		return http.StatusNotFound
	case apperror.DuplicateUsername:
		return http.StatusConflict
	case apperror.Validation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// kindOfStatus classifies framework errors that carry only a status code.
func kindOfStatus(code int) apperror.Kind {
	switch {
	case code == http.StatusUnauthorized:
		return apperror.MissingToken
	case code == http.StatusForbidden:
		return apperror.Forbidden
	case code == http.StatusNotFound, code == http.StatusMethodNotAllowed:
		return apperror.NotFound
	case code >= 400 && code < 500:
		return apperror.Validation
	}
	return apperror.Internal
}

// ErrorHandler replaces echo's default so that every failure, whether from
// a handler, the identity resolver or the router itself, is answered with
// the same {"error", "message"} body.  Internal errors are logged with
// their cause and answered with a generic message.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status int
		body   errorBody
		he     *echo.HTTPError
	)
	switch {
	case errors.As(err, new(*apperror.Error)):
		kind := apperror.KindOf(err)
		status, body = StatusOf(kind), errorBody{Error: kind, Message: apperror.MessageOf(err)}
	case errors.As(err, &he):
		status = he.Code
		msg, ok := he.Message.(string)
		if !ok || status >= 500 {
			msg = http.StatusText(status)
		}
		body = errorBody{Error: kindOfStatus(status), Message: msg}
	default:
		status, body = http.StatusInternalServerError, errorBody{Error: apperror.Internal, Message: apperror.MessageOf(err)}
	}

	if status >= 500 {
		log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.Error().Err(err).Msg("write error response")
	}
}

// callerOf returns the caller attached by the identity resolver.  Routes
// using it are always mounted behind JWTAuth.
func callerOf(c echo.Context) (model.Caller, error) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return model.Caller{}, apperror.E(apperror.MissingToken, "missing bearer token")
	}
	return caller, nil
}

func invalidBody(err error) error {
	return apperror.Wrap(apperror.Validation, "invalid body", err)
}
