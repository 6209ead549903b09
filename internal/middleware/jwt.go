package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context" // Resolver lookups run under the request context
	"strings" // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers
	"github.com/rs/zerolog/log"   // structured logging of rejected requests

	"github.com/iliyamo/civic-issue-reporter/internal/apperror"
	"github.com/iliyamo/civic-issue-reporter/internal/model"
)

// bearerPrefix is the literal scheme prefix the header must start with.
const bearerPrefix = "Bearer "

// Resolver maps a raw bearer token to a live caller.  Its errors are
// *apperror.Error values of an unauthenticated kind, or Internal when the
// credential store could not be consulted.
type Resolver interface {
	Resolve(ctx context.Context, raw string) (model.Caller, error)
}

// FailureCounter is told the kind of every rejected request.
type FailureCounter interface {
	AuthFailure(kind string)
}

// JWTAuth returns an Echo middleware that resolves the Authorization header
// to a caller before any protected handler runs.  A missing header, one
// without the exact "Bearer " prefix, or an empty token is MissingToken;
// every other outcome comes from the resolver.  On success the caller is
// stored on the echo context and on the request context, and only then is
// next invoked.  failures may be nil.
func JWTAuth(r Resolver, failures FailureCounter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return reject(c, failures, apperror.E(apperror.MissingToken, "missing bearer token"))
			}

			caller, err := r.Resolve(c.Request().Context(), raw)
			if err != nil {
				return reject(c, failures, err)
			}

			// Store the resolved caller for this request only.  Handlers
			// read it back with CallerFrom.
			c.Set(callerKey, caller)
			c.SetRequest(c.Request().WithContext(WithCaller(c.Request().Context(), caller)))
			return next(c)
		}
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(h string) (string, bool) {
	if !strings.HasPrefix(h, bearerPrefix) {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	return raw, raw != ""
}

func reject(c echo.Context, failures FailureCounter, err error) error {
	kind := apperror.KindOf(err)
	if kind == apperror.Internal {
		log.Error().Err(err).Str("path", c.Path()).Msg("identity resolution failed")
		return err
	}
	if failures != nil {
		failures.AuthFailure(string(kind))
	}
	log.Debug().Str("kind", string(kind)).Str("path", c.Path()).Msg("request rejected")
	return err
}
