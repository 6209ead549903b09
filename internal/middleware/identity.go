package middleware

// identity.go holds the accessors for the caller attached by JWTAuth.  The
// value is copied per request; nothing here is shared between requests.

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/civic-issue-reporter/internal/model"
)

// callerKey is the echo context key for the resolved caller.
const callerKey = "caller"

type ctxKey struct{}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller model.Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, caller)
}

// CallerFromContext returns the caller stored by WithCaller.
func CallerFromContext(ctx context.Context) (model.Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(model.Caller)
	return c, ok
}

// CallerFrom returns the caller resolved for this request.  ok is false
// outside routes guarded by JWTAuth.
func CallerFrom(c echo.Context) (model.Caller, bool) {
	caller, ok := c.Get(callerKey).(model.Caller)
	return caller, ok
}

// userID returns the caller id for logging, or "guest" when the request
// carries no resolved caller.
func userID(c echo.Context) string {
	if caller, ok := CallerFrom(c); ok && caller.ID != "" {
		return caller.ID
	}
	return "guest"
}
