package router // package router defines how HTTP routes are registered for the API

import (
	"fmt"

	"github.com/labstack/echo/v4"                   // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware" // recover, body limit and CORS

	"github.com/iliyamo/civic-issue-reporter/internal/handler"    // import the handlers for each route
	"github.com/iliyamo/civic-issue-reporter/internal/metrics"    // request and auth counters
	"github.com/iliyamo/civic-issue-reporter/internal/middleware" // import middleware for bearer authentication and logging
)

// Deps is everything the HTTP surface needs.  Metrics may be nil.
type Deps struct {
	Auth     *handler.AuthHandler
	Issues   *handler.IssueHandler
	Uploads  *handler.UploadHandler
	Stream   *handler.StreamHandler
	DB       handler.Pinger
	Resolver middleware.Resolver
	Metrics  *metrics.Metrics

	CORSOrigins   []string
	MaxPhotoBytes int64
}

// New builds the Echo instance with every route and the shared middleware
// chain.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	var failures middleware.FailureCounter
	if d.Metrics != nil {
		e.Use(middleware.Instrument(d.Metrics))
		failures = d.Metrics
	}
	if len(d.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: d.CORSOrigins,
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}))
	}
	// room for the form fields around the largest photo
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dK", d.MaxPhotoBytes/1024+1024)))

	authMW := middleware.JWTAuth(d.Resolver, failures)

	RegisterRoutes(e, d)
	RegisterAuth(e, d.Auth, authMW)
	RegisterIssues(e, d.Issues, d.Stream, authMW)
	return e
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: health, metrics and the public photo mount.
func RegisterRoutes(e *echo.Echo, d Deps) {
	// Load balancers and monitoring systems probe this endpoint; it
	// checks the database as well as the process.
	e.GET("/healthz", handler.Health(d.DB))
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
	if d.Uploads != nil {
		e.GET("/uploads/:name", d.Uploads.Get)
	}
}

// RegisterAuth registers the account routes.  Register and login issue
// tokens and so run without one; /me runs behind the identity resolver.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authMW echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/me", a.Me, authMW)
}

// RegisterIssues registers the issue routes.  Every one of them requires a
// resolved caller; what the caller may do is decided per operation.
func RegisterIssues(e *echo.Echo, h *handler.IssueHandler, s *handler.StreamHandler, authMW echo.MiddlewareFunc) {
	g := e.Group("/api/issues", authMW)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.PATCH("/:id", h.UpdateStatus)
	g.DELETE("/:id", h.Delete)
	if s != nil {
		g.GET("/stream", s.Watch)
	}
}
