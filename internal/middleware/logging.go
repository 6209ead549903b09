package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/civic-issue-reporter/internal/metrics"
)

// RequestLogger writes one zerolog line per request.  Handler errors are
// rendered through the echo error handler first so the logged status is the
// one sent.  Headers and bodies are never logged.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			var ev *zerolog.Event
			switch {
			case status >= 500:
				ev = log.Error().Err(err)
			case status >= 400:
				ev = log.Warn()
			default:
				ev = log.Info()
			}
			ev.Str("method", c.Request().Method).
				Str("route", route(c)).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("caller_id", userID(c)).
				Str("remote_ip", c.RealIP()).
				Msg("request")
			return nil
		}
	}
}

// Instrument records request count, latency and in-flight requests.
func Instrument(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.InFlight.Inc()
			defer m.InFlight.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			r := route(c)
			m.RequestDuration.WithLabelValues(c.Request().Method, r).Observe(time.Since(start).Seconds())
			m.Requests.WithLabelValues(c.Request().Method, r, strconv.Itoa(c.Response().Status)).Inc()
			return nil
		}
	}
}

// route is the matched route template, which keeps label cardinality
// bounded.  Unmatched requests share one label.
func route(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}
