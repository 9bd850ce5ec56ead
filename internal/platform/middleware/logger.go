package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

// Logger emits one structured line per request. Health probes are skipped to
// keep load-balancer noise out of the logs. When the auth middleware has run,
// the acting user's id and role are attached so log lines can be correlated
// with audit_logs rows.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := req.URL.Path

			err := next(c)

			if path == "/health" || path == "/health/db" {
				return err
			}

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			rid, _ := c.Get("request_id").(string)
			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			if q := req.URL.RawQuery; q != "" {
				evt = evt.Str("query", q)
			}
			if actor, ok := auth.ActorFromEcho(c); ok {
				evt = evt.Int("user_id", actor.ID).Str("role", actor.Role)
			}

			evt.Msg("request")
			return err
		}
	}
}
