package audit

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

// RequestLog records every request after it completes, success or failure.
// The HTTP method becomes the action, the first path segment after /api the
// entity type, and the status code lands in the details payload. Recording
// is best-effort; the response is never altered.
func RequestLog(rec Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			req := c.Request()
			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			entry := Entry{
				Action:    req.Method,
				NewValues: fmt.Sprintf("%s %s - Status: %d", req.Method, req.URL.Path, status),
				IPAddress: c.RealIP(),
				UserAgent: req.UserAgent(),
			}
			entry.EntityType, entry.EntityID = entityFromPath(req.URL.Path)
			if actor, ok := auth.ActorFromEcho(c); ok {
				entry.UserID = actor.ID
			}
			if id, atoiErr := strconv.Atoi(c.Param("id")); atoiErr == nil {
				entry.PatientID = &id
			}

			rec.Record(req.Context(), entry)
			return err
		}
	}
}

// entityFromPath maps /api/patients/3/vitals to ("patients", 3).
func entityFromPath(path string) (string, *int) {
	parts := strings.Split(strings.TrimPrefix(strings.TrimPrefix(path, "/api"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "system", nil
	}
	if len(parts) > 1 {
		if id, err := strconv.Atoi(parts[1]); err == nil {
			return parts[0], &id
		}
	}
	return parts[0], nil
}

// RouteLog returns per-route middleware that records the named action after
// the handler succeeds. The patient id is taken from the :id path parameter
// when present. Read actions carry no snapshots; mutating handlers that need
// old/new values record through the Recorder directly instead.
func RouteLog(rec Recorder, action, entityType string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}

			actor, ok := auth.ActorFromEcho(c)
			if !ok {
				return nil
			}

			entry := Entry{
				UserID:     actor.ID,
				Action:     action,
				EntityType: entityType,
				IPAddress:  c.RealIP(),
				UserAgent:  c.Request().UserAgent(),
			}
			if id, err := strconv.Atoi(c.Param("id")); err == nil {
				entry.PatientID = &id
			}
			rec.Record(c.Request().Context(), entry)
			return nil
		}
	}
}
