package auth

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// CareTeamChecker answers whether a user is on a patient's active care team.
type CareTeamChecker interface {
	IsAssigned(ctx context.Context, userID, patientID int) (bool, error)
}

// RequireRole rejects requests whose actor role is not in the allowed set.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFromEcho(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !allowed[actor.Role] {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}

// RequirePatientAccess gates routes that address a single patient via the :id
// path parameter. Doctors and admins pass unconditionally; nurses must hold
// an active care-team assignment for that patient.
func RequirePatientAccess(checker CareTeamChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFromEcho(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if actor.CanAccessAnyPatient() {
				return next(c)
			}
			if actor.Role != RoleNurse {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}

			patientID, err := strconv.Atoi(c.Param("id"))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
			}

			assigned, err := checker.IsAssigned(c.Request().Context(), actor.ID, patientID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to verify patient access")
			}
			if !assigned {
				return echo.NewHTTPError(http.StatusForbidden, "not assigned to this patient")
			}
			return next(c)
		}
	}
}
