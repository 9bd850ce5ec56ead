package careteam

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/IbkArotiba/AaroCare/internal/domain/patient"
	"github.com/IbkArotiba/AaroCare/internal/platform/audit"
	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the care-team endpoints. access gates patient-scoped
// routes for nurses via their own assignments.
func (h *Handler) RegisterRoutes(api *echo.Group, access echo.MiddlewareFunc) {
	staff := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleAdmin)
	clinicians := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse)

	api.GET("/care-teams", h.ListAll, staff)
	api.GET("/patients/:id/care-team", h.ListByPatient, staff, access)
	api.POST("/patients/:id/care-team", h.Assign, clinicians, access)
	api.PUT("/patients/:id/care-team/:memberId", h.UpdateRole, clinicians, access)
	api.DELETE("/patients/:id/care-team/:memberId", h.Remove, clinicians, access)
}

func (h *Handler) Assign(c echo.Context) error {
	patientID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req AssignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor, _ := auth.ActorFromEcho(c)
	created, err := h.svc.Assign(c.Request().Context(), actor, patientID, req, requestMeta(c))
	if err != nil {
		return mapError(err, "failed to assign care team member")
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	members, err := h.svc.ListByPatient(c.Request().Context(), patientID)
	if err != nil {
		return mapError(err, "failed to fetch care team")
	}
	return c.JSON(http.StatusOK, map[string]any{"care_team": members})
}

func (h *Handler) ListAll(c echo.Context) error {
	members, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return mapError(err, "failed to fetch care teams")
	}
	return c.JSON(http.StatusOK, map[string]any{"care_teams": members})
}

func (h *Handler) UpdateRole(c echo.Context) error {
	patientID, memberID, err := memberIDs(c)
	if err != nil {
		return err
	}
	var req UpdateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor, _ := auth.ActorFromEcho(c)
	updated, err := h.svc.UpdateRole(c.Request().Context(), actor, patientID, memberID, req, requestMeta(c))
	if err != nil {
		return mapError(err, "failed to update care team member")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Remove(c echo.Context) error {
	patientID, memberID, err := memberIDs(c)
	if err != nil {
		return err
	}

	actor, _ := auth.ActorFromEcho(c)
	removed, err := h.svc.Remove(c.Request().Context(), actor, patientID, memberID, requestMeta(c))
	if err != nil {
		return mapError(err, "failed to remove care team member")
	}
	return c.JSON(http.StatusOK, removed)
}

func memberIDs(c echo.Context) (patientID, memberID int, err error) {
	patientID, err = strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	memberID, err = strconv.Atoi(c.Param("memberId"))
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid member id")
	}
	return patientID, memberID, nil
}

func requestMeta(c echo.Context) audit.RequestMeta {
	return audit.RequestMeta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

func mapError(err error, fallback string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, patient.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, patient.ErrNotFound.Error())
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrAlreadyInactive):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback)
	}
}
