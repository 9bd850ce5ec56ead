package treatment

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

// RegisterRoutes mounts the treatment-plan endpoints. Plan mutations are a
// doctor or admin concern.
func (h *Handler) RegisterRoutes(api *echo.Group, access echo.MiddlewareFunc) {
	staff := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleAdmin)
	prescribers := auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin)

	api.GET("/treatment-plans", h.ListAll, staff)
	api.GET("/patients/:id/treatment", h.GetActive, staff, access)
	api.POST("/patients/:id/treatment", h.Create, prescribers, access)
	api.PUT("/patients/:id/treatment", h.Update, prescribers, access)
	api.DELETE("/patients/:id/treatment/:planId", h.Cancel, prescribers, access)
}

func (h *Handler) Create(c echo.Context) error {
	patientID, err := patientID(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor, _ := auth.ActorFromEcho(c)
	created, err := h.svc.Create(c.Request().Context(), actor, patientID, req, requestMeta(c))
	if err != nil {
		return mapError(err, "failed to create treatment plan")
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetActive(c echo.Context) error {
	patientID, err := patientID(c)
	if err != nil {
		return err
	}
	plan, err := h.svc.GetActive(c.Request().Context(), patientID)
	if err != nil {
		return mapError(err, "failed to fetch treatment plan")
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *Handler) Update(c echo.Context) error {
	patientID, err := patientID(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor, _ := auth.ActorFromEcho(c)
	next, err := h.svc.Update(c.Request().Context(), actor, patientID, req, requestMeta(c))
	if err != nil {
		return mapError(err, "failed to update treatment plan")
	}
	return c.JSON(http.StatusOK, next)
}

func (h *Handler) Cancel(c echo.Context) error {
	patientID, err := patientID(c)
	if err != nil {
		return err
	}
	planID, err := strconv.Atoi(c.Param("planId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plan id")
	}

	actor, _ := auth.ActorFromEcho(c)
	cancelled, err := h.svc.Cancel(c.Request().Context(), actor, patientID, planID, requestMeta(c))
	if err != nil {
		return mapError(err, "failed to cancel treatment plan")
	}
	return c.JSON(http.StatusOK, cancelled)
}

func (h *Handler) ListAll(c echo.Context) error {
	plans, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return mapError(err, "failed to list treatment plans")
	}
	return c.JSON(http.StatusOK, map[string]any{"treatment_plans": plans})
}

func patientID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return id, nil
}

func requestMeta(c echo.Context) audit.RequestMeta {
	return audit.RequestMeta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

func mapError(err error, fallback string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrNoActivePlan):
		return echo.NewHTTPError(http.StatusNotFound, ErrNoActivePlan.Error())
	case errors.Is(err, patient.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, patient.ErrNotFound.Error())
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrActivePlanExists):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback)
	}
}
