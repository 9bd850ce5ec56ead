package patient

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/IbkArotiba/AaroCare/internal/platform/audit"
	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
	"github.com/IbkArotiba/AaroCare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the patient endpoints. access gates patient-scoped
// routes for nurses via their care-team assignments.
func (h *Handler) RegisterRoutes(api *echo.Group, access echo.MiddlewareFunc, rec audit.Recorder) {
	staff := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleAdmin)

	api.GET("/patients", h.List, staff, audit.RouteLog(rec, audit.ActionGetPatients, "patient"))
	api.POST("/patients", h.Create, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	api.GET("/patients/:id", h.Get, staff, access)
	api.PUT("/patients/:id", h.Update, staff, access)
	api.PUT("/patients/:id/discharge", h.Discharge, staff, access)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor, _ := auth.ActorFromEcho(c)
	created, err := h.svc.Create(c.Request().Context(), actor, req, requestMeta(c))
	if err != nil {
		return mapError(err, "failed to create patient")
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err, "failed to fetch patient")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	filters := ListFilters{
		Name:      c.QueryParam("name"),
		Status:    c.QueryParam("status"),
		Room:      c.QueryParam("room"),
		Diagnosis: c.QueryParam("diagnosis"),
	}

	patients, err := h.svc.List(c.Request().Context(), filters)
	if err != nil {
		return mapError(err, "failed to list patients")
	}

	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, map[string]any{
		"patients":   pagination.Slice(patients, pg),
		"pagination": pg.NewMeta(len(patients)),
	})
}

func (h *Handler) Update(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor, _ := auth.ActorFromEcho(c)
	updated, err := h.svc.Update(c.Request().Context(), actor, id, req, requestMeta(c))
	if err != nil {
		return mapError(err, "failed to update patient")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}

	actor, _ := auth.ActorFromEcho(c)
	discharged, err := h.svc.Discharge(c.Request().Context(), actor, id, requestMeta(c))
	if err != nil {
		return mapError(err, "failed to discharge patient")
	}
	return c.JSON(http.StatusOK, discharged)
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
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrAlreadyDischarged):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback)
	}
}
