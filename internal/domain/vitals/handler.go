package vitals

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/IbkArotiba/AaroCare/internal/domain/patient"
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

func (h *Handler) RegisterRoutes(api *echo.Group, access echo.MiddlewareFunc, rec audit.Recorder) {
	staff := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleAdmin)

	api.GET("/vitals", h.ListAll, staff, audit.RouteLog(rec, audit.ActionViewVitals, "vital_signs"))
	api.GET("/patients/:id/vitals", h.List, staff, access,
		audit.RouteLog(rec, audit.ActionViewVitals, "vital_signs"))
	api.POST("/patients/:id/vitals", h.Record,
		auth.RequireRole(auth.RoleDoctor, auth.RoleNurse), access)
	api.GET("/patients/:id/vitals/history", h.History, staff, access,
		audit.RouteLog(rec, audit.ActionViewVitalsHistory, "vital_signs"))
}

func (h *Handler) Record(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	var req RecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor, _ := auth.ActorFromEcho(c)
	created, err := h.svc.Record(c.Request().Context(), actor, id, req,
		audit.RequestMeta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()})
	if err != nil {
		return mapError(err, "failed to record vital signs")
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) List(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	readings, err := h.svc.List(c.Request().Context(), id, c.QueryParam("date"))
	if err != nil {
		return mapError(err, "failed to list vital signs")
	}

	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, map[string]any{
		"vitals":     pagination.Slice(readings, pg),
		"pagination": pg.NewMeta(len(readings)),
	})
}

func (h *Handler) ListAll(c echo.Context) error {
	readings, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return mapError(err, "failed to list vital signs")
	}

	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, map[string]any{
		"vitals":     pagination.Slice(readings, pg),
		"pagination": pg.NewMeta(len(readings)),
	})
}

func (h *Handler) History(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	history, err := h.svc.History(c.Request().Context(), id)
	if err != nil {
		return mapError(err, "failed to build vitals history")
	}
	return c.JSON(http.StatusOK, history)
}

func patientID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return id, nil
}

func mapError(err error, fallback string) error {
	switch {
	case errors.Is(err, patient.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, patient.ErrNotFound.Error())
	case errors.Is(err, ErrNoReadings):
		return echo.NewHTTPError(http.StatusNotFound, ErrNoReadings.Error())
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback)
	}
}
