package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the dashboard counters.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleAdmin)

	api.GET("/statistics/patients/total", h.Total, staff)
	api.GET("/statistics/patients/admissions", h.Admissions, staff)
	api.GET("/statistics/patients/discharged", h.Discharged, staff)
	api.GET("/statistics/patients/critical", h.Critical, staff)
}

func (h *Handler) Total(c echo.Context) error {
	n, err := h.svc.Total(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count patients")
	}
	return c.JSON(http.StatusOK, map[string]int{"total": n})
}

func (h *Handler) Admissions(c echo.Context) error {
	n, err := h.svc.Admissions(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count admissions")
	}
	return c.JSON(http.StatusOK, map[string]int{"admissions": n})
}

func (h *Handler) Discharged(c echo.Context) error {
	n, err := h.svc.Discharged(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count discharges")
	}
	return c.JSON(http.StatusOK, map[string]int{"discharged": n})
}

func (h *Handler) Critical(c echo.Context) error {
	n, err := h.svc.Critical(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count critical patients")
	}
	return c.JSON(http.StatusOK, map[string]int{"critical": n})
}
