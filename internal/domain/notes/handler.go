package notes

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

func (h *Handler) RegisterRoutes(api *echo.Group, access echo.MiddlewareFunc, rec audit.Recorder) {
	staff := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleAdmin)
	writers := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse)

	api.GET("/notes", h.ListAll, staff)
	api.GET("/patients/:id/notes", h.ListByPatient, staff, access)
	api.POST("/patients/:id/notes", h.Create, writers, access)
	api.GET("/patients/:id/notes/:noteId", h.Get, staff, access)
	api.PUT("/patients/:id/notes/:noteId", h.Update, writers, access)
	api.DELETE("/patients/:id/notes/:noteId", h.Delete, writers, access)
	api.PUT("/patients/:id/notes/:noteId/lock", h.Lock, writers, access)
	api.PUT("/patients/:id/notes/:noteId/unlock", h.Unlock, writers, access)
}

func (h *Handler) Create(c echo.Context) error {
	patientID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor, _ := auth.ActorFromEcho(c)
	created, err := h.svc.Create(c.Request().Context(), actor, patientID, req, requestMeta(c))
	if err != nil {
		return mapError(err, "failed to create note")
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	all, err := h.svc.ListByPatient(c.Request().Context(), patientID, c.QueryParam("type"))
	if err != nil {
		return mapError(err, "failed to list notes")
	}

	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, map[string]any{
		"notes":      pagination.Slice(all, pg),
		"pagination": pg.NewMeta(len(all)),
	})
}

func (h *Handler) ListAll(c echo.Context) error {
	all, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return mapError(err, "failed to list notes")
	}

	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, map[string]any{
		"notes":      pagination.Slice(all, pg),
		"pagination": pg.NewMeta(len(all)),
	})
}

func (h *Handler) Get(c echo.Context) error {
	patientID, id, err := noteIDs(c)
	if err != nil {
		return err
	}

	n, err := h.svc.Get(c.Request().Context(), patientID, id)
	if err != nil {
		return mapError(err, "failed to get note")
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) Update(c echo.Context) error {
	patientID, id, err := noteIDs(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor, _ := auth.ActorFromEcho(c)
	updated, err := h.svc.Update(c.Request().Context(), actor, patientID, id, req, requestMeta(c))
	if err != nil {
		return mapError(err, "failed to update note")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Lock(c echo.Context) error {
	return h.setLock(c, true)
}

func (h *Handler) Unlock(c echo.Context) error {
	return h.setLock(c, false)
}

func (h *Handler) setLock(c echo.Context, lock bool) error {
	patientID, id, err := noteIDs(c)
	if err != nil {
		return err
	}

	actor, _ := auth.ActorFromEcho(c)
	var updated *Note
	if lock {
		updated, err = h.svc.Lock(c.Request().Context(), actor, patientID, id, requestMeta(c))
	} else {
		updated, err = h.svc.Unlock(c.Request().Context(), actor, patientID, id, requestMeta(c))
	}
	if err != nil {
		return mapError(err, "failed to update note lock")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Delete(c echo.Context) error {
	patientID, id, err := noteIDs(c)
	if err != nil {
		return err
	}

	actor, _ := auth.ActorFromEcho(c)
	if err := h.svc.Delete(c.Request().Context(), actor, patientID, id, requestMeta(c)); err != nil {
		return mapError(err, "failed to delete note")
	}
	return c.NoContent(http.StatusNoContent)
}

func noteIDs(c echo.Context) (patientID, noteID int, err error) {
	patientID, err = strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	noteID, err = strconv.Atoi(c.Param("noteId"))
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid note id")
	}
	return patientID, noteID, nil
}

func requestMeta(c echo.Context) audit.RequestMeta {
	return audit.RequestMeta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

func mapError(err error, fallback string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalid),
		errors.Is(err, ErrLocked),
		errors.Is(err, ErrAlreadyLocked),
		errors.Is(err, ErrNotLocked):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback)
	}
}
