package account

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/IbkArotiba/AaroCare/internal/platform/audit"
	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes mounts the unauthenticated auth endpoints.
func (h *Handler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/auth/login", h.Login)
	g.POST("/auth/new-password", h.CompleteNewPassword)
	g.POST("/auth/refresh", h.Refresh)
}

// RegisterRoutes mounts the authenticated account endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleAdmin)

	api.POST("/auth/register", h.Register, auth.RequireRole(auth.RoleAdmin))
	api.GET("/auth/me", h.Me, staff)
	api.PUT("/auth/profile", h.UpdateProfile, staff)
	api.POST("/auth/change-password", h.ChangePassword, staff)
	api.GET("/users", h.ListUsers, staff)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.Login(c.Request().Context(), req, requestMeta(c))
	if err != nil {
		return mapError(err, "login failed")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) CompleteNewPassword(c echo.Context) error {
	var req NewPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.CompleteNewPassword(c.Request().Context(), req)
	if err != nil {
		return mapError(err, "password change failed")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	tokens, err := h.svc.Refresh(c.Request().Context(), req)
	if err != nil {
		return mapError(err, "token refresh failed")
	}
	return c.JSON(http.StatusOK, tokens)
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor, _ := auth.ActorFromEcho(c)
	created, err := h.svc.Register(c.Request().Context(), actor, req, requestMeta(c))
	if err != nil {
		return mapError(err, "failed to register user")
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Me(c echo.Context) error {
	actor, _ := auth.ActorFromEcho(c)
	user, err := h.svc.Me(c.Request().Context(), actor)
	if err != nil {
		return mapError(err, "failed to load profile")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor, _ := auth.ActorFromEcho(c)
	updated, err := h.svc.UpdateProfile(c.Request().Context(), actor, req, requestMeta(c))
	if err != nil {
		return mapError(err, "failed to update profile")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor, _ := auth.ActorFromEcho(c)
	if err := h.svc.ChangePassword(c.Request().Context(), actor, req, requestMeta(c)); err != nil {
		return mapError(err, "failed to change password")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "password changed"})
}

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return mapError(err, "failed to list users")
	}
	return c.JSON(http.StatusOK, map[string]any{"users": users})
}

func requestMeta(c echo.Context) audit.RequestMeta {
	return audit.RequestMeta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

func mapError(err error, fallback string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrAuthFailed):
		return echo.NewHTTPError(http.StatusUnauthorized, ErrAuthFailed.Error())
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback)
	}
}
