package careteam

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

func serverWithActor(t *testing.T, actor auth.Actor, access echo.MiddlewareFunc) (*echo.Echo, *fakeRepo) {
	t.Helper()
	svc, repo, _ := newFixture()
	h := NewHandler(svc)

	e := echo.New()
	api := e.Group("/api", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("actor", actor)
			return next(c)
		}
	})
	h.RegisterRoutes(api, access)
	return e, repo
}

func passAccess(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error { return next(c) }
}

const assignBody = `{"user_id":7,"role_in_care":"nurse"}`

func TestAssignRoute_NurseAllowed(t *testing.T) {
	nurse := auth.Actor{ID: 7, Role: auth.RoleNurse, Department: "cardiology"}
	e, repo := serverWithActor(t, nurse, passAccess)

	req := httptest.NewRequest(http.MethodPost, "/api/patients/1/care-team", strings.NewReader(assignBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("nurses assign care teams, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.members) != 1 {
		t.Errorf("expected one assignment, got %d", len(repo.members))
	}
}

func TestAssignRoute_AdminForbidden(t *testing.T) {
	admin := auth.Actor{ID: 1, Role: auth.RoleAdmin}
	e, repo := serverWithActor(t, admin, passAccess)

	req := httptest.NewRequest(http.MethodPost, "/api/patients/1/care-team", strings.NewReader(assignBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("assignment is a clinician action, got %d", rec.Code)
	}
	if len(repo.members) != 0 {
		t.Error("handler must not run for a forbidden role")
	}
}

func TestMemberRoutes_PatientScoped(t *testing.T) {
	nurse := auth.Actor{ID: 7, Role: auth.RoleNurse}
	deny := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusForbidden, "you are not assigned to this patient")
		}
	}
	e, repo := serverWithActor(t, nurse, deny)
	seeded, _ := repo.Create(nil, &Member{PatientID: 1, UserID: 7, RoleInCare: RoleNurse, IsActive: true})

	req := httptest.NewRequest(http.MethodDelete, "/api/patients/1/care-team/1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("unassigned nurse should get 403, got %d", rec.Code)
	}
	if !repo.members[seeded.ID].IsActive {
		t.Error("gated removal must not reach the service")
	}
}
