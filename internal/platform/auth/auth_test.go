package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testKey = []byte("unit-test-signing-key")

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(testKey)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func request(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSubjectID_DeterministicAndPositive(t *testing.T) {
	sub := "9c4f1e2a-9a31-4c55-8f1d-0f6f2a1b3c4d"
	a := SubjectID(sub)
	b := SubjectID(sub)
	if a != b {
		t.Errorf("hash not deterministic: %d vs %d", a, b)
	}
	if a < 0 || a > 2147483646 {
		t.Errorf("hash out of int32 range: %d", a)
	}
	if SubjectID("another-subject") == a {
		t.Error("distinct subjects should map to distinct ids")
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	tokenStr := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "subject-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email:      "nurse@example.org",
		Role:       RoleNurse,
		Department: "cardiology",
	})

	c, _ := request(t, "Bearer "+tokenStr)
	var got Actor
	h := Middleware(Config{SigningKey: testKey})(func(c echo.Context) error {
		got, _ = ActorFromEcho(c)
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Role != RoleNurse || got.Department != "cardiology" || got.Email != "nurse@example.org" {
		t.Errorf("actor claims not mapped: %+v", got)
	}
	if got.ID != SubjectID("subject-1") {
		t.Errorf("actor id should derive from subject, got %d", got.ID)
	}
	if _, ok := ActorFromContext(c.Request().Context()); !ok {
		t.Error("actor should also be on the request context")
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	c, _ := request(t, "")
	h := Middleware(Config{SigningKey: testKey})(func(c echo.Context) error { return nil })
	err := h(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestMiddleware_MalformedHeader(t *testing.T) {
	c, _ := request(t, "Token abc")
	h := Middleware(Config{SigningKey: testKey})(func(c echo.Context) error { return nil })
	err := h(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	tokenStr := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "subject-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	c, _ := request(t, "Bearer "+tokenStr)
	h := Middleware(Config{SigningKey: testKey})(func(c echo.Context) error { return nil })
	err := h(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		role    string
		allowed []string
		want    int
	}{
		{RoleAdmin, []string{RoleAdmin}, http.StatusOK},
		{RoleNurse, []string{RoleAdmin, RoleDoctor}, http.StatusForbidden},
		{RoleDoctor, []string{RoleAdmin, RoleDoctor}, http.StatusOK},
	}

	for _, tc := range cases {
		c, _ := request(t, "")
		c.Set("actor", Actor{ID: 1, Role: tc.role})
		h := RequireRole(tc.allowed...)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		err := h(c)
		switch tc.want {
		case http.StatusOK:
			if err != nil {
				t.Errorf("role %s should pass %v: %v", tc.role, tc.allowed, err)
			}
		default:
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != tc.want {
				t.Errorf("role %s against %v: expected %d, got %v", tc.role, tc.allowed, tc.want, err)
			}
		}
	}
}

type fakeChecker struct {
	assigned map[string]bool
	err      error
}

func (f *fakeChecker) IsAssigned(_ context.Context, userID, patientID int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.assigned[fmt.Sprintf("%d:%d", userID, patientID)], nil
}

func patientRequest(t *testing.T, actor Actor, patientID string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(patientID)
	c.Set("actor", actor)
	return c
}

func TestRequirePatientAccess_DoctorBypasses(t *testing.T) {
	checker := &fakeChecker{err: fmt.Errorf("should not be called")}
	c := patientRequest(t, Actor{ID: 5, Role: RoleDoctor}, "3")
	h := RequirePatientAccess(checker)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		t.Errorf("doctor should bypass care-team check: %v", err)
	}
}

func TestRequirePatientAccess_NurseAssigned(t *testing.T) {
	checker := &fakeChecker{assigned: map[string]bool{"5:3": true}}
	c := patientRequest(t, Actor{ID: 5, Role: RoleNurse}, "3")
	h := RequirePatientAccess(checker)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		t.Errorf("assigned nurse should pass: %v", err)
	}
}

func TestRequirePatientAccess_NurseNotAssigned(t *testing.T) {
	checker := &fakeChecker{assigned: map[string]bool{}}
	c := patientRequest(t, Actor{ID: 5, Role: RoleNurse}, "3")
	h := RequirePatientAccess(checker)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	err := h(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403 for unassigned nurse, got %v", err)
	}
}

func TestRequirePatientAccess_InvalidPatientID(t *testing.T) {
	checker := &fakeChecker{}
	c := patientRequest(t, Actor{ID: 5, Role: RoleNurse}, "abc")
	h := RequirePatientAccess(checker)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	err := h(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad patient id, got %v", err)
	}
}
