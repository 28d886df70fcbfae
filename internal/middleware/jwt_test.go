package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecomstack/ecommerce-api/internal/model"
	"github.com/ecomstack/ecommerce-api/internal/utils"
)

const testSecret = "middleware-test-secret"

// invoke runs a request through the given middleware chain with a terminal
// handler that records the context values JWTAuth is expected to set.
func invoke(t *testing.T, authHeader string, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, uint64, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotID uint64
	var gotRole string
	h := func(c echo.Context) error {
		gotID = UserID(c)
		gotRole = Role(c)
		return c.NoContent(http.StatusOK)
	}
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	return rec, gotID, gotRole
}

func TestJWTAuthValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, model.RoleManager, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}

	rec, id, role := invoke(t, "Bearer "+tok.Token, JWTAuth(testSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if id != 42 {
		t.Errorf("user_id in context = %d, want 42", id)
	}
	if role != model.RoleManager {
		t.Errorf("role in context = %q, want %q", role, model.RoleManager)
	}
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _, _ := invoke(t, "", JWTAuth(testSecret))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing bearer token") {
		t.Errorf("body = %s, want missing bearer token", rec.Body.String())
	}
}

func TestJWTAuthExpiredTokenBody(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 1, model.RoleCustomer, -2*utils.ClockSkew)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	rec, _, _ := invoke(t, "Bearer "+tok.Token, JWTAuth(testSecret))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	// Clients refresh on this exact body; anything else ends the session.
	if !strings.Contains(rec.Body.String(), "token expired") {
		t.Errorf("body = %s, want token expired", rec.Body.String())
	}
}

func TestJWTAuthInvalidTokenBody(t *testing.T) {
	rec, _, _ := invoke(t, "Bearer not-a-token", JWTAuth(testSecret))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid token") {
		t.Errorf("body = %s, want invalid token", rec.Body.String())
	}
}

func TestJWTAuthRejectsRefreshToken(t *testing.T) {
	tok, err := utils.NewRefreshToken(testSecret, 1, time.Hour)
	if err != nil {
		t.Fatalf("NewRefreshToken() error = %v", err)
	}
	rec, _, _ := invoke(t, "Bearer "+tok.Raw, JWTAuth(testSecret))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for a refresh token on an access route", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		allowed  []string
		wantCode int
	}{
		{name: "exact match passes", role: model.RoleAdmin, allowed: []string{model.RoleAdmin, model.RoleManager}, wantCode: http.StatusOK},
		{name: "role not in set", role: model.RoleCustomer, allowed: []string{model.RoleAdmin}, wantCode: http.StatusForbidden},
		{name: "no implied hierarchy", role: model.RoleSuperAdmin, allowed: []string{model.RoleAdmin}, wantCode: http.StatusForbidden},
		{name: "unauthenticated", role: "", allowed: []string{model.RoleAdmin}, wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var header string
			if tt.role != "" {
				tok, err := utils.NewAccessToken(testSecret, 3, tt.role, time.Hour)
				if err != nil {
					t.Fatalf("NewAccessToken() error = %v", err)
				}
				header = "Bearer " + tok.Token
			}

			mws := []echo.MiddlewareFunc{RequireRole(tt.allowed...)}
			if header != "" {
				mws = []echo.MiddlewareFunc{JWTAuth(testSecret), RequireRole(tt.allowed...)}
			}
			rec, _, _ := invoke(t, header, mws...)
			if tt.role == "" {
				// Without JWTAuth in front, RequireRole alone must refuse.
				if rec.Code != http.StatusForbidden {
					t.Fatalf("status = %d, want 403", rec.Code)
				}
				return
			}
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}
