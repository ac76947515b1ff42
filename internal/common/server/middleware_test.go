package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/auth"
	"github.com/CarRentHub/CarRentHub/internal/common/config"
)

func TestJWTAuthAndRequireRole(t *testing.T) {
	authCfg := config.AuthConfig{
		Enabled:     true,
		JWTSecret:   "test-secret",
		Issuer:      "carrenthub",
		Audience:    "carrenthub",
		PublicPaths: []string{"/api/auth/"},
	}

	token, _, err := auth.GenerateAccessToken(authCfg, "42", []string{"user", "admin"}, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	var gotSubject string
	handler := JWTAuth(authCfg, nil)(RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ai, ok := AuthFromContext(r.Context())
		if !ok {
			t.Fatalf("missing auth info in ctx")
		}
		gotSubject = ai.Subject
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSubject != "42" {
		t.Fatalf("subject mismatch: %s", gotSubject)
	}
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	authCfg := config.AuthConfig{Enabled: true, JWTSecret: "test-secret"}

	handler := JWTAuth(authCfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/my", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTAuthPublicPathBypass(t *testing.T) {
	authCfg := config.AuthConfig{
		Enabled:     true,
		JWTSecret:   "test-secret",
		PublicPaths: []string{"/api/auth/"},
	}

	handler := JWTAuth(authCfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected bypass on public path, got %d", rec.Code)
	}
}

func TestRequireRoleForbidden(t *testing.T) {
	authCfg := config.AuthConfig{Enabled: true, JWTSecret: "test-secret"}
	token, _, err := auth.GenerateAccessToken(authCfg, "7", []string{"user"}, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	handler := JWTAuth(authCfg, nil)(RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/payments/all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
