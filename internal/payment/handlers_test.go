package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/auth"
	"github.com/CarRentHub/CarRentHub/internal/common/config"
	"github.com/CarRentHub/CarRentHub/internal/common/server"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
)

type fixedOwner struct{ owner int64 }

func (f fixedOwner) OwnerOf(_ context.Context, _ int64) (int64, error) {
	return f.owner, nil
}

var handlerAuthCfg = config.AuthConfig{
	Enabled:   true,
	JWTSecret: "test-secret",
	Issuer:    "carrenthub",
	Audience:  "carrenthub",
}

func newPaymentRouter(t *testing.T, owner int64) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	ledger, mock := newMockLedger(t)
	h := NewHandler(ledger, fixedOwner{owner: owner}, nil)

	r := chi.NewRouter()
	r.Get("/api/payments/order/{orderId}", h.GetByOrder)
	return server.JWTAuth(handlerAuthCfg, nil)(r), mock
}

func bearer(t *testing.T, subject string, roles ...string) string {
	t.Helper()
	token, _, err := auth.GenerateAccessToken(handlerAuthCfg, subject, roles, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func TestGetByOrderForbiddenForOtherUser(t *testing.T) {
	handler, mock := newPaymentRouter(t, 42)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/order/1", nil)
	req.Header.Set("Authorization", bearer(t, "7", "user"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	// 归属校验不通过时不应触碰台账
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected db access: %v", err)
	}
}

func TestGetByOrderOwnerAllowed(t *testing.T) {
	handler, mock := newPaymentRouter(t, 7)

	mock.ExpectQuery("SELECT \\* FROM `payments` WHERE order_id = \\?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "pay_type"}).
			AddRow(1, 1, "Deposit"))

	req := httptest.NewRequest(http.MethodGet, "/api/payments/order/1", nil)
	req.Header.Set("Authorization", bearer(t, "7", "user"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByOrderAdminBypassesOwnership(t *testing.T) {
	handler, mock := newPaymentRouter(t, 42)

	mock.ExpectQuery("SELECT \\* FROM `payments` WHERE order_id = \\?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "pay_type"}).
			AddRow(1, 1, "Deposit"))

	req := httptest.NewRequest(http.MethodGet, "/api/payments/order/1", nil)
	req.Header.Set("Authorization", bearer(t, "1", "admin"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
