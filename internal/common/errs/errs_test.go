package errs

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeInvalidState, "bad")); got != CodeInvalidState {
		t.Fatalf("CodeOf = %s, want INVALID_STATE", got)
	}
	// 包装后仍能提取错误码
	wrapped := fmt.Errorf("ctx: %w", New(CodeNotFound, "missing"))
	if got := CodeOf(wrapped); got != CodeNotFound {
		t.Fatalf("CodeOf(wrapped) = %s, want NOT_FOUND", got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != CodeInternal {
		t.Fatalf("CodeOf(plain) = %s, want INTERNAL", got)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeInvalidInterval, http.StatusBadRequest},
		{CodeInvalidAmount, http.StatusBadRequest},
		{CodeVehicleUnavailable, http.StatusConflict},
		{CodeInvalidState, http.StatusConflict},
		{CodeDuplicatePayment, http.StatusConflict},
		{CodePreconditionNotMet, http.StatusUnprocessableEntity},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.code); got != c.want {
			t.Fatalf("HTTPStatus(%s) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestWriteAndDecodeHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTP(rec, New(CodeDuplicatePayment, "deposit already paid"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	err := DecodeHTTP(rec.Code, rec.Body.Bytes())
	if !Is(err, CodeDuplicatePayment) {
		t.Fatalf("decoded err = %v, want DUPLICATE_PAYMENT", err)
	}
}

func TestDecodeHTTPFallback(t *testing.T) {
	if err := DecodeHTTP(http.StatusBadGateway, []byte("gateway blew up")); !Is(err, CodeUnavailable) {
		t.Fatalf("5xx fallback = %v, want UNAVAILABLE", err)
	}
	if err := DecodeHTTP(http.StatusNotFound, nil); !Is(err, CodeNotFound) {
		t.Fatalf("404 fallback = %v, want NOT_FOUND", err)
	}
}
