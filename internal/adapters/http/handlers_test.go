package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/infrastructure/logger"
)

func newContext() echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestErrorForStorageFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	c := newContext()
	c.Response().Header().Set(echo.HeaderXRequestID, "req-42")
	c.Set(ContextUserEmail, "admin@relaxflow.local")
	c.Set(ContextUserRole, "Admin")

	err := errorFor(c, log, "list products", &entities.StorageError{
		Collection: "products",
		Op:         "read",
		Err:        errors.New("disk full"),
	})

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("Expected *echo.HTTPError, got %T", err)
	}
	if he.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", he.Code)
	}
	if body, ok := he.Message.(ErrorResponse); !ok || body.Message != "Failed to list products" {
		t.Errorf("Expected generic failure message, got %#v", he.Message)
	}

	entries := logs.FilterMessage("list products failed").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	expected := map[string]interface{}{
		"request_id": "req-42",
		"error":      "read products: disk full",
		"user":       "admin@relaxflow.local",
		"role":       "Admin",
	}
	for key, want := range expected {
		if fields[key] != want {
			t.Errorf("Expected %s to be %v, got %v", key, want, fields[key])
		}
	}
}

func TestErrorForClientErrorsAreNotLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", &entities.ValidationError{Message: "Invalid product"}, http.StatusBadRequest, "Invalid product"},
		{"not found", entities.ErrProductNotFound, http.StatusNotFound, "Product not found"},
		{"unauthorized", entities.ErrUnauthorized, http.StatusUnauthorized, "Invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var he *echo.HTTPError
			if !errors.As(errorFor(newContext(), log, "update product", tt.err), &he) {
				t.Fatal("Expected *echo.HTTPError")
			}
			if he.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, he.Code)
			}
			if body, ok := he.Message.(ErrorResponse); !ok || body.Message != tt.message {
				t.Errorf("Expected message %q, got %#v", tt.message, he.Message)
			}
		})
	}

	if n := logs.Len(); n != 0 {
		t.Errorf("Expected no log entries, got %d", n)
	}
}
