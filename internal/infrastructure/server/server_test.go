package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/relaxflow/core/internal/adapters/repository"
	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/infrastructure/config"
	"github.com/relaxflow/core/internal/infrastructure/logger"
)

const (
	testEmail    = "admin@relaxflow.local"
	testPassword = "calm-waters"
)

func newTestServer(t *testing.T, authEnabled bool) *Server {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	cfg := &config.Config{
		App:    config.AppConfig{Name: "RelaxFlow", Version: "test", Environment: "test"},
		Server: config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second},
		Storage: config.StorageConfig{
			Driver:     "file",
			DataDir:    t.TempDir(),
			IDStrategy: "sequential",
		},
		Auth: config.AuthConfig{
			Enabled:           authEnabled,
			AdminEmail:        testEmail,
			AdminPasswordHash: string(hash),
			JWTSecret:         "test-secret",
			TokenTTL:          time.Hour,
			Issuer:            "relaxflow-test",
		},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: "*",
			RateLimitRequests:  1000,
			RateLimitWindow:    time.Minute,
		},
		Metrics: config.MetricsConfig{Enabled: true},
	}

	srv, err := New(cfg, repository.Backends{}, logger.NewNop())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, srv *Server) string {
	t.Helper()

	rec := doRequest(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    testEmail,
		"password": testPassword,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected login status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("Expected a token")
	}
	return resp.Token
}

type errorBody struct {
	Message string                `json:"message"`
	Errors  []entities.FieldError `json:"errors"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, true)

	rec := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/health/detailed", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected detailed status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected ready status 200, got %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, true)

	rec := doRequest(t, srv, http.MethodGet, "/api/meditations", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Message == "" {
		t.Error("Expected an error message")
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/meditations", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for a bad token, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    testEmail,
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for wrong password, got %d", rec.Code)
	}
}

func TestAuthDisabled(t *testing.T) {
	srv := newTestServer(t, false)

	rec := doRequest(t, srv, http.MethodGet, "/api/users", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("Expected empty list, got %s", rec.Body.String())
	}
}

func TestCreateMeditationAppearsFirst(t *testing.T) {
	srv := newTestServer(t, true)
	token := login(t, srv)

	first := map[string]string{
		"title":       "Morning Light",
		"duration":    "less-than-15",
		"category":    "relaxation",
		"artist":      "Lena Hart",
		"description": "A short wake-up session",
	}
	if rec := doRequest(t, srv, http.MethodPost, "/api/meditations", token, first); rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	second := map[string]string{
		"title":       "Ocean Breath",
		"duration":    "15-30",
		"category":    "sleep",
		"artist":      "Ravi Moss",
		"description": "Slow breathing with waves",
	}
	rec := doRequest(t, srv, http.MethodPost, "/api/meditations", token, second)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created entities.Meditation
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to decode meditation: %v", err)
	}
	if created.ID == "" {
		t.Error("Expected an id")
	}
	if created.DurationMinutes != 20 {
		t.Errorf("Expected durationMinutes 20, got %d", created.DurationMinutes)
	}
	if _, ok := created.CreatedAt.Time(); !ok {
		t.Errorf("Expected createdAt to be set, got %q", created.CreatedAt)
	}
	if created.Thumbnail != entities.DefaultImage {
		t.Errorf("Expected default thumbnail, got %q", created.Thumbnail)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/meditations", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var list []entities.Meditation
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 meditations, got %d", len(list))
	}
	if list[0].ID != created.ID {
		t.Errorf("Expected newest meditation first, got %q", list[0].Title)
	}
}

func TestValidationErrorResponse(t *testing.T) {
	srv := newTestServer(t, true)
	token := login(t, srv)

	rec := doRequest(t, srv, http.MethodPost, "/api/products", token, map[string]interface{}{
		"name":  "X",
		"price": 0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeError(t, rec)
	if body.Message == "" {
		t.Error("Expected a message")
	}
	if len(body.Errors) == 0 {
		t.Error("Expected field errors")
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/products", token, nil)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("Expected nothing stored, got %s", rec.Body.String())
	}
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t, true)
	token := login(t, srv)

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestDeleteByPathAndBody(t *testing.T) {
	srv := newTestServer(t, true)
	token := login(t, srv)

	for _, name := range []string{"Ada Lovelace", "Alan Turing"} {
		rec := doRequest(t, srv, http.MethodPost, "/api/users", token, map[string]string{
			"name":  name,
			"email": strings.ToLower(strings.Fields(name)[0]) + "@example.com",
			"role":  "User",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(t, srv, http.MethodDelete, "/api/users/1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "User deleted successfully") {
		t.Errorf("Expected success message, got %s", rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/users", token, map[string]string{"id": "2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/users", token, map[string]string{"id": "2"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Message != "User not found" {
		t.Errorf("Expected 'User not found', got %q", body.Message)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/users", token, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without id, got %d", rec.Code)
	}
}

func TestDailyPlayAndDashboard(t *testing.T) {
	srv := newTestServer(t, true)
	token := login(t, srv)

	today := time.Now().UTC().Format(entities.DateLayout)
	for i := 0; i < 3; i++ {
		rec := doRequest(t, srv, http.MethodPut, "/api/daily-play", token, map[string]string{"date": today})
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/daily-play", token, nil)
	var plays []entities.DailyPlay
	if err := json.Unmarshal(rec.Body.Bytes(), &plays); err != nil {
		t.Fatalf("Failed to decode plays: %v", err)
	}
	if len(plays) != 1 || plays[0].Plays != 3 {
		t.Errorf("Expected one entry with 3 plays, got %+v", plays)
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/daily-play", token, map[string]string{"date": "yesterday"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a bad date, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/dashboard", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var overview map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &overview); err != nil {
		t.Fatalf("Failed to decode overview: %v", err)
	}
	if len(overview) == 0 {
		t.Error("Expected overview fields")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	doRequest(t, srv, http.MethodGet, "/api/owners", "", nil)

	rec := doRequest(t, srv, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"http_requests_total", "relaxflow_record_store_operations_total", "relaxflow_change_feed_clients"} {
		if !strings.Contains(body, name) {
			t.Errorf("Expected metric %s in output", name)
		}
	}
}
