package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/relaxflow/core/internal/adapters/repository"
	"github.com/relaxflow/core/internal/application/analytics"
	"github.com/relaxflow/core/internal/infrastructure/config"
	"github.com/relaxflow/core/internal/infrastructure/logger"
	"github.com/relaxflow/core/internal/infrastructure/server"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewUserCommand()
	root.SilenceUsage = true
	root.SilenceErrors = true
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := execute(t, "hash-password", "still-water")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	hash := strings.TrimSpace(out)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("still-water")); err != nil {
		t.Errorf("Expected printed hash to match password, got %v", err)
	}

	if _, err := execute(t, "hash-password"); err == nil {
		t.Error("Expected an error without a password argument")
	}
}

func setStorageEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORAGE_DRIVER", "file")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("ID_STRATEGY", "sequential")
	t.Setenv("JWT_SECRET", "command-test-secret")
	return dir
}

func TestUserCreateCommand(t *testing.T) {
	dir := setStorageEnv(t)

	out, err := execute(t, "create", "--name", "Nora Quinn", "--email", "nora@example.com", "--role", "Admin")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out, "ID: 1") {
		t.Errorf("Expected sequential id in output, got %q", out)
	}

	users, err := repository.NewFileStore(dir, nil).Users.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("Failed to read users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("Expected 1 user, got %d", len(users))
	}
	if users[0].Email != "nora@example.com" || users[0].Role != "Admin" {
		t.Errorf("Unexpected user %+v", users[0])
	}
}

func TestUserCreateCommandValidation(t *testing.T) {
	dir := setStorageEnv(t)

	if _, err := execute(t, "create", "--name", "Nora Quinn"); err == nil {
		t.Fatal("Expected an error without email")
	}

	users, err := repository.NewFileStore(dir, nil).Users.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("Failed to read users: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("Expected no users stored, got %d", len(users))
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "RelaxFlow Core "+Version) {
		t.Errorf("Expected version line, got %q", out.String())
	}
}

func TestRenderOverview(t *testing.T) {
	ov := analytics.Overview{
		TotalUsers:  12,
		TotalOwners: 4,
		Products:    analytics.ProductStock{Total: 3, Available: 2, OutOfStock: 1},
		Plays:       analytics.PlaySummary{Today: 5, DailyTrend: 100, WeeklyTrend: -50},
	}

	out := renderOverview(ov)
	for _, want := range []string{"RelaxFlow Dashboard", "Users", "12", "Out of stock", "+100.0%", "-50.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestDashboardCommand(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second},
		Storage:  config.StorageConfig{Driver: "file", DataDir: t.TempDir(), IDStrategy: "uuid"},
		Security: config.SecurityConfig{CORSAllowedOrigins: "*"},
	}
	srv, err := server.New(cfg, repository.Backends{}, logger.NewNop())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for _, args := range [][]string{
		{"--url", ts.URL},
		{"--url", ts.URL, "--remote"},
	} {
		cmd := NewDashboardCommand()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("Expected no error for %v, got %v", args, err)
		}
		if !strings.Contains(out.String(), "RelaxFlow Dashboard") {
			t.Errorf("Expected rendered dashboard for %v, got %q", args, out.String())
		}
	}
}
