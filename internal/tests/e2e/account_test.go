//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/mixhub/apiserver/config"
	"github.com/mixhub/apiserver/internal/db"
	"github.com/mixhub/apiserver/internal/server"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestAccountLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	username := fmt.Sprintf("alice_%d", time.Now().UnixNano())
	email := fmt.Sprintf("%s@example.com", username)
	password := "testpass123!"

	token, err := signupUser(t, baseURL, username, email, password)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := login(t, baseURL, email, "wrong-password"); err == nil {
		t.Fatalf("expected login with wrong password to fail")
	}

	loginToken, err := login(t, baseURL, email, password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	me, err := getMe(t, baseURL, loginToken)
	if err != nil {
		t.Fatalf("get me: %v", err)
	}
	if me.Email != email {
		t.Fatalf("unexpected identity: %q", me.Email)
	}

	// updateMyPassword returns a fresh token; the old one must stop working.
	// The changed-at comparison has unix second granularity.
	time.Sleep(2500 * time.Millisecond)
	newPassword := "freshpass456!"
	freshToken, err := updateMyPassword(t, baseURL, loginToken, password, newPassword)
	if err != nil {
		t.Fatalf("update password: %v", err)
	}
	if _, err := getMe(t, baseURL, token); err == nil {
		t.Fatalf("expected pre-change token to be rejected")
	}
	if _, err := getMe(t, baseURL, freshToken); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	// Admin listing is gated on role.
	if err := listUsers(t, baseURL, freshToken); err == nil {
		t.Fatalf("expected user listing to require admin role")
	}
	if err := promoteUserToAdmin(username); err != nil {
		t.Fatalf("promote user: %v", err)
	}
	adminToken, err := login(t, baseURL, email, newPassword)
	if err != nil {
		t.Fatalf("login after promotion: %v", err)
	}
	if err := listUsers(t, baseURL, adminToken); err != nil {
		t.Fatalf("admin listing: %v", err)
	}
}

type userResponse struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func signupUser(t *testing.T, baseURL, username, email, password string) (string, error) {
	t.Helper()

	payload := map[string]string{
		"username":        username,
		"email":           email,
		"password":        password,
		"passwordConfirm": password,
	}
	parsed, err := postJSON(baseURL+"/api/v1/users/signup", "", payload, http.StatusCreated)
	if err != nil {
		return "", err
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("missing token in signup response")
	}
	return parsed.Token, nil
}

func login(t *testing.T, baseURL, email, password string) (string, error) {
	t.Helper()

	payload := map[string]string{"email": email, "password": password}
	parsed, err := postJSON(baseURL+"/api/v1/users/login", "", payload, http.StatusOK)
	if err != nil {
		return "", err
	}
	return parsed.Token, nil
}

func updateMyPassword(t *testing.T, baseURL, token, current, next string) (string, error) {
	t.Helper()

	payload := map[string]string{
		"passwordCurrent": current,
		"password":        next,
		"passwordConfirm": next,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPatch, baseURL+"/api/v1/users/updateMyPassword", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("update password status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed authResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	return parsed.Token, nil
}

func getMe(t *testing.T, baseURL, token string) (userResponse, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/v1/users/me", nil)
	if err != nil {
		return userResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return userResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return userResponse{}, fmt.Errorf("get me status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed userResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return userResponse{}, err
	}
	return parsed, nil
}

func listUsers(t *testing.T, baseURL, token string) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/v1/users/", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("list users status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func postJSON(url, token string, payload map[string]string, wantStatus int) (authResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return authResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return authResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return authResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(resp.Body)
		return authResponse{}, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed authResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return authResponse{}, err
	}
	return parsed, nil
}

func promoteUserToAdmin(username string) error {
	cfg := config.LoadConfig()
	dsn := db.BuildDSN(cfg.Database)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = db.ExecContext(ctx, "UPDATE users SET role = 'admin', updated_at = NOW() WHERE username = $1", username)
	return err
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	dsn := db.BuildDSN(cfg.Database)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	dsn := db.BuildDSN(cfg.Database)
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}


func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "mixhub")
	_ = os.Setenv("DB_PASSWORD", "mixhub")
	_ = os.Setenv("DB_NAME", "mixhub")
	_ = os.Setenv("DB_USE_SSL", "false")

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
