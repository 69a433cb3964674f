//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/nexo-rrhh/portal/config"
	"github.com/nexo-rrhh/portal/internal/db"
	"github.com/nexo-rrhh/portal/internal/log"
	"github.com/nexo-rrhh/portal/internal/server"
	"github.com/nexo-rrhh/portal/internal/services"
	"github.com/nexo-rrhh/portal/internal/store"
	"github.com/nexo-rrhh/portal/types"
)

const (
	serverPort = 18080
)

var baseURL = fmt.Sprintf("http://localhost:%d", serverPort)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d", "postgres"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	uploadDir, err := os.MkdirTemp("", "nexo-e2e-uploads")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create upload dir: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}
	setEnv(uploadDir)

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown(context.Background())
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown(context.Background())
	_ = os.RemoveAll(uploadDir)
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

var downloadLink = regexp.MustCompile(`href="/uploads/([^"]+)"`)

func TestUploadLifecycle(t *testing.T) {
	username := fmt.Sprintf("rrhh_%d", time.Now().UnixNano())
	password := "testpass123!"
	if err := createUser(username, password, types.RoleRRHH); err != nil {
		t.Fatalf("create user: %v", err)
	}

	client := newClient(t)
	resp := postForm(t, client, "/login", url.Values{"username": {username}, "password": {password}})
	expectLocation(t, resp, "/dashboard")

	payload := []byte("PK\x03\x04 e2e marcaciones")
	resp = uploadFile(t, client, "Marcaciones Enero.xlsx", payload)
	expectLocation(t, resp, "/dashboard")

	body := getBody(t, client, "/dashboard")
	if !strings.Contains(body, "Excel subido OK.") {
		t.Fatalf("dashboard missing upload confirmation")
	}
	match := downloadLink.FindStringSubmatch(body)
	if match == nil {
		t.Fatalf("dashboard has no download link")
	}

	req, _ := http.NewRequest(http.MethodGet, baseURL+"/uploads/"+match[1], nil)
	dl, err := client.Do(req)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer dl.Body.Close()
	got, _ := io.ReadAll(dl.Body)
	if dl.StatusCode != http.StatusOK || !bytes.Equal(got, payload) {
		t.Fatalf("download status %d, %d bytes", dl.StatusCode, len(got))
	}

	resp = getResponse(t, client, "/users")
	expectLocation(t, resp, "/dashboard")

	resp = getResponse(t, client, "/logout")
	expectLocation(t, resp, "/login")
	resp = getResponse(t, client, "/dashboard")
	expectLocation(t, resp, "/login")
}

func TestDeactivatedUserIsLoggedOut(t *testing.T) {
	username := fmt.Sprintf("lector_%d", time.Now().UnixNano())
	password := "testpass123!"
	if err := createUser(username, password, types.RoleLector); err != nil {
		t.Fatalf("create user: %v", err)
	}

	client := newClient(t)
	resp := postForm(t, client, "/login", url.Values{"username": {username}, "password": {password}})
	expectLocation(t, resp, "/dashboard")

	if err := deactivateUser(username); err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	resp = getResponse(t, client, "/dashboard")
	expectLocation(t, resp, "/login")
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{
		Jar:     jar,
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func expectLocation(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status %d, want 303", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != want {
		t.Fatalf("location %q, want %q", got, want)
	}
}

func getResponse(t *testing.T, client *http.Client, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp
}

func getBody(t *testing.T, client *http.Client, path string) string {
	t.Helper()
	resp, err := client.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status %d", path, resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func postForm(t *testing.T, client *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := client.PostForm(baseURL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp
}

func uploadFile(t *testing.T, client *http.Client, filename string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	_ = writer.WriteField("notes", "e2e")
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/upload", &body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST /upload: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp
}

func createUser(username, password string, role types.Role) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, config.LoadConfig().Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = services.NewUserService(store.NewUserRepository(conn)).Create(ctx, username, password, role)
	return err
}

func deactivateUser(username string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, config.LoadConfig().Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	users := services.NewUserService(store.NewUserRepository(conn))
	user, err := users.FindActiveByUsername(ctx, username)
	if err != nil {
		return err
	}
	return users.SetActive(ctx, user.ID, false)
}

func setEnv(uploadDir string) {
	_ = os.Setenv("ENV", "test")
	_ = os.Setenv("NEXO_SECRET_KEY", "e2e-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "nexo")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "nexo_rrhh")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("DB_AUTO_MIGRATE", "true")
	_ = os.Setenv("STORAGE_BACKEND", "local")
	_ = os.Setenv("STORAGE_LOCAL_DIR", uploadDir)
	_ = os.Setenv("MQ_BACKEND", "none")
}

func waitForPostgres(ctx context.Context) error {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		conn, err := db.Open(pingCtx, config.LoadConfig().Database)
		cancel()
		if err == nil {
			return conn.Close()
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

func startServer(ctx context.Context) (*server.Server, error) {
	cfg := config.LoadConfig()
	srv, err := server.New(ctx, cfg, log.New(cfg.Environment, "warn"))
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
