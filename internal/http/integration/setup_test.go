package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/clinicbook/api/internal/auth"
	"github.com/clinicbook/api/internal/config"
	"github.com/clinicbook/api/internal/db"
	apphttp "github.com/clinicbook/api/internal/http"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func testConfig() config.Config {
	return config.Config{
		Env:               "test",
		SessionSecret:     "integration-test-secret",
		SessionTTLMinutes: 60,
	}
}

// setupTestRouter wires the real router against the database named by
// TEST_DB_DSN, with a throwaway schema bootstrap and a silent logger.
func setupTestRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping database-backed tests")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	router := apphttp.NewRouter(apphttp.Deps{
		Cfg:  testConfig(),
		Log:  logger,
		Pool: pool,
	})

	resetDB(t, pool)

	return router, pool
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `TRUNCATE appointments, doctors, users RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

func seedDoctor(t *testing.T, pool *pgxpool.Pool, name, specialization string) int64 {
	t.Helper()

	var id int64

	err := pool.QueryRow(
		context.Background(),
		`INSERT INTO doctors (name, specialization) VALUES ($1, $2) RETURNING id`,
		name, specialization,
	).Scan(&id)

	if err != nil {
		t.Fatalf("failed to seed doctor: %v", err)
	}

	return id
}

func seedUser(t *testing.T, pool *pgxpool.Pool, name, email string) int64 {
	t.Helper()

	var id int64

	err := pool.QueryRow(
		context.Background(),
		`INSERT INTO users (name, email, password_hash, is_admin)
		 VALUES ($1, $2, 'x', FALSE) RETURNING id`,
		name, email,
	).Scan(&id)

	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	return id
}

func postForm(router *gin.Engine, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func getPath(router *gin.Engine, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

// registerAndLogin runs the real register + login flow and returns the
// session cookie for subsequent requests.
func registerAndLogin(t *testing.T, router *gin.Engine, name, email, password string) *http.Cookie {
	t.Helper()

	w := postForm(router, "/register", url.Values{
		"name":     {name},
		"email":    {email},
		"password": {password},
	})

	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("register: expected 302 to /login, got %d to %q", w.Code, w.Header().Get("Location"))
	}

	w = postForm(router, "/login", url.Values{
		"email":    {email},
		"password": {password},
		"role":     {"user"},
	})

	if w.Code != http.StatusFound || w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("login: expected 302 to /dashboard, got %d to %q", w.Code, w.Header().Get("Location"))
	}

	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			return c
		}
	}

	t.Fatalf("login: expected a %s cookie", auth.CookieName)
	return nil
}

func countRows(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int {
	t.Helper()

	var n int

	if err := pool.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}

	return n
}
