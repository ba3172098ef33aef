// tavle/handlers/main_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"tavle/config"
	"tavle/database"
	"tavle/models"
	"tavle/utils"

	"github.com/go-chi/chi/v5"
)

const testPassword = "hunter2-test-password"

// MockApplication satisfies the App interface for handler tests, backed by a
// real temp-file database and local disk storage.
type MockApplication struct {
	db          *database.DatabaseService
	rateLimiter *models.RateLimiter
	logger      *slog.Logger
	storage     models.StorageService
}

func (a *MockApplication) DB() *database.DatabaseService  { return a.db }
func (a *MockApplication) RateLimiter() *models.RateLimiter { return a.rateLimiter }
func (a *MockApplication) Logger() *slog.Logger           { return a.logger }
func (a *MockApplication) Storage() models.StorageService { return a.storage }

func setupTestApp(t *testing.T) (*MockApplication, *chi.Mux) {
	t.Helper()

	utils.SessionSecret = "handler-test-secret"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_journal_mode=WAL&_foreign_keys=on"
	db, err := database.InitDB(dsn, logger)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.DB.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	})

	app := &MockApplication{
		db: db,
		// Generous limits so tests never trip the throttle.
		rateLimiter: models.NewRateLimiter(time.Millisecond, 10000, time.Hour, time.Hour),
		logger:      logger,
		storage:     &utils.LocalStorage{ImagesDir: t.TempDir()},
	}
	return app, SetupRouter(app)
}

// doJSON performs a JSON request against the test router.
func doJSON(t *testing.T, router *chi.Mux, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("Failed to decode response body %q: %v", rec.Body.String(), err)
	}
}

// registerUser creates an account through the API and returns its session
// cookie.
func registerUser(t *testing.T, router *chi.Mux, username string) *http.Cookie {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/register", map[string]string{
		"username": username, "password": testPassword,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Register returned %d: %s", rec.Code, rec.Body.String())
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == config.SessionCookieName && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("Register did not set a session cookie")
	return nil
}
