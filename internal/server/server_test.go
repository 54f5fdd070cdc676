package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"leadlms/internal/admins"
	"leadlms/internal/config"
	"leadlms/internal/database"
	"leadlms/internal/leads"
	"leadlms/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	testAPIKey  = "api-key"
	validToken  = "good-token"
	cookieName  = "lms_session"
	indexMarkup = "<!doctype html><title>Leads</title>"
)

// fakeDB only answers health checks
type fakeDB struct {
	database.Service
	status string
}

func (f *fakeDB) Health() map[string]string {
	return map[string]string{"status": f.status}
}

type fakeStorage struct{ err error }

func (f *fakeStorage) UploadObject(ctx context.Context, key, contentType string, body []byte) error {
	return nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://files.example.com/" + key, nil
}

func (f *fakeStorage) EnsureBucketExists(ctx context.Context) error { return nil }

func (f *fakeStorage) Health(ctx context.Context) error { return f.err }

type fakeSessions struct{}

func (fakeSessions) Create(ctx context.Context) (*session.Session, error) {
	return &session.Session{ID: uuid.New(), Token: validToken, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (fakeSessions) Validate(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, session.ErrMissingToken
	}
	if token != validToken {
		return nil, session.ErrSessionNotFound
	}
	return &session.Session{ID: uuid.New(), Token: token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (fakeSessions) Destroy(ctx context.Context, token string) error { return nil }

func (fakeSessions) SweepExpired(ctx context.Context) (int64, error) { return 2, nil }

// leadStore keeps leads in insertion order
type leadStore struct {
	mu    sync.Mutex
	leads []leads.Lead
}

func (s *leadStore) Create(ctx context.Context, lead *leads.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead.ID = uuid.New()
	s.leads = append(s.leads, *lead)
	return nil
}

func (s *leadStore) GetByID(ctx context.Context, id uuid.UUID) (*leads.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, leads.ErrLeadNotFound
}

func (s *leadStore) FindByThreadID(ctx context.Context, threadID string) (*leads.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.ThreadID != nil && *l.ThreadID == threadID {
			return &l, nil
		}
	}
	return nil, leads.ErrLeadNotFound
}

func (s *leadStore) List(ctx context.Context, f leads.Filter) ([]leads.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]leads.Lead{}, s.leads...), nil
}

func (s *leadStore) Update(ctx context.Context, id uuid.UUID, u leads.UpdateRequest) (*leads.Lead, error) {
	return nil, leads.ErrLeadNotFound
}

func (s *leadStore) Delete(ctx context.Context, id uuid.UUID) error {
	return leads.ErrLeadNotFound
}

func (s *leadStore) Stats(ctx context.Context, since time.Time, recent int) (*leads.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &leads.Stats{Total: int64(len(s.leads))}, nil
}

type adminStore struct{}

func (adminStore) List(ctx context.Context) ([]admins.Admin, error) { return []admins.Admin{}, nil }

func (adminStore) GetByID(ctx context.Context, id uuid.UUID) (*admins.Admin, error) {
	return nil, admins.ErrAdminNotFound
}

func (adminStore) Create(ctx context.Context, fullName, email string) (*admins.Admin, error) {
	return &admins.Admin{ID: uuid.New(), FullName: fullName, Email: email}, nil
}

func (adminStore) Update(ctx context.Context, id uuid.UUID, req admins.UpdateRequest) (*admins.Admin, error) {
	return nil, admins.ErrAdminNotFound
}

func (adminStore) Delete(ctx context.Context, id uuid.UUID) error { return admins.ErrAdminNotFound }

func (adminStore) ListEmails(ctx context.Context) ([]string, error) { return nil, nil }

type testEnv struct {
	handler http.Handler
	db      *fakeDB
	leads   *leadStore
}

func newTestEnv(t *testing.T, mutate func(*Deps)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "index.html"), []byte(indexMarkup), 0o644); err != nil {
		t.Fatalf("Failed to write index.html: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(staticDir, "assets"), 0o755); err != nil {
		t.Fatalf("Failed to create assets dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "assets", "app.js"), []byte("console.log('lms')"), 0o644); err != nil {
		t.Fatalf("Failed to write asset: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &leadStore{}
	db := &fakeDB{status: "up"}
	deps := Deps{
		Config: &config.Config{
			Port:           8080,
			AdminPassword:  "hunter2",
			CronSecret:     "cron-secret",
			APIKey:         testAPIKey,
			Session:        config.SessionConfig{CookieName: cookieName},
			AllowedOrigins: []string{"http://localhost:5173"},
			StaticDir:      staticDir,
			MetricsEnabled: true,
		},
		DB:       db,
		Sessions: fakeSessions{},
		Leads:    leads.NewService(store, nil, logger),
		Admins:   adminStore{},
		Logger:   logger,
	}
	if mutate != nil {
		mutate(&deps)
	}

	handler, err := New(deps).RegisterRoutes()
	if err != nil {
		t.Fatalf("RegisterRoutes() error = %v", err)
	}
	return &testEnv{handler: handler, db: db, leads: store}
}

func (e *testEnv) do(method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func withKey(req *http.Request) { req.Header.Set("x-api-key", testAPIKey) }

func withSession(req *http.Request) {
	req.AddCookie(&http.Cookie{Name: cookieName, Value: validToken})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected body %s", w.Body.String())
	}

	env.db.status = "down"
	w = env.do(http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 when the database is down, got %d", w.Code)
	}
}

func TestHealth_ReportsStorage(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Storage = &fakeStorage{err: errors.New("bucket gone")} })

	w := env.do(http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	storage, ok := body["storage"].(map[string]any)
	if !ok || storage["status"] != "down" {
		t.Errorf("Expected storage down, got %v", body["storage"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("Expected Prometheus exposition output")
	}
}

func TestMetricsDisabled(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Config.MetricsEnabled = false })

	for _, mutate := range []func(*http.Request){nil, withSession} {
		w := env.do(http.MethodGet, "/metrics", "", mutate)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404 when metrics are disabled, got %d", w.Code)
		}
		if strings.Contains(w.Body.String(), indexMarkup) || strings.Contains(w.Body.String(), "go_goroutines") {
			t.Errorf("Expected neither pages nor metrics, got %q", w.Body.String())
		}
	}
}

func TestIngestion_RequiresAPIKey(t *testing.T) {
	env := newTestEnv(t, nil)
	body := `{"full_name":"Ada Lovelace","email":"ada@example.com","phone_number":5551234,
		"company":"Analytical","current_position":"CTO","customer_base_range":">250000"}`

	w := env.do(http.MethodPost, "/api/leads/new", body, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}

	w = env.do(http.MethodPost, "/api/leads/new", body, func(req *http.Request) {
		req.Header.Set("x-api-key", "wrong")
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 with wrong key, got %d", w.Code)
	}

	// A session cookie does not stand in for the key.
	w = env.do(http.MethodPost, "/api/leads/new", body, withSession)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with only a session, got %d", w.Code)
	}

	w = env.do(http.MethodPost, "/api/leads/new", body, withKey)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(env.leads.leads) != 1 || env.leads.leads[0].Label != leads.LabelHigh {
		t.Errorf("Expected one high budget lead, got %+v", env.leads.leads)
	}
}

func TestDashboardAPI_RequiresSession(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/api/dashboard/leads", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without session, got %d", w.Code)
	}

	// The API key is not a dashboard credential.
	w = env.do(http.MethodGet, "/api/dashboard/leads", "", withKey)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with only an API key, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/dashboard/leads", "", withSession)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with session, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/dashboard/admins", "", withSession)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for admin roster, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/dashboard/leads/export", "", withSession)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 for export without storage, got %d", w.Code)
	}
}

func TestAuthAndCronArePublic(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/api/auth/session", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"authenticated":false`) {
		t.Errorf("Expected unauthenticated 200, got %d %s", w.Code, w.Body.String())
	}

	w = env.do(http.MethodPost, "/api/auth/login", `{"password":"hunter2"}`, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected login to succeed, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/cron/cleanup-sessions", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected cron 401 without bearer, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/cron/cleanup-sessions", "", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer cron-secret")
	})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"deleted":2`) {
		t.Errorf("Expected cron sweep, got %d %s", w.Code, w.Body.String())
	}
}

func TestPages(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/leads", "", nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("Expected redirect to /login, got %d %q", w.Code, w.Header().Get("Location"))
	}

	w = env.do(http.MethodGet, "/login", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != indexMarkup {
		t.Errorf("Expected index for /login, got %d %q", w.Code, w.Body.String())
	}

	w = env.do(http.MethodGet, "/assets/app.js", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "lms") {
		t.Errorf("Expected asset to be served, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/leads/123", "", withSession)
	if w.Code != http.StatusOK || w.Body.String() != indexMarkup {
		t.Errorf("Expected SPA fallback, got %d %q", w.Code, w.Body.String())
	}
}

func TestUnknownAPIPath(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/api/nothing-here", "", withKey)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		t.Errorf("Expected JSON 404, got %q", w.Header().Get("Content-Type"))
	}
}

func TestStaticDirWithoutIndex(t *testing.T) {
	if _, err := newStaticHandler(t.TempDir()); err == nil {
		t.Error("Expected error when index.html is missing")
	}
	if h, err := newStaticHandler(""); err != nil || h != nil {
		t.Errorf("Expected no handler for empty dir, got %v %v", h, err)
	}
}
