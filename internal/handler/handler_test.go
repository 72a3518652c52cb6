package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"config-envelope-service/internal/domain"
	"config-envelope-service/internal/envelope"
	"config-envelope-service/internal/middleware"
	"config-envelope-service/internal/usecase"
)

const testSessionSecret = "test-session-secret-0123456789ab"

// mockFetcher はテスト用のモックFetcher。
type mockFetcher struct {
	result *domain.EncryptedPackage
	err    error
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*domain.EncryptedPackage, error) {
	return m.result, m.err
}

// mockInspector はテスト用のモックInspector。
type mockInspector struct {
	pingErr error
	info    *domain.DatabaseInfo
}

func (m *mockInspector) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockInspector) Inspect(ctx context.Context) (*domain.DatabaseInfo, error) {
	return m.info, nil
}

func (m *mockInspector) Close(ctx context.Context) error {
	return nil
}

type testDeps struct {
	fetcher   usecase.Fetcher
	dbURI     string
	inspector usecase.DatabaseInspector
	factory   usecase.InspectorFactory
}

func setupRouter(deps testDeps) http.Handler {
	store := middleware.NewSessionStore(testSessionSecret, false)
	decryptService := usecase.NewDecryptService(deps.fetcher, envelope.NewOpener())
	databaseService := usecase.NewDatabaseService(deps.dbURI, deps.inspector, deps.factory, nil)
	authService := usecase.NewAuthService("admin123")

	return NewRouter(Handlers{
		Decrypt:  NewDecryptHandler(decryptService),
		Database: NewDatabaseHandler(databaseService),
		Auth:     NewAuthHandler(authService, store),
	}, store, nil)
}

func sealToken(t *testing.T, plaintext, password string) string {
	t.Helper()
	pkg, err := envelope.Seal([]byte(plaintext), password, envelope.SealOptions{Iterations: 1000})
	if err != nil {
		t.Fatalf("failed to seal: %v", err)
	}
	token, err := envelope.EncodeToken(pkg)
	if err != nil {
		t.Fatalf("failed to encode token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func login(t *testing.T, h http.Handler) []*http.Cookie {
	t.Helper()
	rec, _ := doJSON(t, h, http.MethodPost, "/api/auth/login", LoginRequest{Password: "admin123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with status %d", rec.Code)
	}
	return rec.Result().Cookies()
}

func TestHealthz(t *testing.T) {
	h := setupRouter(testDeps{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("want status 200, got %d", rec.Code)
	}
}
