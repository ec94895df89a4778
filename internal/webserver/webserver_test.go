package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"

	"github.com/breachmon/breachmon/internal/breachmon"
	"github.com/breachmon/breachmon/internal/database"
	"github.com/breachmon/breachmon/internal/database/models"
	"github.com/breachmon/breachmon/pkg/hibp"
)

type stubClient struct{}

func (stubClient) GetBreachesForAccount(ctx context.Context, account string) ([]hibp.Breach, error) {
	return nil, nil
}

func (stubClient) GetPastesForAccount(ctx context.Context, account string) ([]hibp.Paste, error) {
	return nil, nil
}

type stubAlerter struct{}

func (stubAlerter) Send(title, message string) {}

func newTestServer(t *testing.T, config *WebserverConfig) (*WebServer, database.Database) {
	t.Helper()

	db, err := database.NewBoltDB(&database.DatabaseConfig{
		Type: "bolt",
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to open bolt database: %v", err)
	}
	t.Cleanup(func() { db.Close(context.Background()) })

	monitor := breachmon.NewMonitor(breachmon.MonitorConfig{
		PollInterval:  time.Minute,
		CheckInterval: time.Hour,
		Notifier:      stubAlerter{},
		Client:        stubClient{},
		Database:      db,
	}, 1)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return NewWebServer(monitor, config, logger), db
}

func decodeResp(t *testing.T, rec *httptest.ResponseRecorder) HttpResp {
	t.Helper()
	var resp HttpResp
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return resp
}

func TestAddGetDeleteAccount(t *testing.T) {
	ws, _ := newTestServer(t, &WebserverConfig{ListenTo: ":0"})
	router := ws.InitRouter()

	body, _ := json.Marshal(models.AccountRecord{Account: "alice@example.com", Comment: "primary"})
	req := httptest.NewRequest(http.MethodPut, "/api/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /api/accounts returned %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/accounts/alice@example.com", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET account detail returned %d, want 200", rec.Code)
	}
	resp := decodeResp(t, rec)
	if resp.Status != "success" {
		t.Errorf("status = %q, want success", resp.Status)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/accounts/alice@example.com", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE account returned %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/accounts/alice@example.com", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted account returned %d, want 404", rec.Code)
	}
}

func TestAddAccountValidation(t *testing.T) {
	ws, _ := newTestServer(t, &WebserverConfig{ListenTo: ":0"})
	router := ws.InitRouter()

	for _, payload := range []string{
		`{"account": ""}`,
		`{"account": "not-an-email"}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPut, "/api/accounts", bytes.NewReader([]byte(payload)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("PUT %q returned %d, want 400", payload, rec.Code)
		}
	}
}

func TestListAccountsPaginated(t *testing.T) {
	ws, db := newTestServer(t, &WebserverConfig{ListenTo: ":0"})
	router := ws.InitRouter()
	ctx := context.Background()

	for _, account := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if err := db.AddAccount(ctx, models.AccountRecord{Account: account}); err != nil {
			t.Fatalf("AddAccount failed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/accounts?page=1&per_page=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/accounts returned %d, want 200", rec.Code)
	}

	resp := decodeResp(t, rec)
	data, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("failed to re-marshal data: %v", err)
	}
	var page models.AccountsResponse
	if err := json.Unmarshal(data, &page); err != nil {
		t.Fatalf("failed to decode accounts page: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("Total = %d, want 3", page.Total)
	}
	if len(page.Accounts) != 2 {
		t.Errorf("got %d accounts on page, want 2", len(page.Accounts))
	}
	if page.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", page.TotalPages)
	}
}

func TestGetStats(t *testing.T) {
	ws, db := newTestServer(t, &WebserverConfig{ListenTo: ":0"})
	router := ws.InitRouter()
	ctx := context.Background()

	if err := db.AddAccount(ctx, models.AccountRecord{Account: "a@example.com"}); err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}
	if err := db.MarkAsAlerted(ctx, "a@example.com", "Adobe"); err != nil {
		t.Fatalf("MarkAsAlerted failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/stats returned %d, want 200", rec.Code)
	}

	resp := decodeResp(t, rec)
	data, _ := json.Marshal(resp.Data)
	var stats models.StatsResponse
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.TotalAccounts != 1 || stats.TotalBreached != 1 {
		t.Errorf("stats = %+v, want 1 account and 1 breached", stats)
	}
}

func signTestToken(t *testing.T, secret []byte, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": exp.Unix(),
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	secret := []byte("test-secret")
	ws, _ := newTestServer(t, &WebserverConfig{ListenTo: ":0", JwtSecret: secret})
	router := ws.InitRouter()

	// No token.
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("request without token returned %d, want 401", rec.Code)
	}

	// Expired token.
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, secret, time.Now().Add(-time.Hour)))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("request with expired token returned %d, want 401", rec.Code)
	}

	// Token signed with the wrong secret.
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, []byte("other-secret"), time.Now().Add(time.Hour)))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("request with forged token returned %d, want 401", rec.Code)
	}

	// Valid bearer token.
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, secret, time.Now().Add(time.Hour)))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("request with valid token returned %d, want 200", rec.Code)
	}

	// Valid token in the access_token cookie.
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: signTestToken(t, secret, time.Now().Add(time.Hour))})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("request with valid cookie token returned %d, want 200", rec.Code)
	}
}
