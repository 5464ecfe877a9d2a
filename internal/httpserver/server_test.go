package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avfleet/avfleet/internal/analytics"
	"github.com/avfleet/avfleet/internal/duckdb"
	"github.com/avfleet/avfleet/internal/intake"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler(t *testing.T, opts Options) http.Handler {
	t.Helper()
	store, err := duckdb.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := intake.NewService(store, store, store, nil)
	engine := analytics.NewEngine(store)

	srv := NewServer(opts, svc, engine, store, nil)
	srv.startTime = time.Now()
	return srv.Handler()
}

func ingestBody(t *testing.T, levels ...string) []byte {
	t.Helper()
	logs := make([]map[string]any, 0, len(levels))
	for _, level := range levels {
		logs = append(logs, map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"level":     level,
			"logger":    "scanner",
			"message":   "engine " + level,
		})
	}
	body, err := json.Marshal(map[string]any{
		"clientId": "desk-042",
		"hostname": "desk-042.corp",
		"version":  "2.1.0",
		"os":       "Windows 11",
		"logs":     logs,
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func doJSON(h http.Handler, method, path string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandleIngest(t *testing.T) {
	h := newTestHandler(t, Options{})

	rr := doJSON(h, http.MethodPost, "/logs", ingestBody(t, "INFO", "ERROR"), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["success"] != true {
		t.Errorf("success = %v, want true", resp["success"])
	}
	if resp["message"] != "2 logs processed successfully" {
		t.Errorf("message = %v", resp["message"])
	}
	if resp["clientId"] != "desk-042" {
		t.Errorf("clientId = %v, want desk-042", resp["clientId"])
	}
}

func TestHandleIngestAPIAlias(t *testing.T) {
	h := newTestHandler(t, Options{})

	rr := doJSON(h, http.MethodPost, "/api/logs", ingestBody(t, "INFO"), nil)
	if rr.Code != http.StatusOK {
		t.Errorf("/api/logs status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleIngestValidationError(t *testing.T) {
	h := newTestHandler(t, Options{})

	body := []byte(`{"clientId":"desk-042","hostname":"h","version":"1","os":"w","logs":[{"timestamp":"2026-08-29T10:00:00Z","level":"NOISE","logger":"scanner","message":"x"}]}`)
	rr := doJSON(h, http.MethodPost, "/logs", body, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Error   string `json:"error"`
		Details []struct {
			Field  string `json:"field"`
			Detail string `json:"detail"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error != "Validation Error" {
		t.Errorf("error = %q, want \"Validation Error\"", resp.Error)
	}
	if len(resp.Details) == 0 || resp.Details[0].Field != "logs[0].level" {
		t.Errorf("details = %+v, want logs[0].level violation", resp.Details)
	}
}

func TestHandleIngestMalformedJSON(t *testing.T) {
	h := newTestHandler(t, Options{})

	rr := doJSON(h, http.MethodPost, "/logs", []byte(`{not json`), nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHandleQueryLogs(t *testing.T) {
	h := newTestHandler(t, Options{})

	if rr := doJSON(h, http.MethodPost, "/logs", ingestBody(t, "INFO", "ERROR", "INFO"), nil); rr.Code != http.StatusOK {
		t.Fatalf("seed ingest failed: %d", rr.Code)
	}

	rr := doJSON(h, http.MethodGet, "/logs?level=ERROR&limit=10", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Logs []struct {
			ID    string `json:"id"`
			Level string `json:"level"`
		} `json:"logs"`
		Pagination struct {
			TotalCount int `json:"totalCount"`
			Limit      int `json:"limit"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Pagination.TotalCount != 1 || len(resp.Logs) != 1 {
		t.Fatalf("got %d/%d entries, want 1/1", len(resp.Logs), resp.Pagination.TotalCount)
	}
	if resp.Logs[0].Level != "ERROR" {
		t.Errorf("level = %q, want ERROR", resp.Logs[0].Level)
	}
	if resp.Logs[0].ID == "" {
		t.Error("id must be a decimal string")
	}
}

func TestHandleDashboard(t *testing.T) {
	h := newTestHandler(t, Options{})

	if rr := doJSON(h, http.MethodPost, "/logs", ingestBody(t, "INFO", "CRITICAL"), nil); rr.Code != http.StatusOK {
		t.Fatalf("seed ingest failed: %d", rr.Code)
	}

	rr := doJSON(h, http.MethodGet, "/dashboard?timeframe=24h", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Overview struct {
			TotalLogs      int64 `json:"totalLogs"`
			CriticalAlerts int64 `json:"criticalAlerts"`
		} `json:"overview"`
		TimeRange string `json:"timeRange"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Overview.TotalLogs != 2 {
		t.Errorf("totalLogs = %d, want 2", resp.Overview.TotalLogs)
	}
	if resp.Overview.CriticalAlerts != 1 {
		t.Errorf("criticalAlerts = %d, want 1 (derived from the CRITICAL entry)", resp.Overview.CriticalAlerts)
	}
	if resp.TimeRange != "24h" {
		t.Errorf("timeRange = %q, want 24h", resp.TimeRange)
	}
}

func TestHandleThreats(t *testing.T) {
	h := newTestHandler(t, Options{})

	rr := doJSON(h, http.MethodGet, "/threats", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleClients(t *testing.T) {
	h := newTestHandler(t, Options{})

	if rr := doJSON(h, http.MethodPost, "/logs", ingestBody(t, "INFO"), nil); rr.Code != http.StatusOK {
		t.Fatalf("seed ingest failed: %d", rr.Code)
	}

	rr := doJSON(h, http.MethodGet, "/clients", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Clients []struct {
			ClientID string `json:"clientId"`
			Stats    struct {
				Status string `json:"status"`
			} `json:"stats"`
		} `json:"clients"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Total != 1 || resp.Clients[0].ClientID != "desk-042" {
		t.Errorf("clients = %+v", resp)
	}
	if resp.Clients[0].Stats.Status != "online" {
		t.Errorf("status = %q, want online right after ingest", resp.Clients[0].Stats.Status)
	}
}

func TestHandleHealth(t *testing.T) {
	h := newTestHandler(t, Options{})

	rr := doJSON(h, http.MethodGet, "/health", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["status"] != "ok" || resp["database"] != "connected" {
		t.Errorf("health = %v", resp)
	}
}

func TestServeLifecycle(t *testing.T) {
	store, err := duckdb.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := intake.NewService(store, store, store, nil)
	engine := analytics.NewEngine(store)
	srv := NewServer(Options{Addr: "127.0.0.1:0"}, svc, engine, store, nil)

	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := srv.listener.Addr().String()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	// The bound server must answer requests while Serve is running.
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, herr := http.Get("http://" + addr + "/health")
		if herr == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never became reachable: %v", herr)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case err := <-serveErr:
		if err != nil {
			t.Errorf("Serve returned %v after Stop, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}

func TestAPIKeyRequired(t *testing.T) {
	h := newTestHandler(t, Options{APIKey: "sekrit"})

	rr := doJSON(h, http.MethodGet, "/logs", nil, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("without key: status = %d, want 401", rr.Code)
	}

	rr = doJSON(h, http.MethodGet, "/logs", nil, map[string]string{"x-api-key": "wrong"})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", rr.Code)
	}

	rr = doJSON(h, http.MethodGet, "/logs", nil, map[string]string{"x-api-key": "sekrit"})
	if rr.Code != http.StatusOK {
		t.Errorf("right key: status = %d, want 200", rr.Code)
	}

	// Health stays open for probes.
	rr = doJSON(h, http.MethodGet, "/health", nil, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("health without key: status = %d, want 200", rr.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	h := newTestHandler(t, Options{})

	rr := doJSON(h, http.MethodGet, "/health", nil, nil)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	rr = doJSON(h, http.MethodOptions, "/logs", nil, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("preflight status = %d, want 200", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); got == "" {
		t.Error("preflight missing Access-Control-Allow-Headers")
	}
}

func TestThreatsRateLimit(t *testing.T) {
	h := newTestHandler(t, Options{ThreatRequestsPerHour: 2})

	for i := 0; i < 2; i++ {
		rr := doJSON(h, http.MethodGet, "/threats", nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rr.Code)
		}
	}

	rr := doJSON(h, http.MethodGet, "/threats", nil, nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 after exhausting the quota", rr.Code)
	}

	// Other endpoints are not limited.
	rr = doJSON(h, http.MethodGet, "/dashboard", nil, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("dashboard status = %d, want 200 (unlimited)", rr.Code)
	}
}

func TestCallerLimiterIsolation(t *testing.T) {
	l := newCallerLimiter(1, time.Hour)

	if !l.allow("alice") {
		t.Fatal("alice's first request should pass")
	}
	if l.allow("alice") {
		t.Error("alice's second request should be limited")
	}
	if !l.allow("bob") {
		t.Error("bob gets a separate bucket and should pass")
	}
}
