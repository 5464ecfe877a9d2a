package analytics

import (
	"testing"
	"time"

	"github.com/avfleet/avfleet/internal/duckdb"
	"github.com/avfleet/avfleet/internal/model"
)

func newTestEngine(t *testing.T, now time.Time) (*Engine, *duckdb.Store) {
	t.Helper()
	store, err := duckdb.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	engine := NewEngine(store)
	engine.now = func() time.Time { return now }
	return engine, store
}

func seed(t *testing.T, store *duckdb.Store, clientID string, entries []*model.LogEntry) {
	t.Helper()
	if _, err := store.UpsertClient(clientID, clientID+"-host", "2.1.0", "Windows 11"); err != nil {
		t.Fatalf("UpsertClient: %v", err)
	}
	if len(entries) == 0 {
		return
	}
	if _, err := store.InsertLogBatch(entries); err != nil {
		t.Fatalf("InsertLogBatch: %v", err)
	}
}

func entryAt(clientID, level, message string, ts time.Time) *model.LogEntry {
	return &model.LogEntry{
		ClientID:  clientID,
		EventID:   model.NextEventID(),
		Timestamp: ts,
		Level:     level,
		Logger:    "scanner",
		Message:   message,
	}
}

func TestDashboard(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	engine, store := newTestEngine(t, now)

	// Three entries in the 24h window, one outside it at -2d.
	seed(t, store, "desk-1", []*model.LogEntry{
		entryAt("desk-1", "INFO", "scan ok", now.Add(-30*time.Minute)),
		entryAt("desk-1", "ERROR", "engine fault", now.Add(-2*time.Hour)),
		entryAt("desk-1", "CRITICAL", "ransomware hit", now.Add(-3*time.Hour)),
		entryAt("desk-1", "INFO", "ancient", now.Add(-48*time.Hour)),
	})

	report, err := engine.Dashboard("24h")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if report.TimeRange != "24h" {
		t.Errorf("TimeRange = %q, want 24h", report.TimeRange)
	}
	if report.Overview.TotalLogs != 3 {
		t.Errorf("TotalLogs = %d, want 3 (window excludes the 2-day-old entry)", report.Overview.TotalLogs)
	}
	if report.Overview.TotalClients != 1 {
		t.Errorf("TotalClients = %d, want 1", report.Overview.TotalClients)
	}
	if len(report.Charts.LogsByLevel) == 0 {
		t.Error("LogsByLevel empty")
	}
	if len(report.Charts.TopClients) != 1 || report.Charts.TopClients[0].Count != 3 {
		t.Errorf("TopClients = %+v, want one client with count 3", report.Charts.TopClients)
	}
	if report.Charts.TopClients[0].Client == nil || report.Charts.TopClients[0].Client.Hostname != "desk-1-host" {
		t.Error("top client not enriched with registry snapshot")
	}
}

func TestDashboardTrend(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	engine, store := newTestEngine(t, now)

	// 3 entries this hour, 2 in the previous hour: trend = +50%.
	seed(t, store, "desk-1", []*model.LogEntry{
		entryAt("desk-1", "INFO", "a", now.Add(-10*time.Minute)),
		entryAt("desk-1", "INFO", "b", now.Add(-20*time.Minute)),
		entryAt("desk-1", "INFO", "c", now.Add(-30*time.Minute)),
		entryAt("desk-1", "INFO", "d", now.Add(-70*time.Minute)),
		entryAt("desk-1", "INFO", "e", now.Add(-80*time.Minute)),
	})

	report, err := engine.Dashboard("1h")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if report.Overview.Trends.LogsTrend != 50 {
		t.Errorf("LogsTrend = %v, want 50", report.Overview.Trends.LogsTrend)
	}
}

func TestDashboardTrendEmptyPreviousWindow(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	engine, store := newTestEngine(t, now)

	seed(t, store, "desk-1", []*model.LogEntry{
		entryAt("desk-1", "INFO", "only current", now.Add(-10*time.Minute)),
	})

	report, err := engine.Dashboard("1h")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if report.Overview.Trends.LogsTrend != 0 {
		t.Errorf("LogsTrend = %v, want 0 when the previous window is empty", report.Overview.Trends.LogsTrend)
	}
}

func TestThreats(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	engine, store := newTestEngine(t, now)

	seed(t, store, "desk-1", []*model.LogEntry{
		entryAt("desk-1", "WARNING", "Suspicious process spawned by office macro", now.Add(-time.Hour)),
		entryAt("desk-1", "ERROR", "trojan blocked in download folder", now.Add(-2*time.Hour)),
		entryAt("desk-1", "CRITICAL", "ransomware encryption attempt detected", now.Add(-30*time.Minute)),
		entryAt("desk-1", "INFO", "malware definitions updated", now.Add(-10*time.Minute)),
	})

	report, err := engine.Threats("24h")
	if err != nil {
		t.Fatalf("Threats: %v", err)
	}
	// INFO never counts toward threats even when it matches a keyword.
	if report.Summary.TotalThreats != 3 {
		t.Errorf("TotalThreats = %d, want 3", report.Summary.TotalThreats)
	}
	if report.Summary.CriticalThreats != 1 {
		t.Errorf("CriticalThreats = %d, want 1", report.Summary.CriticalThreats)
	}
	keywords := make(map[string]int64)
	for _, kc := range report.Patterns.Keywords {
		keywords[kc.Keyword] = kc.Count
	}
	if keywords["suspicious"] != 1 || keywords["trojan"] != 1 || keywords["ransomware"] != 1 {
		t.Errorf("keyword counts = %v", keywords)
	}
	if len(report.CriticalAlerts) != 1 {
		t.Fatalf("CriticalAlerts = %d, want 1", len(report.CriticalAlerts))
	}
	if report.CriticalAlerts[0].Client == nil || report.CriticalAlerts[0].Client.Hostname != "desk-1-host" {
		t.Error("critical alert missing client context")
	}
	if len(report.Timeline) == 0 {
		t.Error("Timeline empty")
	}
}

func TestClients(t *testing.T) {
	// Wall clock, because UpsertClient stamps lastSeen itself and the
	// online check compares against it.
	now := time.Now().UTC()
	engine, store := newTestEngine(t, now)

	seed(t, store, "desk-1", []*model.LogEntry{
		entryAt("desk-1", "ERROR", "fault", now.Add(-time.Hour)),
		entryAt("desk-1", "INFO", "fine", now.Add(-time.Hour)),
	})

	report, err := engine.Clients("24h", false, 0)
	if err != nil {
		t.Fatalf("Clients: %v", err)
	}
	if report.Total != 1 {
		t.Fatalf("Total = %d, want 1", report.Total)
	}
	c := report.Clients[0]
	if c.Stats.RecentLogs != 2 || c.Stats.ErrorLogs != 1 {
		t.Errorf("Stats = %+v, want 2 recent / 1 error", c.Stats)
	}
	if c.Stats.Status != StatusOnline {
		t.Errorf("Status = %q, want online", c.Stats.Status)
	}
}

func TestClientsOffline(t *testing.T) {
	now := time.Now().UTC().Add(time.Hour)
	engine, store := newTestEngine(t, now)

	seed(t, store, "stale", nil)

	report, err := engine.Clients("24h", false, 0)
	if err != nil {
		t.Fatalf("Clients: %v", err)
	}
	if report.Clients[0].Stats.Status != StatusOffline {
		t.Errorf("Status = %q, want offline an hour after lastSeen", report.Clients[0].Stats.Status)
	}
}

func TestDashboardWindowSelection(t *testing.T) {
	now := time.Now().UTC()
	engine, store := newTestEngine(t, now)

	seed(t, store, "desk-1", []*model.LogEntry{
		entryAt("desk-1", "INFO", "recent", now.Add(-30*time.Minute)),
		entryAt("desk-1", "INFO", "today", now.Add(-2*time.Hour)),
		entryAt("desk-1", "INFO", "old", now.Add(-48*time.Hour)),
	})

	for _, tc := range []struct {
		timeframe string
		want      int64
	}{
		{"1h", 1},
		{"24h", 2},
		{"7d", 3},
	} {
		report, err := engine.Dashboard(tc.timeframe)
		if err != nil {
			t.Fatalf("Dashboard(%q): %v", tc.timeframe, err)
		}
		if report.Overview.TotalLogs != tc.want {
			t.Errorf("TotalLogs(%s) = %d, want %d", tc.timeframe, report.Overview.TotalLogs, tc.want)
		}
	}
}

func TestQueryLogsPagination(t *testing.T) {
	now := time.Now().UTC()
	engine, store := newTestEngine(t, now)

	var entries []*model.LogEntry
	for i := 0; i < 7; i++ {
		entries = append(entries, entryAt("desk-1", "INFO", "tick", now.Add(time.Duration(i)*time.Second)))
	}
	seed(t, store, "desk-1", entries)

	page, err := engine.QueryLogs(model.LogFilter{}, model.PageOpts{Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("QueryLogs: %v", err)
	}
	if len(page.Logs) != 3 {
		t.Errorf("page 2 size = %d, want 3", len(page.Logs))
	}
	p := page.Pagination
	if p.TotalCount != 7 || p.TotalPages != 3 || p.CurrentPage != 2 {
		t.Errorf("Pagination = %+v, want total 7 / pages 3 / current 2", p)
	}
	if !p.HasNextPage || !p.HasPrevPage {
		t.Errorf("Pagination flags = %+v, want both true on a middle page", p)
	}
	if page.Logs[0].ID == "" {
		t.Error("view IDs must be decimal strings, not empty")
	}
}

func TestQueryLogsClamping(t *testing.T) {
	now := time.Now().UTC()
	engine, store := newTestEngine(t, now)
	seed(t, store, "desk-1", []*model.LogEntry{entryAt("desk-1", "INFO", "x", now)})

	page, err := engine.QueryLogs(model.LogFilter{}, model.PageOpts{Page: -3, Limit: 99999})
	if err != nil {
		t.Fatalf("QueryLogs: %v", err)
	}
	if page.Pagination.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want 1 after clamping", page.Pagination.CurrentPage)
	}
	if page.Pagination.Limit != model.MaxPageLimit {
		t.Errorf("Limit = %d, want %d after clamping", page.Pagination.Limit, model.MaxPageLimit)
	}

	page, err = engine.QueryLogs(model.LogFilter{}, model.PageOpts{})
	if err != nil {
		t.Fatalf("QueryLogs (defaults): %v", err)
	}
	if page.Pagination.Limit != model.DefaultPageLimit {
		t.Errorf("default Limit = %d, want %d", page.Pagination.Limit, model.DefaultPageLimit)
	}
}
