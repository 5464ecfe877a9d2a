package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/avfleet/avfleet/internal/model"
)

// TimelineBuckets caps the hourly activity chart at one day of buckets even
// when the requested window is longer.
const TimelineBuckets = 24

// Engine computes time-windowed rollups on demand. It holds no state beyond
// the store handle; every report is derived fresh from the persisted data.
type Engine struct {
	store model.Store
	now   func() time.Time
}

// NewEngine creates an aggregation engine over the given store.
func NewEngine(store model.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// Overview is the dashboard summary block.
type Overview struct {
	TotalClients   int64  `json:"totalClients"`
	ActiveClients  int64  `json:"activeClients"`
	TotalLogs      int64  `json:"totalLogs"`
	CriticalAlerts int64  `json:"criticalAlerts"`
	HighAlerts     int64  `json:"highAlerts"`
	Trends         Trends `json:"trends"`
}

// Trends reports percentage change versus the preceding window.
type Trends struct {
	LogsTrend float64 `json:"logsTrend"`
}

// Charts bundles the dashboard chart series.
type Charts struct {
	LogsByLevel     []model.LevelCount     `json:"logsByLevel"`
	LogsByComponent []model.ComponentCount `json:"logsByComponent"`
	HourlyActivity  []model.HourBucket     `json:"hourlyActivity"`
	TopClients      []TopClientView        `json:"topClients"`
}

// DashboardReport is the full GET /dashboard response body.
type DashboardReport struct {
	Overview     Overview    `json:"overview"`
	Charts       Charts      `json:"charts"`
	RecentAlerts []AlertView `json:"recentAlerts"`
	TimeRange    string      `json:"timeRange"`
	GeneratedAt  time.Time   `json:"generatedAt"`
}

// Dashboard assembles the summary, distribution, timeline, top-client and
// recent-alert views for one window.
func (e *Engine) Dashboard(timeframe string) (*DashboardReport, error) {
	now := e.now()
	window, token := ResolveWindow(timeframe, now)

	totalClients, err := e.store.CountClients()
	if err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}
	activeClients, err := e.store.CountOnlineClients(now.Add(-model.OnlineThreshold))
	if err != nil {
		return nil, fmt.Errorf("count online clients: %w", err)
	}
	totalLogs, err := e.store.CountLogsBetween(window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("count logs: %w", err)
	}
	criticalAlerts, err := e.store.UnresolvedAlertCount(model.SeverityCritical, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("count critical alerts: %w", err)
	}
	highAlerts, err := e.store.UnresolvedAlertCount(model.SeverityHigh, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("count high alerts: %w", err)
	}

	byLevel, err := e.store.LevelCounts(window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("level counts: %w", err)
	}
	byComponent, err := e.store.ComponentCounts(window.Start, window.End, 10)
	if err != nil {
		return nil, fmt.Errorf("component counts: %w", err)
	}
	hourly, err := e.store.HourlyActivity(window.Start, window.End, TimelineBuckets)
	if err != nil {
		return nil, fmt.Errorf("hourly activity: %w", err)
	}

	topClients, err := e.topClients(window, 5)
	if err != nil {
		return nil, err
	}

	alerts, err := e.store.RecentAlerts(window.Start, window.End, 10)
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	alertViews := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		alertViews = append(alertViews, alertView(a, ListDisplayLen))
	}

	trend, err := e.logsTrend(window, totalLogs)
	if err != nil {
		return nil, err
	}

	return &DashboardReport{
		Overview: Overview{
			TotalClients:   totalClients,
			ActiveClients:  activeClients,
			TotalLogs:      totalLogs,
			CriticalAlerts: criticalAlerts,
			HighAlerts:     highAlerts,
			Trends:         Trends{LogsTrend: trend},
		},
		Charts: Charts{
			LogsByLevel:     byLevel,
			LogsByComponent: byComponent,
			HourlyActivity:  hourly,
			TopClients:      topClients,
		},
		RecentAlerts: alertViews,
		TimeRange:    token,
		GeneratedAt:  now.UTC(),
	}, nil
}

// topClients ranks clients by volume and enriches each with its current
// registry snapshot.
func (e *Engine) topClients(window Window, limit int) ([]TopClientView, error) {
	volumes, err := e.store.TopClients(window.Start, window.End, limit)
	if err != nil {
		return nil, fmt.Errorf("top clients: %w", err)
	}

	views := make([]TopClientView, 0, len(volumes))
	for _, v := range volumes {
		view := TopClientView{ClientID: v.ClientID, Count: v.Count}
		client, ok, err := e.store.GetClient(v.ClientID)
		if err != nil {
			return nil, fmt.Errorf("client snapshot %s: %w", v.ClientID, err)
		}
		if ok {
			lastSeen := client.LastSeen
			view.Client = &ClientRef{
				Hostname: client.Hostname,
				Version:  client.Version,
				OS:       client.OS,
				LastSeen: &lastSeen,
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// logsTrend computes the percentage change of the current window's count
// versus the immediately preceding window of equal length. A zero previous
// count reports 0 by policy, never a division error.
func (e *Engine) logsTrend(window Window, current int64) (float64, error) {
	prev := window.Previous()
	previous, err := e.store.CountLogsBetween(prev.Start, prev.End)
	if err != nil {
		return 0, fmt.Errorf("previous window count: %w", err)
	}
	if previous == 0 {
		return 0, nil
	}
	trend := (float64(current-previous) / float64(previous)) * 100
	return math.Round(trend*100) / 100, nil
}
