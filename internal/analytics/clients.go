package analytics

import (
	"fmt"

	"github.com/avfleet/avfleet/internal/model"
)

// Client status strings derived from lastSeen recency.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// ClientsReport is the full GET /clients response body.
type ClientsReport struct {
	Clients   []ClientView `json:"clients"`
	Total     int          `json:"total"`
	TimeRange string       `json:"timeRange"`
}

// Clients lists registered agents with per-client activity stats over the
// window and a liveness status derived from lastSeen. A positive limit caps
// the number of clients returned; zero means all.
func (e *Engine) Clients(timeframe string, includeInactive bool, limit int) (*ClientsReport, error) {
	now := e.now()
	window, token := ResolveWindow(timeframe, now)

	clients, err := e.store.ListClients(includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	if limit > 0 && len(clients) > limit {
		clients = clients[:limit]
	}

	views := make([]ClientView, 0, len(clients))
	for _, c := range clients {
		stats, err := e.store.ClientLogStats(c.ClientID, window.Start)
		if err != nil {
			return nil, fmt.Errorf("client stats %s: %w", c.ClientID, err)
		}
		if now.Sub(c.LastSeen) < model.OnlineThreshold {
			stats.Status = StatusOnline
		} else {
			stats.Status = StatusOffline
		}
		views = append(views, ClientView{Client: c, Stats: stats})
	}

	return &ClientsReport{
		Clients:   views,
		Total:     len(views),
		TimeRange: token,
	}, nil
}
