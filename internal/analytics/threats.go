package analytics

import (
	"fmt"

	"github.com/avfleet/avfleet/internal/model"
)

// ThreatKeywords are the substrings the pattern scan looks for in message
// text. Matching is case-insensitive.
var ThreatKeywords = []string{
	"malware", "virus", "keylogger", "suspicious", "blocked",
	"threat", "detected", "ransomware", "trojan", "spyware",
}

// ThreatSummary is the headline counters of the threat report.
type ThreatSummary struct {
	TotalThreats    int64 `json:"totalThreats"`
	CriticalThreats int   `json:"criticalThreats"`
}

// ThreatDistribution breaks threat-level entries down by level and component.
type ThreatDistribution struct {
	ByLevel     []model.LevelCount     `json:"byLevel"`
	ByComponent []model.ComponentCount `json:"byComponent"`
}

// ThreatPatterns carries the keyword hit counts plus the highest-signal
// matching entries.
type ThreatPatterns struct {
	Keywords   []model.KeywordCount `json:"keywords"`
	TopThreats []ThreatView         `json:"topThreats"`
}

// ThreatsReport is the full GET /threats response body.
type ThreatsReport struct {
	Summary        ThreatSummary        `json:"summary"`
	Distribution   ThreatDistribution   `json:"distribution"`
	Patterns       ThreatPatterns       `json:"patterns"`
	CriticalAlerts []CriticalAlertView  `json:"criticalAlerts"`
	Timeline       []model.ThreatBucket `json:"timeline"`
	TimeRange      string               `json:"timeRange"`
}

// Threats assembles the security-focused report for one window: counts of
// WARNING/ERROR/CRITICAL activity, keyword pattern hits, the most recent
// critical entries and an hourly timeline.
func (e *Engine) Threats(timeframe string) (*ThreatsReport, error) {
	now := e.now()
	window, token := ResolveWindow(timeframe, now)

	byLevel, err := e.store.LevelCountsIn(model.ThreatLevels, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("threat level counts: %w", err)
	}
	var total int64
	for _, lc := range byLevel {
		total += lc.Count
	}

	byComponent, err := e.store.ComponentCountsIn(model.ThreatLevels, window.Start, window.End, 10)
	if err != nil {
		return nil, fmt.Errorf("threat component counts: %w", err)
	}

	keywords, err := e.store.KeywordCounts(ThreatKeywords, model.ThreatLevels, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("keyword counts: %w", err)
	}

	matches, err := e.store.EntriesMatchingKeywords(ThreatKeywords, window.Start, window.End, 10)
	if err != nil {
		return nil, fmt.Errorf("keyword matches: %w", err)
	}
	topThreats := make([]ThreatView, 0, len(matches))
	for _, m := range matches {
		topThreats = append(topThreats, ThreatView{
			Message:   Truncate(m.Message, ThreatDisplayLen),
			Level:     m.Level,
			Component: m.Component,
			Timestamp: m.Timestamp,
			ClientID:  m.ClientID,
		})
	}

	critical, err := e.store.CriticalEntries(window.Start, window.End, 20)
	if err != nil {
		return nil, fmt.Errorf("critical entries: %w", err)
	}
	criticalViews := make([]CriticalAlertView, 0, len(critical))
	for _, c := range critical {
		view := CriticalAlertView{
			ID:        formatID(c.ID),
			Timestamp: c.Timestamp,
			Message:   Truncate(c.Message, AlertDisplayLen),
			Component: c.Component,
		}
		if c.ClientID != "" || c.Hostname != "" {
			view.Client = &ClientRef{ClientID: c.ClientID, Hostname: c.Hostname}
		}
		criticalViews = append(criticalViews, view)
	}

	timeline, err := e.store.ThreatTimeline(window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("threat timeline: %w", err)
	}

	return &ThreatsReport{
		Summary: ThreatSummary{
			TotalThreats:    total,
			CriticalThreats: len(critical),
		},
		Distribution: ThreatDistribution{
			ByLevel:     byLevel,
			ByComponent: byComponent,
		},
		Patterns: ThreatPatterns{
			Keywords:   keywords,
			TopThreats: topThreats,
		},
		CriticalAlerts: criticalViews,
		Timeline:       timeline,
		TimeRange:      token,
	}, nil
}
