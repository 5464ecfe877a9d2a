package analytics

import (
	"strconv"
	"time"

	"github.com/avfleet/avfleet/internal/model"
)

// ClientRef is the client snapshot embedded in list views.
type ClientRef struct {
	ClientID string     `json:"clientId,omitempty"`
	Hostname string     `json:"hostname"`
	Version  string     `json:"version,omitempty"`
	OS       string     `json:"os,omitempty"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// LogView is the external representation of one stored entry. Row ids are
// rendered as decimal strings so 64-bit values survive every JSON consumer.
type LogView struct {
	ID        string         `json:"id"`
	ClientID  string         `json:"clientId"`
	EventID   string         `json:"eventId"`
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Logger    string         `json:"logger"`
	Message   string         `json:"message"`
	Module    string         `json:"module,omitempty"`
	Function  string         `json:"function,omitempty"`
	Line      int            `json:"line,omitempty"`
	Component string         `json:"component,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Client    *ClientRef     `json:"client,omitempty"`
}

// AlertView is the external representation of one alert in a summary list.
type AlertView struct {
	ID          string     `json:"id"`
	Severity    string     `json:"severity"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Resolved    bool       `json:"resolved"`
	CreatedAt   time.Time  `json:"createdAt"`
	Client      *ClientRef `json:"client,omitempty"`
}

// TopClientView ranks one client by log volume, enriched with its current
// registry snapshot.
type TopClientView struct {
	ClientID string     `json:"clientId"`
	Count    int64      `json:"count"`
	Client   *ClientRef `json:"client,omitempty"`
}

// ThreatView is one keyword-matching entry in the threat patterns list.
type ThreatView struct {
	Message   string    `json:"message"`
	Level     string    `json:"level"`
	Component string    `json:"component,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	ClientID  string    `json:"clientId"`
}

// CriticalAlertView is one CRITICAL entry in the threat report.
type CriticalAlertView struct {
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Message   string     `json:"message"`
	Component string     `json:"component,omitempty"`
	Client    *ClientRef `json:"client,omitempty"`
}

// ClientView is one registry entry with derived liveness and activity stats.
type ClientView struct {
	model.Client
	Stats model.ClientStats `json:"stats"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func logView(e model.LogEntry) LogView {
	v := LogView{
		ID:        formatID(e.ID),
		ClientID:  e.ClientID,
		EventID:   e.EventID,
		Timestamp: e.Timestamp,
		Level:     e.Level,
		Logger:    e.Logger,
		Message:   e.Message,
		Module:    e.Module,
		Function:  e.Function,
		Line:      e.Line,
		Component: e.Component,
		Metadata:  e.Metadata,
	}
	if e.Hostname != "" || e.Version != "" || e.OS != "" {
		v.Client = &ClientRef{Hostname: e.Hostname, Version: e.Version, OS: e.OS}
	}
	return v
}

func alertView(a model.Alert, maxDescription int) AlertView {
	v := AlertView{
		ID:          formatID(a.ID),
		Severity:    a.Severity,
		Title:       a.Title,
		Description: Truncate(a.Description, maxDescription),
		Resolved:    a.Resolved,
		CreatedAt:   a.CreatedAt,
	}
	if a.ClientID != "" || a.Hostname != "" {
		v.Client = &ClientRef{ClientID: a.ClientID, Hostname: a.Hostname}
	}
	return v
}
