package model

import "time"

// Client represents a registered antivirus installation reporting logs.
// Clients are created on first contact and upserted on every batch; they are
// never hard-deleted, only deactivated.
type Client struct {
	ClientID  string    `json:"clientId"`
	Hostname  string    `json:"hostname"`
	Version   string    `json:"version"`
	OS        string    `json:"os"`
	LastSeen  time.Time `json:"lastSeen"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LogEntry is one persisted log record. Entries are immutable once stored.
// EventID is assigned at intake time and is the stable reference alerts use
// to link back to their triggering entry.
type LogEntry struct {
	ID        int64
	ClientID  string
	EventID   string
	Timestamp time.Time
	Level     string
	Logger    string
	Message   string
	Module    string
	Function  string
	Line      int
	Component string
	Metadata  map[string]any

	// Hostname/Version/OS carry the owning client's snapshot when the
	// entry was read with a client join; empty otherwise.
	Hostname string
	Version  string
	OS       string
}

// Alert is derived from exactly one ERROR or CRITICAL log entry.
type Alert struct {
	ID          int64
	LogEventID  string
	Severity    string // CRITICAL or HIGH
	Title       string
	Description string
	Resolved    bool
	CreatedAt   time.Time

	// Client context filled in by read queries that join through the entry.
	ClientID string
	Hostname string
}

// ClientStats holds per-client activity counters for the clients listing.
type ClientStats struct {
	TotalLogs    int64  `json:"totalLogs"`
	RecentLogs   int64  `json:"recentLogs"`
	CriticalLogs int64  `json:"criticalLogs"`
	ErrorLogs    int64  `json:"errorLogs"`
	Status       string `json:"status"` // online or offline
}

// LevelCount is a grouped count by log level.
type LevelCount struct {
	Level string `json:"level"`
	Count int64  `json:"count"`
}

// ComponentCount is a grouped count by component tag.
type ComponentCount struct {
	Component string `json:"component"`
	Count     int64  `json:"count"`
}

// HourBucket is one hourly activity bucket with error/critical breakdowns.
type HourBucket struct {
	Hour     time.Time `json:"hour"`
	Count    int64     `json:"count"`
	Errors   int64     `json:"errors"`
	Critical int64     `json:"critical"`
}

// ThreatBucket is one hourly bucket restricted to threat-relevant levels.
type ThreatBucket struct {
	Hour     time.Time `json:"timestamp"`
	Error    int64     `json:"ERROR"`
	Warning  int64     `json:"WARNING"`
	Critical int64     `json:"CRITICAL"`
	Total    int64     `json:"total"`
}

// ClientVolume ranks a client by log count within a window.
type ClientVolume struct {
	ClientID string
	Count    int64
}

// KeywordCount is a per-keyword threat pattern match count.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int64  `json:"count"`
}

// LogFilter holds the AND-combined exact-match filters for log queries.
// Empty fields impose no constraint.
type LogFilter struct {
	Level     string
	ClientID  string
	Component string
}

// PageOpts holds 1-based pagination parameters.
type PageOpts struct {
	Page  int
	Limit int
}

// Pagination is the metadata block returned alongside paged results.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	Limit       int   `json:"limit"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}
