package model

import "time"

// ClientRegistry tracks known reporting agents and their liveness.
type ClientRegistry interface {
	// UpsertClient creates the client on first sight and refreshes the
	// mutable fields plus lastSeen on every subsequent call. Last writer
	// wins on concurrent upserts of the same client.
	UpsertClient(clientID, hostname, version, os string) (Client, error)
	ListClients(includeInactive bool) ([]Client, error)
	CountClients() (int64, error)
	CountOnlineClients(seenAfter time.Time) (int64, error)
}

// LogWriter provides append-oriented write operations for validated entries.
type LogWriter interface {
	// InsertLogBatch persists the entries and returns how many were
	// actually stored, which may be less than len(entries) when
	// individual records are unsalvageable.
	InsertLogBatch(entries []*LogEntry) (int, error)
}

// LogQuerier provides filtered, paginated log retrieval.
type LogQuerier interface {
	QueryLogs(filter LogFilter, page PageOpts) ([]LogEntry, int64, error)
	ClientLogStats(clientID string, since time.Time) (ClientStats, error)
}

// AlertWriter persists derived alerts.
type AlertWriter interface {
	InsertAlert(a *Alert) error
}

// AlertQuerier provides windowed alert reads.
type AlertQuerier interface {
	UnresolvedAlertCount(severity string, start, end time.Time) (int64, error)
	RecentAlerts(start, end time.Time, limit int) ([]Alert, error)
}

// AnalyticsQuerier provides the windowed rollups the aggregation engine
// composes into dashboard and threat reports.
type AnalyticsQuerier interface {
	CountLogsBetween(start, end time.Time) (int64, error)
	LevelCounts(start, end time.Time) ([]LevelCount, error)
	LevelCountsIn(levels []string, start, end time.Time) ([]LevelCount, error)
	ComponentCounts(start, end time.Time, limit int) ([]ComponentCount, error)
	ComponentCountsIn(levels []string, start, end time.Time, limit int) ([]ComponentCount, error)
	HourlyActivity(start, end time.Time, limit int) ([]HourBucket, error)
	ThreatTimeline(start, end time.Time) ([]ThreatBucket, error)
	TopClients(start, end time.Time, limit int) ([]ClientVolume, error)
	KeywordCounts(keywords []string, levels []string, start, end time.Time) ([]KeywordCount, error)
	EntriesMatchingKeywords(keywords []string, start, end time.Time, limit int) ([]LogEntry, error)
	CriticalEntries(start, end time.Time, limit int) ([]LogEntry, error)
	GetClient(clientID string) (Client, bool, error)
}

// Store is the full persistence contract the service wires together.
type Store interface {
	ClientRegistry
	LogWriter
	LogQuerier
	AlertWriter
	AlertQuerier
	AnalyticsQuerier
	Ping() error
}
