package model

import "strings"

// Log levels accepted at intake, ordered by ascending severity.
const (
	LevelDebug    = "DEBUG"
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

// Alert severities derived from log levels.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
)

// Levels lists the valid log levels in severity order.
var Levels = []string{LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical}

// ThreatLevels are the levels the threat analytics views consider.
var ThreatLevels = []string{LevelWarning, LevelError, LevelCritical}

var levelRank = map[string]int{
	LevelDebug:    0,
	LevelInfo:     1,
	LevelWarning:  2,
	LevelError:    3,
	LevelCritical: 4,
}

// IsValidLevel reports whether s is one of the five accepted levels.
// Matching is exact; normalization is the agent's job, not intake's.
func IsValidLevel(s string) bool {
	_, ok := levelRank[s]
	return ok
}

// LevelRank returns the severity rank of a level, -1 for unknown levels.
func LevelRank(s string) int {
	if r, ok := levelRank[s]; ok {
		return r
	}
	return -1
}

// NormalizeLevel converts common level spellings to the canonical five-value
// form. It is used for query parameters, never for intake payloads.
func NormalizeLevel(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "DBG", "TRACE":
		return LevelDebug
	case "INFO", "INF", "INFORMATION":
		return LevelInfo
	case "WARNING", "WARN", "WRN":
		return LevelWarning
	case "ERROR", "ERR":
		return LevelError
	case "CRITICAL", "CRIT", "FATAL":
		return LevelCritical
	default:
		return strings.ToUpper(strings.TrimSpace(s))
	}
}

// AlertSeverityFor maps a log level to the derived alert severity.
// Only ERROR and CRITICAL entries produce alerts.
func AlertSeverityFor(level string) (string, bool) {
	switch level {
	case LevelCritical:
		return SeverityCritical, true
	case LevelError:
		return SeverityHigh, true
	default:
		return "", false
	}
}
