package duckdb

import (
	"errors"
	"log"
	"time"
)

// ErrMissingLogEntry indicates an alert referenced an event id with no
// persisted log entry behind it. Callers treat this as a non-fatal skip.
var ErrMissingLogEntry = errors.New("duckdb: referenced log entry does not exist")

// InsertAlert persists one derived alert. The insert only succeeds when the
// referenced log entry exists, so an alert can never point at nothing.
func (s *Store) InsertAlert(a *Alert) error {
	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
		a.CreatedAt = createdAt
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO alerts (log_event_id, severity, title, description, resolved, created_at)
		SELECT ?, ?, ?, ?, false, ?
		WHERE EXISTS (SELECT 1 FROM log_entries WHERE event_id = ?)`,
		a.LogEventID, a.Severity, a.Title, a.Description, createdAt.UTC(), a.LogEventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMissingLogEntry
	}
	return nil
}

// UnresolvedAlertCount returns unresolved alerts of one severity created
// within the window.
func (s *Store) UnresolvedAlertCount(severity string, start, end time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts
		WHERE severity = ? AND resolved = false AND created_at >= ? AND created_at <= ?`,
		severity, start.UTC(), end.UTC()).Scan(&count)
	return count, err
}

// RecentAlerts returns the newest alerts in the window, each joined with the
// triggering entry's client context.
func (s *Store) RecentAlerts(start, end time.Time, limit int) ([]Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT a.id, a.log_event_id, a.severity, a.title, a.description, a.resolved, a.created_at,
			COALESCE(l.client_id, ''), COALESCE(c.hostname, '')
		FROM alerts a
		LEFT JOIN log_entries l ON l.event_id = a.log_event_id
		LEFT JOIN clients c ON c.client_id = l.client_id
		WHERE a.created_at >= ? AND a.created_at <= ?
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ?`, start.UTC(), end.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.LogEventID, &a.Severity, &a.Title, &a.Description, &a.Resolved, &a.CreatedAt, &a.ClientID, &a.Hostname); err != nil {
			log.Printf("duckdb scan error (RecentAlerts): %v", err)
			continue
		}
		results = append(results, a)
	}
	return results, rows.Err()
}
