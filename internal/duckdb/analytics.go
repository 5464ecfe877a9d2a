package duckdb

import (
	"log"
	"sort"
	"strings"
	"time"
)

// CountLogsBetween returns total entries with event time inside [start, end].
func (s *Store) CountLogsBetween(start, end time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM log_entries WHERE timestamp >= ? AND timestamp <= ?`,
		start.UTC(), end.UTC()).Scan(&count)
	return count, err
}

// LevelCounts returns entry counts grouped by level within the window.
func (s *Store) LevelCounts(start, end time.Time) ([]LevelCount, error) {
	return s.levelCounts(nil, start, end)
}

// LevelCountsIn restricts the grouped counts to the given levels,
// ordered by descending count.
func (s *Store) LevelCountsIn(levels []string, start, end time.Time) ([]LevelCount, error) {
	return s.levelCounts(levels, start, end)
}

func (s *Store) levelCounts(levels []string, start, end time.Time) ([]LevelCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	query := `SELECT l.level, COUNT(*) AS count FROM log_entries l
		WHERE l.timestamp >= ? AND l.timestamp <= ?`
	args := []any{start.UTC(), end.UTC()}
	if len(levels) > 0 {
		clause, lvlArgs := levelIn(levels)
		query += " AND " + clause
		args = append(args, lvlArgs...)
	}
	query += ` GROUP BY l.level ORDER BY count DESC, l.level ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []LevelCount
	for rows.Next() {
		var lc LevelCount
		if err := rows.Scan(&lc.Level, &lc.Count); err != nil {
			log.Printf("duckdb scan error (LevelCounts): %v", err)
			continue
		}
		results = append(results, lc)
	}
	return results, rows.Err()
}

// ComponentCounts returns the top components by entry count within the
// window. Entries without a component are excluded.
func (s *Store) ComponentCounts(start, end time.Time, limit int) ([]ComponentCount, error) {
	return s.componentCounts(nil, start, end, limit)
}

// ComponentCountsIn restricts the component ranking to the given levels.
func (s *Store) ComponentCountsIn(levels []string, start, end time.Time, limit int) ([]ComponentCount, error) {
	return s.componentCounts(levels, start, end, limit)
}

func (s *Store) componentCounts(levels []string, start, end time.Time, limit int) ([]ComponentCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	query := `SELECT l.component, COUNT(*) AS count FROM log_entries l
		WHERE l.timestamp >= ? AND l.timestamp <= ?
		AND l.component IS NOT NULL AND l.component != ''`
	args := []any{start.UTC(), end.UTC()}
	if len(levels) > 0 {
		clause, lvlArgs := levelIn(levels)
		query += " AND " + clause
		args = append(args, lvlArgs...)
	}
	query += ` GROUP BY l.component ORDER BY count DESC, l.component ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ComponentCount
	for rows.Next() {
		var cc ComponentCount
		if err := rows.Scan(&cc.Component, &cc.Count); err != nil {
			log.Printf("duckdb scan error (ComponentCounts): %v", err)
			continue
		}
		results = append(results, cc)
	}
	return results, rows.Err()
}

// HourlyActivity returns per-hour totals with error/critical breakdowns,
// ascending by hour, keeping only the most recent `limit` buckets.
func (s *Store) HourlyActivity(start, end time.Time, limit int) ([]HourBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT date_trunc('hour', timestamp) AS hour,
			COUNT(*) AS count,
			SUM(CASE WHEN level = 'ERROR' THEN 1 ELSE 0 END) AS errors,
			SUM(CASE WHEN level = 'CRITICAL' THEN 1 ELSE 0 END) AS critical
		FROM log_entries
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY hour
		ORDER BY hour DESC
		LIMIT ?`, start.UTC(), end.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []HourBucket
	for rows.Next() {
		var hb HourBucket
		if err := rows.Scan(&hb.Hour, &hb.Count, &hb.Errors, &hb.Critical); err != nil {
			log.Printf("duckdb scan error (HourlyActivity): %v", err)
			continue
		}
		results = append(results, hb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The query selects the most recent buckets; present them ascending.
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

// ThreatTimeline returns hourly buckets restricted to WARNING/ERROR/CRITICAL
// entries, ascending by hour.
func (s *Store) ThreatTimeline(start, end time.Time) ([]ThreatBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT date_trunc('hour', timestamp) AS hour,
			SUM(CASE WHEN level = 'ERROR' THEN 1 ELSE 0 END) AS errors,
			SUM(CASE WHEN level = 'WARNING' THEN 1 ELSE 0 END) AS warnings,
			SUM(CASE WHEN level = 'CRITICAL' THEN 1 ELSE 0 END) AS critical,
			COUNT(*) AS total
		FROM log_entries
		WHERE timestamp >= ? AND timestamp <= ?
		AND level IN ('WARNING', 'ERROR', 'CRITICAL')
		GROUP BY hour
		ORDER BY hour ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ThreatBucket
	for rows.Next() {
		var tb ThreatBucket
		if err := rows.Scan(&tb.Hour, &tb.Error, &tb.Warning, &tb.Critical, &tb.Total); err != nil {
			log.Printf("duckdb scan error (ThreatTimeline): %v", err)
			continue
		}
		results = append(results, tb)
	}
	return results, rows.Err()
}

// TopClients ranks clients by entry count within the window.
func (s *Store) TopClients(start, end time.Time, limit int) ([]ClientVolume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT client_id, COUNT(*) AS count
		FROM log_entries
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY client_id
		ORDER BY count DESC, client_id ASC
		LIMIT ?`, start.UTC(), end.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ClientVolume
	for rows.Next() {
		var cv ClientVolume
		if err := rows.Scan(&cv.ClientID, &cv.Count); err != nil {
			log.Printf("duckdb scan error (TopClients): %v", err)
			continue
		}
		results = append(results, cv)
	}
	return results, rows.Err()
}

// KeywordCounts returns per-keyword case-insensitive substring match counts
// over messages in the window, optionally restricted to the given levels.
// Zero-count keywords are omitted; results are sorted by descending count
// with the input keyword order as the stable tie-break.
func (s *Store) KeywordCounts(keywords []string, levels []string, start, end time.Time) ([]KeywordCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	query := `SELECT COUNT(*) FROM log_entries l
		WHERE l.timestamp >= ? AND l.timestamp <= ?
		AND lower(l.message) LIKE ?`
	var lvlClause string
	var lvlArgs []any
	if len(levels) > 0 {
		lvlClause, lvlArgs = levelIn(levels)
		query += " AND " + lvlClause
	}

	var results []KeywordCount
	for _, kw := range keywords {
		pattern := "%" + strings.ToLower(kw) + "%"
		args := append([]any{start.UTC(), end.UTC(), pattern}, lvlArgs...)

		var count int64
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
			return nil, err
		}
		if count > 0 {
			results = append(results, KeywordCount{Keyword: kw, Count: count})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Count > results[j].Count })
	return results, nil
}

// EntriesMatchingKeywords returns the newest entries whose message contains
// any of the keywords, case-insensitively.
func (s *Store) EntriesMatchingKeywords(keywords []string, start, end time.Time, limit int) ([]LogEntry, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	matches := make([]string, len(keywords))
	args := []any{start.UTC(), end.UTC()}
	for i, kw := range keywords {
		matches[i] = "lower(l.message) LIKE ?"
		args = append(args, "%"+strings.ToLower(kw)+"%")
	}
	args = append(args, limit)

	query := `SELECT l.id, l.client_id, l.event_id, l.timestamp, l.level, l.logger, l.message,
			COALESCE(l.component, '')
		FROM log_entries l
		WHERE l.timestamp >= ? AND l.timestamp <= ?
		AND (` + strings.Join(matches, " OR ") + `)
		ORDER BY l.timestamp DESC, l.id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.ClientID, &e.EventID, &e.Timestamp, &e.Level, &e.Logger, &e.Message, &e.Component); err != nil {
			log.Printf("duckdb scan error (EntriesMatchingKeywords): %v", err)
			continue
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// CriticalEntries returns the newest CRITICAL entries in the window, each
// with the owning client's hostname snapshot.
func (s *Store) CriticalEntries(start, end time.Time, limit int) ([]LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT l.id, l.client_id, l.event_id, l.timestamp, l.level, l.logger, l.message,
			COALESCE(l.component, ''), COALESCE(c.hostname, '')
		FROM log_entries l
		LEFT JOIN clients c ON c.client_id = l.client_id
		WHERE l.timestamp >= ? AND l.timestamp <= ? AND l.level = 'CRITICAL'
		ORDER BY l.timestamp DESC, l.id DESC
		LIMIT ?`, start.UTC(), end.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.ClientID, &e.EventID, &e.Timestamp, &e.Level, &e.Logger, &e.Message, &e.Component, &e.Hostname); err != nil {
			log.Printf("duckdb scan error (CriticalEntries): %v", err)
			continue
		}
		results = append(results, e)
	}
	return results, rows.Err()
}
