package duckdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// filterClauses translates a LogFilter into WHERE conditions and args.
func filterClauses(f LogFilter) (conditions []string, args []any) {
	if f.Level != "" {
		conditions = append(conditions, "l.level = ?")
		args = append(args, f.Level)
	}
	if f.ClientID != "" {
		conditions = append(conditions, "l.client_id = ?")
		args = append(args, f.ClientID)
	}
	if f.Component != "" {
		conditions = append(conditions, "l.component = ?")
		args = append(args, f.Component)
	}
	return conditions, args
}

// QueryLogs returns one page of entries matching the filter, newest first,
// together with the total count over the same predicate. Each entry carries
// the owning client's hostname/version/os snapshot.
func (s *Store) QueryLogs(filter LogFilter, page PageOpts) ([]LogEntry, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	conditions, args := filterClauses(filter)
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM log_entries l" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page.Page - 1) * page.Limit
	query := `SELECT l.id, l.client_id, l.event_id, l.timestamp, l.level, l.logger, l.message,
			COALESCE(l.module, ''), COALESCE(l.function, ''), COALESCE(l.line, 0), COALESCE(l.component, ''), l.metadata,
			COALESCE(c.hostname, ''), COALESCE(c.version, ''), COALESCE(c.os, '')
		FROM log_entries l
		LEFT JOIN clients c ON c.client_id = l.client_id` + where + `
		ORDER BY l.timestamp DESC, l.id DESC
		LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, append(args, page.Limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []LogEntry
	for rows.Next() {
		var e LogEntry
		var metadata sql.NullString
		if err := rows.Scan(&e.ID, &e.ClientID, &e.EventID, &e.Timestamp, &e.Level, &e.Logger, &e.Message,
			&e.Module, &e.Function, &e.Line, &e.Component, &metadata,
			&e.Hostname, &e.Version, &e.OS); err != nil {
			log.Printf("duckdb scan error (QueryLogs): %v", err)
			continue
		}
		if metadata.Valid && metadata.String != "" {
			e.Metadata = parseMetadata(metadata.String)
		}
		results = append(results, e)
	}
	return results, total, rows.Err()
}

// parseMetadata decodes a stored metadata JSON document. A document that no
// longer parses is surfaced as a single raw field rather than dropped.
func parseMetadata(raw string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]any{"raw": raw}
	}
	return m
}

// placeholders returns "?, ?, ..." for n args.
func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ", ")
}

// levelIn returns an "l.level IN (...)" fragment and its args.
func levelIn(levels []string) (string, []any) {
	args := make([]any, len(levels))
	for i, lvl := range levels {
		args[i] = lvl
	}
	return fmt.Sprintf("l.level IN (%s)", placeholders(len(levels))), args
}
