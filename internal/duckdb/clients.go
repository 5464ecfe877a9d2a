package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"
)

// UpsertClient creates a client on first sight and refreshes the mutable
// fields plus last_seen on every subsequent call. The upsert itself is one
// atomic statement; last writer wins on concurrent calls for the same client.
func (s *Store) UpsertClient(clientID, hostname, version, os string) (Client, error) {
	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.Lock()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO clients (client_id, hostname, version, os, last_seen, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, true, ?, ?)
		ON CONFLICT (client_id) DO UPDATE SET
			hostname   = excluded.hostname,
			version    = excluded.version,
			os         = excluded.os,
			last_seen  = excluded.last_seen,
			is_active  = true,
			updated_at = excluded.updated_at`,
		clientID, hostname, version, os, now, now, now)
	s.mu.Unlock()
	if err != nil {
		return Client{}, fmt.Errorf("upsert client %s: %w", clientID, err)
	}

	c, ok, err := s.GetClient(clientID)
	if err != nil {
		return Client{}, err
	}
	if !ok {
		return Client{}, fmt.Errorf("upsert client %s: row not found after upsert", clientID)
	}
	return c, nil
}

// GetClient returns one client by id; the second return is false when the
// client is unknown. Absence is not an error.
func (s *Store) GetClient(clientID string) (Client, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var c Client
	err := s.db.QueryRowContext(ctx, `SELECT client_id, hostname, version, os, last_seen, is_active, created_at, updated_at
		FROM clients WHERE client_id = ?`, clientID).
		Scan(&c.ClientID, &c.Hostname, &c.Version, &c.OS, &c.LastSeen, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Client{}, false, nil
	}
	if err != nil {
		return Client{}, false, err
	}
	return c, true, nil
}

// ListClients returns clients ordered by most recently seen.
func (s *Store) ListClients(includeInactive bool) ([]Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	query := `SELECT client_id, hostname, version, os, last_seen, is_active, created_at, updated_at
		FROM clients`
	if !includeInactive {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY last_seen DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ClientID, &c.Hostname, &c.Version, &c.OS, &c.LastSeen, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			log.Printf("duckdb scan error (ListClients): %v", err)
			continue
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// CountClients returns the number of active clients.
func (s *Store) CountClients() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients WHERE is_active = true`).Scan(&count)
	return count, err
}

// CountOnlineClients returns active clients seen strictly after the given
// cutoff. Liveness is computed per read, never cached.
func (s *Store) CountOnlineClients(seenAfter time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clients WHERE is_active = true AND last_seen > ?`,
		seenAfter.UTC()).Scan(&count)
	return count, err
}

// ClientLogStats returns activity counters for one client: all-time total
// plus windowed total/critical/error counts since the given instant.
func (s *Store) ClientLogStats(clientID string, since time.Time) (ClientStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var stats ClientStats
	err := s.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN timestamp >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN timestamp >= ? AND level = 'CRITICAL' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN timestamp >= ? AND level = 'ERROR' THEN 1 ELSE 0 END), 0)
		FROM log_entries WHERE client_id = ?`,
		since.UTC(), since.UTC(), since.UTC(), clientID).
		Scan(&stats.TotalLogs, &stats.RecentLogs, &stats.CriticalLogs, &stats.ErrorLogs)
	return stats, err
}
