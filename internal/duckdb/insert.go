package duckdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/avfleet/avfleet/internal/model"
)

// InsertLogBatch appends a batch of validated entries in a single transaction
// and returns the number of entries stored. If any individual record fails to
// insert, the whole batch is rolled back and retried record-by-record to
// salvage as many records as possible; dropped records reduce the count.
func (s *Store) InsertLogBatch(entries []*LogEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.insertBatchTx(ctx, entries)
	if err == nil {
		return len(entries), nil
	}

	// Batch failed — retry record-by-record to salvage what we can.
	var failed int
	for _, e := range entries {
		if rerr := s.insertBatchTx(ctx, []*LogEntry{e}); rerr != nil {
			failed++
			log.Printf("duckdb: dropping entry (client=%s msg=%.80s): %v", e.ClientID, e.Message, rerr)
		}
	}
	if failed == len(entries) {
		return 0, fmt.Errorf("batch insert: %w", err)
	}
	if failed > 0 {
		log.Printf("duckdb: batch partially failed — %d/%d entries dropped", failed, len(entries))
	}
	return len(entries) - failed, nil
}

// insertBatchTx inserts entries in a single transaction.
func (s *Store) insertBatchTx(ctx context.Context, entries []*LogEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO log_entries
		(client_id, event_id, timestamp, level, logger, message, module, function, line, component, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		eventID := e.EventID
		if eventID == "" {
			eventID = model.NextEventID()
			e.EventID = eventID
		}

		var metadata any
		if len(e.Metadata) > 0 {
			data, merr := json.Marshal(e.Metadata)
			if merr != nil {
				log.Printf("duckdb: failed to marshal metadata, storing null: %v", merr)
			} else {
				metadata = string(data)
			}
		}

		var module, function, component any
		if e.Module != "" {
			module = e.Module
		}
		if e.Function != "" {
			function = e.Function
		}
		if e.Component != "" {
			component = e.Component
		}
		var line any
		if e.Line > 0 {
			line = e.Line
		}

		if _, err := stmt.ExecContext(
			ctx,
			e.ClientID, eventID, e.Timestamp.UTC(), e.Level, e.Logger,
			e.Message, module, function, line, component, metadata,
		); err != nil {
			return fmt.Errorf("entry insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
