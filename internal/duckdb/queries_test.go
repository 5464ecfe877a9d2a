package duckdb

import (
	"testing"
	"time"
)

func TestQueryLogsOrderingAndPaging(t *testing.T) {
	store := newTestStore(t)
	seedClient(t, store, "client-1")

	now := time.Now().UTC().Truncate(time.Second)
	var entries []*LogEntry
	for i := 0; i < 25; i++ {
		entries = append(entries, testEntry("client-1", "INFO", "tick", now.Add(time.Duration(i)*time.Minute)))
	}
	insertTestEntries(t, store, entries)

	page1, total, err := store.QueryLogs(LogFilter{}, PageOpts{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("QueryLogs page 1: %v", err)
	}
	if total != 25 {
		t.Errorf("total = %d, want 25", total)
	}
	if len(page1) != 10 {
		t.Fatalf("page 1 returned %d entries, want 10", len(page1))
	}
	if !page1[0].Timestamp.After(page1[9].Timestamp) {
		t.Error("page 1 not ordered newest first")
	}

	page3, _, err := store.QueryLogs(LogFilter{}, PageOpts{Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("QueryLogs page 3: %v", err)
	}
	if len(page3) != 5 {
		t.Errorf("page 3 returned %d entries, want 5", len(page3))
	}

	// No overlap between pages.
	seen := make(map[string]bool)
	for _, e := range page1 {
		seen[e.EventID] = true
	}
	for _, e := range page3 {
		if seen[e.EventID] {
			t.Errorf("entry %s appears on both page 1 and page 3", e.EventID)
		}
	}
}

func TestQueryLogsTieBreak(t *testing.T) {
	store := newTestStore(t)
	seedClient(t, store, "client-1")

	// Identical timestamps: insertion order decides, later row first.
	ts := time.Now().UTC().Truncate(time.Second)
	first := testEntry("client-1", "INFO", "first", ts)
	second := testEntry("client-1", "INFO", "second", ts)
	insertTestEntries(t, store, []*LogEntry{first, second})

	got, _, err := store.QueryLogs(LogFilter{}, PageOpts{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("QueryLogs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("QueryLogs returned %d entries, want 2", len(got))
	}
	if got[0].Message != "second" {
		t.Errorf("tie-break order wrong: got %q first, want \"second\"", got[0].Message)
	}
}

func TestQueryLogsFilters(t *testing.T) {
	store := newTestStore(t)
	seedClient(t, store, "client-1")
	seedClient(t, store, "client-2")

	now := time.Now().UTC()
	e1 := testEntry("client-1", "ERROR", "disk failure", now)
	e1.Component = "scanner"
	e2 := testEntry("client-2", "ERROR", "net failure", now)
	e2.Component = "updater"
	e3 := testEntry("client-1", "INFO", "all fine", now)
	insertTestEntries(t, store, []*LogEntry{e1, e2, e3})

	got, total, err := store.QueryLogs(LogFilter{Level: "ERROR", ClientID: "client-1"}, PageOpts{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("QueryLogs: %v", err)
	}
	if total != 1 || len(got) != 1 {
		t.Fatalf("filtered query returned %d/%d, want 1/1", len(got), total)
	}
	if got[0].Message != "disk failure" {
		t.Errorf("Message = %q, want \"disk failure\"", got[0].Message)
	}
	// Client join fills hostname.
	if got[0].Hostname != "client-1-host" {
		t.Errorf("Hostname = %q, want client-1-host", got[0].Hostname)
	}

	_, total, err = store.QueryLogs(LogFilter{Component: "updater"}, PageOpts{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("QueryLogs (component): %v", err)
	}
	if total != 1 {
		t.Errorf("component filter total = %d, want 1", total)
	}
}

func TestParseMetadata(t *testing.T) {
	meta := parseMetadata(`{"path": "/tmp/x", "n": 3}`)
	if meta["path"] != "/tmp/x" {
		t.Errorf("parseMetadata path = %v, want /tmp/x", meta["path"])
	}

	// Corrupt JSON degrades to a raw wrapper instead of erroring.
	bad := parseMetadata(`{not json`)
	if bad["raw"] != `{not json` {
		t.Errorf("parseMetadata raw = %v, want original string", bad["raw"])
	}
}
