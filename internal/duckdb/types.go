package duckdb

import "github.com/avfleet/avfleet/internal/model"

// Type aliases re-export model types so Store method signatures read
// naturally at call sites that already import duckdb.
type Client = model.Client
type LogEntry = model.LogEntry
type Alert = model.Alert
type LogFilter = model.LogFilter
type PageOpts = model.PageOpts
type LevelCount = model.LevelCount
type ComponentCount = model.ComponentCount
type HourBucket = model.HourBucket
type ThreatBucket = model.ThreatBucket
type ClientVolume = model.ClientVolume
type KeywordCount = model.KeywordCount
type ClientStats = model.ClientStats
