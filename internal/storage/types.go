package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (jsonl + snapshot)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// RunRecord is one pipeline execution.
// Keep it compact and schema-stable.
type RunRecord struct {
	At         time.Time
	Trigger    string // "scheduled" | "manual"
	Status     string // "ok" | "partial" | "failed"
	SourceKey  string
	ReportDate time.Time
	PDFPath    string

	PriorityCount int
	HeatmapCount  int
	SentCount     int
	FailedCount   int

	Error  string
	TookMS int64
}
