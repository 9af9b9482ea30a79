package storage

// Package storage persists pipeline run history.
//
// It currently supports:
//   - Run record appends (one per pipeline execution)
//   - Sent markers (so a restart does not re-email the same report)
