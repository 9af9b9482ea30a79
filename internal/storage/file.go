package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "invrep/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.runs.jsonl         (append-only JSON Lines)
//   - <prefix>.sent.snapshot.json (periodic snapshot)
//   - <prefix>.sent.journal.jsonl (append-only journal)
//
// The journal is periodically compacted into the snapshot.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	runsFile *os.File

	sentSnapshotPath string
	sentJournalFile  *os.File
	sent             map[string]int64 // unix milli

	sentWrites int
}

type sentRecord struct {
	Key   string `json:"key"`
	Until int64  `json:"until"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	runsPath := prefix + ".runs.jsonl"
	snapPath := prefix + ".sent.snapshot.json"
	journalPath := prefix + ".sent.journal.jsonl"

	rf, err := os.OpenFile(runsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	// Load sent markers from snapshot + journal.
	sent := map[string]int64{}
	_ = loadSentSnapshot(snapPath, sent)
	_ = replaySentJournal(journalPath, sent)
	pruneExpiredSent(sent)

	jf, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		_ = rf.Close()
		return nil, err
	}

	return &fileStore{
		log:              log,
		runsFile:         rf,
		sentSnapshotPath: snapPath,
		sentJournalFile:  jf,
		sent:             sent,
	}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err1, err2 error
	if s.runsFile != nil {
		err1 = s.runsFile.Close()
		s.runsFile = nil
	}
	if s.sentJournalFile != nil {
		err2 = s.sentJournalFile.Close()
		s.sentJournalFile = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

func (s *fileStore) AppendRun(ctx context.Context, r RunRecord) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runsFile == nil {
		return errors.New("runs file closed")
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	return json.NewEncoder(s.runsFile).Encode(r)
}

func (s *fileStore) MarkSent(ctx context.Context, key string, until time.Time) error {
	_ = ctx
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	ms := until.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sentJournalFile == nil {
		return errors.New("sent journal closed")
	}
	if s.sent == nil {
		s.sent = map[string]int64{}
	}
	s.sent[key] = ms

	if err := json.NewEncoder(s.sentJournalFile).Encode(sentRecord{Key: key, Until: ms}); err != nil {
		return err
	}
	s.sentWrites++
	if s.sentWrites%1000 == 0 {
		// Best-effort compact.
		if err := s.compactLocked(); err != nil {
			s.log.Debug("sent marker compact failed", logx.Any("err", err))
		}
	}
	return nil
}

func (s *fileStore) WasSent(ctx context.Context, key string) (time.Time, bool, error) {
	_ = ctx
	key = strings.TrimSpace(key)
	if key == "" {
		return time.Time{}, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.sent[key]
	if !ok {
		return time.Time{}, false, nil
	}
	if ms < time.Now().UnixMilli() {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (s *fileStore) compactLocked() error {
	if s.sent == nil {
		return nil
	}
	pruneExpiredSent(s.sent)

	tmp := s.sentSnapshotPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(s.sent); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.sentSnapshotPath); err != nil {
		return err
	}
	// Truncate journal.
	if err := s.sentJournalFile.Truncate(0); err != nil {
		return err
	}
	_, err = s.sentJournalFile.Seek(0, 2)
	return err
}

func loadSentSnapshot(path string, out map[string]int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var m map[string]int64
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return err
	}
	for k, v := range m {
		out[k] = v
	}
	return nil
}

func replaySentJournal(path string, out map[string]int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		var r sentRecord
		if err := json.Unmarshal(s.Bytes(), &r); err != nil {
			continue
		}
		if r.Key == "" {
			continue
		}
		out[r.Key] = r.Until
	}
	return s.Err()
}

func pruneExpiredSent(m map[string]int64) {
	now := time.Now().UnixMilli()
	for k, v := range m {
		if v < now {
			delete(m, k)
		}
	}
}
