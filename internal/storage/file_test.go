package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"invrep/pkg/logx"
)

func openTestStore(t *testing.T, dir string) Store {
	t.Helper()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "history.db")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if st == nil {
		t.Fatal("store is nil")
	}
	return st
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"", "none", "  NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Errorf("driver %q: got (%v, %v), want (nil, nil)", driver, st, err)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("want error for unknown driver")
	}
}

func TestAppendRunWritesJSONL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	st := openTestStore(t, dir)
	defer st.Close()

	rec := RunRecord{
		Trigger:       "scheduled",
		Status:        "ok",
		SourceKey:     "inv/latest.xlsx",
		PriorityCount: 12,
		HeatmapCount:  6,
		SentCount:     3,
		TookMS:        4200,
	}
	if err := st.AppendRun(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if err := st.AppendRun(context.Background(), RunRecord{Trigger: "manual", Status: "failed", Error: "boom"}); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "history.runs.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines []RunRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r RunRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatal(err)
		}
		lines = append(lines, r)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d records, want 2", len(lines))
	}
	if lines[0].SourceKey != "inv/latest.xlsx" || lines[0].At.IsZero() {
		t.Errorf("first record = %+v", lines[0])
	}
	if lines[1].Error != "boom" {
		t.Errorf("second record = %+v", lines[1])
	}
}

func TestSentMarkersSurviveReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	st := openTestStore(t, dir)

	until := time.Now().Add(time.Hour)
	if err := st.MarkSent(context.Background(), "report-2026-08-25", until); err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	st2 := openTestStore(t, dir)
	defer st2.Close()
	_, ok, err := st2.WasSent(context.Background(), "report-2026-08-25")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("sent marker lost across reopen")
	}
}

func TestExpiredSentMarkerNotReturned(t *testing.T) {
	t.Parallel()

	st := openTestStore(t, t.TempDir())
	defer st.Close()

	if err := st.MarkSent(context.Background(), "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := st.WasSent(context.Background(), "old"); ok {
		t.Fatal("expired marker still returned")
	}
}

func TestEmptyKeyIsIgnored(t *testing.T) {
	t.Parallel()

	st := openTestStore(t, t.TempDir())
	defer st.Close()

	if err := st.MarkSent(context.Background(), "  ", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := st.WasSent(context.Background(), ""); ok {
		t.Fatal("empty key should never be marked")
	}
}
