package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := `
source:
  local_file: ` + filepath.Join(dir, "inventory.xlsx") + `
report:
  output_dir: ` + filepath.Join(dir, "reports") + `
email:
  enabled: false
storage:
  driver: file
  path: ` + filepath.Join(dir, "history", "invrep") + `
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStopWithoutStartClosesResources(t *testing.T) {
	dir := t.TempDir()

	a, err := New(writeConfig(t, dir))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if a.store == nil {
		t.Fatal("store not opened from config")
	}

	// The one-shot binary constructs the app and tears it down without
	// ever calling Start; the store and log sinks still have to close.
	if err := a.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if a.store != nil {
		t.Error("store still open after Stop")
	}

	// second Stop is a no-op
	if err := a.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	// neither bucket nor local_file
	if err := os.WriteFile(path, []byte("email:\n  enabled: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path); err == nil {
		t.Fatal("want validation error for missing source")
	}
}
