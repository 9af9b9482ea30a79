package launcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	logx "invrep/pkg/logx"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestResolveRootPrefersEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROJECT_ROOT", dir)
	if got := ResolveRoot(); got != dir {
		t.Fatalf("ResolveRoot() = %q, want %q", got, dir)
	}
}

func TestResolveInterpreterPriorityOrder(t *testing.T) {
	cases := []struct {
		name   string
		layout []string // files to create under the venv dir
		want   string   // relative to venv
	}{
		{"windows layout wins", []string{"Scripts/python.exe", "bin/python"}, "Scripts/python.exe"},
		{"unix layout", []string{"bin/python"}, "bin/python"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			venv := t.TempDir()
			for _, f := range tc.layout {
				touch(t, filepath.Join(venv, f))
			}
			t.Setenv("VENV_PATH", venv)

			got, err := ResolveInterpreter(t.TempDir(), logx.Nop())
			if err != nil {
				t.Fatalf("ResolveInterpreter: %v", err)
			}
			if want := filepath.Join(venv, filepath.FromSlash(tc.want)); got.Path != want {
				t.Fatalf("interpreter = %q, want %q", got.Path, want)
			}
			if got.Fallback {
				t.Fatalf("interpreter marked as fallback, want virtualenv hit")
			}
		})
	}
}

func TestResolveInterpreterFallsBackToPath(t *testing.T) {
	bin := t.TempDir()
	touch(t, filepath.Join(bin, "python3"))
	t.Setenv("PATH", bin)
	t.Setenv("VENV_PATH", filepath.Join(t.TempDir(), "missing-venv"))

	got, err := ResolveInterpreter(t.TempDir(), logx.Nop())
	if err != nil {
		t.Fatalf("ResolveInterpreter: %v", err)
	}
	if !got.Fallback {
		t.Fatalf("expected fallback interpreter, got %+v", got)
	}
	if got.Path != filepath.Join(bin, "python3") {
		t.Fatalf("interpreter = %q, want PATH python3", got.Path)
	}
}

func TestResolveInterpreterNoneFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	t.Setenv("VENV_PATH", filepath.Join(t.TempDir(), "missing-venv"))

	_, err := ResolveInterpreter(t.TempDir(), logx.Nop())
	if !errors.Is(err, ErrNoInterpreter) {
		t.Fatalf("err = %v, want ErrNoInterpreter", err)
	}
}

func TestRunScriptPropagatesExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on /bin/sh")
	}

	script := filepath.Join(t.TempDir(), "exit7.sh")
	if err := os.WriteFile(script, []byte("exit 7\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	code, err := RunScript(context.Background(), Interpreter{Path: "/bin/sh"}, script, nil)
	if err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if code != 7 {
		t.Fatalf("exit code = %d, want 7", code)
	}
}

func TestRunScriptSpawnFailure(t *testing.T) {
	code, err := RunScript(context.Background(), Interpreter{Path: filepath.Join(t.TempDir(), "nope")}, "x.py", nil)
	if err == nil {
		t.Fatalf("expected spawn error")
	}
	if code != -1 {
		t.Fatalf("exit code = %d, want -1 on spawn failure", code)
	}
}

func TestLoadDotenvMissingFileIsNonFatal(t *testing.T) {
	// Must not panic or alter the environment.
	LoadDotenv(t.TempDir(), logx.Nop())
}

func TestLoadDotenvSetsVariables(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("INVREP_TEST_KEY=from_dotenv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("INVREP_TEST_KEY", "")
	os.Unsetenv("INVREP_TEST_KEY")

	LoadDotenv(root, logx.Nop())
	if got := os.Getenv("INVREP_TEST_KEY"); got != "from_dotenv" {
		t.Fatalf("INVREP_TEST_KEY = %q, want %q", got, "from_dotenv")
	}
}
