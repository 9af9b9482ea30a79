// Package launcher bootstraps report runs the way the original cron wrapper
// did: locate the project root, load .env, and (in external mode) hand off
// to the legacy Python entrypoint with its exit code passed through.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"invrep/internal/config"
	logx "invrep/pkg/logx"
)

// ErrNoInterpreter is returned when no Python interpreter candidate resolves.
// Callers treat it as fatal: the external program is never spawned.
var ErrNoInterpreter = errors.New("no python interpreter found")

// ResolveRoot locates the project root: PROJECT_ROOT override, else the
// directory holding the running executable, else the working directory.
func ResolveRoot() string {
	if v := strings.TrimSpace(os.Getenv(config.EnvProjectRoot)); v != "" {
		return v
	}
	if exe, err := os.Executable(); err == nil && exe != "" {
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// LoadDotenv loads <root>/.env into the process environment. A missing file
// is a warning, never an error: the run continues with whatever environment
// it inherited (systemd EnvironmentFile, CI secrets, ...).
func LoadDotenv(root string, log logx.Logger) {
	path := filepath.Join(root, ".env")
	if _, err := os.Stat(path); err != nil {
		log.Warn("no .env file found; using inherited environment", logx.String("path", path))
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Warn(".env load failed; using inherited environment", logx.String("path", path), logx.Err(err))
		return
	}
	log.Debug("environment loaded", logx.String("path", path))
}

// Interpreter is a resolved Python interpreter.
type Interpreter struct {
	Path string
	// Fallback is true when the interpreter came from PATH rather than the
	// project virtualenv.
	Fallback bool
}

// ResolveInterpreter picks a Python interpreter in fixed priority order:
//
//  1. <venv>/Scripts/python.exe (Windows-style virtualenv layout)
//  2. <venv>/bin/python         (Unix-style virtualenv layout)
//  3. python3, then python, from PATH
//
// where <venv> is VENV_PATH or <root>/venv. The order is load-bearing: a
// project virtualenv always wins over whatever PATH happens to hold.
func ResolveInterpreter(root string, log logx.Logger) (Interpreter, error) {
	venv := strings.TrimSpace(os.Getenv(config.EnvVenvPath))
	if venv == "" {
		venv = filepath.Join(root, "venv")
	}

	candidates := []string{
		filepath.Join(venv, "Scripts", "python.exe"),
		filepath.Join(venv, "bin", "python"),
	}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return Interpreter{Path: c}, nil
		}
	}

	for _, name := range []string{"python3", "python"} {
		if p, err := exec.LookPath(name); err == nil {
			log.Warn("virtualenv interpreter not found; falling back to PATH",
				logx.String("venv", venv), logx.String("interpreter", p))
			return Interpreter{Path: p, Fallback: true}, nil
		}
	}

	return Interpreter{}, fmt.Errorf("%w (checked %s)", ErrNoInterpreter, venv)
}

// RunScript executes script with the resolved interpreter, inheriting the
// current (post-.env) environment and standard streams. The returned exit
// code equals the child's exit code whenever the child ran at all.
func RunScript(ctx context.Context, interp Interpreter, script string, args []string) (int, error) {
	argv := append([]string{script}, args...)
	cmd := exec.CommandContext(ctx, interp.Path, argv...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	// Spawn failure (bad path, permissions): no child exit code exists.
	return -1, fmt.Errorf("run %s: %w", script, err)
}
