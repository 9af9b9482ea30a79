// Command invrep runs the inventory report once and exits. It is the
// cron-friendly entrypoint: load .env, then either run the pipeline
// in-process (default) or hand off to an external script with the same
// environment, propagating its exit code.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"invrep/internal/app"
	"invrep/internal/launcher"
	"invrep/pkg/logx"
	"invrep/pkg/sdnotify"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cfgPath string
		script  string
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.StringVar(&script, "script", "", "external script to run instead of the built-in pipeline")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "launcher"))

	root := launcher.ResolveRoot()
	launcher.LoadDotenv(root, bootLog)

	if script != "" {
		return runScript(ctx, root, script, flag.Args(), bootLog)
	}

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	sdnotify.Ready()
	err = a.RunOnce(ctx)
	sdnotify.Stopping()
	if cerr := a.Stop(context.Background()); cerr != nil {
		bootLog.Warn("shutdown error", logx.Err(cerr))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "run failed:", err)
		return 1
	}
	return 0
}

// runScript launches an external interpreter against the given script and
// mirrors its exit code, so cron sees the script's own result.
func runScript(ctx context.Context, root, script string, args []string, log logx.Logger) int {
	interp, err := launcher.ResolveInterpreter(root, log)
	if err != nil {
		if errors.Is(err, launcher.ErrNoInterpreter) {
			log.Error("no usable interpreter on this host", logx.Err(err))
		} else {
			log.Error("interpreter resolution failed", logx.Err(err))
		}
		return 1
	}
	log.Info("launching external script",
		logx.String("interpreter", interp.Path), logx.String("script", script))

	code, err := launcher.RunScript(ctx, interp, script, args)
	if err != nil {
		log.Error("script could not be started", logx.Err(err))
		return 1
	}
	if code != 0 {
		log.Error("script exited with failure", logx.Int("exit_code", code))
	}
	return code
}
