package main

import (
	"context"
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
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Same bootstrap as the one-shot binary: .env is optional.
	root := launcher.ResolveRoot()
	launcher.LoadDotenv(root, logx.NewConsole("INFO"))

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	if err := a.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		os.Exit(1)
	}
	sdnotify.Ready()
	go sdnotify.Watchdog(ctx)

	<-ctx.Done()
	sdnotify.Stopping()
	_ = a.Stop(context.Background())
}
