// Package sdnotify wraps the systemd readiness and watchdog protocol.
// Every call is a no-op outside a systemd unit (NOTIFY_SOCKET unset).
package sdnotify

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

func Ready() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
}

func Stopping() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
}

// Watchdog pings the systemd watchdog at half the configured interval until
// ctx is done. Returns immediately when no watchdog is configured.
func Watchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	t := time.NewTicker(interval / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}
