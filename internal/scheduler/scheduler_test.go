package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"invrep/pkg/logx"
)

func TestTriggerNowRunsJob(t *testing.T) {
	t.Parallel()

	var ran atomic.Int32
	s := New(Config{Schedule: "30 5 * * 2", HistorySize: 10},
		func(_ context.Context, trigger string) error {
			if trigger != "manual" {
				t.Errorf("trigger = %q", trigger)
			}
			ran.Add(1)
			return nil
		}, logx.Nop())

	if err := s.TriggerNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ran.Load() != 1 {
		t.Fatalf("job ran %d times", ran.Load())
	}

	hist := s.History()
	if len(hist) != 1 || hist[0].Error != "" || hist[0].Attempts != 1 {
		t.Fatalf("history = %+v", hist)
	}
}

func TestOverlappingRunsAreSkipped(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	s := New(Config{Schedule: "30 5 * * 2"}, func(ctx context.Context, _ string) error {
		close(started)
		<-release
		return nil
	}, logx.Nop())

	done := make(chan error, 1)
	go func() { done <- s.TriggerNow(context.Background()) }()
	<-started

	if err := s.TriggerNow(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second trigger err = %v, want ErrAlreadyRunning", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestRetriesUpToRetryMax(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	s := New(Config{Schedule: "30 5 * * 2", RetryMax: 2}, func(_ context.Context, _ string) error {
		calls.Add(1)
		return fmt.Errorf("attempt %d failed", calls.Load())
	}, logx.Nop())

	if err := s.TriggerNow(context.Background()); err == nil {
		t.Fatal("want final error after retries exhausted")
	}
	if calls.Load() != 3 {
		t.Fatalf("job called %d times, want 3", calls.Load())
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	s := New(Config{Schedule: "30 5 * * 2", RetryMax: 5}, func(_ context.Context, _ string) error {
		if calls.Add(1) < 2 {
			return errors.New("transient")
		}
		return nil
	}, logx.Nop())

	if err := s.TriggerNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Fatalf("job called %d times, want 2", calls.Load())
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	s := New(Config{Schedule: "not a cron spec"}, func(_ context.Context, _ string) error {
		return nil
	}, logx.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("want error for invalid schedule")
	}
}

func TestStartAndNext(t *testing.T) {
	t.Parallel()

	s := New(Config{Schedule: "30 5 * * 2", Timezone: "Asia/Kolkata"},
		func(_ context.Context, _ string) error { return nil }, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop(context.Background())

	next := s.Next()
	if next.IsZero() {
		t.Fatal("next fire time not set")
	}
	if next.Weekday() != time.Tuesday {
		t.Errorf("next fire on %v, want Tuesday", next.Weekday())
	}
}

func TestTimezoneResolution(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		tz   string
		want string
	}{
		{"iana name", "Asia/Kolkata", "Asia/Kolkata"},
		{"empty falls back to utc", "", "UTC"},
		{"garbage falls back to utc", "Mars/Olympus", "UTC"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(Config{Schedule: "30 5 * * 2", Timezone: tc.tz},
				func(_ context.Context, _ string) error { return nil }, logx.Nop())
			if got := s.loadLocationLocked(); got.String() != tc.want {
				t.Errorf("location = %q, want %q", got, tc.want)
			}
		})
	}

	// the cron evaluates the spec in the configured zone
	s := New(Config{Schedule: "30 5 * * 2", Timezone: "Asia/Kolkata"},
		func(_ context.Context, _ string) error { return nil }, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop(context.Background())

	next := s.Next()
	if next.Location().String() != "Asia/Kolkata" {
		t.Errorf("next fire zone = %q, want Asia/Kolkata", next.Location())
	}
	if next.Hour() != 5 || next.Minute() != 30 {
		t.Errorf("next fire at %02d:%02d local, want 05:30", next.Hour(), next.Minute())
	}
}

func TestHistoryRingIsBounded(t *testing.T) {
	t.Parallel()

	s := New(Config{Schedule: "30 5 * * 2", HistorySize: 2},
		func(_ context.Context, _ string) error { return nil }, logx.Nop())
	for i := 0; i < 5; i++ {
		if err := s.TriggerNow(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(s.History()); got != 2 {
		t.Fatalf("history size = %d, want 2", got)
	}
}
