// Package scheduler runs the report pipeline on a cron schedule in the
// configured timezone, with overlap protection and bounded retries.
package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"invrep/pkg/logx"
)

type Config struct {
	Enabled     bool
	Schedule    string // five-field cron spec or @-descriptor
	Timezone    string // IANA TZ, e.g. "Asia/Kolkata"
	RetryMax    int
	RunTimeout  time.Duration
	HistorySize int
}

// Job is the work the scheduler fires. Trigger is "scheduled" or "manual".
type Job func(ctx context.Context, trigger string) error

type HistoryItem struct {
	Trigger  string
	Started  time.Time
	Duration time.Duration
	Attempts int
	Error    string
}

type Service struct {
	mu sync.Mutex

	log logx.Logger
	cfg Config
	job Job

	parser cron.Parser
	c      *cron.Cron
	loc    *time.Location

	stopCh  chan struct{}
	baseCtx context.Context
	running atomic.Bool

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, job Job, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg,
		job:    job,
		log:    log,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Apply swaps the live configuration. A schedule or timezone change
// restarts the underlying cron; everything else takes effect on the next
// run.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	restart := s.stopCh != nil &&
		(strings.TrimSpace(s.cfg.Schedule) != strings.TrimSpace(cfg.Schedule) ||
			strings.TrimSpace(s.cfg.Timezone) != strings.TrimSpace(cfg.Timezone))
	s.cfg = cfg
	if restart {
		s.restartLocked()
	}
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return nil
	}
	s.stopCh = make(chan struct{})
	s.baseCtx = ctx

	if err := s.startCronLocked(); err != nil {
		close(s.stopCh)
		s.stopCh = nil
		return err
	}
	s.log.Info("scheduler started",
		logx.String("schedule", s.cfg.Schedule), logx.String("tz", s.loc.String()))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	if s.c != nil {
		stopped := s.c.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
		}
		s.c = nil
	}
	s.log.Info("scheduler stopped")
}

// Next reports when the next scheduled run fires. Zero when not started.
func (s *Service) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return time.Time{}
	}
	entries := s.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// TriggerNow runs the job immediately on the caller's goroutine. It refuses
// to overlap a run already in flight.
func (s *Service) TriggerNow(ctx context.Context) error {
	return s.execute(ctx, "manual")
}

// History returns a copy of the recent run log, newest last.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

func (s *Service) startCronLocked() error {
	s.loc = s.loadLocationLocked()
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(s.loc))

	spec := strings.TrimSpace(s.cfg.Schedule)
	if spec == "" {
		return errors.New("scheduler schedule is empty")
	}
	baseCtx := s.baseCtx
	if _, err := s.c.AddFunc(spec, func() {
		if err := s.execute(baseCtx, "scheduled"); err != nil {
			s.log.Error("scheduled run failed", logx.Err(err))
		}
	}); err != nil {
		return err
	}
	s.c.Start()
	return nil
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to UTC", logx.String("tz", tz), logx.Err(err))
		return time.UTC
	}
	return loc
}

func (s *Service) restartLocked() {
	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}
	if err := s.startCronLocked(); err != nil {
		s.log.Error("scheduler restart failed", logx.Err(err))
		return
	}
	s.log.Info("scheduler restarted",
		logx.String("schedule", s.cfg.Schedule), logx.String("tz", s.loc.String()))
}

var ErrAlreadyRunning = errors.New("a pipeline run is already in flight")

func (s *Service) execute(ctx context.Context, trigger string) error {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("skipping run, previous run still in flight", logx.String("trigger", trigger))
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	s.mu.Lock()
	timeout := s.cfg.RunTimeout
	retryMax := s.cfg.RetryMax
	histSize := s.cfg.HistorySize
	s.mu.Unlock()

	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	var err error
	attempts := 0
	for {
		attempts++
		err = s.job(runCtx, trigger)
		if err == nil || attempts > retryMax || runCtx.Err() != nil {
			break
		}
		backoff := retryBackoff(attempts)
		s.log.Warn("run failed, retrying",
			logx.Int("attempt", attempts), logx.Duration("backoff", backoff), logx.Err(err))
		select {
		case <-runCtx.Done():
		case <-time.After(backoff):
		}
	}

	item := HistoryItem{
		Trigger:  trigger,
		Started:  start,
		Duration: time.Since(start),
		Attempts: attempts,
	}
	if err != nil {
		item.Error = err.Error()
		s.log.Error("run failed", logx.String("trigger", trigger), logx.Int("attempts", attempts), logx.Err(err))
	} else {
		s.log.Info("run completed", logx.String("trigger", trigger), logx.Duration("took", item.Duration))
	}

	s.hmu.Lock()
	s.history = append(s.history, item)
	if histSize > 0 && len(s.history) > histSize {
		s.history = s.history[len(s.history)-histSize:]
	}
	s.hmu.Unlock()
	return err
}

// retryBackoff doubles per attempt with jitter, capped at 5 minutes.
func retryBackoff(attempt int) time.Duration {
	base := 30 * time.Second
	for i := 1; i < attempt && base < 5*time.Minute; i++ {
		base *= 2
	}
	if base > 5*time.Minute {
		base = 5 * time.Minute
	}
	jitter := time.Duration(rand.Int63n(int64(base / 4)))
	return base + jitter
}
