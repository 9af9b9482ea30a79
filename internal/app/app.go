// Package app assembles the daemon: config manager, logging, storage,
// pipeline and scheduler, plus live config reload.
package app

import (
	"context"
	"net/http"
	"os"
	"sync"

	"invrep/internal/config"
	"invrep/internal/fetch"
	"invrep/internal/mail"
	"invrep/internal/pipeline"
	"invrep/internal/scheduler"
	"invrep/internal/storage"
	logx "invrep/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log    logx.Logger
	logSvc *logx.Service

	store storage.Store
	sched *scheduler.Service

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// lastCfg is the last snapshot applied to the live services; the manager
	// commits reloads before publishing, so its Get() can't serve as "old"
	// when diffing.
	lastCfg *config.Config
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfgm.SetValidator(config.Validate)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	cfg.WithDefaults()
	config.ApplyEnv(cfg)
	if err := config.Validate(context.Background(), cfg); err != nil {
		return nil, err
	}
	cfgm.Commit(cfg)

	logSvc, log := logx.New(mapLogConfig(cfg))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	a := &App{cfgm: cfgm, log: log, logSvc: logSvc, lastCfg: cfg}

	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		a.store = st
		log.Info("run history enabled", logx.String("driver", sc.Driver))
	}

	schedCfg, err := mapSchedulerConfig(cfg)
	if err != nil {
		return nil, err
	}
	a.sched = scheduler.New(schedCfg, a.runJob, log.With(logx.String("comp", "scheduler")))
	return a, nil
}

func (a *App) Log() logx.Logger { return a.log }

// Start launches the scheduler and the config watcher. It returns once
// everything is running; the caller blocks on its own context.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.sched.Enabled() {
		if err := a.sched.Start(ctx); err != nil {
			cancel()
			return err
		}
	} else {
		a.log.Warn("scheduler disabled, reports run only on manual trigger")
	}

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
			a.log.Error("config watcher exited", logx.Err(err))
		}
	}()
	ch := a.cfgm.Subscribe(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-watchCtx.Done():
				a.cfgm.Unsubscribe(ch)
				return
			case cfg := <-ch:
				if cfg == nil {
					continue
				}
				a.applyConfig(cfg)
			}
		}
	}()

	a.started = true
	return nil
}

// Stop shuts down whatever is running and closes the store and log sinks.
// It is safe to call without a prior Start (the one-shot binary never
// starts the scheduler or watcher) and safe to call twice.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		a.sched.Stop(ctx)
		if a.cancel != nil {
			a.cancel()
		}
		a.wg.Wait()
		a.started = false
	}
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
	}
	if a.logSvc != nil {
		if cerr := a.logSvc.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// RunOnce triggers a pipeline run immediately, outside the schedule.
func (a *App) RunOnce(ctx context.Context) error {
	return a.sched.TriggerNow(ctx)
}

// runJob snapshots the live config and executes the pipeline against it.
func (a *App) runJob(ctx context.Context, trigger string) error {
	cfg := a.cfgm.Get()
	if cfg == nil {
		return context.Canceled
	}
	p, err := a.buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	_, err = p.Run(ctx, trigger)
	return err
}

func (a *App) buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, error) {
	log := a.log

	var source pipeline.Source
	if cfg.Source.LocalFile != "" {
		local := cfg.Source.LocalFile
		source = pipeline.SourceFunc(func(context.Context) (*fetch.Result, error) {
			return fetch.Local(local)
		})
	} else {
		client, err := fetch.NewClient(ctx, cfg.Source)
		if err != nil {
			return nil, err
		}
		dlTimeout, err := config.ParseDurationField("source.download_timeout", cfg.Source.DownloadTimeout)
		if err != nil {
			return nil, err
		}
		fetcher := &fetch.Fetcher{
			Store:       client,
			Bucket:      cfg.Source.Bucket,
			Prefix:      cfg.Source.Prefix,
			Extension:   cfg.Source.Extension,
			DownloadDir: cfg.Report.OutputDir,
			Log:         log.With(logx.String("comp", "fetch")),
		}
		source = pipeline.SourceFunc(func(ctx context.Context) (*fetch.Result, error) {
			if dlTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, dlTimeout)
				defer cancel()
			}
			return fetcher.Fetch(ctx)
		})
	}

	erpTimeout, err := config.ParseDurationOrDefault("email.erp_timeout", cfg.Email.ERPTimeout, config.DefaultERPTimeout)
	if err != nil {
		return nil, err
	}
	sendInterval, err := config.ParseDurationOrDefault("email.send_interval", cfg.Email.SendInterval, config.DefaultSendInterval)
	if err != nil {
		return nil, err
	}

	return &pipeline.Pipeline{
		Cfg:    cfg,
		Source: source,
		Recipient: &mail.Resolver{
			Endpoint: cfg.Email.ERPEndpoint,
			Token:    os.Getenv(config.EnvERPToken),
			Timeout:  erpTimeout,
			Client:   http.DefaultClient,
			Log:      log.With(logx.String("comp", "recipients")),
		},
		Mailer: &mail.Sender{
			Server:   cfg.Email.SMTPServer,
			Port:     cfg.Email.SMTPPort,
			User:     os.Getenv(config.EnvSMTPUser),
			Password: os.Getenv(config.EnvSMTPPass),
			Interval: sendInterval,
			Log:      log.With(logx.String("comp", "mail")),
		},
		Store: a.store,
		Log:   log.With(logx.String("comp", "pipeline")),
	}, nil
}

// applyConfig propagates a validated reload to the live services.
func (a *App) applyConfig(cfg *config.Config) {
	cfg.WithDefaults()
	config.ApplyEnv(cfg)

	summary, fields := config.SummarizeConfigChange(a.lastCfg, cfg)
	if len(summary) > 0 {
		a.log.Info("config reloaded", fields...)
	}

	a.logSvc.Apply(mapLogConfig(cfg))
	if sc, err := mapSchedulerConfig(cfg); err != nil {
		a.log.Error("reload: scheduler config rejected", logx.Err(err))
	} else {
		a.sched.Apply(sc)
	}
	a.cfgm.Commit(cfg)
	a.lastCfg = cfg
}

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapSchedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	runTimeout, err := config.ParseDurationField("scheduler.run_timeout", cfg.Scheduler.RunTimeout)
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{
		Enabled:     cfg.Scheduler.Enabled,
		Schedule:    cfg.Scheduler.Schedule,
		Timezone:    cfg.Scheduler.Timezone,
		RetryMax:    cfg.Scheduler.RetryMax,
		RunTimeout:  runTimeout,
		HistorySize: 50,
	}, nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return storage.Config{}, false, err
	}
	sc := storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}
	enabled := sc.Driver != "" && sc.Driver != "none"
	return sc, enabled, nil
}
