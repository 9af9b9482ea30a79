package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultSchedule      = "30 5 * * 2"
	DefaultExtension     = ".xlsx"
	DefaultOutputDir     = "./reports"
	DefaultPriorityMin   = 30.0
	DefaultPriorityLimit = 15
	DefaultSMTPPort      = 587
	DefaultERPTimeout    = 10 * time.Second
	DefaultSendInterval  = 1500 * time.Millisecond
)

// DefaultPDFSpecs lists the specifications that get a heatmap page when the
// config omits report.pdf_specs, in page order.
var DefaultPDFSpecs = []string{
	"CSSMP106B",
	"ASSMPP11",
	"ASSMPP22",
	"ASSMPP9",
	"ASSMPP5",
	"ASSMPP91",
}

// WithDefaults fills zero fields in place and returns cfg for chaining.
func (c *Config) WithDefaults() *Config {
	if c == nil {
		return nil
	}
	if strings.TrimSpace(c.Scheduler.Schedule) == "" {
		c.Scheduler.Schedule = DefaultSchedule
	}
	if strings.TrimSpace(c.Source.Extension) == "" {
		c.Source.Extension = DefaultExtension
	}
	if strings.TrimSpace(c.Report.OutputDir) == "" {
		c.Report.OutputDir = DefaultOutputDir
	}
	if len(c.Report.PDFSpecs) == 0 {
		c.Report.PDFSpecs = append([]string(nil), DefaultPDFSpecs...)
	}
	if c.Report.PriorityThreshold <= 0 {
		c.Report.PriorityThreshold = DefaultPriorityMin
	}
	if c.Report.PriorityLimit <= 0 {
		c.Report.PriorityLimit = DefaultPriorityLimit
	}
	if c.Email.SMTPPort <= 0 {
		c.Email.SMTPPort = DefaultSMTPPort
	}
	return c
}

// Validate checks cross-field consistency. It is installed as the manager's
// validator so a bad edit never replaces a good running config.
func Validate(_ context.Context, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Scheduler.Enabled && strings.TrimSpace(cfg.Scheduler.Schedule) == "" {
		return fmt.Errorf("scheduler.schedule: required when scheduler is enabled")
	}
	if tz := strings.TrimSpace(cfg.Scheduler.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("scheduler.timezone: %w", err)
		}
	}
	if _, err := ParseDurationField("scheduler.run_timeout", cfg.Scheduler.RunTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("source.download_timeout", cfg.Source.DownloadTimeout); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Source.LocalFile) == "" && strings.TrimSpace(cfg.Source.Bucket) == "" {
		return fmt.Errorf("source: either bucket or local_file must be set")
	}
	if ext := strings.TrimSpace(cfg.Source.Extension); ext != "" && !strings.HasPrefix(ext, ".") {
		return fmt.Errorf("source.extension: must start with a dot, got %q", ext)
	}
	if cfg.Email.Enabled && !cfg.Email.DryRun {
		if strings.TrimSpace(cfg.Email.SMTPServer) == "" {
			return fmt.Errorf("email.smtp_server: required when email is enabled")
		}
		if cfg.Email.SMTPPort < 0 || cfg.Email.SMTPPort > 65535 {
			return fmt.Errorf("email.smtp_port: out of range: %d", cfg.Email.SMTPPort)
		}
	}
	if _, err := ParseDurationField("email.erp_timeout", cfg.Email.ERPTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("email.send_interval", cfg.Email.SendInterval); err != nil {
		return err
	}
	if cfg.Storage != nil {
		switch d := strings.TrimSpace(strings.ToLower(cfg.Storage.Driver)); d {
		case "", "none", "file", "sqlite":
		default:
			return fmt.Errorf("storage.driver: unknown driver %q", d)
		}
		if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}
