package config

import (
	"reflect"
	"sort"
	"strings"

	logx "invrep/pkg/logx"
)

// SummarizeConfigChange returns a compact list of changed sections plus safe
// structured attrs for logging (never includes secrets like SMTP passwords
// or API tokens).
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 20)

	// Logging
	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	// Scheduler
	if !reflect.DeepEqual(oldCfg.Scheduler, newCfg.Scheduler) {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Bool("scheduler.enabled", newCfg.Scheduler.Enabled),
			logx.String("scheduler.schedule", strings.TrimSpace(newCfg.Scheduler.Schedule)),
			logx.String("scheduler.timezone", strings.TrimSpace(newCfg.Scheduler.Timezone)),
			logx.Int("scheduler.retry_max", newCfg.Scheduler.RetryMax),
		)
	}

	// Source
	if !reflect.DeepEqual(oldCfg.Source, newCfg.Source) {
		changed = append(changed, "source")
		attrs = append(attrs,
			logx.String("source.bucket", strings.TrimSpace(newCfg.Source.Bucket)),
			logx.String("source.prefix", strings.TrimSpace(newCfg.Source.Prefix)),
			logx.Bool("source.local_file_set", strings.TrimSpace(newCfg.Source.LocalFile) != ""),
		)
	}

	// Report
	if !reflect.DeepEqual(oldCfg.Report, newCfg.Report) {
		changed = append(changed, "report")
		attrs = append(attrs,
			logx.Int("report.pdf_specs", len(newCfg.Report.PDFSpecs)),
			logx.Float64("report.priority_threshold", newCfg.Report.PriorityThreshold),
			logx.Int("report.priority_limit", newCfg.Report.PriorityLimit),
		)
	}

	// Email (never log recipient addresses or tokens)
	if !reflect.DeepEqual(oldCfg.Email, newCfg.Email) {
		changed = append(changed, "email")
		attrs = append(attrs,
			logx.Bool("email.enabled", newCfg.Email.Enabled),
			logx.Bool("email.dry_run", newCfg.Email.DryRun),
			logx.String("email.smtp_server", strings.TrimSpace(newCfg.Email.SMTPServer)),
			logx.Int("email.recipients", len(newCfg.Email.Recipients)),
			logx.Bool("email.use_api_recipients", newCfg.Email.UseAPIRecipients),
		)
	}

	// Storage. Nil means disabled.
	var oDriver, nDriver, oBusy, nBusy string
	var oPathSet, nPathSet bool
	if oldCfg.Storage != nil {
		oDriver = strings.TrimSpace(oldCfg.Storage.Driver)
		oBusy = strings.TrimSpace(oldCfg.Storage.BusyTimeout)
		oPathSet = strings.TrimSpace(oldCfg.Storage.Path) != ""
	}
	if newCfg.Storage != nil {
		nDriver = strings.TrimSpace(newCfg.Storage.Driver)
		nBusy = strings.TrimSpace(newCfg.Storage.BusyTimeout)
		nPathSet = strings.TrimSpace(newCfg.Storage.Path) != ""
	}
	if oDriver != nDriver || oBusy != nBusy || oPathSet != nPathSet {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", nDriver),
			logx.Bool("storage.path_set", nPathSet),
			logx.String("storage.busy_timeout", nBusy),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
