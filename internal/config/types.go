package config

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`

	// Source selects where the inventory workbook comes from.
	Source SourceConfig `json:"source"`

	// Report controls preprocessing, priority items and PDF assembly.
	Report ReportConfig `json:"report"`

	Email   EmailConfig    `json:"email"`
	Storage *StorageConfig `json:"storage,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SchedulerConfig controls the daemon's report trigger.
//
// Schedule is a standard cron expression. The default matches the original
// crontab entry: "30 5 * * 2" evaluated in UTC, i.e. Tuesday 11:00 IST when
// Timezone is left empty. Set Timezone to an IANA name (e.g. "Asia/Kolkata")
// to evaluate the expression in local time instead.
type SchedulerConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"`
	Timezone string `json:"timezone,omitempty"`

	// RetryMax bounds in-run retries for transient failures (S3, SMTP).
	RetryMax int `json:"retry_max,omitempty"`

	// RunTimeout is a Go duration string (e.g. "20m"). "0s" disables it.
	RunTimeout string `json:"run_timeout,omitempty"`
}

// SourceConfig selects the inventory workbook source.
//
// When LocalFile is set, S3 is skipped entirely and the file is used as-is.
// Credentials come from the environment (AWS_ACCESS_KEY_ID / secret / region)
// or the default AWS credential chain, never from this file.
type SourceConfig struct {
	Bucket    string `json:"bucket,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	Region    string `json:"region,omitempty"`
	Extension string `json:"extension,omitempty"` // default ".xlsx"
	LocalFile string `json:"local_file,omitempty"`

	// DownloadTimeout is a Go duration string bounding the fetch step.
	DownloadTimeout string `json:"download_timeout,omitempty"`
}

// ReportConfig controls report computation and PDF output.
type ReportConfig struct {
	// OutputDir holds downloaded workbooks and generated PDFs.
	OutputDir string `json:"output_dir,omitempty"` // default "./reports"

	// PDFSpecs are the specifications that get a heatmap page, in page order.
	PDFSpecs []string `json:"pdf_specs,omitempty"`

	// PriorityThreshold is the minimum free-for-sale tonnage (MT) for an item
	// to appear in the priority table. PriorityLimit caps the table length.
	PriorityThreshold float64 `json:"priority_threshold,omitempty"` // default 30
	PriorityLimit     int     `json:"priority_limit,omitempty"`     // default 15

	// SpecMappingFile optionally maps specifications to grades; absent file
	// falls back to prefix-based derivation.
	SpecMappingFile string `json:"spec_mapping_file,omitempty"`
}

// EmailConfig controls delivery. SMTP credentials come from the environment
// (SMTP_USER / SMTP_PASSWORD), never from this file.
type EmailConfig struct {
	Enabled bool `json:"enabled"`
	DryRun  bool `json:"dry_run,omitempty"`

	SMTPServer string `json:"smtp_server,omitempty"`
	SMTPPort   int    `json:"smtp_port,omitempty"` // default 587

	// Recipients is the static fallback list.
	Recipients []string `json:"recipients,omitempty"`

	// UseAPIRecipients switches recipient resolution to the ERP GraphQL API,
	// falling back to Recipients on any failure.
	UseAPIRecipients bool   `json:"use_api_recipients,omitempty"`
	ERPEndpoint      string `json:"erp_endpoint,omitempty"`
	// ERPTimeout is a Go duration string (default "10s").
	ERPTimeout string `json:"erp_timeout,omitempty"`

	// ERPLink is the dashboard URL embedded in the email body.
	ERPLink string `json:"erp_link,omitempty"`

	// SendInterval is a Go duration string pacing per-recipient sends
	// (default "1500ms").
	SendInterval string `json:"send_interval,omitempty"`
}

// StorageConfig controls the optional run-history store.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./invrep.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}
