package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names shared with the original deployment. Secrets
// (SMTP_PASSWORD, ERP_API_TOKEN, AWS credentials) are read directly by the
// components that need them and never stored in Config.
const (
	EnvS3Bucket      = "INVENTORY_S3_BUCKET"
	EnvS3Prefix      = "INVENTORY_S3_PREFIX"
	EnvFileExtension = "INVENTORY_FILE_EXTENSION"
	EnvAWSRegion     = "AWS_REGION"

	EnvSMTPServer = "SMTP_SERVER"
	EnvSMTPPort   = "SMTP_PORT"
	EnvSMTPUser   = "SMTP_USER"
	EnvSMTPPass   = "SMTP_PASSWORD"

	EnvRecipients       = "EMAIL_RECIPIENTS"
	EnvUseAPIRecipients = "USE_API_EMAIL_RECIPIENTS"
	EnvERPEndpoint      = "ERP_GRAPHQL_ENDPOINT"
	EnvERPToken         = "ERP_API_TOKEN"
	EnvERPTimeout       = "ERP_API_TIMEOUT"
	EnvERPLink          = "ERP_SYSTEM_LINK"

	EnvProjectRoot = "PROJECT_ROOT"
	EnvVenvPath    = "VENV_PATH"
)

// ApplyEnv overlays operational environment variables onto cfg. Env values
// win over file values so the same .env that drove the original deployment
// keeps working unchanged.
func ApplyEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := strings.TrimSpace(os.Getenv(EnvS3Bucket)); v != "" {
		cfg.Source.Bucket = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvS3Prefix)); v != "" {
		cfg.Source.Prefix = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFileExtension)); v != "" {
		cfg.Source.Extension = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAWSRegion)); v != "" {
		cfg.Source.Region = v
	}

	if v := strings.TrimSpace(os.Getenv(EnvSMTPServer)); v != "" {
		cfg.Email.SMTPServer = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSMTPPort)); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.Email.SMTPPort = p
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvRecipients)); v != "" {
		cfg.Email.Recipients = SplitRecipients(v)
	}
	if v, ok := os.LookupEnv(EnvUseAPIRecipients); ok {
		cfg.Email.UseAPIRecipients = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvERPEndpoint)); v != "" {
		cfg.Email.ERPEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvERPTimeout)); v != "" {
		// Accept both bare seconds ("10") and Go durations ("10s").
		if _, err := strconv.Atoi(v); err == nil {
			v += "s"
		}
		if _, err := time.ParseDuration(v); err == nil {
			cfg.Email.ERPTimeout = v
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvERPLink)); v != "" {
		cfg.Email.ERPLink = v
	}
}

// SplitRecipients parses a comma-separated address list, dropping empties.
func SplitRecipients(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
