package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
api_base_url: "https://api.example.com/api"
smtp_server: "smtp.example.com"
smtp_port: 587
sender_email: "reports@example.com"
sender_password: "s3cret"
admin_ids_file: "./admin_ids.txt"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func validConfig() Config {
	cfg := Defaults()
	cfg.APIBaseURL = "https://api.example.com/api"
	cfg.SMTPServer = "smtp.example.com"
	cfg.SMTPPort = 587
	cfg.SenderEmail = "reports@example.com"
	cfg.SenderPassword = "s3cret"
	cfg.AdminIDsFile = "./admin_ids.txt"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("expected http timeout 30s, got %v", cfg.HTTPTimeout)
	}
	if !cfg.Report.KeepFiles {
		t.Error("expected report files to be kept by default")
	}
	if cfg.Report.Dir != os.TempDir() {
		t.Errorf("expected report dir %s, got %s", os.TempDir(), cfg.Report.Dir)
	}
	if cfg.ContinueOnSendError {
		t.Error("expected send errors to abort the run by default")
	}
	if cfg.APIBreaker.MaxFailures != 5 || cfg.APIBreaker.Cooldown != 30*time.Second {
		t.Errorf("unexpected breaker defaults %+v", cfg.APIBreaker)
	}
	if cfg.APIBaseURL != "" {
		t.Errorf("expected no default api_base_url, got %s", cfg.APIBaseURL)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	path := writeConfig(t, validYAML+`
api_key: "k-123"
http_timeout: "5s"
report:
  dir: "/var/reports"
  keep_files: false
logging:
  level: "debug"
`)

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		t.Fatal(err)
	}

	if cfg.APIBaseURL != "https://api.example.com/api" {
		t.Errorf("expected api base url from yaml, got %s", cfg.APIBaseURL)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("expected smtp port 587, got %d", cfg.SMTPPort)
	}
	if cfg.APIKey != "k-123" {
		t.Errorf("expected api key k-123, got %s", cfg.APIKey)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("expected http timeout 5s, got %v", cfg.HTTPTimeout)
	}
	if cfg.Report.Dir != "/var/reports" {
		t.Errorf("expected report dir /var/reports, got %s", cfg.Report.Dir)
	}
	if cfg.Report.KeepFiles {
		t.Error("expected keep_files=false from yaml")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.Logging.Format != "json" {
		t.Errorf("expected default log format json, got %s", cfg.Logging.Format)
	}
}

func TestLoadYAMLIntegerDurations(t *testing.T) {
	path := writeConfig(t, validYAML+`
http_timeout: 0
api_breaker:
  max_failures: 3
  cooldown: 0
`)

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		t.Fatalf("loadYAML: %v", err)
	}
	if cfg.HTTPTimeout != 0 {
		t.Errorf("expected http timeout disabled, got %v", cfg.HTTPTimeout)
	}
	if cfg.APIBreaker.Cooldown != 0 {
		t.Errorf("expected cooldown 0, got %v", cfg.APIBreaker.Cooldown)
	}
	if cfg.APIBreaker.MaxFailures != 3 {
		t.Errorf("expected max_failures 3 to stay an int, got %d", cfg.APIBreaker.MaxFailures)
	}
}

func TestLoadYAMLIntegerDurationIsSeconds(t *testing.T) {
	path := writeConfig(t, validYAML+`
http_timeout: 45
api_breaker:
  cooldown: "2m"
`)

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPTimeout != 45*time.Second {
		t.Errorf("expected 45s, got %v", cfg.HTTPTimeout)
	}
	if cfg.APIBreaker.Cooldown != 2*time.Minute {
		t.Errorf("expected 2m, got %v", cfg.APIBreaker.Cooldown)
	}
}

func TestLoadFrom_ZeroTimeout(t *testing.T) {
	path := writeConfig(t, validYAML+"http_timeout: 0\n")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.HTTPTimeout != 0 {
		t.Errorf("expected http timeout 0, got %v", cfg.HTTPTimeout)
	}
}

func TestLoadYAMLEmptyFile(t *testing.T) {
	path := writeConfig(t, "")

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		t.Fatalf("expected empty file to leave defaults, got %v", err)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.HTTPTimeout)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/config.yaml")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	path := writeConfig(t, "api_base_url: [unterminated")

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("DAILYREPORT_API_BASE_URL", "http://localhost:8000/api")
	t.Setenv("DAILYREPORT_SMTP_PORT", "2525")
	t.Setenv("DAILYREPORT_HTTP_TIMEOUT", "1m")
	t.Setenv("DAILYREPORT_KEEP_REPORTS", "false")
	t.Setenv("DAILYREPORT_CONTINUE_ON_SEND_ERROR", "true")
	t.Setenv("DAILYREPORT_LOG_LEVEL", "warn")
	t.Setenv("DAILYREPORT_BREAKER_MAX_FAILURES", "0")

	loadEnv(&cfg)

	if cfg.APIBreaker.MaxFailures != 0 {
		t.Errorf("expected breaker disabled from env, got %d", cfg.APIBreaker.MaxFailures)
	}

	if cfg.APIBaseURL != "http://localhost:8000/api" {
		t.Errorf("expected env api base url, got %s", cfg.APIBaseURL)
	}
	if cfg.SMTPPort != 2525 {
		t.Errorf("expected smtp port 2525, got %d", cfg.SMTPPort)
	}
	if cfg.HTTPTimeout != time.Minute {
		t.Errorf("expected http timeout 1m, got %v", cfg.HTTPTimeout)
	}
	if cfg.Report.KeepFiles {
		t.Error("expected keep_files=false from env")
	}
	if !cfg.ContinueOnSendError {
		t.Error("expected continue_on_send_error=true from env")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
}

func TestEnvInvalidIgnored(t *testing.T) {
	cfg := Defaults()
	cfg.SMTPPort = 587

	t.Setenv("DAILYREPORT_SMTP_PORT", "not-a-number")
	loadEnv(&cfg)

	if cfg.SMTPPort != 587 {
		t.Errorf("expected invalid env to be ignored, got %d", cfg.SMTPPort)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty api base url",
			modify: func(c *Config) { c.APIBaseURL = "" },
			errMsg: "api_base_url is required",
		},
		{
			name:   "empty smtp server",
			modify: func(c *Config) { c.SMTPServer = "" },
			errMsg: "smtp_server is required",
		},
		{
			name:   "zero smtp port",
			modify: func(c *Config) { c.SMTPPort = 0 },
			errMsg: "smtp_port must be between 1 and 65535",
		},
		{
			name:   "smtp port out of range",
			modify: func(c *Config) { c.SMTPPort = 70000 },
			errMsg: "smtp_port must be between 1 and 65535",
		},
		{
			name:   "empty sender email",
			modify: func(c *Config) { c.SenderEmail = "" },
			errMsg: "sender_email is required",
		},
		{
			name:   "empty sender password",
			modify: func(c *Config) { c.SenderPassword = "" },
			errMsg: "sender_password is required",
		},
		{
			name:   "empty admin ids file",
			modify: func(c *Config) { c.AdminIDsFile = "" },
			errMsg: "admin_ids_file is required",
		},
		{
			name:   "negative http timeout",
			modify: func(c *Config) { c.HTTPTimeout = -time.Second },
			errMsg: "http_timeout must be >= 0",
		},
		{
			name:   "negative breaker threshold",
			modify: func(c *Config) { c.APIBreaker.MaxFailures = -1 },
			errMsg: "api_breaker.max_failures must be >= 0",
		},
		{
			name:   "negative breaker cooldown",
			modify: func(c *Config) { c.APIBreaker.Cooldown = -time.Second },
			errMsg: "api_breaker.cooldown must be >= 0",
		},
		{
			name:   "empty report dir",
			modify: func(c *Config) { c.Report.Dir = "" },
			errMsg: "report.dir is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateDefaultsRejected(t *testing.T) {
	cfg := Defaults()
	if err := validate(&cfg); err == nil {
		t.Error("defaults alone must not validate: required keys have no fallback")
	}
}

func TestLoadFrom_FullHierarchy(t *testing.T) {
	path := writeConfig(t, validYAML+`
logging:
  level: "debug"
`)
	t.Setenv("DAILYREPORT_LOG_LEVEL", "error")
	t.Setenv("DAILYREPORT_SENDER_EMAIL", "override@example.com")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Logging.Level != "error" {
		t.Errorf("env should override YAML: got level %q, want error", cfg.Logging.Level)
	}
	if cfg.SenderEmail != "override@example.com" {
		t.Errorf("env should override YAML: got sender %q", cfg.SenderEmail)
	}
	if cfg.SMTPServer != "smtp.example.com" {
		t.Errorf("expected smtp server from yaml, got %q", cfg.SMTPServer)
	}
}

func TestLoadFrom_MissingFileFails(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadFrom_MissingRequiredKey(t *testing.T) {
	path := writeConfig(t, `
api_base_url: "https://api.example.com/api"
`)
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected validation error, got nil")
	}
}

func TestLogAttrsRedactsSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.APIKey = "k-123"

	attrs := cfg.LogAttrs()
	for i := 0; i+1 < len(attrs); i += 2 {
		key, _ := attrs[i].(string)
		if key != "sender_password" && key != "api_key" {
			continue
		}
		if attrs[i+1] != "***" {
			t.Errorf("expected %s to be redacted, got %v", key, attrs[i+1])
		}
	}
}
