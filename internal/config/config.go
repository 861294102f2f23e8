// Package config provides hierarchical configuration loading for dailyreport.
// Precedence: defaults < YAML file < environment variables.
package config

import (
	"os"
	"time"
)

// Config holds all runtime configuration for one dailyreport process.
// Top-level keys are flat so existing cron config files load unchanged.
type Config struct {
	APIBaseURL          string        `yaml:"api_base_url"`
	APIKey              string        `yaml:"api_key"`      // Sent as X-Authorization when set
	HTTPTimeout         time.Duration `yaml:"http_timeout"` // 0 disables the timeout
	SMTPServer          string        `yaml:"smtp_server"`
	SMTPPort            int           `yaml:"smtp_port"`
	SenderEmail         string        `yaml:"sender_email"`
	SenderPassword      string        `yaml:"sender_password"`
	AdminIDsFile        string        `yaml:"admin_ids_file"`
	ContinueOnSendError bool          `yaml:"continue_on_send_error"`

	APIBreaker APIBreaker `yaml:"api_breaker"`

	Report    Report    `yaml:"report"`
	Logging   Logging   `yaml:"logging"`
	Telemetry Telemetry `yaml:"telemetry"`
	Schedule  Schedule  `yaml:"schedule"`
}

// APIBreaker configures the circuit breaker in front of the insights API.
// MaxFailures 0 disables it.
type APIBreaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

// Report controls where generated CSV files go and whether they are kept.
type Report struct {
	Dir       string `yaml:"dir"`
	KeepFiles bool   `yaml:"keep_files"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // "json" | "text"
	Service string `yaml:"service"`
}

// Telemetry holds OTLP exporter configuration. An empty endpoint disables export.
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
	ServiceName  string `yaml:"service_name"`
}

// Schedule holds the cron expression used by the schedule command.
type Schedule struct {
	Spec       string `yaml:"spec"`
	RunOnStart bool   `yaml:"run_on_start"`
}

// Defaults returns a Config with the optional settings filled in.
// Required keys stay empty so validation catches a config file that omits them.
func Defaults() Config {
	return Config{
		HTTPTimeout: 30 * time.Second,
		APIBreaker: APIBreaker{
			MaxFailures: 5,
			Cooldown:    30 * time.Second,
		},
		Report: Report{
			Dir:       os.TempDir(),
			KeepFiles: true,
		},
		Logging: Logging{
			Level:   "info",
			Format:  "json",
			Service: "dailyreport",
		},
		Telemetry: Telemetry{
			ServiceName: "dailyreport",
		},
		Schedule: Schedule{
			Spec: "@daily",
		},
	}
}

// LogAttrs returns the settings worth logging at startup, with secrets redacted.
func (c *Config) LogAttrs() []any {
	return []any{
		"api_base_url", c.APIBaseURL,
		"api_key", redact(c.APIKey),
		"http_timeout", c.HTTPTimeout,
		"api_breaker_max_failures", c.APIBreaker.MaxFailures,
		"smtp_server", c.SMTPServer,
		"smtp_port", c.SMTPPort,
		"sender_email", c.SenderEmail,
		"sender_password", redact(c.SenderPassword),
		"admin_ids_file", c.AdminIDsFile,
		"report_dir", c.Report.Dir,
		"keep_reports", c.Report.KeepFiles,
		"continue_on_send_error", c.ContinueOnSendError,
		"log_level", c.Logging.Level,
		"otlp_endpoint", c.Telemetry.OTLPEndpoint,
		"schedule", c.Schedule.Spec,
	}
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
