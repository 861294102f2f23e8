package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "./config.yaml"

// ErrConfigNotFound is returned when the YAML file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Load returns a Config read from DefaultConfigFile.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is required.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	// A .env next to the process is optional.
	_ = godotenv.Load()
	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if root.Kind == 0 {
		return nil // empty file
	}

	normalizeDurations(&root)
	if err := root.Decode(cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// durationKeys are the YAML keys decoded into time.Duration.
var durationKeys = map[string]bool{
	"http_timeout": true,
	"cooldown":     true,
}

// normalizeDurations rewrites plain integers under duration keys as
// seconds ("0" -> "0s"), since yaml.v3 only decodes strings into time.Duration.
func normalizeDurations(n *yaml.Node) {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if durationKeys[key.Value] && val.Kind == yaml.ScalarNode && val.ShortTag() == "!!int" {
				val.Value += "s"
				val.Tag = "!!str"
			}
		}
	}
	for _, c := range n.Content {
		normalizeDurations(c)
	}
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.APIBaseURL, "DAILYREPORT_API_BASE_URL")
	setString(&cfg.APIKey, "DAILYREPORT_API_KEY")
	setDuration(&cfg.HTTPTimeout, "DAILYREPORT_HTTP_TIMEOUT")
	setString(&cfg.SMTPServer, "DAILYREPORT_SMTP_SERVER")
	setInt(&cfg.SMTPPort, "DAILYREPORT_SMTP_PORT")
	setString(&cfg.SenderEmail, "DAILYREPORT_SENDER_EMAIL")
	setString(&cfg.SenderPassword, "DAILYREPORT_SENDER_PASSWORD")
	setString(&cfg.AdminIDsFile, "DAILYREPORT_ADMIN_IDS_FILE")
	setBool(&cfg.ContinueOnSendError, "DAILYREPORT_CONTINUE_ON_SEND_ERROR")

	// API breaker
	setInt(&cfg.APIBreaker.MaxFailures, "DAILYREPORT_BREAKER_MAX_FAILURES")
	setDuration(&cfg.APIBreaker.Cooldown, "DAILYREPORT_BREAKER_COOLDOWN")

	// Report
	setString(&cfg.Report.Dir, "DAILYREPORT_REPORT_DIR")
	setBool(&cfg.Report.KeepFiles, "DAILYREPORT_KEEP_REPORTS")

	// Logging
	setString(&cfg.Logging.Level, "DAILYREPORT_LOG_LEVEL")
	setString(&cfg.Logging.Format, "DAILYREPORT_LOG_FORMAT")

	// Telemetry
	setString(&cfg.Telemetry.OTLPEndpoint, "DAILYREPORT_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "DAILYREPORT_OTLP_INSECURE")

	// Schedule
	setString(&cfg.Schedule.Spec, "DAILYREPORT_SCHEDULE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.APIBaseURL == "" {
		return errors.New("api_base_url is required")
	}
	if cfg.SMTPServer == "" {
		return errors.New("smtp_server is required")
	}
	if cfg.SMTPPort < 1 || cfg.SMTPPort > 65535 {
		return errors.New("smtp_port must be between 1 and 65535")
	}
	if cfg.SenderEmail == "" {
		return errors.New("sender_email is required")
	}
	if cfg.SenderPassword == "" {
		return errors.New("sender_password is required")
	}
	if cfg.AdminIDsFile == "" {
		return errors.New("admin_ids_file is required")
	}
	if cfg.HTTPTimeout < 0 {
		return errors.New("http_timeout must be >= 0")
	}
	if cfg.APIBreaker.MaxFailures < 0 {
		return errors.New("api_breaker.max_failures must be >= 0")
	}
	if cfg.APIBreaker.Cooldown < 0 {
		return errors.New("api_breaker.cooldown must be >= 0")
	}
	if cfg.Report.Dir == "" {
		return errors.New("report.dir is required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
