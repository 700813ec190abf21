package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Feeds []string `yaml:"feeds" json:"feeds" jsonschema:"description=Feed URLs to check"`

	Schedule struct {
		UpdateInterval time.Duration `yaml:"update_interval" json:"update_interval" jsonschema:"default=30m,description=Feed check interval"`
		MaxWorkers     int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=5,description=Maximum concurrent feed checks"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=Scheduler configuration"`

	Fetch struct {
		Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Feed fetch timeout"`
		UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Feedmailer/1.0,description=User agent for feed requests"`
	} `yaml:"fetch" json:"fetch" jsonschema:"description=Feed fetching configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:feedmailer.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Seen-state database configuration"`

	State struct {
		MaxKnownIDs int `yaml:"max_known_ids" json:"max_known_ids" jsonschema:"default=0,description=Cap on remembered identities per feed; 0 keeps all forever. A capped state may re-notify a very old re-appearing entry."`
	} `yaml:"state" json:"state" jsonschema:"description=Seen-state tuning"`

	Email EmailConfig `yaml:"email" json:"email" jsonschema:"description=Email notification configuration"`

	Server struct {
		Enabled bool          `yaml:"enabled" json:"enabled" jsonschema:"default=true,description=Enable status HTTP server"`
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Status server configuration"`
}

// EmailConfig holds email provider and addressing settings
type EmailConfig struct {
	AccountID     string        `yaml:"account_id" json:"account_id" jsonschema:"required,description=Zoho Mail account id"`
	ClientID      string        `yaml:"client_id" json:"client_id" jsonschema:"required,description=OAuth2 client id"`
	ClientSecret  string        `yaml:"client_secret" json:"client_secret" jsonschema:"required,description=OAuth2 client secret (can use environment variable)"`
	TokenURL      string        `yaml:"token_url" json:"token_url" jsonschema:"default=https://accounts.zoho.com/oauth/v2/token,description=OAuth2 token endpoint"`
	APIBase       string        `yaml:"api_base" json:"api_base" jsonschema:"default=https://mail.zoho.com/api,description=Mail API base URL"`
	From          string        `yaml:"from" json:"from" jsonschema:"required,description=Sender address"`
	To            string        `yaml:"to" json:"to" jsonschema:"required,description=Single recipient address"`
	SubjectPrefix string        `yaml:"subject_prefix" json:"subject_prefix" jsonschema:"description=Optional prefix for subject lines"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Mail API request timeout"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// set defaults for schedule
	if cfg.Schedule.UpdateInterval == 0 {
		cfg.Schedule.UpdateInterval = 30 * time.Minute
	}
	if cfg.Schedule.MaxWorkers == 0 {
		cfg.Schedule.MaxWorkers = 5
	}

	// set defaults for fetch
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "Feedmailer/1.0"
	}

	// set defaults for database
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:feedmailer.db?cache=shared&mode=rwc"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	// set defaults for email
	if cfg.Email.TokenURL == "" {
		cfg.Email.TokenURL = "https://accounts.zoho.com/oauth/v2/token"
	}
	if cfg.Email.APIBase == "" {
		cfg.Email.APIBase = "https://mail.zoho.com/api"
	}
	if cfg.Email.Timeout == 0 {
		cfg.Email.Timeout = 30 * time.Second
	}

	// set defaults for server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	// validate email config
	if cfg.Email.AccountID == "" {
		return fmt.Errorf("email.account_id is required")
	}
	if cfg.Email.ClientID == "" {
		return fmt.Errorf("email.client_id is required")
	}
	if cfg.Email.ClientSecret == "" {
		return fmt.Errorf("email.client_secret is required")
	}
	if cfg.Email.From == "" {
		return fmt.Errorf("email.from is required")
	}
	if cfg.Email.To == "" {
		return fmt.Errorf("email.to is required")
	}

	// validate schedule config
	if cfg.Schedule.UpdateInterval < time.Minute {
		return fmt.Errorf("schedule.update_interval must be at least 1 minute")
	}
	if cfg.Schedule.MaxWorkers < 1 {
		return fmt.Errorf("schedule.max_workers must be at least 1")
	}

	// validate state config
	if cfg.State.MaxKnownIDs < 0 {
		return fmt.Errorf("state.max_known_ids must be non-negative")
	}

	// validate server config
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server.timeout must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetEmailConfig returns email configuration
func (c *Config) GetEmailConfig() EmailConfig {
	return c.Email
}
