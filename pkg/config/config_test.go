package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
feeds:
  - https://example.com/feed.xml
  - https://other.example.com/rss

schedule:
  update_interval: 15m
  max_workers: 3

fetch:
  timeout: 10s
  user_agent: "Custom/2.0"

database:
  dsn: "file:/tmp/test.db?mode=rwc"
  max_open_conns: 20

state:
  max_known_ids: 500

email:
  account_id: "acc-1"
  client_id: "cid"
  client_secret: "secret"
  from: "alerts@example.com"
  to: "reader@example.com"
  subject_prefix: "[feeds]"

server:
  enabled: true
  listen: ":9090"
  timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/feed.xml", "https://other.example.com/rss"}, cfg.Feeds)
	assert.Equal(t, 15*time.Minute, cfg.Schedule.UpdateInterval)
	assert.Equal(t, 3, cfg.Schedule.MaxWorkers)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "Custom/2.0", cfg.Fetch.UserAgent)
	assert.Equal(t, "file:/tmp/test.db?mode=rwc", cfg.Database.DSN)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, 500, cfg.State.MaxKnownIDs)
	assert.Equal(t, "acc-1", cfg.Email.AccountID)
	assert.Equal(t, "[feeds]", cfg.Email.SubjectPrefix)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, ":9090", cfg.Server.Listen)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
feeds:
  - https://example.com/feed.xml
email:
  account_id: "acc"
  client_id: "cid"
  client_secret: "secret"
  from: "a@example.com"
  to: "b@example.com"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Schedule.UpdateInterval)
	assert.Equal(t, 5, cfg.Schedule.MaxWorkers)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "Feedmailer/1.0", cfg.Fetch.UserAgent)
	assert.Equal(t, "file:feedmailer.db?cache=shared&mode=rwc", cfg.Database.DSN)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 3600, cfg.Database.ConnMaxLifetime)
	assert.Zero(t, cfg.State.MaxKnownIDs, "unlimited identity memory by default")
	assert.Equal(t, "https://accounts.zoho.com/oauth/v2/token", cfg.Email.TokenURL)
	assert.Equal(t, "https://mail.zoho.com/api", cfg.Email.APIBase)
	assert.Equal(t, 30*time.Second, cfg.Email.Timeout)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_FEEDMAILER_SECRET", "from-env")

	path := writeConfig(t, `
feeds:
  - https://example.com/feed.xml
email:
  account_id: "acc"
  client_id: "cid"
  client_secret: "${TEST_FEEDMAILER_SECRET}"
  from: "a@example.com"
  to: "b@example.com"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Email.ClientSecret)
}

func TestLoad_Errors(t *testing.T) {
	validEmail := `
email:
  account_id: "acc"
  client_id: "cid"
  client_secret: "secret"
  from: "a@example.com"
  to: "b@example.com"
`

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "missing account id",
			content: "email:\n  client_id: cid\n  client_secret: s\n  from: a@b.c\n  to: d@e.f\n",
			errMsg:  "email.account_id is required",
		},
		{
			name:    "missing client secret",
			content: "email:\n  account_id: acc\n  client_id: cid\n  from: a@b.c\n  to: d@e.f\n",
			errMsg:  "email.client_secret is required",
		},
		{
			name:    "missing recipient",
			content: "email:\n  account_id: acc\n  client_id: cid\n  client_secret: s\n  from: a@b.c\n",
			errMsg:  "email.to is required",
		},
		{
			name:    "interval too short",
			content: validEmail + "schedule:\n  update_interval: 10s\n",
			errMsg:  "schedule.update_interval must be at least 1 minute",
		},
		{
			name:    "negative workers",
			content: validEmail + "schedule:\n  max_workers: -1\n",
			errMsg:  "schedule.max_workers must be at least 1",
		},
		{
			name:    "negative known ids cap",
			content: validEmail + "state:\n  max_known_ids: -5\n",
			errMsg:  "state.max_known_ids must be non-negative",
		},
		{
			name:    "invalid yaml",
			content: "feeds: [broken",
			errMsg:  "parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestConfig_Getters(t *testing.T) {
	path := writeConfig(t, `
feeds:
  - https://example.com/feed.xml
email:
  account_id: "acc"
  client_id: "cid"
  client_secret: "secret"
  from: "a@example.com"
  to: "b@example.com"
server:
  listen: ":7070"
  timeout: 10s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	listen, timeout := cfg.GetServerConfig()
	assert.Equal(t, ":7070", listen)
	assert.Equal(t, 10*time.Second, timeout)

	email := cfg.GetEmailConfig()
	assert.Equal(t, "acc", email.AccountID)
	assert.Equal(t, "b@example.com", email.To)
}
