package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(viper.New(), dir, "")
	require.NoError(t, err)

	assert.Equal(t, "https://api.tidepool.org", cfg.Tidepool.APIHost)
	assert.Equal(t, 30*time.Second, cfg.Tidepool.RequestTimeout)
	assert.Equal(t, 500, cfg.Sync.EntriesCount)
	assert.Equal(t, 500, cfg.Sync.TreatmentsCount)
	assert.Equal(t, 1000, cfg.Sync.ChunkSize)
	assert.Equal(t, 3, cfg.Sync.UploadAttempts)
	assert.Equal(t, 2*time.Second, cfg.Sync.UploadBackoff)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 48*time.Hour, cfg.Sync.LedgerTTL)
	assert.Equal(t, filepath.Join(dir, "state.toml"), cfg.State.Path)
	assert.Equal(t, filepath.Join(dir, "secrets"), cfg.Secrets.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Sync.WatchPaths)
	require.NoError(t, cfg.Validate())
}

func TestLoadReadsTOMLFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[tidepool]
api_host = "int-api.tidepool.org"
username = "user@example.com"
request_timeout = "10s"

[nightscout]
mongo_uri = "mongodb://localhost:27017/nightscout"

[sync]
chunk_size = 250
interval = "1m"
watch_paths = ["/var/lib/nightscout/entries.json", "/var/lib/nightscout/treatments.json"]
dry_run = true
`), 0o600))

	cfg, err := Load(viper.New(), dir, "")
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", cfg.Tidepool.Username)
	assert.Equal(t, 10*time.Second, cfg.Tidepool.RequestTimeout)
	assert.Equal(t, "mongodb://localhost:27017/nightscout", cfg.Nightscout.MongoURI)
	assert.Equal(t, 250, cfg.Sync.ChunkSize)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
	assert.True(t, cfg.Sync.DryRun)
	assert.Equal(t, []string{"/var/lib/nightscout/entries.json", "/var/lib/nightscout/treatments.json"}, cfg.Sync.WatchPaths)

	baseURL, err := cfg.Tidepool.BaseURL()
	require.NoError(t, err)
	assert.Equal(t, "https://int-api.tidepool.org", baseURL)
	require.NoError(t, cfg.ValidateSync())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NTS_TIDEPOOL_USERNAME", "env@example.com")
	t.Setenv("NTS_SYNC_CHUNK_SIZE", "42")
	t.Setenv("NTS_SYNC_WATCH_PATHS", "/a.json, /b.json")
	t.Setenv("NTS_LOG_LEVEL", "debug")

	cfg, err := Load(viper.New(), dir, "")
	require.NoError(t, err)

	assert.Equal(t, "env@example.com", cfg.Tidepool.Username)
	assert.Equal(t, 42, cfg.Sync.ChunkSize)
	assert.Equal(t, []string{"/a.json", "/b.json"}, cfg.Sync.WatchPaths)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	_, err := Load(viper.New(), t.TempDir(), filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorContains(t, err, "read config")
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[tidepool\n"), 0o600))

	_, err := Load(viper.New(), dir, "")
	require.ErrorContains(t, err, "read config")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load(viper.New(), t.TempDir(), "")
		require.NoError(t, err)
		cfg.Tidepool.Username = "user@example.com"
		cfg.Nightscout.MongoURI = "mongodb://localhost/ns"
		return cfg
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty host", mutate: func(c *Config) { c.Tidepool.APIHost = "" }, wantErr: "tidepool.api_host is required"},
		{name: "bad host", mutate: func(c *Config) { c.Tidepool.APIHost = "https://" }, wantErr: "not a valid host"},
		{name: "timeout", mutate: func(c *Config) { c.Tidepool.RequestTimeout = 0 }, wantErr: "request_timeout"},
		{name: "chunk size", mutate: func(c *Config) { c.Sync.ChunkSize = 0 }, wantErr: "chunk_size"},
		{name: "attempts", mutate: func(c *Config) { c.Sync.UploadAttempts = 0 }, wantErr: "upload_attempts"},
		{name: "username", mutate: func(c *Config) { c.Tidepool.Username = " " }, wantErr: "tidepool.username is required"},
		{name: "mongo uri", mutate: func(c *Config) { c.Nightscout.MongoURI = "" }, wantErr: "nightscout.mongo_uri is required"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			require.NoError(t, cfg.ValidateSync())

			tc.mutate(&cfg)
			require.ErrorContains(t, cfg.ValidateSync(), tc.wantErr)
		})
	}
}
