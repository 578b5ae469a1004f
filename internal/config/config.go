// Package config loads settings from ~/.nts/config.toml and NTS_ variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "NTS"
	configDir  = ".nts"
	configName = "config"
	configType = "toml"
)

type Config struct {
	Tidepool   TidepoolConfig   `mapstructure:"tidepool"`
	Nightscout NightscoutConfig `mapstructure:"nightscout"`
	Sync       SyncConfig       `mapstructure:"sync"`
	State      StateConfig      `mapstructure:"state"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type TidepoolConfig struct {
	APIHost           string        `mapstructure:"api_host"`
	Username          string        `mapstructure:"username"`
	Password          string        `mapstructure:"password"`
	PasswordRef       string        `mapstructure:"password_ref"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

type NightscoutConfig struct {
	MongoURI string `mapstructure:"mongo_uri"`
	Database string `mapstructure:"database"`
}

type SyncConfig struct {
	EntriesCount    int           `mapstructure:"entries_count"`
	TreatmentsCount int           `mapstructure:"treatments_count"`
	ChunkSize       int           `mapstructure:"chunk_size"`
	UploadAttempts  int           `mapstructure:"upload_attempts"`
	UploadBackoff   time.Duration `mapstructure:"upload_backoff"`
	Interval        time.Duration `mapstructure:"interval"`
	WatchPaths      []string      `mapstructure:"watch_paths"`
	DryRun          bool          `mapstructure:"dry_run"`
	LedgerTTL       time.Duration `mapstructure:"ledger_ttl"`
	OriginName      string        `mapstructure:"origin_name"`
}

type StateConfig struct {
	Path string `mapstructure:"path"`
}

type SecretsConfig struct {
	Dir     string `mapstructure:"dir"`
	PassDir string `mapstructure:"pass_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Dir is the directory holding the config file, state and file secrets.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, configDir), nil
}

// Defaults registers every key so environment overrides apply even when the
// config file does not mention them.
func Defaults(v *viper.Viper, dir string) {
	v.SetDefault("tidepool.api_host", "https://api.tidepool.org")
	v.SetDefault("tidepool.username", "")
	v.SetDefault("tidepool.password", "")
	v.SetDefault("tidepool.password_ref", "")
	v.SetDefault("tidepool.request_timeout", 30*time.Second)
	v.SetDefault("tidepool.requests_per_second", 5.0)

	v.SetDefault("nightscout.mongo_uri", "")
	v.SetDefault("nightscout.database", "")

	v.SetDefault("sync.entries_count", 500)
	v.SetDefault("sync.treatments_count", 500)
	v.SetDefault("sync.chunk_size", 1000)
	v.SetDefault("sync.upload_attempts", 3)
	v.SetDefault("sync.upload_backoff", 2*time.Second)
	v.SetDefault("sync.interval", 5*time.Minute)
	v.SetDefault("sync.watch_paths", []string{})
	v.SetDefault("sync.dry_run", false)
	v.SetDefault("sync.ledger_ttl", 48*time.Hour)
	v.SetDefault("sync.origin_name", "")

	v.SetDefault("state.path", filepath.Join(dir, "state.toml"))
	v.SetDefault("secrets.dir", filepath.Join(dir, "secrets"))
	v.SetDefault("secrets.pass_dir", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")

	v.SetDefault("metrics.addr", "")
}

// Load reads configFile, or config.toml in dir when configFile is empty. A
// missing default file is not an error.
func Load(v *viper.Viper, dir, configFile string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	Defaults(v, dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Sync.WatchPaths = splitPaths(cfg.Sync.WatchPaths)

	return cfg, nil
}

// Validate checks what every command needs. Source and credential checks
// live in ValidateSync since status and auth commands do not need them.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Tidepool.BaseURL(); err != nil {
		errs = append(errs, err)
	}
	if c.Tidepool.RequestTimeout <= 0 {
		errs = append(errs, errors.New("tidepool.request_timeout must be positive"))
	}
	if c.Tidepool.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("tidepool.requests_per_second must not be negative"))
	}
	if c.Sync.EntriesCount <= 0 || c.Sync.TreatmentsCount <= 0 {
		errs = append(errs, errors.New("sync.entries_count and sync.treatments_count must be positive"))
	}
	if c.Sync.ChunkSize <= 0 {
		errs = append(errs, errors.New("sync.chunk_size must be positive"))
	}
	if c.Sync.UploadAttempts <= 0 {
		errs = append(errs, errors.New("sync.upload_attempts must be positive"))
	}
	if c.Sync.UploadBackoff < 0 {
		errs = append(errs, errors.New("sync.upload_backoff must not be negative"))
	}
	if c.State.Path == "" {
		errs = append(errs, errors.New("state.path is required"))
	}
	return errors.Join(errs...)
}

// ValidateSync checks the settings a sync pass needs on top of Validate.
func (c Config) ValidateSync() error {
	var errs []error
	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Tidepool.Username) == "" {
		errs = append(errs, errors.New("tidepool.username is required"))
	}
	if strings.TrimSpace(c.Nightscout.MongoURI) == "" {
		errs = append(errs, errors.New("nightscout.mongo_uri is required"))
	}
	return errors.Join(errs...)
}

// BaseURL accepts a bare host or a full URL.
func (t TidepoolConfig) BaseURL() (string, error) {
	host := strings.TrimSpace(t.APIHost)
	if host == "" {
		return "", errors.New("tidepool.api_host is required")
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	parsed, err := url.Parse(host)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("tidepool.api_host %q is not a valid host or URL", t.APIHost)
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

// splitPaths accepts both a list and a single comma separated value, the
// form NTS_SYNC_WATCH_PATHS arrives in.
func splitPaths(paths []string) []string {
	var out []string
	for _, path := range paths {
		for _, part := range strings.Split(path, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
