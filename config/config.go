package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingSecrets is returned when the hosted store is selected but its
// URL or key has not been supplied.
var ErrMissingSecrets = errors.New("SUPABASE_URL and SUPABASE_KEY must be set for the postgres driver")

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config represents the overall application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Notification NotificationConfig `yaml:"notification"`
	Push         PushConfig         `yaml:"push"`
	Backup       BackupConfig       `yaml:"backup"`
	Log          LogConfig          `yaml:"log"`
	WorkerPool   WorkerPoolConfig   `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	Mode            string   `yaml:"mode"`
	Timezone        string   `yaml:"timezone"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	AllowedOrigins  []string `yaml:"allowed_origins"`

	Location *time.Location `yaml:"-"`
}

// DatabaseConfig selects and configures the backing store.
//
// With the postgres driver, URL is the hosted project's connection URL and Key
// is injected into it as the password. DSN, when set, is used verbatim.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	URL                    string `yaml:"url"`
	Key                    string `yaml:"key"`
	DSN                    string `yaml:"dsn"`
	Path                   string `yaml:"path"`
	AllowDegraded          bool   `yaml:"allow_degraded"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// NotificationConfig controls the overdue/open digest.
type NotificationConfig struct {
	Enabled             bool   `yaml:"enabled"`
	MailConfigPath      string `yaml:"mail_config_path"`
	DigestIntervalHours int    `yaml:"digest_interval_hours"`

	DigestInterval time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// BackupConfig holds the local backup directory and the optional bucket.
type BackupConfig struct {
	DataDir string        `yaml:"data_dir"`
	Storage StorageConfig `yaml:"storage"`
}

// StorageConfig describes an S3-compatible bucket for uploaded backups.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// LogConfig selects the zap configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the configuration from the given path, then applies environment
// overrides and defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets the deployment secrets override whatever the file says.
func (c *Config) applyEnv() {
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("SUPABASE_KEY"); v != "" {
		c.Database.Key = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("MAIL_CONFIG_PATH"); v != "" {
		c.Notification.MailConfigPath = v
	}
}

func (c *Config) applyDefaults() error {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.Timezone == "" {
		c.Server.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", c.Server.Timezone, err)
	}
	c.Server.Location = loc

	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 300
	}

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = "cmms.db"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetimeMinutes <= 0 {
		c.Database.ConnMaxLifetimeMinutes = 30
	}

	if c.Notification.DigestIntervalHours <= 0 {
		c.Notification.DigestIntervalHours = 24
	}
	c.Notification.DigestInterval = time.Duration(c.Notification.DigestIntervalHours) * time.Hour
	if c.Notification.MailConfigPath == "" {
		c.Notification.MailConfigPath = "./config/mail.env"
	}

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}

	if c.Backup.DataDir == "" {
		c.Backup.DataDir = "data"
	}
	if c.Backup.Storage.Bucket == "" {
		c.Backup.Storage.Bucket = "cmms-backup"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		c.WorkerPool.Size = 1
	}
	return nil
}

// Validate reports whether the store can be opened with the current settings.
// A missing-secrets error is fatal unless AllowDegraded is set.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN != "" {
			return nil
		}
		if c.Database.URL == "" || c.Database.Key == "" {
			return ErrMissingSecrets
		}
		return nil
	case DriverSQLite:
		return nil
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
}

// PostgresDSN builds the connection string for the hosted store.
func (d DatabaseConfig) PostgresDSN() (string, error) {
	if d.DSN != "" {
		return d.DSN, nil
	}
	if d.URL == "" || d.Key == "" {
		return "", ErrMissingSecrets
	}
	u, err := url.Parse(d.URL)
	if err != nil {
		return "", fmt.Errorf("invalid database url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid database url scheme %q", u.Scheme)
	}
	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, d.Key)
	if u.Query().Get("sslmode") == "" {
		q := u.Query()
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// PushEnabled reports whether VAPID keys are configured.
func (p PushConfig) PushEnabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// UploadEnabled reports whether a backup bucket is configured.
func (s StorageConfig) UploadEnabled() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != ""
}
