// Package config loads runtime settings for the storefront daemon and CLI.
//
// Sources are applied in order, later ones taking precedence:
// defaults, an optional YAML file, .env and STOREFRONT_* environment variables,
// and finally command-line flags bound by the caller.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config holds every section used by the binaries.
type Config struct {
	Remote RemoteConfig `yaml:"remote"`
	Local  LocalConfig  `yaml:"local"`
	Server ServerConfig `yaml:"server"`
	Media  MediaConfig  `yaml:"media"`
	Sync   SyncConfig   `yaml:"sync"`
	Log    LogConfig    `yaml:"log"`
}

// RemoteConfig points at the authoritative relational tier.
// Both values must be present and non-placeholder for remote-backed operation.
type RemoteConfig struct {
	URL        string `yaml:"url"`
	Credential string `yaml:"credential"`
}

// DSN returns URL with Credential set as the password when the URL carries
// none. Non-URL (keyword/value) DSNs are returned as is.
func (r RemoteConfig) DSN() string {
	u, err := url.Parse(r.URL)
	if err != nil || u.Scheme == "" || u.User == nil || r.Credential == "" {
		return r.URL
	}
	if _, ok := u.User.Password(); ok {
		return r.URL
	}
	u.User = url.UserPassword(u.User.Username(), r.Credential)
	return u.String()
}

// LocalConfig locates the device-scoped cache database.
type LocalConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the admin gRPC daemon.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`
	JWTKey  string `yaml:"jwt_key"`
	Dev     bool   `yaml:"dev"`
}

// MediaConfig configures the S3-compatible bucket for catalog images.
type MediaConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	Region     string        `yaml:"region"`
	Bucket     string        `yaml:"bucket"`
	AccessKey  string        `yaml:"access_key"`
	SecretKey  string        `yaml:"secret_key"`
	PresignTTL time.Duration `yaml:"presign_ttl"`
}

// SyncConfig tunes the sync engine.
type SyncConfig struct {
	// RemoteTimeout bounds a single remote call; zero means no bound.
	RemoteTimeout time.Duration `yaml:"remote_timeout"`
	// GuestMerge is "replace" or "union".
	GuestMerge string `yaml:"guest_merge"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns development defaults. The remote section is left empty so a
// bare install runs local-only.
func Default() Config {
	return Config{
		Local:  LocalConfig{Path: defaultLocalPath()},
		Server: ServerConfig{Addr: ":8443"},
		Media: MediaConfig{
			Region:     "us-east-1",
			Bucket:     "catalog-images",
			PresignTTL: 15 * time.Minute,
		},
		Sync: SyncConfig{GuestMerge: "replace"},
		Log:  LogConfig{Level: "info"},
	}
}

// Load applies defaults, then the YAML file at path (if non-empty), then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch strings.ToLower(c.Sync.GuestMerge) {
	case "", "replace", "union":
	default:
		return fmt.Errorf("config: sync.guest_merge must be replace or union, got %q", c.Sync.GuestMerge)
	}
	if c.Sync.RemoteTimeout < 0 {
		return fmt.Errorf("config: sync.remote_timeout must not be negative")
	}
	return nil
}

// Logger builds a zap logger from the log section.
func (l LogConfig) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if l.Level != "" {
		lvl, err := zap.ParseAtomicLevel(l.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zc.Level = lvl
	}
	return zc.Build()
}

func defaultLocalPath() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v + "/storefront/cache.db"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "storefront-cache.db"
	}
	return home + "/.local/share/storefront/cache.db"
}
