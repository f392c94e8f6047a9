package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
}

type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	AccessTokenSecret  string        `yaml:"access_token_secret"`
	RefreshTokenSecret string        `yaml:"refresh_token_secret"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL    time.Duration `yaml:"refresh_token_ttl"`
	// InsecureCookies drops the Secure attribute from session cookies
	// for plain-HTTP local development. Cookies are Secure unless a
	// config opts out explicitly.
	InsecureCookies bool `yaml:"insecure_cookies"`
}

type StorageConfig struct {
	BlobRoot       string `yaml:"blob_root"`
	UploadMaxBytes int64  `yaml:"upload_max_bytes"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VIDSTREAM_ACCESS_TOKEN_SECRET"); v != "" {
		c.Auth.AccessTokenSecret = v
	}
	if v := os.Getenv("VIDSTREAM_REFRESH_TOKEN_SECRET"); v != "" {
		c.Auth.RefreshTokenSecret = v
	}
}

func (c *Config) validate() error {
	if c.Auth.AccessTokenSecret == "" {
		return fmt.Errorf("auth.access_token_secret is required")
	}
	if len(c.Auth.AccessTokenSecret) < 32 {
		return fmt.Errorf("auth.access_token_secret must be at least 32 characters")
	}
	if c.Auth.RefreshTokenSecret == "" {
		return fmt.Errorf("auth.refresh_token_secret is required")
	}
	if len(c.Auth.RefreshTokenSecret) < 32 {
		return fmt.Errorf("auth.refresh_token_secret must be at least 32 characters")
	}
	if c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
		return fmt.Errorf("auth.access_token_secret and auth.refresh_token_secret must differ")
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/vidstream.db"
	}
	if c.Auth.AccessTokenTTL == 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL == 0 {
		c.Auth.RefreshTokenTTL = 10 * 24 * time.Hour
	}
	if c.Storage.BlobRoot == "" {
		c.Storage.BlobRoot = "./data/blobs"
	}
	if c.Storage.UploadMaxBytes == 0 {
		c.Storage.UploadMaxBytes = 100 << 20 // 100 MB
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
