// Package config loads choremane settings from an optional YAML file and
// CHOREMANE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// AllowedOrigins are host patterns allowed to call the API and open
	// websockets from another origin, e.g. "app.example.com" or "*".
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig selects how bearer tokens are verified. PublicKeyFile (RS256)
// takes precedence over Secret (HS256).
type AuthConfig struct {
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
	PublicKeyFile string `mapstructure:"public_key_file"`
	Secret        string `mapstructure:"secret"`

	// AllowHeader accepts a bare X-User-Email header. Development only.
	AllowHeader bool `mapstructure:"allow_header"`
}

type VersionConfig struct {
	Tag           string `mapstructure:"tag"`
	BackendImage  string `mapstructure:"backend_image"`
	FrontendImage string `mapstructure:"frontend_image"`
}

type ArchiveConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`

	// Passphrase seals uploaded archives with AES-256-GCM when set.
	Passphrase string `mapstructure:"passphrase"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Version   VersionConfig   `mapstructure:"version"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

var defaults = map[string]any{
	"server.port":            "8080",
	"server.read_timeout":    5 * time.Second,
	"server.write_timeout":   10 * time.Second,
	"server.idle_timeout":    120 * time.Second,
	"server.allowed_origins": []string{},
	"database.path":          "choremane.db",
	"log.level":              "info",
	"log.format":             "text",
	"auth.issuer":            "",
	"auth.audience":          "",
	"auth.public_key_file":   "",
	"auth.secret":            "",
	"auth.allow_header":      false,
	"version.tag":            "dev",
	"version.backend_image":  "",
	"version.frontend_image": "",
	"archive.endpoint":       "",
	"archive.bucket":         "",
	"archive.region":         "auto",
	"archive.access_key":     "",
	"archive.secret_key":     "",
	"archive.prefix":         "exports/",
	"archive.passphrase":     "",
	"rate_limit.requests":    10,
	"rate_limit.window":      time.Minute,
}

// Load reads path (if non-empty and present) and applies environment
// overrides such as CHOREMANE_SERVER_PORT or CHOREMANE_DATABASE_PATH. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix("CHOREMANE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var pathErr *os.PathError
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port must be set")
	}
	if c.Database.Path == "" {
		return errors.New("database.path must be set")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate_limit.requests and rate_limit.window must be positive")
	}
	return nil
}
