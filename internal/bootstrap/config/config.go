package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Bootstrap modes
const (
	// ModeEnsure creates entities only when they are missing
	ModeEnsure = "ensure"
	// ModeStrict fails on any entity that already exists
	ModeStrict = "strict"
)

// Config holds all configuration for the bootstrap module.
type Config struct {
	// MongoDB Configuration
	MongoDBURI     string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	DriverLog      bool          `env:"MONGODB_DRIVER_LOG" envDefault:"false"`

	// Provisioning plan
	DatabaseName    string   `env:"DATABASE_NAME" envDefault:"rust_app_db" validate:"required,mongodb_dbname"`
	AppUsername     string   `env:"APP_DB_USER" envDefault:"app_user" validate:"required,max=256"`
	AppPassword     string   `env:"APP_DB_PASSWORD" json:"-" validate:"required"`
	AppPasswordFile string   `env:"APP_DB_PASSWORD_FILE"`
	AppRole         string   `env:"APP_DB_ROLE" envDefault:"readWrite" validate:"oneof=read readWrite dbAdmin dbOwner userAdmin"`
	Collections     []string `env:"BOOTSTRAP_COLLECTIONS" envDefault:"setplayers,setgames,setstats" envSeparator:"," validate:"required,min=1,unique,dive,mongodb_collection"`

	// Run behaviour
	Mode    string        `env:"BOOTSTRAP_MODE" envDefault:"ensure" validate:"oneof=ensure strict"`
	Timeout time.Duration `env:"BOOTSTRAP_TIMEOUT" envDefault:"60s" validate:"gt=0"`

	Lock   LockConfig
	Server ServerConfig
}

// LockConfig holds the Redis run lock configuration. The lock is disabled when
// RedisAddr is empty.
type LockConfig struct {
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD" json:"-"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	Key           string        `env:"BOOTSTRAP_LOCK_KEY" envDefault:"setdb-init:lock"`
	TTL           time.Duration `env:"BOOTSTRAP_LOCK_TTL" envDefault:"2m" validate:"gt=0"`
}

// Enabled reports whether a Redis backend was configured
func (l LockConfig) Enabled() bool {
	return l.RedisAddr != ""
}

// ServerConfig holds the status API configuration used by serve mode
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port string `env:"SERVER_PORT" envDefault:"8085"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// LoadConfig loads configuration from environment variables, applies defaults
// and validates the provisioning plan.
func LoadConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithoutPassword loads configuration for read-only commands. Everything
// but the application password is validated.
func LoadWithoutPassword() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateExceptPassword(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the environment without validating it
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load bootstrap configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Lock); err != nil {
		return nil, errors.New("failed to load lock configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Server); err != nil {
		return nil, errors.New("failed to load server configuration from environment: " + err.Error())
	}

	if err := cfg.resolvePassword(); err != nil {
		return nil, err
	}
	cfg.normalize()

	return cfg, nil
}

// resolvePassword reads the password from AppPasswordFile when no inline value is given
func (c *Config) resolvePassword() error {
	if c.AppPassword != "" || c.AppPasswordFile == "" {
		return nil
	}

	raw, err := os.ReadFile(c.AppPasswordFile)
	if err != nil {
		return fmt.Errorf("failed to read APP_DB_PASSWORD_FILE: %w", err)
	}
	c.AppPassword = strings.TrimRight(string(raw), "\r\n")
	return nil
}

// normalize trims list entries and lower-cases the mode
func (c *Config) normalize() {
	collections := make([]string, 0, len(c.Collections))
	for _, name := range c.Collections {
		collections = append(collections, strings.TrimSpace(name))
	}
	c.Collections = collections
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
}

// WithMode returns a copy of the config with Mode overridden
func (c *Config) WithMode(mode string) (*Config, error) {
	clone := *c
	clone.Collections = append([]string(nil), c.Collections...)
	clone.Mode = strings.ToLower(mode)
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	return &clone, nil
}
