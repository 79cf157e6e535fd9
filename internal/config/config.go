// Package config loads the service configuration from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RyanHill92/rootzone/internal/site"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// DSN format for the MySQL driver.
const dsnFmt = "%s:%s@tcp(%s)/%s?parseTime=true"

// Config holds all rootzone configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Reference ReferenceConfig `yaml:"reference"`

	// Model holds the parameters a new site starts with.
	Model site.Params `yaml:"model"`

	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// StoreConfig selects where sites are kept.
type StoreConfig struct {
	Driver string      `yaml:"driver"` // memory, sqlite, mysql
	Path   string      `yaml:"path"`   // sqlite database file
	MySQL  MySQLConfig `yaml:"mysql"`
}

// MySQLConfig holds the database secrets for the mysql driver.
type MySQLConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Name     string `yaml:"name"`
}

// ReferenceConfig points at species and curve tables. An empty path uses
// the tables built into the binary.
type ReferenceConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":5000",
			ShutdownTimeout: "10s",
		},
		Store: StoreConfig{
			Driver: DriverMemory,
			Path:   "data/rootzone.db",
		},
		Model: site.DefaultParams(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// defaults, still subject to the environment
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("ROOTZONE_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if driver := os.Getenv("ROOTZONE_STORE"); driver != "" {
		c.Store.Driver = driver
	}
	if path := os.Getenv("ROOTZONE_DB"); path != "" {
		c.Store.Path = path
	}
	if path := os.Getenv("ROOTZONE_REFERENCE"); path != "" {
		c.Reference.Path = path
	}

	// MySQL secrets keep their historical names
	if v := os.Getenv("DB_USER"); v != "" {
		c.Store.MySQL.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Store.MySQL.Password = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Store.MySQL.Host = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Store.MySQL.Name = v
	}
}

// GetShutdownTimeout returns the graceful shutdown window as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// DSN builds the MySQL data source name.
func (m MySQLConfig) DSN() string {
	return fmt.Sprintf(dsnFmt, m.User, m.Password, m.Host, m.Name)
}

// ValidDrivers lists the supported store drivers.
var ValidDrivers = []string{DriverMemory, DriverSQLite, DriverMySQL}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server address not configured (set server.addr or ROOTZONE_ADDR)")
	}

	validDriver := false
	for _, d := range ValidDrivers {
		if c.Store.Driver == d {
			validDriver = true
			break
		}
	}
	if !validDriver {
		return fmt.Errorf("invalid store driver: %s (valid: %v)", c.Store.Driver, ValidDrivers)
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return errors.New("sqlite store needs a database path (set store.path or ROOTZONE_DB)")
		}
	case DriverMySQL:
		// DB_NAME may be empty; the server default schema is used
		if c.Store.MySQL.User == "" || c.Store.MySQL.Password == "" || c.Store.MySQL.Host == "" {
			return errors.New("mysql store needs DB_USER, DB_PASSWORD and DB_HOST")
		}
	}

	params := c.Model
	if err := site.ValidateParams(&params); err != nil {
		return fmt.Errorf("invalid model defaults: %w", err)
	}
	c.Model = params

	return nil
}
