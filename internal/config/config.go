// Package config loads the almanac platform configuration from a YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"almanac-platform/internal/models"
	"almanac-platform/pkg/database"
)

// Storage backends
const (
	BackendFile = "file"
	BackendSQL  = "sql"
)

// DefaultPath is read when ALMANAC_CONFIG is unset
const DefaultPath = "config.yaml"

// Config is the root configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Almanac  AlmanacConfig  `yaml:"almanac"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects where day records are read from and written to
type StorageConfig struct {
	Backend  string `yaml:"backend"`   // "file" or "sql"
	DataPath string `yaml:"data_path"` // JSON artifact
}

// DatabaseConfig configures the SQL backend
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // "postgres" or "sqlite"
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AlmanacConfig controls generation
type AlmanacConfig struct {
	Start           string `yaml:"start"`
	End             string `yaml:"end"`
	Region          string `yaml:"region"`
	Timezone        string `yaml:"timezone"`
	QuarterGrouping bool   `yaml:"quarter_grouping"`
	BatchSize       int    `yaml:"batch_size"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Backend:  BackendFile,
			DataPath: "data/almanac.json",
		},
		Database: DatabaseConfig{
			Driver:          database.DriverPostgres,
			Host:            "localhost",
			Port:            5432,
			User:            "almanac",
			Database:        "almanac",
			SSLMode:         "disable",
			Path:            "data/almanac.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Almanac: AlmanacConfig{
			Start:           "2025-01-01",
			End:             "2026-12-31",
			Region:          "Middle Tennessee / Zone 7a",
			Timezone:        "America/Chicago",
			QuarterGrouping: true,
			BatchSize:       100,
		},
	}
}

// LoadConfig loads from $ALMANAC_CONFIG, falling back to config.yaml
func LoadConfig() (*Config, error) {
	path := os.Getenv("ALMANAC_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	return Load(path)
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("ALMANAC_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ALMANAC_SERVER_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}

	if v := os.Getenv("ALMANAC_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("ALMANAC_DATA_PATH"); v != "" {
		c.Storage.DataPath = v
	}

	if v := os.Getenv("ALMANAC_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("ALMANAC_DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("ALMANAC_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ALMANAC_DB_PORT %q: %w", v, err)
		}
		c.Database.Port = port
	}
	if v := os.Getenv("ALMANAC_DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("ALMANAC_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("ALMANAC_DB_NAME"); v != "" {
		c.Database.Database = v
	}
	if v := os.Getenv("ALMANAC_DB_SSLMODE"); v != "" {
		c.Database.SSLMode = v
	}
	if v := os.Getenv("ALMANAC_DB_PATH"); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv("ALMANAC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ALMANAC_TIMEZONE"); v != "" {
		c.Almanac.Timezone = v
	}

	return nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.DataPath == "" {
			return fmt.Errorf("storage.data_path is required for the file backend")
		}
	case BackendSQL:
		switch c.Database.Driver {
		case database.DriverPostgres:
			if c.Database.Port <= 0 || c.Database.Port > 65535 {
				return fmt.Errorf("invalid database port: %d", c.Database.Port)
			}
			if c.Database.Host == "" || c.Database.Database == "" {
				return fmt.Errorf("database host and name are required for postgres")
			}
		case database.DriverSQLite:
			if c.Database.Path == "" {
				return fmt.Errorf("database.path is required for sqlite")
			}
		default:
			return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported storage backend: %q", c.Storage.Backend)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	if _, _, err := c.Almanac.Range(); err != nil {
		return err
	}
	if _, err := c.Almanac.Location(); err != nil {
		return err
	}
	if c.Almanac.BatchSize <= 0 {
		return fmt.Errorf("almanac.batch_size must be positive, got %d", c.Almanac.BatchSize)
	}

	return nil
}

// Range parses the configured inclusive date range
func (a AlmanacConfig) Range() (start, end models.CivilDate, err error) {
	start, err = models.ParseCivilDate(a.Start)
	if err != nil {
		return start, end, fmt.Errorf("invalid almanac.start: %w", err)
	}
	end, err = models.ParseCivilDate(a.End)
	if err != nil {
		return start, end, fmt.Errorf("invalid almanac.end: %w", err)
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("almanac.end %s is before almanac.start %s", end, start)
	}
	return start, end, nil
}

// Location loads the almanac time zone
func (a AlmanacConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid almanac.timezone %q: %w", a.Timezone, err)
	}
	return loc, nil
}

// Connection converts the section into a pkg/database config
func (d DatabaseConfig) Connection() *database.Config {
	return &database.Config{
		Driver:          d.Driver,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		Path:            d.Path,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
	}
}
