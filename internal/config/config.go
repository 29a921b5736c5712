// Package config loads the YAML configuration file and overlays command-line
// flags on top of it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/telemetry"
)

// DefaultListen is the address "cvsdk serve" binds when nothing else is set.
const DefaultListen = ":8080"

// ConnectionConfig represents a pre-configured Commserve in the config file.
type ConnectionConfig struct {
	Name     string `yaml:"name" validate:"required"`
	Scheme   string `yaml:"scheme" validate:"omitempty,oneof=http https"`
	Host     string `yaml:"host" validate:"required,hostname|ip"`
	Port     int    `yaml:"port" validate:"gte=0,lte=65535"`
	APIPath  string `yaml:"api_path"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Insecure bool   `yaml:"insecure"`
	// CACertFile is a PEM bundle used instead of the system roots.
	CACertFile string `yaml:"ca_cert_file"`
}

// Config holds all configuration (file + CLI flags).
type Config struct {
	Connections       []ConnectionConfig      `yaml:"connections" validate:"dive"`
	DefaultConnection string                  `yaml:"default_connection"`
	TimeZone          string                  `yaml:"timezone"`
	// CommserveTimeZone is the zone name sent with delayed activity
	// requests, in the Commserve's own naming.
	CommserveTimeZone string                  `yaml:"commserve_timezone"`
	Listen            string                  `yaml:"listen"`
	Logging           telemetry.LoggingConfig `yaml:"logging"`
	Tracing           telemetry.TracingConfig `yaml:"tracing"`
	Metrics           telemetry.MetricsConfig `yaml:"metrics"`
}

// Flags are the command-line values that override the file. Empty fields
// were not given on the command line.
type Flags struct {
	Connection string
	Listen     string
	TimeZone   string
	LogLevel   string
}

var validate = validator.New()

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:  DefaultListen,
		Logging: telemetry.DefaultLoggingConfig(),
		Tracing: telemetry.DefaultTracingConfig(),
		Metrics: telemetry.DefaultMetricsConfig(),
	}
}

// Load reads path (when non-empty), applies flags over it and validates the
// result. CLI flags take precedence over config file values.
func Load(path string, flags Flags) (*Config, error) {
	c := Default()
	if path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	c.apply(flags)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// loadFile reads a YAML config file over the defaults. Sections missing
// from the file keep their default values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) apply(f Flags) {
	if f.Connection != "" {
		c.DefaultConnection = f.Connection
	}
	if f.Listen != "" {
		c.Listen = f.Listen
	}
	if f.TimeZone != "" {
		c.TimeZone = f.TimeZone
	}
	if f.LogLevel != "" {
		c.Logging.Level = f.LogLevel
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
}

// Validate checks field constraints and cross-references between sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := make(map[string]bool, len(c.Connections))
	for _, cc := range c.Connections {
		key := strings.ToLower(cc.Name)
		if seen[key] {
			return fmt.Errorf("invalid config: duplicate connection %q", cc.Name)
		}
		seen[key] = true
	}
	if c.DefaultConnection != "" && !seen[strings.ToLower(c.DefaultConnection)] {
		return fmt.Errorf("invalid config: default_connection %q is not defined", c.DefaultConnection)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location resolves TimeZone, defaulting to the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// ErrNoConnection is returned by Connection when nothing selects a connection.
var ErrNoConnection = errors.New("no connection configured")

// Connection returns the named connection, the default connection when name
// is empty, or the only connection when there is exactly one.
func (c *Config) Connection(name string) (*models.Connection, error) {
	if name == "" {
		name = c.DefaultConnection
	}
	if name == "" {
		if len(c.Connections) != 1 {
			return nil, ErrNoConnection
		}
		name = c.Connections[0].Name
	}
	for _, cc := range c.Connections {
		if strings.EqualFold(cc.Name, name) {
			return cc.toModel()
		}
	}
	return nil, fmt.Errorf("connection %q not found", name)
}

// Models converts every configured connection.
func (c *Config) Models() ([]*models.Connection, error) {
	out := make([]*models.Connection, 0, len(c.Connections))
	for _, cc := range c.Connections {
		conn, err := cc.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, conn)
	}
	return out, nil
}

func (cc ConnectionConfig) toModel() (*models.Connection, error) {
	conn := &models.Connection{
		Name:     cc.Name,
		Scheme:   cc.Scheme,
		Host:     cc.Host,
		Port:     cc.Port,
		APIPath:  cc.APIPath,
		Username: cc.Username,
		Password: cc.Password,
		Insecure: cc.Insecure,
	}
	if conn.Scheme == "" {
		conn.Scheme = "https"
	}
	if conn.Port == 0 {
		if conn.Scheme == "https" {
			conn.Port = 443
		} else {
			conn.Port = 80
		}
	}
	if cc.CACertFile != "" {
		pem, err := os.ReadFile(cc.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("connection %s: reading CA bundle: %w", cc.Name, err)
		}
		conn.CACert = string(pem)
	}
	return conn, nil
}
