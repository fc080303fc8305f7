package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INPUTCORE_"

// DefaultPath is used when INPUTCORE_CONFIG is not set.
const DefaultPath = "configs/config.yaml"

// Platform adapter names accepted in input.platform.
const (
	PlatformMemory = "memory"
	PlatformMQTT   = "mqtt"
)

// Config is the root configuration structure for the input core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"      envPrefix:"SITE_"`
	Input     InputConfig     `yaml:"input"     envPrefix:"INPUT_"`
	Database  DatabaseConfig  `yaml:"database"  envPrefix:"DATABASE_"`
	MQTT      MQTTConfig      `yaml:"mqtt"      envPrefix:"MQTT_"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"  envPrefix:"INFLUXDB_"`
	API       APIConfig       `yaml:"api"       envPrefix:"API_"`
	WebSocket WebSocketConfig `yaml:"websocket" envPrefix:"WEBSOCKET_"`
	Logging   LoggingConfig   `yaml:"logging"   envPrefix:"LOGGING_"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"   env:"ID"`
	Name string `yaml:"name" env:"NAME"`
}

// InputConfig contains the binding core settings.
type InputConfig struct {
	// SchemaFile is the YAML action schema.
	SchemaFile string `yaml:"schema_file" env:"SCHEMA_FILE"`

	// OverrideFile is the user override file, relative to the working
	// directory unless absolute.
	OverrideFile string `yaml:"override_file" env:"OVERRIDE_FILE"`

	// DefaultDevice is the fallback device name (e.g. "gamepad").
	DefaultDevice string `yaml:"default_device" env:"DEFAULT_DEVICE"`

	// DiscoveryTimeout bounds start-up device discovery. Zero disables it.
	DiscoveryTimeout time.Duration `yaml:"discovery_timeout" env:"DISCOVERY_TIMEOUT"`

	// Platform selects the device/action provider: "memory" or "mqtt".
	Platform string `yaml:"platform" env:"PLATFORM"`

	// Watch re-applies the override file when it changes on disk.
	Watch         bool          `yaml:"watch"          env:"WATCH"`
	WatchDebounce time.Duration `yaml:"watch_debounce" env:"WATCH_DEBOUNCE"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"         env:"PATH"`
	WALMode     bool   `yaml:"wal_mode"     env:"WAL_MODE"`
	BusyTimeout int    `yaml:"busy_timeout" env:"BUSY_TIMEOUT"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"   env:"ENABLED"`
	Broker    MQTTBrokerConfig    `yaml:"broker"    envPrefix:"BROKER_"`
	Auth      MQTTAuthConfig      `yaml:"auth"      envPrefix:"AUTH_"`
	QoS       int                 `yaml:"qos"       env:"QOS"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"      env:"HOST"`
	Port     int    `yaml:"port"      env:"PORT"`
	TLS      bool   `yaml:"tls"       env:"TLS"`
	ClientID string `yaml:"client_id" env:"CLIENT_ID"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`
}

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"        env:"ENABLED"`
	URL           string `yaml:"url"            env:"URL"`
	Token         string `yaml:"token"          env:"TOKEN"`
	Org           string `yaml:"org"            env:"ORG"`
	Bucket        string `yaml:"bucket"         env:"BUCKET"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host" env:"HOST"`
	Port     int              `yaml:"port" env:"PORT"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"  env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
	Output string `yaml:"output" env:"OUTPUT"`
}

// Path returns the configuration file path: INPUTCORE_CONFIG when set,
// DefaultPath otherwise.
func Path() string {
	if v := os.Getenv(EnvPrefix + "CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: INPUTCORE_SECTION_KEY
// For example: INPUTCORE_DATABASE_PATH, INPUTCORE_MQTT_BROKER_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Gray Logic Input",
		},
		Input: InputConfig{
			SchemaFile:       "configs/schema.yaml",
			OverrideFile:     "overrides.yaml",
			DefaultDevice:    "mouse_keyboard",
			DiscoveryTimeout: 10 * time.Second,
			Platform:         PlatformMemory,
			Watch:            true,
			WatchDebounce:    250 * time.Millisecond,
		},
		Database: DatabaseConfig{
			Path:        "./data/inputcore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-input",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies INPUTCORE_* environment variables on top of cfg.
// Unset variables leave the file values untouched.
func applyEnvOverrides(cfg *Config) error {
	return env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Input.SchemaFile == "" {
		errs = append(errs, "input.schema_file is required")
	}
	if c.Input.DiscoveryTimeout < 0 {
		errs = append(errs, "input.discovery_timeout must not be negative")
	}
	switch c.Input.Platform {
	case PlatformMemory:
	case PlatformMQTT:
		if !c.MQTT.Enabled {
			errs = append(errs, "input.platform mqtt requires mqtt.enabled")
		}
	default:
		errs = append(errs, fmt.Sprintf("input.platform must be %q or %q", PlatformMemory, PlatformMQTT))
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
