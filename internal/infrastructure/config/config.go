package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "GENLINK_CONFIG"

// DefaultPath is used when EnvConfigPath is unset.
const DefaultPath = "configs/config.yaml"

// Config is the root configuration structure for genlink-bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site         SiteConfig         `yaml:"site"`
	Database     DatabaseConfig     `yaml:"database"`
	MQTT         MQTTConfig         `yaml:"mqtt"`
	MobileLink   MobileLinkConfig   `yaml:"mobilelink"`
	Discovery    DiscoveryConfig    `yaml:"discovery"`
	Presentation PresentationConfig `yaml:"presentation"`
	API          APIConfig          `yaml:"api"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// TopicPrefix roots every state, availability and set topic.
	TopicPrefix string `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// MobileLinkConfig contains the vendor cloud account settings.
type MobileLinkConfig struct {
	BaseURL  string `yaml:"base_url"`
	TokenURL string `yaml:"token_url"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// APIVersion is "v1" (indicator lights) or "v2" (status codes).
	APIVersion string `yaml:"api_version"`

	// RequestTimeout bounds each HTTP request, in seconds.
	RequestTimeout int `yaml:"request_timeout"`
}

// DiscoveryConfig contains poll loop timings.
type DiscoveryConfig struct {
	// Frequency is the delay between cycles, in milliseconds.
	Frequency int `yaml:"frequency"`

	// FetchTimeout bounds one fetch, in seconds.
	FetchTimeout int `yaml:"fetch_timeout"`
}

// PresentationConfig contains Home Assistant discovery settings.
type PresentationConfig struct {
	DiscoveryPrefix string `yaml:"discovery_prefix"`
	Manufacturer    string `yaml:"manufacturer"`
}

// APIConfig contains the read-only status API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP server timeouts (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GENLINK_SECTION_KEY
// For example: GENLINK_DATABASE_PATH, GENLINK_MOBILELINK_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Path returns the config file path from GENLINK_CONFIG, or DefaultPath.
func Path() string {
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v
	}
	return DefaultPath
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Home",
		},
		Database: DatabaseConfig{
			Path:        "./data/genlink.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "genlink-bridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			TopicPrefix: "genlink",
		},
		MobileLink: MobileLinkConfig{
			APIVersion:     "v2",
			RequestTimeout: 15,
		},
		Discovery: DiscoveryConfig{
			Frequency:    60000,
			FetchTimeout: 30,
		},
		Presentation: PresentationConfig{
			DiscoveryPrefix: "homeassistant",
			Manufacturer:    "Generac",
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8095,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GENLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("GENLINK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GENLINK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GENLINK_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("GENLINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GENLINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Vendor account (credentials should never live in the file)
	if v := os.Getenv("GENLINK_MOBILELINK_USERNAME"); v != "" {
		cfg.MobileLink.Username = v
	}
	if v := os.Getenv("GENLINK_MOBILELINK_PASSWORD"); v != "" {
		cfg.MobileLink.Password = v
	}
	if v := os.Getenv("GENLINK_MOBILELINK_API_VERSION"); v != "" {
		cfg.MobileLink.APIVersion = v
	}

	// Discovery
	if v := os.Getenv("GENLINK_DISCOVERY_FREQUENCY"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Discovery.Frequency = ms
		}
	}

	// API
	if v := os.Getenv("GENLINK_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Logging
	if v := os.Getenv("GENLINK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.TopicPrefix == "" || strings.ContainsAny(c.MQTT.TopicPrefix, "+#") {
		errs = append(errs, "mqtt.topic_prefix is required and must not contain wildcards")
	}

	// Vendor account validation
	if u, err := url.Parse(c.MobileLink.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "mobilelink.base_url must be an absolute URL")
	}
	if c.MobileLink.TokenURL == "" {
		errs = append(errs, "mobilelink.token_url is required")
	}
	if c.MobileLink.Username == "" || c.MobileLink.Password == "" {
		errs = append(errs, "mobilelink.username and mobilelink.password are required (set GENLINK_MOBILELINK_PASSWORD environment variable)")
	}
	switch strings.ToLower(c.MobileLink.APIVersion) {
	case "v1", "v2":
	default:
		errs = append(errs, "mobilelink.api_version must be v1 or v2")
	}

	// Discovery validation
	if c.Discovery.Frequency < 1000 {
		errs = append(errs, "discovery.frequency must be at least 1000 ms")
	}
	if c.Discovery.FetchTimeout < 1 {
		errs = append(errs, "discovery.fetch_timeout must be at least 1 second")
	}

	// Presentation validation
	if c.Presentation.DiscoveryPrefix == "" {
		errs = append(errs, "presentation.discovery_prefix is required")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetDiscoveryInterval returns the delay between discovery cycles.
func (c *Config) GetDiscoveryInterval() time.Duration {
	return time.Duration(c.Discovery.Frequency) * time.Millisecond
}

// GetFetchTimeout returns the per-fetch deadline.
func (c *Config) GetFetchTimeout() time.Duration {
	return time.Duration(c.Discovery.FetchTimeout) * time.Second
}

// GetRequestTimeout returns the vendor HTTP request timeout.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.MobileLink.RequestTimeout) * time.Second
}
