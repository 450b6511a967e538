package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
site:
  id: "test-site"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
  topic_prefix: "gens"
mobilelink:
  base_url: "https://app.example.com"
  token_url: "https://app.example.com/oauth/token"
  client_id: "mobilelink"
  username: "owner@example.com"
  password: "file-secret"
  api_version: "v1"
discovery:
  frequency: 30000
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

// validConfig returns a defaulted config that passes validation.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.MobileLink.BaseURL = "https://app.example.com"
	cfg.MobileLink.TokenURL = "https://app.example.com/oauth/token"
	cfg.MobileLink.Username = "owner"
	cfg.MobileLink.Password = "secret"
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}

	if cfg.MQTT.TopicPrefix != "gens" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "gens")
	}

	if cfg.MobileLink.APIVersion != "v1" {
		t.Errorf("MobileLink.APIVersion = %q, want %q", cfg.MobileLink.APIVersion, "v1")
	}

	if got := cfg.GetDiscoveryInterval(); got != 30*time.Second {
		t.Errorf("GetDiscoveryInterval() = %v, want 30s", got)
	}

	// Unset keys keep their defaults.
	if cfg.Presentation.DiscoveryPrefix != "homeassistant" {
		t.Errorf("Presentation.DiscoveryPrefix = %q, want %q", cfg.Presentation.DiscoveryPrefix, "homeassistant")
	}
	if cfg.Discovery.FetchTimeout != 30 {
		t.Errorf("Discovery.FetchTimeout = %d, want 30", cfg.Discovery.FetchTimeout)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("GENLINK_MOBILELINK_PASSWORD", "env-secret")
	t.Setenv("GENLINK_DISCOVERY_FREQUENCY", "120000")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MobileLink.Password != "env-secret" {
		t.Errorf("MobileLink.Password = %q, want %q", cfg.MobileLink.Password, "env-secret")
	}
	if got := cfg.GetDiscoveryInterval(); got != 2*time.Minute {
		t.Errorf("GetDiscoveryInterval() = %v, want 2m", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: "test-site"
database:
  path: "/tmp/test.db"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error for missing vendor account, got nil")
	}
	if !strings.Contains(err.Error(), "mobilelink.username") {
		t.Errorf("Load() error = %v, want mention of mobilelink.username", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}, wantErr: false},
		{name: "upper case api version", mutate: func(c *Config) { c.MobileLink.APIVersion = "V1" }, wantErr: false},
		{name: "missing site ID", mutate: func(c *Config) { c.Site.ID = "" }, wantErr: true},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.MQTT.Broker.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.MQTT.Broker.Port = 70000 }, wantErr: true},
		{name: "wildcard topic prefix", mutate: func(c *Config) { c.MQTT.TopicPrefix = "gens/#" }, wantErr: true},
		{name: "empty topic prefix", mutate: func(c *Config) { c.MQTT.TopicPrefix = "" }, wantErr: true},
		{name: "relative base url", mutate: func(c *Config) { c.MobileLink.BaseURL = "/api" }, wantErr: true},
		{name: "missing token url", mutate: func(c *Config) { c.MobileLink.TokenURL = "" }, wantErr: true},
		{name: "missing password", mutate: func(c *Config) { c.MobileLink.Password = "" }, wantErr: true},
		{name: "unknown api version", mutate: func(c *Config) { c.MobileLink.APIVersion = "v3" }, wantErr: true},
		{name: "frequency too small", mutate: func(c *Config) { c.Discovery.Frequency = 500 }, wantErr: true},
		{name: "zero fetch timeout", mutate: func(c *Config) { c.Discovery.FetchTimeout = 0 }, wantErr: true},
		{name: "missing discovery prefix", mutate: func(c *Config) { c.Presentation.DiscoveryPrefix = "" }, wantErr: true},
		{name: "invalid api port", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "api disabled ignores port", mutate: func(c *Config) { c.API.Enabled = false; c.API.Port = 0 }, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Site.ID = ""
	cfg.MQTT.QoS = 5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "site.id") || !strings.Contains(err.Error(), "mqtt.qos") {
		t.Errorf("Validate() error = %v, want both site.id and mqtt.qos", err)
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		Discovery:  DiscoveryConfig{Frequency: 1500, FetchTimeout: 20},
		MobileLink: MobileLinkConfig{RequestTimeout: 10},
	}

	if got := cfg.GetDiscoveryInterval(); got != 1500*time.Millisecond {
		t.Errorf("GetDiscoveryInterval() = %v, want 1.5s", got)
	}

	if got := cfg.GetFetchTimeout().Seconds(); got != 20 {
		t.Errorf("GetFetchTimeout() = %v, want 20", got)
	}

	if got := cfg.GetRequestTimeout().Seconds(); got != 10 {
		t.Errorf("GetRequestTimeout() = %v, want 10", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("GENLINK_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GENLINK_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GENLINK_MQTT_PORT", "8883")
	t.Setenv("GENLINK_MQTT_USERNAME", "testuser")
	t.Setenv("GENLINK_MQTT_PASSWORD", "testpass")
	t.Setenv("GENLINK_MOBILELINK_USERNAME", "owner")
	t.Setenv("GENLINK_MOBILELINK_PASSWORD", "secret")
	t.Setenv("GENLINK_MOBILELINK_API_VERSION", "v1")
	t.Setenv("GENLINK_API_PORT", "9000")
	t.Setenv("GENLINK_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}

	if cfg.MQTT.Auth.Username != "testuser" || cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth = %+v, want testuser/testpass", cfg.MQTT.Auth)
	}

	if cfg.MobileLink.Username != "owner" || cfg.MobileLink.Password != "secret" {
		t.Errorf("MobileLink credentials not overridden: %q/%q", cfg.MobileLink.Username, cfg.MobileLink.Password)
	}

	if cfg.MobileLink.APIVersion != "v1" {
		t.Errorf("MobileLink.APIVersion = %q, want %q", cfg.MobileLink.APIVersion, "v1")
	}

	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_IgnoresBadNumbers(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("GENLINK_MQTT_PORT", "not-a-port")
	t.Setenv("GENLINK_DISCOVERY_FREQUENCY", "soon")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Discovery.Frequency != 60000 {
		t.Errorf("Discovery.Frequency = %d, want 60000", cfg.Discovery.Frequency)
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	if got := Path(); got != DefaultPath {
		t.Errorf("Path() = %q, want %q", got, DefaultPath)
	}

	t.Setenv(EnvConfigPath, "/etc/genlink/config.yaml")
	if got := Path(); got != "/etc/genlink/config.yaml" {
		t.Errorf("Path() = %q, want %q", got, "/etc/genlink/config.yaml")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Site.ID == "" {
		t.Error("defaultConfig should have non-empty Site.ID")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.Discovery.Frequency != 60000 {
		t.Errorf("defaultConfig Discovery.Frequency = %d, want 60000", cfg.Discovery.Frequency)
	}

	if cfg.MobileLink.APIVersion != "v2" {
		t.Errorf("defaultConfig MobileLink.APIVersion = %q, want v2", cfg.MobileLink.APIVersion)
	}

	if !cfg.API.Enabled || cfg.API.Host != "127.0.0.1" {
		t.Errorf("defaultConfig API = %+v, want enabled on loopback", cfg.API)
	}
}
