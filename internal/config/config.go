package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the studio server configuration read from orbfi.yaml.
type AppConfig struct {
	Version int `yaml:"version"`
	Studio  struct {
		Name       string `yaml:"name"`
		InstanceID string `yaml:"instance_id"`
	} `yaml:"studio"`
	HTTP struct {
		Port    int    `yaml:"port"`
		TLSCert string `yaml:"tls_cert"`
		TLSKey  string `yaml:"tls_key"`
	} `yaml:"http"`
	Editor struct {
		Debounce       time.Duration `yaml:"debounce"`
		SuppressWindow time.Duration `yaml:"suppress_window"`
	} `yaml:"editor"`
	Storage struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`
	Events struct {
		DSN string `yaml:"dsn"`
	} `yaml:"events"`
	Templates struct {
		Dir string `yaml:"dir"`
	} `yaml:"templates"`
	Toolbox struct {
		File string `yaml:"file"`
	} `yaml:"toolbox"`
	MQTT struct {
		Broker   string `yaml:"broker"`
		ClientID string `yaml:"client_id"`
		Optional bool   `yaml:"optional"`
	} `yaml:"mqtt"`
	Alerts struct {
		WebhookURL    string        `yaml:"webhook_url"`
		MQTTDelay     time.Duration `yaml:"mqtt_delay"`
		PostgresDelay time.Duration `yaml:"postgres_delay"`
	} `yaml:"alerts"`
}

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	var cfg AppConfig
	cfg.Version = 1
	cfg.applyDefaults()
	return &cfg
}

func (c *AppConfig) applyDefaults() {
	if c.Studio.Name == "" {
		c.Studio.Name = "orbfi-studio"
	}
	if c.Studio.InstanceID == "" {
		host, _ := os.Hostname()
		if host == "" {
			host = "local"
		}
		c.Studio.InstanceID = host
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Editor.Debounce == 0 {
		c.Editor.Debounce = 300 * time.Millisecond
	}
	if c.Editor.SuppressWindow == 0 {
		c.Editor.SuppressWindow = time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageMemory
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = c.Studio.Name + "-" + c.Studio.InstanceID
	}
	if c.Alerts.MQTTDelay == 0 {
		c.Alerts.MQTTDelay = 30 * time.Second
	}
	if c.Alerts.PostgresDelay == 0 {
		c.Alerts.PostgresDelay = 5 * time.Second
	}
}

// LoadAppConfig reads path, fills defaults and applies environment
// overrides. An empty path yields the defaults plus environment.
func LoadAppConfig(path string) (*AppConfig, error) {
	cfg := &AppConfig{Version: 1}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = &AppConfig{}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if cfg.Version != 1 {
			return nil, fmt.Errorf("unsupported orbfi.yaml version: %d", cfg.Version)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with ORBFI_* variables. Connection
// strings go through ResolveSecret so they can come from mounted files.
func (c *AppConfig) applyEnv() error {
	if v := os.Getenv("ORBFI_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ORBFI_HTTP_PORT: %w", err)
		}
		c.HTTP.Port = port
	}
	if v := os.Getenv("ORBFI_TLS_CERT"); v != "" {
		c.HTTP.TLSCert = v
	}
	if v := os.Getenv("ORBFI_TLS_KEY"); v != "" {
		c.HTTP.TLSKey = v
	}
	if v := os.Getenv("ORBFI_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("ORBFI_TEMPLATES_DIR"); v != "" {
		c.Templates.Dir = v
	}
	if v := os.Getenv("ORBFI_MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
	}
	if v := os.Getenv("ORBFI_ALERT_WEBHOOK_URL"); v != "" {
		c.Alerts.WebhookURL = v
	}

	dsn, err := ResolveSecret("ORBFI_DATABASE_URL")
	if err != nil {
		return err
	}
	if dsn != "" {
		c.Storage.DSN = dsn
	}
	eventsDSN, err := ResolveSecret("ORBFI_EVENTS_DATABASE_URL")
	if err != nil {
		return err
	}
	if eventsDSN != "" {
		c.Events.DSN = eventsDSN
	}
	return nil
}

// Validate reports settings that cannot work together.
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if (c.HTTP.TLSCert == "") != (c.HTTP.TLSKey == "") {
		errs = append(errs, errors.New("http.tls_cert and http.tls_key must be set together"))
	}
	if c.Editor.Debounce < 0 || c.Editor.SuppressWindow < 0 {
		errs = append(errs, errors.New("editor durations must not be negative"))
	}
	return errors.Join(errs...)
}
