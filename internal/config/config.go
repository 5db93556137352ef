package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration, loaded from YAML with environment
// variable overrides for credentials.
type Config struct {
	I2C    I2CConfig    `yaml:"i2c"`
	Gauge  GaugeConfig  `yaml:"gauge"`
	Server ServerConfig `yaml:"server"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
}

// I2CConfig selects the bus the gauge sits on.
type I2CConfig struct {
	// Bus is a periph bus name like "/dev/i2c-1" or "1". Empty selects the
	// first available bus.
	Bus string `yaml:"bus"`
}

// GaugeConfig describes the fuel gauge and its boot-time setup.
type GaugeConfig struct {
	// Model is one of max17043, max17044, max17048, max17049.
	Model string `yaml:"model"`
	// FullScale overrides the analog full scale (5 or 10 volts); 0 derives
	// it from the model.
	FullScale int `yaml:"full_scale"`
	// AlertThreshold is the low-SOC alert percentage (1-32); 0 leaves the
	// chip default untouched.
	AlertThreshold int `yaml:"alert_threshold"`
	// Compensation overrides the ModelGauge compensation byte when >= 0.
	// -1 (the default) leaves the factory value.
	Compensation int `yaml:"compensation"`
	// QuickStart restarts SOC estimation at boot.
	QuickStart bool `yaml:"quickstart"`
	// Debug enables driver transaction logging.
	Debug bool `yaml:"debug"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `yaml:"port"`
	ReadTimeout  int `yaml:"read_timeout"`
	WriteTimeout int `yaml:"write_timeout"`
}

// MQTTConfig contains broker settings for telemetry publishing.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	QoS      int    `yaml:"qos"`
	Interval int    `yaml:"interval"` // seconds between publishes
}

// Load reads the YAML file at path on top of the defaults, applies
// environment overrides and validates the result. An empty path returns
// the validated defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Gauge: GaugeConfig{
			Model:        "max17048",
			Compensation: -1,
		},
		Server: ServerConfig{
			Port:         3000,
			ReadTimeout:  10,
			WriteTimeout: 10,
		},
		MQTT: MQTTConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "fuelmon",
			Topic:    "fuelmon/battery",
			QoS:      1,
			Interval: 30,
		},
	}
}

// Environment overrides follow the pattern FUELMON_SECTION_KEY. Only
// values that make sense to inject at deploy time are covered.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FUELMON_I2C_BUS"); v != "" {
		cfg.I2C.Bus = v
	}
	if v := os.Getenv("FUELMON_MQTT_HOST"); v != "" {
		cfg.MQTT.Host = v
	}
	if v := os.Getenv("FUELMON_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("FUELMON_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Gauge.Model) {
	case "max17043", "max17044", "max17048", "max17049":
	default:
		errs = append(errs, fmt.Sprintf("gauge.model %q is not a known part", c.Gauge.Model))
	}
	if fs := c.Gauge.FullScale; fs != 0 && fs != 5 && fs != 10 {
		errs = append(errs, "gauge.full_scale must be 0, 5 or 10")
	}
	if t := c.Gauge.AlertThreshold; t < 0 || t > 32 {
		errs = append(errs, "gauge.alert_threshold must be between 0 and 32")
	}
	if c.Gauge.Compensation < -1 || c.Gauge.Compensation > 255 {
		errs = append(errs, "gauge.compensation must be between -1 and 255")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Host == "" {
			errs = append(errs, "mqtt.host is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Interval < 1 {
			errs = append(errs, "mqtt.interval must be at least 1 second")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// GetReadTimeout returns the HTTP read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeout) * time.Second
}

// GetPublishInterval returns the MQTT publish interval as a Duration.
func (c *Config) GetPublishInterval() time.Duration {
	return time.Duration(c.MQTT.Interval) * time.Second
}
