package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	mu sync.Mutex `yaml:"-"`

	StationID    string `yaml:"station_id"`
	DatabasePath string `yaml:"database_path"`

	Web       WebConfig       `yaml:"web"`
	Imports   ImportsConfig   `yaml:"imports"`
	Messaging MessagingConfig `yaml:"messaging"`
}

// WebConfig defines the web server settings.
type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

// ImportsConfig defines where the station finds its offline catalogs.
type ImportsConfig struct {
	// PartIdentifierCSV is the fallback catalog consulted when a
	// scanned code is not in the database.
	PartIdentifierCSV string `yaml:"part_identifier_csv"`
}

// MessagingConfig defines the optional plant uplink.
type MessagingConfig struct {
	Enabled             bool          `yaml:"enabled"`
	Backend             string        `yaml:"backend"` // "mqtt" or "kafka"
	MQTT                MQTTConfig    `yaml:"mqtt"`
	Kafka               KafkaConfig   `yaml:"kafka"`
	ScanTopic           string        `yaml:"scan_topic"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// KafkaConfig defines Kafka broker settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		StationID:    "receiving-1",
		DatabasePath: "receiving.db",
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8081,
		},
		Imports: ImportsConfig{
			PartIdentifierCSV: "part_identifiers.csv",
		},
		Messaging: MessagingConfig{
			Enabled:             false,
			Backend:             "mqtt",
			ScanTopic:           "receiving/scans",
			OutboxDrainInterval: 5 * time.Second,
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ClientID returns the messaging client ID, defaulting to the station.
func (c *Config) ClientID() string {
	if c.Messaging.MQTT.ClientID != "" {
		return c.Messaging.MQTT.ClientID
	}
	return c.StationID
}
