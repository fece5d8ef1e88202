// Package config loads hivegraph settings from a YAML file with HIVEGRAPH_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/hivegraph/pkg/logging"
	"github.com/dd0wney/hivegraph/pkg/storage"
	"github.com/dd0wney/hivegraph/pkg/validation"
)

const envPrefix = "HIVEGRAPH_"

// DefaultJournalSize is the journal capacity used when events.journal_size is 0
const DefaultJournalSize = 1024

// Config is the full process configuration
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Events  EventsConfig  `yaml:"events"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StorageConfig configures the graph store
type StorageConfig struct {
	DataDir           string `yaml:"data_dir"`
	CompressSnapshots bool   `yaml:"compress_snapshots"`
	SnapshotOnClose   bool   `yaml:"snapshot_on_close"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// EventsConfig configures where domain events go. Empty addresses disable a sink.
type EventsConfig struct {
	NNGAddress           string `yaml:"nng_address"`
	KafkaBrokers         string `yaml:"kafka_brokers"`
	KafkaTopic           string `yaml:"kafka_topic"`
	KafkaRetries         int    `yaml:"kafka_retries"`
	KafkaMaxMessageBytes int    `yaml:"kafka_max_message_bytes"`
	// JournalSize is how many recent events are kept in memory; 0 selects DefaultJournalSize
	JournalSize int `yaml:"journal_size"`
}

// MetricsConfig toggles the prometheus registry
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:           "./data",
			CompressSnapshots: true,
			SnapshotOnClose:   true,
		},
		Logging: LoggingConfig{Level: "info"},
		Events: EventsConfig{
			KafkaTopic:           "hivegraph.events",
			KafkaRetries:         3,
			KafkaMaxMessageBytes: 1 << 20,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads path over the defaults, applies environment overrides and validates
// the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from HIVEGRAPH_* variables found through lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
			return
		}
		*dst = b
	}
	integer := func(name string, dst *int) {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
			return
		}
		*dst = i
	}

	str("DATA_DIR", &c.Storage.DataDir)
	boolean("COMPRESS_SNAPSHOTS", &c.Storage.CompressSnapshots)
	boolean("SNAPSHOT_ON_CLOSE", &c.Storage.SnapshotOnClose)
	str("LOG_LEVEL", &c.Logging.Level)
	str("NNG_ADDRESS", &c.Events.NNGAddress)
	str("KAFKA_BROKERS", &c.Events.KafkaBrokers)
	str("KAFKA_TOPIC", &c.Events.KafkaTopic)
	integer("KAFKA_RETRIES", &c.Events.KafkaRetries)
	integer("JOURNAL_SIZE", &c.Events.JournalSize)
	boolean("METRICS_ENABLED", &c.Metrics.Enabled)

	return errors.Join(errs...)
}

// Validate rejects settings the process cannot start with
func (c *Config) Validate() error {
	levels := []string{"debug", "info", "warn", "warning", "error"}

	cv := validation.NewConfigValidator("config")
	cv.OneOf("logging.level", strings.ToLower(c.Logging.Level), levels)
	cv.NonNegative("events.journal_size", c.Events.JournalSize)
	cv.When(c.Events.NNGAddress != "", func(cv *validation.ConfigValidator) {
		cv.Custom("events.nng_address", func() error {
			if !strings.Contains(c.Events.NNGAddress, "://") {
				return fmt.Errorf("address %q has no transport scheme", c.Events.NNGAddress)
			}
			return nil
		})
	})
	cv.When(c.Events.KafkaBrokers != "", func(cv *validation.ConfigValidator) {
		cv.Required("events.kafka_topic", c.Events.KafkaTopic)
		cv.NonNegative("events.kafka_retries", c.Events.KafkaRetries)
		cv.Positive("events.kafka_max_message_bytes", c.Events.KafkaMaxMessageBytes)
		cv.Custom("events.kafka_brokers", func() error {
			for _, b := range strings.Split(c.Events.KafkaBrokers, ",") {
				if strings.TrimSpace(b) == "" {
					return errors.New("empty broker address")
				}
			}
			return nil
		})
	})
	return cv.Validate()
}

// StorageOptions converts the storage section for storage.NewGraphStorageWithConfig
func (c *Config) StorageOptions() storage.StorageConfig {
	return storage.StorageConfig{
		DataDir:           c.Storage.DataDir,
		CompressSnapshots: c.Storage.CompressSnapshots,
		SnapshotOnClose:   c.Storage.SnapshotOnClose,
	}
}

// JournalCapacity is the number of events the journal keeps
func (c *Config) JournalCapacity() int {
	return validation.DefaultOr(c.Events.JournalSize, DefaultJournalSize)
}

// LogLevel returns the configured level
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}
