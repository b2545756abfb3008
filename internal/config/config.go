// Package config defines the configuration of the set-aside tools and
// includes functions for loading, validating and exporting it.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/setaside/pkg/constants"
	"github.com/iwvelando/setaside/pkg/validation"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration holds all configuration for the set-aside CLI and server.
type Configuration struct {
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Output    OutputConfig    `yaml:"output,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	Database  DatabaseConfig  `yaml:"database,omitempty"`
	Redis     RedisConfig     `yaml:"redis,omitempty"`
	AMQP      AMQPConfig      `yaml:"amqp,omitempty"`
	Documents DocumentsConfig `yaml:"documents,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, xlsx
	File   string `yaml:"file,omitempty"`   // required for xlsx
}

// ServerConfig holds HTTP server options.
type ServerConfig struct {
	Address          string   `yaml:"address,omitempty"`
	MaxUploadSize    string   `yaml:"maxUploadSize,omitempty"`
	AllowedOrigins   []string `yaml:"allowedOrigins,omitempty"`
	BatchConcurrency int      `yaml:"batchConcurrency,omitempty"`
}

// DatabaseConfig selects the request store.
type DatabaseConfig struct {
	Driver string `yaml:"driver,omitempty"` // memory, sqlite, postgres
	DSN    string `yaml:"dsn,omitempty"`
}

// RedisConfig enables the redis outcome cache when Address is set.
type RedisConfig struct {
	Address  string        `yaml:"address,omitempty"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
	Prefix   string        `yaml:"prefix,omitempty"`
}

// AMQPConfig enables outcome publishing when URL is set.
type AMQPConfig struct {
	URL      string `yaml:"url,omitempty"`
	Exchange string `yaml:"exchange,omitempty"`
	Queue    string `yaml:"queue,omitempty"`
}

// DocumentsConfig enables the document download endpoint when Bucket is set.
type DocumentsConfig struct {
	Bucket          string `yaml:"bucket,omitempty"`
	CredentialsFile string `yaml:"credentialsFile,omitempty"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default for AutomaticEnv to see it during Unmarshal.
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.outputfile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("output.file", "")
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxuploadsize", fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes))
	v.SetDefault("server.allowedorigins", []string{"*"})
	v.SetDefault("server.batchconcurrency", constants.DefaultBatchConcurrency)
	v.SetDefault("database.driver", constants.DriverMemory)
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "10m")
	v.SetDefault("redis.prefix", constants.DefaultCachePrefix)
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "setaside")
	v.SetDefault("amqp.queue", "setaside.outcomes")
	v.SetDefault("documents.bucket", "")
	v.SetDefault("documents.credentialsfile", "")
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path loads defaults and environment only.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	v.SetConfigType("yml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Validate checks the enumerated settings.
func (c *Configuration) Validate() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			return err
		}
	}
	switch c.Database.Driver {
	case "", constants.DriverMemory, constants.DriverSQLite:
	case constants.DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database driver %q", c.Database.Driver)
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("redis.ttl must not be negative")
	}
	return nil
}

// Export writes the configuration as YAML.
func (c *Configuration) Export(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	return enc.Close()
}
