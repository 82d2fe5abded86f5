package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/dotcommander/assess/internal/assessment"
	"github.com/dotcommander/assess/internal/project"
)

// Config represents the assess configuration
type Config struct {
	DefaultType string       `mapstructure:"defaultType" json:"defaultType"`
	Format      string       `mapstructure:"format" json:"format"`
	Output      string       `mapstructure:"output" json:"output"`
	Quiet       bool         `mapstructure:"quiet" json:"quiet"`
	Verbose     bool         `mapstructure:"verbose" json:"verbose"`
	Strict      bool         `mapstructure:"strict" json:"strict"`
	Concurrency int          `mapstructure:"concurrency" json:"concurrency"`
	Parallel    bool         `mapstructure:"parallel" json:"parallel"`
	Exclude     []string     `mapstructure:"exclude" json:"exclude"`
	Schemas     SchemaConfig `mapstructure:"schemas" json:"schemas"`
	Server      ServerConfig `mapstructure:"server" json:"server"`
}

// SchemaConfig contains schema validation configuration
type SchemaConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr       string `mapstructure:"addr" json:"addr"`
	Debug      bool   `mapstructure:"debug" json:"debug"`
	EnableCORS bool   `mapstructure:"enableCors" json:"enableCors"`
}

// ConfigFiles are the file names searched, in order, in the working directory
// and then each parent up to the repository root.
var ConfigFiles = []string{".assessrc.json", ".assessrc.yaml", ".assessrc.yml"}

// LoadConfig loads configuration from defaults, the nearest config file,
// ASSESS_* environment variables and any flags bound to viper.
func LoadConfig() (*Config, error) {
	viper.SetDefault("defaultType", assessment.DefaultType)
	viper.SetDefault("format", "console")
	viper.SetDefault("quiet", false)
	viper.SetDefault("verbose", false)
	viper.SetDefault("strict", false)
	viper.SetDefault("concurrency", 10)
	viper.SetDefault("parallel", true)
	viper.SetDefault("schemas.enabled", true)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.debug", false)
	viper.SetDefault("server.enableCors", false)

	if path, ok := project.FindConfig(".", ConfigFiles); ok {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	viper.SetEnvPrefix("ASSESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Format != "console" && config.Format != "json" && config.Format != "markdown" {
		return fmt.Errorf("invalid format: %s. Must be 'console', 'json', or 'markdown'", config.Format)
	}

	if config.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}

	if !assessment.Builtin().Has(config.DefaultType) {
		return fmt.Errorf("unknown default assessment type: %s", config.DefaultType)
	}

	return nil
}

// Workers returns the batch worker count implied by Concurrency and Parallel.
func (c *Config) Workers() int {
	if !c.Parallel {
		return 1
	}
	return c.Concurrency
}

// SaveConfig saves the configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
