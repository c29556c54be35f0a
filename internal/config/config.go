package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config represents the application configuration
type Config struct {
	API        APIConfig        `yaml:"api"`
	Generation GenerationConfig `yaml:"generation"`
	Export     ExportConfig     `yaml:"export"`
}

// APIConfig represents the chat completion endpoint configuration
type APIConfig struct {
	URL            string  `yaml:"url"`
	Key            string  `yaml:"key"`
	Model          string  `yaml:"model"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
}

// GenerationConfig represents defaults for card generation
type GenerationConfig struct {
	IncludeBackend     bool `yaml:"include_backend"`
	IncludeFrontend    bool `yaml:"include_frontend"`
	IncludeTesting     bool `yaml:"include_testing"`
	IncludeDocs        bool `yaml:"include_docs"`
	DetailedEstimation bool `yaml:"detailed_estimation"`
}

// ExportConfig represents CSV export configuration
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
	Delimiter string `yaml:"delimiter"`
}

// LoadConfig loads configuration from a YAML file, then applies environment
// overrides. A missing file is not an error: defaults plus environment are
// enough to run against the hosted endpoint.
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Default returns a configuration suitable for writing as a sample file.
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	config.Generation = GenerationConfig{
		IncludeBackend:  true,
		IncludeFrontend: true,
		IncludeTesting:  true,
	}
	return config
}

func (c *Config) applyDefaults() {
	if c.API.URL == "" {
		c.API.URL = "https://chat.jazusoft.com/api/chat/completions"
	}
	if c.API.Model == "" {
		c.API.Model = "clarityhub"
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = 120
	}
	if c.API.MaxTokens == 0 {
		c.API.MaxTokens = 4096
	}
	if c.API.Temperature == 0 {
		c.API.Temperature = 0.2
	}
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = "./output"
	}
	if c.Export.Delimiter == "" {
		c.Export.Delimiter = ";"
	}
}

// applyEnv overlays environment variables on top of file values. A .env file
// in the working directory is honored when present.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("CLARITYHUB_API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("CLARITYHUB_API_KEY"); v != "" {
		c.API.Key = v
	}
	if v := os.Getenv("CLARITYHUB_MODEL"); v != "" {
		c.API.Model = v
	}
}

// Validate validates the configuration. The API key is deliberately not
// required here: a missing credential is surfaced as a warning by the caller
// and the request is allowed to fail at the transport layer.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return fmt.Errorf("chat API URL is required")
	}
	if c.API.Model == "" {
		return fmt.Errorf("chat model identifier is required")
	}
	if c.Export.Delimiter != "," && c.Export.Delimiter != ";" {
		return fmt.Errorf("export delimiter must be ',' or ';', got %q", c.Export.Delimiter)
	}
	return nil
}

// HasCredentials reports whether an API key is configured.
func (c *Config) HasCredentials() bool {
	return c.API.Key != ""
}

// Save writes the configuration as YAML.
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
