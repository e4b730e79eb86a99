package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Rana718/datagen/internal/database"
	"github.com/Rana718/datagen/internal/export"
	"github.com/Rana718/datagen/internal/llm"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the working directory.
const FileName = "datagen.config.json"

type Config struct {
	Version        string     `json:"version" mapstructure:"version"`
	DefinitionsDir string     `json:"definitions_dir" mapstructure:"definitions_dir"`
	MigrationsPath string     `json:"migrations_path" mapstructure:"migrations_path"`
	OutputPath     string     `json:"output_path" mapstructure:"output_path"`
	DataDir        string     `json:"data_dir" mapstructure:"data_dir"`
	Database       Database   `json:"database" mapstructure:"database"`
	LLM            LLM        `json:"llm" mapstructure:"llm"`
	Generation     Generation `json:"generation" mapstructure:"generation"`
	Export         Export     `json:"export" mapstructure:"export"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

type LLM struct {
	APIKeyEnv      string  `json:"api_key_env" mapstructure:"api_key_env"`
	Model          string  `json:"model" mapstructure:"model"`
	BaseURL        string  `json:"base_url,omitempty" mapstructure:"base_url"`
	Temperature    float64 `json:"temperature" mapstructure:"temperature"`
	TimeoutSeconds int     `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

type Generation struct {
	MaxRecords  int `json:"max_records" mapstructure:"max_records"`
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`
}

type Export struct {
	Format   string `json:"format" mapstructure:"format"`
	S3Bucket string `json:"s3_bucket,omitempty" mapstructure:"s3_bucket"`
	S3Prefix string `json:"s3_prefix,omitempty" mapstructure:"s3_prefix"`
}

// Load reads the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals v and fills in defaults for anything unset.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults(v)
	return &cfg, nil
}

func (c *Config) applyDefaults(v *viper.Viper) {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.DefinitionsDir == "" {
		c.DefinitionsDir = "db/definitions"
	}
	if c.MigrationsPath == "" {
		c.MigrationsPath = "db/migrations"
	}
	if c.OutputPath == "" {
		c.OutputPath = "output"
	}
	if c.DataDir == "" {
		c.DataDir = ".datagen"
	}
	if c.Database.Provider == "" {
		c.Database.Provider = "sqlite"
	}
	if c.Database.URLEnv == "" {
		c.Database.URLEnv = "DATABASE_URL"
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-3.5-turbo"
	}
	if !v.IsSet("llm.temperature") {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 30
	}
	if c.Generation.MaxRecords == 0 {
		c.Generation.MaxRecords = 10
	}
	if c.Generation.Concurrency == 0 {
		c.Generation.Concurrency = 1
	}
	if c.Export.Format == "" {
		c.Export.Format = "xlsx"
	}
}

func (c *Config) Validate() error {
	if !contains(database.SupportedProviders, c.Database.Provider) {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, database.SupportedProviders)
	}
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return err
	}
	if c.DefinitionsDir == "" {
		return fmt.Errorf("definitions_dir cannot be empty")
	}
	if c.MigrationsPath == "" {
		return fmt.Errorf("migrations_path cannot be empty")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output_path cannot be empty")
	}
	if c.Generation.MaxRecords < 1 {
		return fmt.Errorf("generation.max_records must be at least 1")
	}
	if c.Generation.Concurrency < 1 {
		return fmt.Errorf("generation.concurrency must be at least 1")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if c.LLM.TimeoutSeconds < 0 {
		return fmt.Errorf("llm.timeout_seconds cannot be negative")
	}
	return nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

// APIKey returns the language model credential, or "" when none is set.
func (c *Config) APIKey() string {
	return strings.TrimSpace(os.Getenv(c.LLM.APIKeyEnv))
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// LLMConfig builds the client settings for the configured model.
func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		APIKey:      c.APIKey(),
		Model:       c.LLM.Model,
		BaseURL:     c.LLM.BaseURL,
		Temperature: float32(c.LLM.Temperature),
		Timeout:     c.LLMTimeout(),
	}
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DefinitionsDir,
		c.MigrationsPath,
		c.OutputPath,
		c.DataDir,
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// IsInitialized reports whether the working directory holds a config file.
func IsInitialized() bool {
	_, err := os.Stat(FileName)
	return err == nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
