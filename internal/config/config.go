package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"` // SQLite path for the certificate ledger
	} `yaml:"database"`

	// Redis cache tier for the ledger. Left unconfigured (empty addr), the
	// ledger runs on the primary store and the in-process cache alone.
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTLHours int    `yaml:"ttl_hours"`
	} `yaml:"redis"`

	// Gemini enrichment collaborator. Missing API key means heuristic-only
	// analysis, never a startup failure.
	Gemini struct {
		APIKey     string `yaml:"api_key"`
		ModelName  string `yaml:"model_name"`
		MaxRetries int    `yaml:"max_retries"`
	} `yaml:"gemini"`

	Analysis struct {
		StageDelayMS         int `yaml:"stage_delay_ms"`
		MaxContentBytes      int `yaml:"max_content_bytes"`
		EnrichTimeoutSeconds int `yaml:"enrich_timeout_seconds"`
	} `yaml:"analysis"`

	Jobs struct {
		RetentionMinutes     int `yaml:"retention_minutes"`
		SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
	} `yaml:"jobs"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "8003"
	}

	if config.Database.Path == "" {
		config.Database.Path = "./data/certificates.db"
	}

	if config.Redis.TTLHours == 0 {
		config.Redis.TTLHours = 24
	}

	if config.Gemini.ModelName == "" {
		config.Gemini.ModelName = "gemini-2.0-flash-exp"
	}

	if config.Gemini.MaxRetries == 0 {
		config.Gemini.MaxRetries = 2
	}

	if config.Analysis.StageDelayMS == 0 {
		config.Analysis.StageDelayMS = 300
	}

	if config.Analysis.MaxContentBytes == 0 {
		config.Analysis.MaxContentBytes = 1 << 20
	}

	if config.Analysis.EnrichTimeoutSeconds == 0 {
		config.Analysis.EnrichTimeoutSeconds = 10
	}

	if config.Jobs.RetentionMinutes == 0 {
		config.Jobs.RetentionMinutes = 60
	}

	if config.Jobs.SweepIntervalMinutes == 0 {
		config.Jobs.SweepIntervalMinutes = 5
	}

	// Expand environment variables in secrets
	config.Gemini.APIKey = os.ExpandEnv(config.Gemini.APIKey)
	config.Redis.Password = os.ExpandEnv(config.Redis.Password)

	return config, nil
}
