// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (NOMNOMS_ prefix, runtime override)
//  2. Config file (~/.nomnoms/config.yaml)
//  3. Default values
//
// Credentials (Gemini API key, DoorDash signing secret) are deliberately not
// required at load time. Each client checks its own credentials on first use,
// so a deployment without delivery support still starts cleanly.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidTemperature indicates the model temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidMaxIterations indicates the agent iteration budget is out of range.
	ErrInvalidMaxIterations = errors.New("invalid max iterations")

	// ErrInvalidHistoryWindow indicates the conversation window is out of range.
	ErrInvalidHistoryWindow = errors.New("invalid history window")

	// ErrInvalidTaxRate indicates the tax rate is out of range.
	ErrInvalidTaxRate = errors.New("invalid tax rate")

	// ErrMissingMongoURI indicates the MongoDB connection string is not set.
	ErrMissingMongoURI = errors.New("missing MongoDB URI")
)

// Defaults.
const (
	DefaultServerAddr    = ":8080"
	DefaultMongoDatabase = "nomnoms"
	DefaultModel         = "gemini-2.0-flash"
	DefaultTemperature   = 0.7
	DefaultMaxTokens     = 1000
	DefaultMaxIterations = 10
	DefaultHistoryWindow = 20
	DefaultTaxRate       = 0.085
)

// Mongo holds document-store connection settings.
type Mongo struct {
	URI      string
	Database string
}

// AI holds language-model provider settings.
type AI struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Agent holds orchestration-loop tuning.
type Agent struct {
	MaxIterations int
	HistoryWindow int
}

// DoorDash holds delivery-provider credentials.
type DoorDash struct {
	DeveloperID   string
	KeyID         string
	SigningSecret string
}

// Config is the root application configuration.
type Config struct {
	ServerAddr  string
	CORSOrigins []string
	LogJSON     bool

	Mongo    Mongo
	AI       AI
	Agent    Agent
	DoorDash DoorDash
	TaxRate  float64
}

// Load reads configuration from file and environment.
// A missing config file is not an error; defaults plus environment apply.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.json", false)
	v.SetDefault("mongo.database", DefaultMongoDatabase)
	v.SetDefault("ai.model", DefaultModel)
	v.SetDefault("ai.temperature", DefaultTemperature)
	v.SetDefault("ai.max_tokens", DefaultMaxTokens)
	v.SetDefault("agent.max_iterations", DefaultMaxIterations)
	v.SetDefault("agent.history_window", DefaultHistoryWindow)
	v.SetDefault("ordering.tax_rate", DefaultTaxRate)

	v.SetEnvPrefix("NOMNOMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Widely-used provider variable names accepted alongside the prefixed form.
	_ = v.BindEnv("ai.api_key", "NOMNOMS_AI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("mongo.uri", "NOMNOMS_MONGO_URI", "MONGODB_URI")
	_ = v.BindEnv("doordash.developer_id", "NOMNOMS_DOORDASH_DEVELOPER_ID", "DOORDASH_DEVELOPER_ID")
	_ = v.BindEnv("doordash.key_id", "NOMNOMS_DOORDASH_KEY_ID", "DOORDASH_KEY_ID")
	_ = v.BindEnv("doordash.signing_secret", "NOMNOMS_DOORDASH_SIGNING_SECRET", "DOORDASH_SIGNING_SECRET")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".nomnoms"))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		ServerAddr:  v.GetString("server.addr"),
		CORSOrigins: v.GetStringSlice("server.cors_origins"),
		LogJSON:     v.GetBool("log.json"),
		Mongo: Mongo{
			URI:      v.GetString("mongo.uri"),
			Database: v.GetString("mongo.database"),
		},
		AI: AI{
			APIKey:      v.GetString("ai.api_key"),
			Model:       v.GetString("ai.model"),
			Temperature: v.GetFloat64("ai.temperature"),
			MaxTokens:   v.GetInt("ai.max_tokens"),
		},
		Agent: Agent{
			MaxIterations: v.GetInt("agent.max_iterations"),
			HistoryWindow: v.GetInt("agent.history_window"),
		},
		DoorDash: DoorDash{
			DeveloperID:   v.GetString("doordash.developer_id"),
			KeyID:         v.GetString("doordash.key_id"),
			SigningSecret: v.GetString("doordash.signing_secret"),
		},
		TaxRate: v.GetFloat64("ordering.tax_rate"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate performs range checks on tunable values.
func (c *Config) validate() error {
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("%w: %v (must be in [0, 2])", ErrInvalidTemperature, c.AI.Temperature)
	}
	if c.AI.MaxTokens < 1 || c.AI.MaxTokens > 65536 {
		return fmt.Errorf("%w: %d (must be in [1, 65536])", ErrInvalidMaxTokens, c.AI.MaxTokens)
	}
	if c.Agent.MaxIterations < 1 || c.Agent.MaxIterations > 100 {
		return fmt.Errorf("%w: %d (must be in [1, 100])", ErrInvalidMaxIterations, c.Agent.MaxIterations)
	}
	if c.Agent.HistoryWindow < 2 || c.Agent.HistoryWindow > 1000 {
		return fmt.Errorf("%w: %d (must be in [2, 1000])", ErrInvalidHistoryWindow, c.Agent.HistoryWindow)
	}
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return fmt.Errorf("%w: %v (must be in [0, 1))", ErrInvalidTaxRate, c.TaxRate)
	}
	return nil
}

// ValidateServe checks the settings the HTTP server cannot start without.
func (c *Config) ValidateServe() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("%w: set NOMNOMS_MONGO_URI or MONGODB_URI", ErrMissingMongoURI)
	}
	return nil
}
