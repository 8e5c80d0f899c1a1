package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "RESEARCH_DIGEST_CONFIG"
	backendProviderEnv = "RESEARCH_DIGEST_BACKEND"
	openAIKeyEnv       = "OPENAI_API_KEY"
	anthropicKeyEnv    = "ANTHROPIC_API_KEY"
	geminiKeyEnv       = "GEMINI_API_KEY"
	databaseDSNEnv     = "DATABASE_DSN"
	wordBudgetEnv      = "RESEARCH_DIGEST_WORD_BUDGET"
)

// Backend providers accepted in config and on the CLI.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Backend  BackendConfig  `yaml:"backend"`
	Report   ReportConfig   `yaml:"report"`
	Feeds    []string       `yaml:"feeds"`
	Database DatabaseConfig `yaml:"database"`
}

// LoggingConfig controls console log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// BackendConfig defines how to contact the generative model backend.
type BackendConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"apiKey"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	MaxRetries     int    `yaml:"maxRetries"`
	BackoffBaseMS  int    `yaml:"backoffBaseMs"`
}

// ReportConfig bounds the synthesis run: batch size, excerpt length, word
// budget, and the repair-loop ceiling.
type ReportConfig struct {
	WordBudget            int     `yaml:"wordBudget"`
	WordTolerance         float64 `yaml:"wordTolerance"`
	MaxArticles           int     `yaml:"maxArticles"`
	MaxExcerptChars       int     `yaml:"maxExcerptChars"`
	MaxAttempts           int     `yaml:"maxAttempts"`
	OverallTimeoutSeconds int     `yaml:"overallTimeoutSeconds"`
	OutputDir             string  `yaml:"outputDir"`
}

// DatabaseConfig describes the optional Postgres history store. An empty
// DSN disables cross-run deduplication entirely.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(backendProviderEnv); v != "" {
		c.Backend.Provider = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(wordBudgetEnv); v != "" {
		if budget, err := strconv.Atoi(v); err == nil && budget > 0 {
			c.Report.WordBudget = budget
		}
	}

	// API keys come from the provider's conventional variable; a key in the
	// YAML file is only a fallback for local setups.
	if c.Backend.APIKey == "" {
		c.Backend.APIKey = os.Getenv(providerKeyEnv(c.Backend.Provider))
	}
}

// APIKeyFromEnv returns the conventional API key variable for a provider,
// for callers that switch providers after Load (e.g. a --backend flag).
func APIKeyFromEnv(provider string) string {
	return os.Getenv(providerKeyEnv(provider))
}

func providerKeyEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return anthropicKeyEnv
	case ProviderGemini:
		return geminiKeyEnv
	default:
		return openAIKeyEnv
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Backend.Provider != "" {
		base.Backend.Provider = override.Backend.Provider
	}
	if override.Backend.Model != "" {
		base.Backend.Model = override.Backend.Model
	}
	if override.Backend.APIKey != "" {
		base.Backend.APIKey = override.Backend.APIKey
	}
	if override.Backend.TimeoutSeconds > 0 {
		base.Backend.TimeoutSeconds = override.Backend.TimeoutSeconds
	}
	if override.Backend.MaxRetries > 0 {
		base.Backend.MaxRetries = override.Backend.MaxRetries
	}
	if override.Backend.BackoffBaseMS > 0 {
		base.Backend.BackoffBaseMS = override.Backend.BackoffBaseMS
	}

	if override.Report.WordBudget > 0 {
		base.Report.WordBudget = override.Report.WordBudget
	}
	if override.Report.WordTolerance > 0 {
		base.Report.WordTolerance = override.Report.WordTolerance
	}
	if override.Report.MaxArticles > 0 {
		base.Report.MaxArticles = override.Report.MaxArticles
	}
	if override.Report.MaxExcerptChars > 0 {
		base.Report.MaxExcerptChars = override.Report.MaxExcerptChars
	}
	if override.Report.MaxAttempts > 0 {
		base.Report.MaxAttempts = override.Report.MaxAttempts
	}
	if override.Report.OverallTimeoutSeconds > 0 {
		base.Report.OverallTimeoutSeconds = override.Report.OverallTimeoutSeconds
	}
	if override.Report.OutputDir != "" {
		base.Report.OutputDir = override.Report.OutputDir
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Backend: BackendConfig{
			Provider:       ProviderOpenAI,
			Model:          "",
			TimeoutSeconds: 120,
			MaxRetries:     3,
			BackoffBaseMS:  1000,
		},
		Report: ReportConfig{
			WordBudget:      1200,
			WordTolerance:   0.10,
			MaxArticles:     15,
			MaxExcerptChars: 500,
			MaxAttempts:     3,
			OutputDir:       "reports",
		},
		Feeds: nil,
	}
}
