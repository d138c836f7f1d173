// Package config loads pagefinder settings from config.yaml and PAGEFINDER_*
// environment variables.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/pagefinder/internal/analysis"
	"github.com/sells-group/pagefinder/internal/cost"
	"github.com/sells-group/pagefinder/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Rate      RateConfig      `yaml:"rate" mapstructure:"rate"`
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key                string `yaml:"key" mapstructure:"key"`
	BaseURL            string `yaml:"base_url" mapstructure:"base_url"`
	AnalysisModel      string `yaml:"analysis_model" mapstructure:"analysis_model"`
	SynthesisModel     string `yaml:"synthesis_model" mapstructure:"synthesis_model"`
	MaxTokens          int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	SynthesisMaxTokens int64  `yaml:"synthesis_max_tokens" mapstructure:"synthesis_max_tokens"`
	TimeoutSecs        int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnalysisConfig holds the batch analysis tunables.
type AnalysisConfig struct {
	BatchSize      int    `yaml:"batch_size" mapstructure:"batch_size"`
	MaxResults     int    `yaml:"max_results" mapstructure:"max_results"`
	Concurrency    int    `yaml:"concurrency" mapstructure:"concurrency"`
	MaxPageChars   int    `yaml:"max_page_chars" mapstructure:"max_page_chars"`
	ResponseFormat string `yaml:"response_format" mapstructure:"response_format"`
}

// RetryConfig configures the per-call oracle retry policy.
type RetryConfig struct {
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	TransientDelayMs int     `yaml:"transient_delay_ms" mapstructure:"transient_delay_ms"`
	RateLimitBaseMs  int     `yaml:"rate_limit_base_ms" mapstructure:"rate_limit_base_ms"`
	RateLimitMaxMs   int     `yaml:"rate_limit_max_ms" mapstructure:"rate_limit_max_ms"`
	Jitter           float64 `yaml:"jitter" mapstructure:"jitter"`
}

// RateConfig configures the process-wide oracle request pacer.
type RateConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Burst             int `yaml:"burst" mapstructure:"burst"`
}

// OCRConfig configures page text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralAPIKey string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	Anthropic map[string]cost.ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port         int      `yaml:"port" mapstructure:"port"`
	MaxBodyBytes int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	CORSOrigins  []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PAGEFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.analysis_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.synthesis_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.synthesis_max_tokens", 4096)
	v.SetDefault("anthropic.timeout_secs", 120)
	v.SetDefault("analysis.batch_size", 5)
	v.SetDefault("analysis.max_results", 10)
	v.SetDefault("analysis.concurrency", 1)
	v.SetDefault("analysis.max_page_chars", 8000)
	v.SetDefault("analysis.response_format", "json")
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.transient_delay_ms", 5000)
	v.SetDefault("retry.rate_limit_base_ms", 2000)
	v.SetDefault("retry.rate_limit_max_ms", 60000)
	v.SetDefault("retry.jitter", 0.0)
	v.SetDefault("rate.requests_per_minute", 50)
	v.SetDefault("rate.burst", 1)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.mistral_api_key", "")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_body_bytes", 32<<20)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Settings returns the analysis tunables.
func (c *Config) Settings() analysis.Settings {
	return analysis.Settings{
		Model:              c.Anthropic.AnalysisModel,
		MaxTokens:          c.Anthropic.MaxTokens,
		BatchSize:          c.Analysis.BatchSize,
		MaxResults:         c.Analysis.MaxResults,
		Concurrency:        c.Analysis.Concurrency,
		MaxPageChars:       c.Analysis.MaxPageChars,
		Format:             analysis.ResponseFormat(c.Analysis.ResponseFormat),
		SynthesisModel:     c.Anthropic.SynthesisModel,
		SynthesisMaxTokens: c.Anthropic.SynthesisMaxTokens,
	}
}

// RetryPolicy returns the oracle retry policy.
func (c *Config) RetryPolicy() resilience.RetryPolicy {
	return resilience.FromRetryConfig(
		c.Retry.MaxRetries,
		c.Retry.TransientDelayMs,
		c.Retry.RateLimitBaseMs,
		c.Retry.RateLimitMaxMs,
		c.Retry.Jitter,
	)
}

// Rates returns the cost calculator rates.
func (c *Config) Rates() cost.Rates {
	return cost.Rates{Anthropic: c.Pricing.Anthropic}
}

// Timeout returns the per-request Anthropic HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Anthropic.TimeoutSecs) * time.Second
}

// Validate checks the settings the given command needs. Every error matches
// analysis.ErrInvalidConfiguration.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "analyze", "answer", "serve":
	default:
		return eris.Wrapf(analysis.ErrInvalidConfiguration, "config: unknown mode %q", mode)
	}

	if c.Anthropic.Key == "" {
		errs = append(errs, "anthropic.key is required")
	}
	if err := c.Settings().Validate(); err != nil {
		errs = append(errs, strings.TrimSuffix(err.Error(), ": "+analysis.ErrInvalidConfiguration.Error()))
	}
	if c.Anthropic.SynthesisModel == "" || c.Anthropic.SynthesisMaxTokens <= 0 {
		errs = append(errs, "anthropic.synthesis_model and anthropic.synthesis_max_tokens are required")
	}
	if c.Retry.MaxRetries < 1 {
		errs = append(errs, "retry.max_retries must be >= 1")
	}
	if c.Retry.TransientDelayMs < 0 || c.Retry.RateLimitBaseMs < 0 || c.Retry.RateLimitMaxMs < 0 {
		errs = append(errs, "retry delays must be >= 0")
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		errs = append(errs, "retry.jitter must be between 0 and 1")
	}
	if c.Rate.RequestsPerMinute < 0 {
		errs = append(errs, "rate.requests_per_minute must be >= 0")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.MaxBodyBytes <= 0 {
			errs = append(errs, "server.max_body_bytes must be > 0")
		}
	}

	if len(errs) > 0 {
		return eris.Wrapf(analysis.ErrInvalidConfiguration, "config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
