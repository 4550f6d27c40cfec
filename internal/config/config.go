// Package config provides configuration management using the Singleton pattern.
// It loads configuration from a .env file, environment variables and
// config.yaml using Viper.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/hpn/hpn-sampler/internal/adapter"
	"github.com/hpn/hpn-sampler/internal/backoff"
	"github.com/hpn/hpn-sampler/internal/domain"
)

// Configuration holds all application configuration values.
type Configuration struct {
	// Server configuration for the HTTP gateway
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Samplers holds the generation settings per sampler
	Samplers SamplersConfig `json:"samplers" mapstructure:"samplers"`

	// Keys holds vendor API keys; never serialized
	Keys KeysConfig `json:"-" mapstructure:"keys"`

	// Vendors holds per-vendor transport settings
	Vendors VendorsConfig `json:"vendors" mapstructure:"vendors"`

	// Retry configures the backoff policy shared by all samplers
	Retry RetryConfig `json:"retry" mapstructure:"retry"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeoutSeconds is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeoutSeconds bounds response writes. Zero disables the limit,
	// which the default retry policy needs since it never gives up.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeoutSeconds is the maximum duration to wait for active connections to finish.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`
}

// SamplersConfig holds one SamplerConfig per sampler.
type SamplersConfig struct {
	// Conversational configures the Cohere chat sampler.
	Conversational domain.SamplerConfig `json:"conversational" mapstructure:"conversational"`

	// Generative configures the Gemini generate-content sampler.
	Generative domain.SamplerConfig `json:"generative" mapstructure:"generative"`
}

// KeysConfig holds vendor API keys read from COHERE_API_KEY and GOOGLE_API_KEY.
type KeysConfig struct {
	Cohere string `mapstructure:"cohere"`
	Google string `mapstructure:"google"`
}

// VendorsConfig holds transport settings for each vendor API.
type VendorsConfig struct {
	Cohere VendorConfig `json:"cohere" mapstructure:"cohere"`
	Google VendorConfig `json:"google" mapstructure:"google"`
}

// VendorConfig overrides a vendor endpoint and its HTTP timeout.
type VendorConfig struct {
	// BaseURL replaces the SDK's default endpoint when set.
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// TimeoutSeconds bounds a single vendor HTTP call.
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// AdapterOptions converts the settings into adapter options.
func (v VendorConfig) AdapterOptions() []adapter.Option {
	var opts []adapter.Option
	if v.BaseURL != "" {
		opts = append(opts, adapter.WithBaseURL(v.BaseURL))
	}
	if v.TimeoutSeconds > 0 {
		opts = append(opts, adapter.WithTimeout(time.Duration(v.TimeoutSeconds)*time.Second))
	}
	return opts
}

// RetryConfig holds backoff settings.
type RetryConfig struct {
	// BaseDelaySeconds is the delay before the first retry.
	BaseDelaySeconds float64 `json:"base_delay_seconds" mapstructure:"base_delay_seconds"`

	// Multiplier scales the delay after each failure.
	Multiplier float64 `json:"multiplier" mapstructure:"multiplier"`

	// MaxDelaySeconds caps a single delay (0 for no cap).
	MaxDelaySeconds float64 `json:"max_delay_seconds" mapstructure:"max_delay_seconds"`

	// MaxAttempts bounds the number of vendor calls (0 for unbounded).
	MaxAttempts int `json:"max_attempts" mapstructure:"max_attempts"`

	// Jitter randomizes each delay by up to this fraction.
	Jitter float64 `json:"jitter" mapstructure:"jitter"`
}

// Policy converts the settings into a backoff.Policy.
func (r RetryConfig) Policy() backoff.Policy {
	return backoff.Policy{
		BaseDelay:   seconds(r.BaseDelaySeconds),
		Multiplier:  r.Multiplier,
		MaxDelay:    seconds(r.MaxDelaySeconds),
		MaxAttempts: r.MaxAttempts,
		Jitter:      r.Jitter,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`
}

// configInstance holds the singleton configuration instance.
var (
	configInstance *Configuration
	configOnce     sync.Once
	configErr      error
)

// GetConfig returns the singleton Configuration instance.
// It initializes the configuration on first call using the default config path.
func GetConfig() (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig("")
	})
	return configInstance, configErr
}

// GetConfigWithPath returns the singleton Configuration instance with a custom config path.
func GetConfigWithPath(configPath string) (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig(configPath)
	})
	return configInstance, configErr
}

// ResetConfig resets the singleton instance.
// This is primarily used for testing purposes.
func ResetConfig() {
	configOnce = sync.Once{}
	configInstance = nil
	configErr = nil
}

// Validate validates the configuration and returns an error if any value is unusable.
func (c *Configuration) Validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "server.port must be between 1 and 65535")
	}

	validationErrors = append(validationErrors, validateSampler("samplers.conversational", c.Samplers.Conversational)...)
	validationErrors = append(validationErrors, validateSampler("samplers.generative", c.Samplers.Generative)...)

	if c.Vendors.Cohere.TimeoutSeconds < 0 || c.Vendors.Google.TimeoutSeconds < 0 {
		validationErrors = append(validationErrors, "vendors.*.timeout_seconds must not be negative")
	}

	if err := c.Retry.Policy().Validate(); err != nil {
		validationErrors = append(validationErrors, "retry: "+err.Error())
	}
	if c.Retry.Multiplier != 0 && c.Retry.Multiplier < 1 {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"retry.multiplier must be at least 1, got %v", c.Retry.Multiplier,
		))
	}

	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, (&InvalidValueError{
			Key:           "logging.level",
			Value:         c.Logging.Level,
			AllowedValues: []string{"debug", "info", "warn", "error"},
		}).Error())
	}

	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "text" {
		validationErrors = append(validationErrors, (&InvalidValueError{
			Key:           "logging.format",
			Value:         c.Logging.Format,
			AllowedValues: []string{"json", "text"},
		}).Error())
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

func validateSampler(prefix string, s domain.SamplerConfig) []string {
	var errs []string
	if s.Model == "" {
		errs = append(errs, prefix+".model is required")
	}
	if s.Temperature < 0 {
		errs = append(errs, fmt.Sprintf("%s.temperature must not be negative, got %v", prefix, s.Temperature))
	}
	if s.MaxTokens <= 0 {
		errs = append(errs, fmt.Sprintf("%s.max_tokens must be positive, got %d", prefix, s.MaxTokens))
	}
	return errs
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// MissingKeys lists the vendor key variables that are unset.
// Samplers still start without them; the vendor rejects their calls.
func (c *Configuration) MissingKeys() []string {
	var missing []string
	if c.Keys.Cohere == "" {
		missing = append(missing, "COHERE_API_KEY")
	}
	if c.Keys.Google == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}
	return missing
}
