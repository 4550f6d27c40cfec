package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hpn/hpn-sampler/internal/adapter"
	"github.com/hpn/hpn-sampler/internal/backoff"
	"github.com/hpn/hpn-sampler/internal/domain"
)

const (
	defaultConfigName = "config"
	defaultConfigType = "yaml"
	envPrefix         = "SAMPLER"

	// dotEnvFile is loaded before anything else when present.
	dotEnvFile = ".env"
)

// loadConfig loads the configuration from files and the environment.
// Priority order (highest to lowest):
// 1. Process environment (SAMPLER_* plus COHERE_API_KEY / GOOGLE_API_KEY)
// 2. .env file in the working directory (never overrides the process environment)
// 3. config.yaml
// 4. Default values
func loadConfig(configPath string) (*Configuration, error) {
	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, &ConfigError{Op: "dotenv", Err: err}
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigName(defaultConfigName)
	v.SetConfigType(defaultConfigType)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/hpn-sampler")
		v.AddConfigPath("$HOME/.hpn-sampler")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Vendor keys keep their conventional, unprefixed names.
	if err := v.BindEnv("keys.cohere", adapter.EnvCohereAPIKey); err != nil {
		return nil, &ConfigError{Op: "bind_env", Err: err}
	}
	if err := v.BindEnv("keys.google", adapter.EnvGoogleAPIKey); err != nil {
		return nil, &ConfigError{Op: "bind_env", Err: err}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &ConfigError{
				Op:  "read",
				Err: fmt.Errorf("failed to read config file: %w", err),
			}
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{
			Op:  "unmarshal",
			Err: fmt.Errorf("failed to unmarshal config: %w", err),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv loads path into the process environment. A missing file is fine.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 0)
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	// Sampler defaults
	conv := domain.DefaultConversationalConfig()
	v.SetDefault("samplers.conversational.model", conv.Model)
	v.SetDefault("samplers.conversational.system_message", conv.SystemMessage)
	v.SetDefault("samplers.conversational.temperature", conv.Temperature)
	v.SetDefault("samplers.conversational.max_tokens", conv.MaxTokens)

	gen := domain.DefaultGenerativeConfig()
	v.SetDefault("samplers.generative.model", gen.Model)
	v.SetDefault("samplers.generative.system_message", gen.SystemMessage)
	v.SetDefault("samplers.generative.temperature", gen.Temperature)
	v.SetDefault("samplers.generative.max_tokens", gen.MaxTokens)

	// Vendor defaults keep the SDK endpoints
	v.SetDefault("vendors.cohere.base_url", "")
	v.SetDefault("vendors.cohere.timeout_seconds", int(adapter.DefaultTimeout.Seconds()))
	v.SetDefault("vendors.google.base_url", "")
	v.SetDefault("vendors.google.timeout_seconds", int(adapter.DefaultTimeout.Seconds()))

	// Retry defaults reproduce the unbounded 1s, 2s, 4s, ... policy
	v.SetDefault("retry.base_delay_seconds", backoff.DefaultBaseDelay.Seconds())
	v.SetDefault("retry.multiplier", backoff.DefaultMultiplier)
	v.SetDefault("retry.max_delay_seconds", 0)
	v.SetDefault("retry.max_attempts", 0)
	v.SetDefault("retry.jitter", 0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
