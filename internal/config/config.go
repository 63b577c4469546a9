// Package config provides configuration loading and validation for the CLI
// and the hosted classification server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/form-autofill/internal/llm"
)

// Config is the declarative surface of the autofill engine. It can be loaded
// from a JSON file and overridden from the environment.
type Config struct {
	// Classification backend
	Enabled      bool   `json:"enabled"`                                                            // Use a statistical backend at all
	UseCustomAPI bool   `json:"use_custom_api,omitempty"`                                           // Call an LLM provider directly instead of the hosted backend
	Provider     string `json:"provider,omitempty" validate:"omitempty,oneof=gemini openai anthropic"` // Direct provider
	APIKey       string `json:"api_key,omitempty"`                                                  // Direct provider key
	Endpoint     string `json:"endpoint,omitempty" validate:"omitempty,url"`                        // Direct provider base URL override
	Model        string `json:"model,omitempty"`                                                    // Direct provider model override
	HostedURL    string `json:"hosted_url,omitempty" validate:"omitempty,url"`                      // Hosted backend base URL
	SessionToken string `json:"session_token,omitempty"`                                            // Hosted backend bearer token

	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	RedisURL    string `json:"redis_url,omitempty"`    // Shared classification cache
	Profile     string `json:"profile,omitempty"`      // Path to a profile JSON file

	// Behavior
	LogLevel   string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	UseBrowser bool   `json:"use_browser,omitempty"` // Render pages with a headless browser when needed
}

// Default returns the built-in configuration: hosted backend enabled.
func Default() Config {
	return Config{
		Enabled:   true,
		Provider:  string(llm.ProviderGemini),
		HostedURL: "https://api.formautofill.dev",
		LogLevel:  "info",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks field formats and the combinations the backend selection
// depends on.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' validation", jsonName(fe.StructField()), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if !c.Enabled {
		return nil
	}
	if c.UseCustomAPI && c.APIKey == "" {
		return fmt.Errorf("config error: 'api_key' is required when 'use_custom_api' is set")
	}
	if !c.UseCustomAPI && c.HostedURL == "" {
		return fmt.Errorf("config error: 'hosted_url' is required unless 'use_custom_api' is set")
	}

	if c.Profile != "" {
		if _, err := os.Stat(c.Profile); os.IsNotExist(err) {
			return fmt.Errorf("config error: profile file not found: %s", c.Profile)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// Bool fields cannot distinguish unset from false and are not merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&result.Provider, defaults.Provider)
	fill(&result.APIKey, defaults.APIKey)
	fill(&result.Endpoint, defaults.Endpoint)
	fill(&result.Model, defaults.Model)
	fill(&result.HostedURL, defaults.HostedURL)
	fill(&result.SessionToken, defaults.SessionToken)
	fill(&result.DatabaseURL, defaults.DatabaseURL)
	fill(&result.RedisURL, defaults.RedisURL)
	fill(&result.Profile, defaults.Profile)
	fill(&result.LogLevel, defaults.LogLevel)

	return result
}

// providerKeyEnv is the provider-specific key variable consulted when no
// AUTOFILL_API_KEY is set.
var providerKeyEnv = map[llm.Provider]string{
	llm.ProviderGemini:    "GEMINI_API_KEY",
	llm.ProviderOpenAI:    "OPENAI_API_KEY",
	llm.ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// ApplyEnv overrides fields from AUTOFILL_* variables, then fills a missing
// API key from the provider's own variable.
func (c *Config) ApplyEnv() {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Provider, "AUTOFILL_PROVIDER")
	set(&c.APIKey, "AUTOFILL_API_KEY")
	set(&c.Endpoint, "AUTOFILL_ENDPOINT")
	set(&c.Model, "AUTOFILL_MODEL")
	set(&c.HostedURL, "AUTOFILL_HOSTED_URL")
	set(&c.SessionToken, "AUTOFILL_SESSION_TOKEN")
	set(&c.DatabaseURL, "AUTOFILL_DATABASE_URL")
	set(&c.RedisURL, "AUTOFILL_REDIS_URL")
	set(&c.Profile, "AUTOFILL_PROFILE")
	set(&c.LogLevel, "LOG_LEVEL")

	if v := strings.TrimSpace(os.Getenv("AUTOFILL_USE_CUSTOM_API")); v != "" {
		c.UseCustomAPI = v == "1" || strings.EqualFold(v, "true")
	}

	if c.APIKey == "" {
		set(&c.APIKey, providerKeyEnv[llm.ParseProvider(c.Provider)])
	}
}

// LLMConfig returns the direct-provider model configuration.
func (c *Config) LLMConfig() *llm.Config {
	return llm.ConfigFor(llm.ParseProvider(c.Provider), c.Model, c.Endpoint)
}

func jsonName(field string) string {
	switch field {
	case "HostedURL":
		return "hosted_url"
	case "LogLevel":
		return "log_level"
	default:
		return strings.ToLower(field)
	}
}
