package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", config.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "fallback-model",
		},
	}

	// Unknown tier should fallback to TierStandard, then TierLite
	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models:   map[ModelTier]string{},
	}

	// Empty config should return empty string
	assert.Equal(t, "", config.GetModel(TierAdvanced))
}

func TestWithModel(t *testing.T) {
	config := DefaultConfig()
	newConfig := config.WithModel(TierAdvanced, "custom-model")

	// Original should be unchanged
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))

	// New config should have custom model
	assert.Equal(t, "custom-model", newConfig.GetModel(TierAdvanced))

	// Other tiers should be copied
	assert.Equal(t, "gemini-2.5-flash-lite", newConfig.GetModel(TierLite))
}

func TestModelTierConstants(t *testing.T) {
	assert.Equal(t, ModelTier("lite"), TierLite)
	assert.Equal(t, ModelTier("standard"), TierStandard)
	assert.Equal(t, ModelTier("advanced"), TierAdvanced)
}

func TestProviderConstants(t *testing.T) {
	assert.Equal(t, Provider("gemini"), ProviderGemini)
	assert.Equal(t, Provider("openai"), ProviderOpenAI)
	assert.Equal(t, Provider("anthropic"), ProviderAnthropic)
}

func TestParseProvider(t *testing.T) {
	assert.Equal(t, ProviderOpenAI, ParseProvider("openai"))
	assert.Equal(t, ProviderAnthropic, ParseProvider("anthropic"))
	assert.Equal(t, ProviderGemini, ParseProvider("gemini"))
	assert.Equal(t, ProviderGemini, ParseProvider(""))
	assert.Equal(t, ProviderGemini, ParseProvider("mystery"))
}

func TestConfigFor(t *testing.T) {
	cfg := ConfigFor(ProviderOpenAI, "", "")
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.GetModel(TierLite))

	custom := ConfigFor(ProviderOpenAI, "llama-3.1-8b", "http://localhost:11434/v1")
	assert.Equal(t, "llama-3.1-8b", custom.GetModel(TierLite))
	assert.Equal(t, "llama-3.1-8b", custom.GetModel(TierAdvanced))
	assert.Equal(t, "http://localhost:11434/v1", custom.BaseURL)

	anthropic := ConfigFor(ProviderAnthropic, "", "")
	assert.Equal(t, ProviderAnthropic, anthropic.Provider)
	assert.NotEmpty(t, anthropic.GetModel(TierLite))
}

func TestWithModel_KeepsBaseURL(t *testing.T) {
	cfg := ConfigFor(ProviderOpenAI, "", "http://proxy")
	assert.Equal(t, "http://proxy", cfg.WithModel(TierLite, "x").BaseURL)
}
