package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-screener/domain"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLMModel)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, domain.FlowReview, cfg.ScanFlow)
	assert.Equal(t, domain.DefaultStrictness, cfg.DefaultStrictness)
	assert.Equal(t, AuthModeHeader, cfg.AuthMode)
	assert.Equal(t, "X-User-ID", cfg.AuthHeader)
	assert.Equal(t, StorageLocal, cfg.StorageDriver)
	assert.Equal(t, int64(10), cfg.MaxUploadMB)
	assert.False(t, cfg.DBSeed)
}

func TestConfigOpenAIProviderPicksItsKeyAndModel(t *testing.T) {
	cfg, err := ConfigFromEnv(envOf(map[string]string{
		"LLM_PROVIDER":   "OpenAI",
		"OPENAI_API_KEY": "sk-test",
		"GEMINI_API_KEY": "ignored",
		"SCAN_FLOW":      "instant",
	}))
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, "sk-test", cfg.LLMAPIKey)
	assert.Equal(t, domain.FlowInstant, cfg.ScanFlow)
}

func TestConfigRejectsBadValues(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown driver":       {"DB_DRIVER": "oracle"},
		"unknown provider":     {"LLM_PROVIDER": "llama"},
		"vertex needs project": {"LLM_PROVIDER": "vertex"},
		"s3 needs bucket":      {"STORAGE_DRIVER": "s3"},
		"unknown auth":         {"AUTH_MODE": "jwt"},
		"strictness range":     {"DEFAULT_STRICTNESS": "150"},
		"bad timeout":          {"LLM_TIMEOUT": "soon"},
		"bad flow":             {"SCAN_FLOW": "batch"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ConfigFromEnv(envOf(env))
			assert.Error(t, err)
		})
	}
}
