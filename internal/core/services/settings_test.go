package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func TestSettingsService_Defaults(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())

	assert.Equal(t, domain.DefaultSettings(), svc.Get())
}

func TestSettingsService_ReadsConfiguredValues(t *testing.T) {
	store := memory.NewConfigStoreFrom(map[string]any{
		"analysis.timeout_ms":          int64(30000),
		"analysis.max_attempts":        5,
		"analysis.isolation":           false,
		"analysis.plugins":             []any{"facts", "math", "bogus"},
		"chunker.chunk_size":           800,
		"llm.provider":                 "openai",
		"llm.model":                    "gpt-4.1",
		"links.requests_per_second":    2.5,
		"locate.min_partial_length":    float64(40),
		"analysis.retry_base_delay_ms": 250,
	})
	got := NewSettingsService(store).Get()

	assert.Equal(t, 30*time.Second, got.Analysis.PluginTimeout)
	assert.Equal(t, 5, got.Analysis.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, got.Analysis.RetryBaseDelay)
	assert.False(t, got.Analysis.Isolation)
	assert.Equal(t, []domain.PluginID{domain.PluginFactCheck, domain.PluginMath}, got.Analysis.Plugins)
	assert.Equal(t, 800, got.Analysis.ChunkSize)
	assert.Equal(t, 40, got.Analysis.MinPartialLength)
	assert.Equal(t, domain.ProviderOpenAI, got.LLM.Provider)
	assert.Equal(t, "gpt-4.1", got.LLM.Model)
	assert.InDelta(t, 2.5, got.Links.RequestsPerSecond, 1e-9)
}

func TestSettingsService_InvalidValuesFallBack(t *testing.T) {
	store := memory.NewConfigStoreFrom(map[string]any{
		"analysis.max_attempts": -1,
		"analysis.plugins":      []string{"nope"},
		"llm.provider":          "mystery",
	})
	got := NewSettingsService(store).Get()
	d := domain.DefaultSettings()

	assert.Equal(t, d.Analysis.MaxAttempts, got.Analysis.MaxAttempts)
	assert.Equal(t, d.Analysis.Plugins, got.Analysis.Plugins)
	assert.Equal(t, d.LLM.Provider, got.LLM.Provider)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store)

	want := domain.DefaultSettings()
	want.Analysis.PluginTimeout = 45 * time.Second
	want.Analysis.Plugins = []domain.PluginID{domain.PluginSpelling}
	want.Analysis.Isolation = false
	want.LLM.Provider = domain.ProviderOpenAI
	want.LLM.BaseURL = "http://localhost:8080/v1"
	want.Links.RequestsPerSecond = 1.5

	require.NoError(t, svc.Save(want))
	assert.Equal(t, want, svc.Get())
}
