package cli

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/services"
)

func setupSettings(t *testing.T) *services.SettingsService {
	t.Helper()
	prevSettings, prevEnv := settingsService, envFile
	svc := services.NewSettingsService(memory.NewConfigStore())
	settingsService = svc
	envFile = filepath.Join(t.TempDir(), ".env")
	t.Cleanup(func() {
		settingsService, envFile = prevSettings, prevEnv
		rootCmd.SetIn(nil)
	})
	return svc
}

func TestSettingsShow(t *testing.T) {
	setupSettings(t)
	t.Setenv(APIKeyEnv, "")

	out, err := run(t, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "[Analysis]")
	assert.Contains(t, out, "Plugins: math, spelling, fact-check, forecast, link-analysis")
	assert.Contains(t, out, "Isolation: yes")
	assert.Contains(t, out, "Heuristic")
	assert.Contains(t, out, "Requests per second: 5")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShow_WarnsWithoutKey(t *testing.T) {
	svc := setupSettings(t)
	t.Setenv(APIKeyEnv, "")
	s := svc.Get()
	s.LLM.Provider = domain.ProviderOpenAI
	require.NoError(t, svc.Save(s))

	out, err := run(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "API Key: (not set)")
	assert.Contains(t, out, "Warning: OPENAI_API_KEY is not set")
}

func TestSettingsAnalysis(t *testing.T) {
	svc := setupSettings(t)

	out, err := run(t, "settings", "analysis", "--plugins", "math,links", "--timeout", "45s", "--attempts", "5", "--isolation=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Analysis settings saved.")

	got := svc.Get().Analysis
	assert.Equal(t, []domain.PluginID{domain.PluginMath, domain.PluginLinks}, got.Plugins)
	assert.Equal(t, 45*time.Second, got.PluginTimeout)
	assert.Equal(t, 5, got.MaxAttempts)
	assert.False(t, got.Isolation)
	assert.Equal(t, domain.DefaultChunkSize, got.ChunkSize)
}

func TestSettingsLLM_OpenAI(t *testing.T) {
	svc := setupSettings(t)
	rootCmd.SetIn(strings.NewReader("2\ngpt-4o\nhttp://localhost:8080/v1\nsk-test-1234567890\n"))

	out, err := run(t, "settings", "llm")
	require.NoError(t, err)
	assert.Contains(t, out, "API key stored in")

	got := svc.Get().LLM
	assert.Equal(t, domain.ProviderOpenAI, got.Provider)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, "http://localhost:8080/v1", got.BaseURL)

	env, err := godotenv.Read(envFile)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-1234567890", env[APIKeyEnv])
}

func TestSettingsLLM_DefaultsToHeuristic(t *testing.T) {
	svc := setupSettings(t)
	rootCmd.SetIn(strings.NewReader("\n"))

	_, err := run(t, "settings", "llm")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderHeuristic, svc.Get().LLM.Provider)
}

func TestSaveAPIKey_KeepsOtherEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, godotenv.Write(map[string]string{"OTHER": "1"}, path))

	require.NoError(t, saveAPIKey(path, "sk-abc"))

	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "1", env["OTHER"])
	assert.Equal(t, "sk-abc", env[APIKeyEnv])
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Short key", input: "abc123", expected: "****"},
		{name: "Exactly 8 chars", input: "12345678", expected: "****"},
		{name: "Long key", input: "sk-1234567890abcdef", expected: "sk-1...cdef"},
		{name: "Empty key", input: "", expected: "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{name: "Empty uses default", input: "", maxVal: 3, defaultVal: 1, expected: 1},
		{name: "Valid choice", input: "2", maxVal: 3, defaultVal: 1, expected: 2},
		{name: "Out of range", input: "9", maxVal: 3, defaultVal: 1, expected: 1},
		{name: "Not a number", input: "abc", maxVal: 3, defaultVal: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseChoice(tt.input, tt.maxVal, tt.defaultVal))
		})
	}
}
