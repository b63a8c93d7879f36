package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/loader"
)

func TestWire_EndToEnd(t *testing.T) {
	home := t.TempDir()
	t.Setenv("OPENAI_API_KEY", "")

	app, err := wire(home)
	require.NoError(t, err)
	defer app.Close()

	assert.FileExists(t, filepath.Join(home, "data", "analyses.db"))

	text := "Quarterly notes.\n\nWe sold 2 + 2 = 5 units. I beleive this is fine.\n"
	doc := loader.FromText(text, "notes.md")

	ctx := context.Background()
	record, err := app.Services.Analyzer.Analyze(ctx, doc, driving.AnalyzeOptions{
		Plugins: []domain.PluginID{domain.PluginMath, domain.PluginSpelling},
	})
	require.NoError(t, err)
	require.NotNil(t, record.Result)

	result := record.Result
	assert.Empty(t, result.Errors)
	require.NotEmpty(t, result.Comments)
	for _, c := range result.Comments {
		assert.True(t, c.Location.Valid(text), "comment %q must index the document", c.Location.MatchedText)
	}

	math := result.Section(domain.PluginMath)
	require.NotNil(t, math)
	require.Len(t, math.Comments, 1)
	assert.Equal(t, domain.SeverityError, math.Comments[0].Severity)
	assert.Equal(t, 3, math.Comments[0].Location.LineNumber)

	spelling := result.Section(domain.PluginSpelling)
	require.NotNil(t, spelling)
	require.NotEmpty(t, spelling.Comments)
	assert.Equal(t, "beleive", spelling.Comments[0].Location.MatchedText)

	stored, err := app.Services.Analyzer.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, len(result.Comments), len(stored.Result.Comments))
}

func TestWire_OpenAIWithoutKey(t *testing.T) {
	home := t.TempDir()
	t.Setenv("OPENAI_API_KEY", "")
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte("[llm]\nprovider = \"openai\"\n"), 0o600))

	app, err := wire(home)
	require.NoError(t, err)
	defer app.Close()

	doc := loader.FromText("It adds up: 1 + 1 = 3.", "x.txt")
	record, err := app.Services.Analyzer.Analyze(context.Background(), doc, driving.AnalyzeOptions{
		Plugins:     []domain.PluginID{domain.PluginMath},
		SkipPersist: true,
	})
	require.NoError(t, err)

	sec := record.Result.Section(domain.PluginMath)
	require.NotNil(t, sec)
	assert.Equal(t, domain.SectionFailed, sec.Status)
	require.Len(t, record.Result.Errors, 1)
	assert.NotEmpty(t, record.Result.Errors[0].RecoveryHint)
}

func TestLoadEnv_IgnoresMissingFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MARGINALIA_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("MARGINALIA_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("MARGINALIA_TEST_VALUE"))

	loadEnv(filepath.Join(t.TempDir(), "missing.env"), path)
	assert.Equal(t, "from-file", os.Getenv("MARGINALIA_TEST_VALUE"))
}
