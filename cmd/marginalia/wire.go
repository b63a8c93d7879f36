package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/analysis/heuristic"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/analysis/openai"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/config/file"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/linkcheck"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/relevance"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/cli"
	"github.com/custodia-labs/marginalia/internal/chunker"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/services"
	"github.com/custodia-labs/marginalia/internal/loader"
	"github.com/custodia-labs/marginalia/internal/logger"
	"github.com/custodia-labs/marginalia/internal/plugins"
)

// HomeEnv overrides the ~/.marginalia directory.
const HomeEnv = "MARGINALIA_HOME"

// App is the wired application.
type App struct {
	Services cli.Services
	store    *sqlite.Store
}

// Close releases the database.
func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warn("closing store: %v", err)
		}
	}
}

// wire builds every adapter and service rooted at home.
func wire(home string) (*App, error) {
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		home = filepath.Join(userHome, ".marginalia")
	}
	envFile := filepath.Join(home, ".env")
	loadEnv(".env", envFile)

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings := settingsService.Get()

	store, err := sqlite.NewStore(filepath.Join(home, "data"))
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	analysis, err := newAnalysisService(settings.LLM, filepath.Join(home, "prompts"))
	if err != nil {
		store.Close()
		return nil, err
	}

	decider, err := relevance.New(relevance.DefaultCacheSize)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating relevance decider: %w", err)
	}

	deps := driven.PluginDeps{
		Analysis:         analysis,
		Links:            linkcheck.New(settings.Links.RequestsPerSecond, settings.Links.Timeout),
		MinPartialLength: settings.Analysis.MinPartialLength,
	}
	registry := plugins.NewDefaultRegistry()
	factories := services.Factories{
		Isolated: plugins.NewIsolatedFactory(registry, deps),
		Shared:   plugins.NewSharedFactory(registry, deps),
	}

	chunks := chunker.New(
		chunker.WithChunkSize(settings.Analysis.ChunkSize),
		chunker.WithContextSize(settings.Analysis.ContextSize),
	)

	return &App{
		Services: cli.Services{
			Analyzer: services.NewAnalyzerService(chunks, factories, decider, store.ResultStore(), settings.Analysis),
			Locator:  services.NewLocatorService(settings.Analysis.MinPartialLength),
			Settings: settingsService,
			Loader:   loader.New(),
			EnvFile:  envFile,
		},
		store: store,
	}, nil
}

// newAnalysisService picks the configured provider. A missing OpenAI key is
// not fatal here: analysis plugins then fail with a recovery hint while the
// link checker and every other command keep working.
func newAnalysisService(llm domain.LLMSettings, promptDir string) (driven.AnalysisService, error) {
	if llm.Provider != domain.ProviderOpenAI {
		return heuristic.New(), nil
	}

	apiKey := os.Getenv(cli.APIKeyEnv)
	if apiKey == "" {
		logger.Warn("%s is not set; analysis plugins will be unavailable", cli.APIKeyEnv)
		return nil, nil
	}

	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}
	svc, err := openai.New(openai.Config{
		APIKey:  apiKey,
		BaseURL: llm.BaseURL,
		Model:   llm.Model,
		Prompts: prompts,
	})
	if err != nil {
		return nil, err
	}
	logger.L().Debug("using openai analysis", zap.String("model", llm.Model))
	return svc, nil
}

// loadEnv loads dotenv files that exist. Variables already set win.
func loadEnv(paths ...string) {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("reading %s: %v", path, err)
		}
	}
}
