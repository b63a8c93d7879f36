package domain

import "time"

// Default analysis settings.
const (
	DefaultPluginTimeout    = 300 * time.Second
	DefaultMaxAttempts      = 3
	DefaultRetryBaseDelay   = time.Second
	DefaultChunkSize        = 1500
	DefaultContextSize      = 200
	DefaultMinPartialLength = 50
	DefaultLinkRPS          = 5.0
	DefaultLinkTimeout      = 10 * time.Second
)

// LLMProvider selects the analysis service implementation.
type LLMProvider string

// Available providers.
const (
	ProviderHeuristic LLMProvider = "heuristic"
	ProviderOpenAI    LLMProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p LLMProvider) IsValid() bool {
	return p == ProviderHeuristic || p == ProviderOpenAI
}

// Description returns a human-readable description.
func (p LLMProvider) Description() string {
	switch p {
	case ProviderHeuristic:
		return "Heuristic (offline rules, no API key)"
	case ProviderOpenAI:
		return "OpenAI (or any OpenAI-compatible endpoint)"
	default:
		return string(p)
	}
}

// AllLLMProviders returns every provider in menu order.
func AllLLMProviders() []LLMProvider {
	return []LLMProvider{ProviderHeuristic, ProviderOpenAI}
}

// DefaultLLMModel is the model used when none is configured.
const DefaultLLMModel = "gpt-4o-mini"

// RequiresAPIKey returns true if the provider needs credentials.
func (p LLMProvider) RequiresAPIKey() bool {
	return p == ProviderOpenAI
}

// AnalysisSettings configures orchestration and location.
type AnalysisSettings struct {
	PluginTimeout    time.Duration
	MaxAttempts      int
	RetryBaseDelay   time.Duration
	Isolation        bool
	Plugins          []PluginID
	ChunkSize        int
	ContextSize      int
	MinPartialLength int
}

// DefaultAnalysisSettings returns the default settings with every plugin selected.
func DefaultAnalysisSettings() AnalysisSettings {
	return AnalysisSettings{
		PluginTimeout:    DefaultPluginTimeout,
		MaxAttempts:      DefaultMaxAttempts,
		RetryBaseDelay:   DefaultRetryBaseDelay,
		Isolation:        true,
		Plugins:          AllPluginIDs(),
		ChunkSize:        DefaultChunkSize,
		ContextSize:      DefaultContextSize,
		MinPartialLength: DefaultMinPartialLength,
	}
}

// LLMSettings configures the analysis provider.
type LLMSettings struct {
	Provider LLMProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// LinkSettings configures the link prober.
type LinkSettings struct {
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Settings is the complete application configuration.
type Settings struct {
	Analysis AnalysisSettings
	LLM      LLMSettings
	Links    LinkSettings
}

// DefaultSettings returns the application defaults.
func DefaultSettings() Settings {
	return Settings{
		Analysis: DefaultAnalysisSettings(),
		LLM:      LLMSettings{Provider: ProviderHeuristic, Model: DefaultLLMModel},
		Links:    LinkSettings{RequestsPerSecond: DefaultLinkRPS, Timeout: DefaultLinkTimeout},
	}
}
