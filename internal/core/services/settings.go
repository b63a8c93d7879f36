package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsManager = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyTimeoutMS        = "analysis.timeout_ms"
	keyMaxAttempts      = "analysis.max_attempts"
	keyRetryBaseDelayMS = "analysis.retry_base_delay_ms"
	keyIsolation        = "analysis.isolation"
	keyPlugins          = "analysis.plugins"
	keyChunkSize        = "chunker.chunk_size"
	keyContextSize      = "chunker.context_size"
	keyMinPartialLength = "locate.min_partial_length"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLinksRPS         = "links.requests_per_second"
	keyLinksTimeoutMS   = "links.timeout_ms"
)

// SettingsService reads and writes application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns the current settings, with defaults for missing or invalid values.
// The API key is never read from the config file; callers supply it from the environment.
func (s *SettingsService) Get() domain.Settings {
	d := domain.DefaultSettings()
	return domain.Settings{
		Analysis: domain.AnalysisSettings{
			PluginTimeout:    s.getDuration(keyTimeoutMS, d.Analysis.PluginTimeout),
			MaxAttempts:      s.getInt(keyMaxAttempts, d.Analysis.MaxAttempts),
			RetryBaseDelay:   s.getDuration(keyRetryBaseDelayMS, d.Analysis.RetryBaseDelay),
			Isolation:        s.getBool(keyIsolation, d.Analysis.Isolation),
			Plugins:          s.getPlugins(d.Analysis.Plugins),
			ChunkSize:        s.getInt(keyChunkSize, d.Analysis.ChunkSize),
			ContextSize:      s.getInt(keyContextSize, d.Analysis.ContextSize),
			MinPartialLength: s.getInt(keyMinPartialLength, d.Analysis.MinPartialLength),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
		},
		Links: domain.LinkSettings{
			RequestsPerSecond: s.getFloat(keyLinksRPS, d.Links.RequestsPerSecond),
			Timeout:           s.getDuration(keyLinksTimeoutMS, d.Links.Timeout),
		},
	}
}

// Save persists settings.
func (s *SettingsService) Save(settings domain.Settings) error {
	plugins := make([]string, len(settings.Analysis.Plugins))
	for i, id := range settings.Analysis.Plugins {
		plugins[i] = id.String()
	}
	values := []struct {
		key   string
		value any
	}{
		{keyTimeoutMS, settings.Analysis.PluginTimeout.Milliseconds()},
		{keyMaxAttempts, settings.Analysis.MaxAttempts},
		{keyRetryBaseDelayMS, settings.Analysis.RetryBaseDelay.Milliseconds()},
		{keyIsolation, settings.Analysis.Isolation},
		{keyPlugins, plugins},
		{keyChunkSize, settings.Analysis.ChunkSize},
		{keyContextSize, settings.Analysis.ContextSize},
		{keyMinPartialLength, settings.Analysis.MinPartialLength},
		{keyLLMProvider, string(settings.LLM.Provider)},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLinksRPS, settings.Links.RequestsPerSecond},
		{keyLinksTimeoutMS, settings.Links.Timeout.Milliseconds()},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return s.configStore.Save()
}

func (s *SettingsService) getString(key, def string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}

func (s *SettingsService) getInt(key string, def int) int {
	if v := s.configStore.GetInt(key); v > 0 {
		return v
	}
	return def
}

func (s *SettingsService) getFloat(key string, def float64) float64 {
	if v := s.configStore.GetFloat(key); v > 0 {
		return v
	}
	return def
}

func (s *SettingsService) getBool(key string, def bool) bool {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, def time.Duration) time.Duration {
	if ms := s.configStore.GetInt(key); ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

func (s *SettingsService) getProvider(def domain.LLMProvider) domain.LLMProvider {
	p := domain.LLMProvider(s.configStore.GetString(keyLLMProvider))
	if p.IsValid() {
		return p
	}
	return def
}

func (s *SettingsService) getPlugins(def []domain.PluginID) []domain.PluginID {
	names := s.configStore.GetStringSlice(keyPlugins)
	if len(names) == 0 {
		return def
	}
	ids := make([]domain.PluginID, 0, len(names))
	for _, name := range names {
		id, err := domain.ParsePluginID(name)
		if err != nil {
			logger.Warn("ignoring configured plugin: %v", err)
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return def
	}
	return ids
}
