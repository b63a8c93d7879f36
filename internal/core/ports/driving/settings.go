package driving

import "github.com/custodia-labs/marginalia/internal/core/domain"

// SettingsManager reads and writes application settings.
type SettingsManager interface {
	// Get returns the current settings with defaults applied.
	Get() domain.Settings

	// Save persists settings.
	Save(settings domain.Settings) error
}
