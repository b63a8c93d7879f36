package domain

import "time"

// PluginSection is one plugin's contribution to an aggregated result.
// Every requested plugin has exactly one section.
type PluginSection struct {
	PluginID     PluginID      `json:"plugin_id"`
	DisplayName  string        `json:"display_name"`
	Status       SectionStatus `json:"status"`
	Reason       string        `json:"reason,omitempty"`
	ChunkCount   int           `json:"chunk_count"`
	Comments     []Comment     `json:"comments"`
	Summary      string        `json:"summary,omitempty"`
	Cost         float64       `json:"cost"`
	Dropped      int           `json:"dropped"`
	Attempts     int           `json:"attempts"`
	ErrorClass   ErrorClass    `json:"error_class,omitempty"`
	Error        string        `json:"error,omitempty"`
	RecoveryHint string        `json:"recovery_hint,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// PluginError is the structured error entry for a failed plugin.
type PluginError struct {
	PluginID     PluginID   `json:"plugin_id"`
	DisplayName  string     `json:"display_name"`
	ErrorClass   ErrorClass `json:"error_class"`
	Message      string     `json:"message"`
	RecoveryHint string     `json:"recovery_hint"`
}

// Summary holds aggregate statistics for one analysis.
type Summary struct {
	TotalChunks       int              `json:"total_chunks"`
	TotalFindings     int              `json:"total_findings"`
	FindingsPerPlugin map[PluginID]int `json:"findings_per_plugin"`
	TotalCost         float64          `json:"total_cost"`
	Duration          time.Duration    `json:"duration"`
	Dropped           int              `json:"dropped"`
	Succeeded         int              `json:"succeeded"`
	Failed            int              `json:"failed"`
	Skipped           int              `json:"skipped"`
}

// AggregatedResult is the merged output of all plugins for one document.
type AggregatedResult struct {
	Sections map[PluginID]*PluginSection `json:"sections"`

	// Comments is every located comment ordered by start offset.
	Comments []Comment `json:"comments"`

	// Errors has one entry per failed plugin, ordered by plugin identity.
	Errors []PluginError `json:"errors"`

	Summary Summary `json:"summary"`
}

// Section returns the section for a plugin, or nil.
func (r *AggregatedResult) Section(id PluginID) *PluginSection {
	if r == nil || r.Sections == nil {
		return nil
	}
	return r.Sections[id]
}

// AnalysisRecord is a persisted analysis.
type AnalysisRecord struct {
	ID           string            `json:"id"`
	DocumentURI  string            `json:"document_uri"`
	Title        string            `json:"title"`
	DocumentHash string            `json:"document_hash"`
	Plugins      []PluginID        `json:"plugins"`
	Result       *AggregatedResult `json:"result"`
	CreatedAt    time.Time         `json:"created_at"`
}
