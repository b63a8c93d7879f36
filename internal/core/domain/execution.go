package domain

import "time"

// ErrorClass categorises a plugin execution failure.
type ErrorClass string

// Error classes.
const (
	ErrorClassNone       ErrorClass = ""
	ErrorClassTimeout    ErrorClass = "timeout"
	ErrorClassRateLimit  ErrorClass = "rate_limit"
	ErrorClassNetwork    ErrorClass = "network"
	ErrorClassValidation ErrorClass = "validation"
	ErrorClassUnknown    ErrorClass = "unknown"
)

// Outcome is the result of a single attempt or a whole plugin run.
type Outcome string

// Outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ExecutionRecord describes one attempt of one plugin execution.
// A record is created per attempt and not modified once the attempt completes.
type ExecutionRecord struct {
	PluginID    PluginID      `json:"plugin_id"`
	ExecutionID string        `json:"execution_id"`
	Attempt     int           `json:"attempt"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Outcome     Outcome       `json:"outcome"`
	ErrorClass  ErrorClass    `json:"error_class,omitempty"`
}

// PluginResult is what a plugin returns from one successful analysis.
type PluginResult struct {
	// Comments are the located findings.
	Comments []Comment

	// Summary is the narrative summary, if any.
	Summary string

	// Cost is the cost of this analysis.
	Cost float64

	// Dropped counts findings whose quote could not be located.
	Dropped int
}

// SectionStatus is the state of a plugin's section in the aggregate.
type SectionStatus string

// Section statuses.
const (
	SectionSucceeded SectionStatus = "succeeded"
	SectionFailed    SectionStatus = "failed"
	SectionSkipped   SectionStatus = "skipped"
)

// PluginOutcome is the supervisor's result for one plugin.
type PluginOutcome struct {
	PluginID     PluginID          `json:"plugin_id"`
	ExecutionID  string            `json:"execution_id"`
	Status       SectionStatus     `json:"status"`
	Result       *PluginResult     `json:"-"`
	Err          error             `json:"-"`
	ErrorClass   ErrorClass        `json:"error_class,omitempty"`
	RecoveryHint string            `json:"recovery_hint,omitempty"`
	Attempts     []ExecutionRecord `json:"attempts,omitempty"`
	Duration     time.Duration     `json:"duration"`
}

// Succeeded returns true unless the plugin failed.
func (o PluginOutcome) Succeeded() bool {
	return o.Status != SectionFailed
}
