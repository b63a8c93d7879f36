package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDocument indicates the document has no analysable text.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrNoPlugins indicates an analysis was requested with no plugins selected.
	ErrNoPlugins = errors.New("no plugins selected")

	// ErrUnknownPlugin indicates a plugin identity outside the registered catalogue.
	ErrUnknownPlugin = errors.New("unknown plugin")

	// ErrRegistrySealed indicates registration was attempted after analysis started.
	ErrRegistrySealed = errors.New("plugin registry sealed")

	// Execution Errors.

	// ErrPluginTimeout indicates a plugin attempt exceeded its wall-clock budget.
	ErrPluginTimeout = errors.New("plugin timed out")

	// ErrRateLimited indicates the analysis provider rejected the call for rate reasons.
	ErrRateLimited = errors.New("rate limited")

	// ErrValidation indicates the request was rejected as malformed or unauthorised.
	// Validation failures are never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNetwork indicates the analysis provider could not be reached.
	ErrNetwork = errors.New("network error")

	// ErrAnalysisUnavailable indicates no analysis service is configured.
	ErrAnalysisUnavailable = errors.New("analysis service unavailable")
)

// ClassifiedError carries an explicit ErrorClass chosen by the component that
// produced it. Classification honours it before any pattern matching.
type ClassifiedError struct {
	Class ErrorClass
	Err   error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.Err == nil {
		return string(e.Class)
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Classify wraps err with an explicit class. A nil err stays nil.
func Classify(class ErrorClass, err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Class: class, Err: err}
}
