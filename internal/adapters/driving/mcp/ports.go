package mcp

import (
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Analyzer runs document analyses and serves history.
	Analyzer driving.DocumentAnalyzer

	// Locator resolves quotes against text.
	Locator driving.LocationResolver
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Analyzer == nil {
		return ErrMissingAnalyzer
	}
	if p.Locator == nil {
		return ErrMissingLocator
	}
	return nil
}
