// Package mcp provides an MCP (Model Context Protocol) server adapter for Marginalia.
// It lets AI assistants analyse documents and resolve quotes to exact text ranges.
package mcp

import "errors"

// ErrMissingAnalyzer is returned when the analyzer service is not provided.
var ErrMissingAnalyzer = errors.New("mcp: analyzer service is required")

// ErrMissingLocator is returned when the locator service is not provided.
var ErrMissingLocator = errors.New("mcp: locator service is required")
