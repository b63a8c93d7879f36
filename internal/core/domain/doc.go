// Package domain defines the core entities for Marginalia.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: The text under analysis
//   - Chunk: An offset-tagged slice of a document handed to plugins
//   - PluginDescriptor: Static catalogue entry for an analysis plugin
//   - RoutingDecision: Which chunks a plugin receives and why
//   - Candidate, Finding, Comment: The three stages of plugin output
//   - LocationMatch: An exact byte range resolved for a quote
//   - ExecutionRecord, PluginSection, AggregatedResult: Execution bookkeeping
//
// # Offsets
//
// All offsets are byte offsets into the UTF-8 document text and always fall
// on rune boundaries, so text[start:end] is valid UTF-8.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
