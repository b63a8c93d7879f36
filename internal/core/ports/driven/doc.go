// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Plugin: One analysis plugin (math, spelling, fact-check, forecast, links)
//   - PluginFactory: Produces plugin instances, optionally one per execution
//   - AnalysisService: Produces candidate findings for a chunk (LLM or heuristic)
//   - Chunker: Splits a document into offset-tagged chunks
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RelevanceDecider: Without it every plugin receives every chunk.
//   - ResultStore: Without it analyses are not persisted and history is empty.
//   - LinkProber: Without it the link plugin fails with a recovery hint.
//   - PromptStore: Without it the OpenAI service uses built-in prompts.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or plugin package
package driven
