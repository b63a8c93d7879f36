// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The analysis pipeline is:
//
//	Chunker → Router → Supervisor (one per plugin, concurrent) → merge
//
// Router assigns chunks to plugins, Supervisor runs a single plugin with
// timeout, retry and error classification, and Orchestrator fans out and
// aggregates. A failing plugin never fails the analysis; only malformed
// input does.
package services
