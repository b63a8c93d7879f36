package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns an error when the prompt has neither a file nor a default.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// PromptAnalysisSystem is the system prompt for LLM-backed analysis. It
// describes the JSON answer format and has no format placeholders.
//
// Per-plugin instruction overrides are loaded under the plugin's identity,
// e.g. "fact-check"; without an override the plugin's built-in instruction
// is used.
const PromptAnalysisSystem = "analysis_system"
