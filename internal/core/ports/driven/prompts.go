package driven

// PromptStore provides access to generation prompt templates.
// Implementations may load prompts from files or embed defaults in the
// binary, letting operators tune wording without recompiling.
type PromptStore interface {
	// Load returns the template stored under name. Unknown names fall
	// back to the compiled-in default when one exists, otherwise an
	// error is returned.
	Load(name string) (string, error)

	// Reload drops any cached prompts so the next Load sees edits made
	// on disk.
	Reload()
}

// Prompt names the composer loads. Every store must resolve each of
// these, from its backing file or from its defaults.
const (
	// PromptAnswer produces the two-section grounded answer (summary,
	// how to apply). Expects %s placeholders for the grounding context
	// and the question, in that order. The template instructs the model
	// to produce no links or sources section: sources are appended
	// programmatically from retrieved metadata.
	PromptAnswer = "answer"

	// PromptRephrase proposes alternative phrasings of a question as a
	// numbered list. Expects %d (how many) and %s (question).
	PromptRephrase = "rephrase"

	// PromptRefusal is the polite redirection shown when a question
	// falls outside the corpus's domain. No format placeholders.
	PromptRefusal = "refusal"
)
