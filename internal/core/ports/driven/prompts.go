package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return a built-in default
	// or an error when none exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer asks the model to answer from retrieved context.
	// The template expects two %s placeholders: context, then question.
	PromptAnswer = "answer"
)

// Markers in the default answer prompt. In-process generators use them to
// find the context and the question in a rendered prompt.
const (
	PromptContextFence = "---------------------"
	PromptQueryPrefix  = "Query:"
)
