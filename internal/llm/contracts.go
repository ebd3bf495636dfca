package llm

import "context"

// CompletionRequest is one structured-extraction call: a system prompt and a
// user payload (the JSON pages document).
type CompletionRequest struct {
	System string
	User   string
	// Label identifies the call in logs, e.g. "list" or a project title.
	Label string
}

// JSONCompleter is the structured-extraction capability the pipeline depends on.
// Implementations constrain the model to a single JSON object and return its raw text.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, req CompletionRequest) (string, error)
}

// CompleterFunc adapts a function to JSONCompleter.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

func (f CompleterFunc) CompleteJSON(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}
