// Package llm provides the completion capability used by the research
// pipeline: given a prompt and a required output shape, return a parsed
// structured object or fail with a SchemaError. Two interchangeable
// providers are supported; callers see no behavioral difference.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Request describes a single JSON-constrained completion. Out must be a
// pointer; the decoded response is written into it.
type Request struct {
	// System is the system instruction, e.g. the evaluator or planner role.
	System string
	// Prompt is the user prompt.
	Prompt string
	// Schema constrains the response shape on providers that support
	// schema-constrained decoding. Providers without schema support still
	// emit JSON and rely on unmarshalling into Out for validation.
	Schema *genai.Schema
	// Out receives the parsed response.
	Out any
	// Temperature in [0, 2]. Zero means provider default.
	Temperature float32
}

// Gateway is the completion capability. Implementations must either fill
// req.Out completely or return an error; there is no partial success.
type Gateway interface {
	Complete(ctx context.Context, req Request) error
}

// SchemaError reports a model response that could not be parsed against
// the requested shape. Callers treat it like a provider failure and take
// their deterministic fallback path.
type SchemaError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s returned output that does not match the requested schema: %v", e.Provider, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Embedder generates an embedding vector for a text. The memory layer uses
// it to index learned query patterns; it is optional everywhere.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Truncate limits text to maxLen runes for prompt building, appending an
// ellipsis when cut. Empty input renders as "N/A" so prompts stay readable.
func Truncate(text string, maxLen int) string {
	if text == "" {
		return "N/A"
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
