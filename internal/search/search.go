// Package search provides the web search capability used by the research
// pipeline. The gateway is a thin wrapper over a search provider: it never
// retries, and an empty result list is a valid outcome distinct from a
// provider failure.
package search

import (
	"context"
	"fmt"
)

// Mode selects the provider-side search strategy.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeNeural  Mode = "neural"
	ModeKeyword Mode = "keyword"
)

// Options controls a single search call.
type Options struct {
	NumResults int
	Mode       Mode
}

// Result is one ranked document returned by the provider. Results are
// ephemeral: only their URLs ever reach the project store.
type Result struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Gateway is the search capability consumed by the pipeline.
type Gateway interface {
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}

// ProviderError reports a search backend failure (network, auth, rate
// limit). Callers treat it as "this query produced nothing" and move on;
// retry policy lives in the evaluation loop, not here.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s search failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s search failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
