package research

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/hackscout/hackscout/internal/llm"
	"github.com/hackscout/hackscout/internal/search"
)

// fakeSearch returns canned results per query and counts calls.
type fakeSearch struct {
	mu      sync.Mutex
	results func(query string) ([]search.Result, error)
	calls   int
	queries []string
}

func (f *fakeSearch) Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	f.mu.Lock()
	f.calls++
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.results == nil {
		return nil, nil
	}
	return f.results(query)
}

func (f *fakeSearch) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeLLM routes each completion by its system prompt and fills Out from
// canned JSON. Roles without a response fall through to respond, or fail
// with a SchemaError when none is set.
type fakeLLM struct {
	respond func(req llm.Request) (string, error)
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) error {
	if f.respond == nil {
		return &llm.SchemaError{Provider: "fake", Err: context.Canceled}
	}
	raw, err := f.respond(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), req.Out); err != nil {
		return &llm.SchemaError{Provider: "fake", Raw: raw, Err: err}
	}
	return nil
}

func schemaFailure() error {
	return &llm.SchemaError{Provider: "fake", Raw: "not json"}
}

// roleOf distinguishes the pipeline's completion call sites by their
// system prompts.
func roleOf(req llm.Request) string {
	sys := req.System
	switch {
	case strings.Contains(sys, "research planner"):
		return "plan"
	case strings.Contains(sys, "quality evaluator"):
		return "evaluate"
	case strings.Contains(sys, "query optimizer"):
		return "refine"
	case strings.Contains(sys, "research coordinator"):
		return "decide"
	case strings.Contains(sys, "validator"):
		return "validate"
	case strings.Contains(sys, "detailed research on successful startups"):
		return "success-analyze"
	case strings.Contains(sys, "VC analyst researching hackathon projects"):
		return "analyze"
	case strings.Contains(sys, "research agent"):
		return "queries"
	default:
		return "match"
	}
}

func noSleep(time.Duration) {}

const goodEvaluation = `{"quality": 85, "feedback": "highly relevant", "shouldRefine": false}`
const poorEvaluation = `{"quality": 0, "feedback": "irrelevant", "shouldRefine": true}`
