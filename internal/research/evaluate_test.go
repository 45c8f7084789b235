package research

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackscout/hackscout/internal/llm"
	"github.com/hackscout/hackscout/internal/search"
	"github.com/hackscout/hackscout/internal/types"
)

func testProject() *types.Project {
	return &types.Project{ID: "p1", Name: "Carrot", HackathonName: "HackMIT 2016"}
}

func newTestLoop(s search.Gateway, l llm.Gateway) *EvaluationLoop {
	loop := NewEvaluationLoop(s, l, nil)
	loop.sleep = noSleep
	return loop
}

func TestRefinementBudget(t *testing.T) {
	searcher := &fakeSearch{results: func(string) ([]search.Result, error) {
		return []search.Result{{URL: "https://example.com", Text: "irrelevant"}}, nil
	}}
	gateway := &fakeLLM{respond: func(req llm.Request) (string, error) {
		switch roleOf(req) {
		case "evaluate":
			return poorEvaluation, nil
		case "refine":
			return `{"refined_query": "Carrot refined"}`, nil
		}
		return "", schemaFailure()
	}}

	loop := newTestLoop(searcher, gateway)
	outcome := loop.Run(context.Background(), testProject(), "Carrot funding")

	// Original attempt plus exactly two refinements, then the budget is
	// spent and the final results are kept.
	assert.Equal(t, 3, searcher.callCount())
	assert.True(t, outcome.Accepted)
	assert.Equal(t, "Carrot refined", outcome.Query)
}

func TestLoopAcceptsGoodResults(t *testing.T) {
	searcher := &fakeSearch{results: func(string) ([]search.Result, error) {
		return []search.Result{{URL: "https://example.com", Text: "Carrot raised $2M"}}, nil
	}}
	gateway := &fakeLLM{respond: func(req llm.Request) (string, error) {
		if roleOf(req) == "evaluate" {
			return goodEvaluation, nil
		}
		return "", schemaFailure()
	}}

	loop := newTestLoop(searcher, gateway)
	outcome := loop.Run(context.Background(), testProject(), "Carrot funding")

	require.True(t, outcome.Accepted)
	assert.Equal(t, 1, searcher.callCount())
	assert.Equal(t, "Carrot funding", outcome.Query)
	assert.Len(t, outcome.Results, 1)
}

func TestLoopExhaustsOnEmptyResults(t *testing.T) {
	searcher := &fakeSearch{results: func(string) ([]search.Result, error) {
		return nil, nil
	}}
	gateway := &fakeLLM{} // every completion fails, fallback refinement kicks in

	loop := newTestLoop(searcher, gateway)
	outcome := loop.Run(context.Background(), testProject(), "Carrot funding")

	assert.False(t, outcome.Accepted)
	assert.Equal(t, 3, searcher.callCount())
	// Fallback refinement prepends the project name.
	assert.Equal(t, "Carrot Carrot Carrot funding", outcome.Query)
}

func TestLoopProviderErrorConsumesRefinement(t *testing.T) {
	calls := 0
	searcher := &fakeSearch{results: func(string) ([]search.Result, error) {
		calls++
		if calls == 1 {
			return nil, &search.ProviderError{Provider: "exa", StatusCode: 429}
		}
		return []search.Result{{URL: "https://example.com", Text: "Carrot raised $2M seed"}}, nil
	}}
	gateway := &fakeLLM{respond: func(req llm.Request) (string, error) {
		switch roleOf(req) {
		case "evaluate":
			return goodEvaluation, nil
		case "refine":
			return `{"refined_query": "Carrot HackMIT funding"}`, nil
		}
		return "", schemaFailure()
	}}

	loop := newTestLoop(searcher, gateway)
	outcome := loop.Run(context.Background(), testProject(), "Carrot funding")

	require.True(t, outcome.Accepted)
	assert.Equal(t, 2, searcher.callCount())
	assert.Equal(t, "Carrot HackMIT funding", outcome.Query)
}

func TestHeuristicFallbackAcceptsNameMatch(t *testing.T) {
	searcher := &fakeSearch{results: func(string) ([]search.Result, error) {
		return []search.Result{{URL: "https://example.com", Text: "Carrot is now a startup"}}, nil
	}}
	// Evaluator always fails; the substring heuristic should accept.
	gateway := &fakeLLM{}

	loop := newTestLoop(searcher, gateway)
	outcome := loop.Run(context.Background(), testProject(), "Carrot funding")

	assert.True(t, outcome.Accepted)
	assert.Equal(t, 1, searcher.callCount())
}
