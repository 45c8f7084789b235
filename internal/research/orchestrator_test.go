package research

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackscout/hackscout/internal/llm"
	"github.com/hackscout/hackscout/internal/memory"
	"github.com/hackscout/hackscout/internal/search"
	"github.com/hackscout/hackscout/internal/store"
	"github.com/hackscout/hackscout/internal/types"
)

const carrotAnalysis = `{
	"got_funding": true,
	"funding_amount": 2000000,
	"funding_source": "Y Combinator",
	"became_startup": true,
	"startup_name": "Carrot",
	"has_real_users": true,
	"is_still_active": true,
	"summary": "Carrot raised a $2M seed round and joined YC W17.",
	"achievements": "Accepted into YC W17, raised $2M seed.",
	"reasoning": "Strong traction shortly after the hackathon.",
	"scores": {"market": 80, "team": 70, "innovation": 75, "execution": 85, "overall": 0}
}`

func carrotResults(string) ([]search.Result, error) {
	return []search.Result{
		{URL: "https://techcrunch.com/carrot", Text: "Carrot announced a $2M seed round led by YC W17"},
		{URL: "https://example.com/carrot", Text: "Carrot, built at HackMIT 2016, became a startup"},
		{URL: "https://news.example.com/yc", Text: "Carrot joins Y Combinator winter 2017 batch"},
	}, nil
}

func carrotLLM() *fakeLLM {
	return &fakeLLM{respond: func(req llm.Request) (string, error) {
		switch roleOf(req) {
		case "plan":
			return `{"plan": ["Carrot funding raised", "Carrot startup company"]}`, nil
		case "evaluate":
			return goodEvaluation, nil
		case "decide":
			return `{"action": "continue", "reason": "more queries remain"}`, nil
		case "analyze":
			return carrotAnalysis, nil
		}
		return "", schemaFailure()
	}}
}

func newTestPipeline(searcher search.Gateway, gateway llm.Gateway, projects store.ProjectStore, mem *memory.QueryMemory) *Orchestrator {
	planner := NewPlanner(gateway, mem, nil)
	loop := NewEvaluationLoop(searcher, gateway, nil)
	loop.sleep = noSleep
	analyzer := NewAnalyzer(gateway, nil)
	o := NewOrchestrator(planner, loop, analyzer, projects, mem, gateway, nil)
	o.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	return o
}

func insertCarrot(t *testing.T, projects store.ProjectStore) *types.Project {
	t.Helper()
	p := &types.Project{Name: "Carrot", HackathonName: "HackMIT 2016"}
	require.NoError(t, projects.Insert(context.Background(), p))
	return p
}

func TestResearchProjectEndToEnd(t *testing.T) {
	ctx := context.Background()
	projects := store.NewMemoryStore()
	mem := memory.NewQueryMemory(nil, nil, nil)
	searcher := &fakeSearch{results: carrotResults}
	o := newTestPipeline(searcher, carrotLLM(), projects, mem)

	p := insertCarrot(t, projects)
	analysis, err := o.ResearchProject(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, analysis)

	assert.True(t, analysis.GotFunding)
	require.NotNil(t, analysis.FundingAmount)
	assert.Equal(t, 2000000.0, *analysis.FundingAmount)
	assert.True(t, analysis.BecameStartup)
	// No overall supplied by the model: rounded mean of the four sub-scores.
	assert.Equal(t, 78, analysis.Scores.Overall)

	saved, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, saved.GotFunding)
	assert.True(t, *saved.GotFunding)
	require.NotNil(t, saved.OverallScore)
	assert.Equal(t, 78, *saved.OverallScore)
	assert.True(t, saved.Researched())
	assert.NotEmpty(t, saved.ResearchSources)

	// Successful queries are learned for the project's category.
	assert.Equal(t, 1, mem.Len())
	learned := mem.LearnedQueries(ctx, Categorize(p), "", 10)
	assert.Contains(t, learned, "Carrot funding raised")
}

func TestZeroResultShortCircuit(t *testing.T) {
	ctx := context.Background()
	projects := store.NewMemoryStore()
	mem := memory.NewQueryMemory(nil, nil, nil)
	searcher := &fakeSearch{} // always zero results
	gateway := &fakeLLM{respond: func(req llm.Request) (string, error) {
		if roleOf(req) == "plan" {
			return `{"plan": ["Carrot funding raised"]}`, nil
		}
		return "", schemaFailure()
	}}
	o := newTestPipeline(searcher, gateway, projects, mem)

	p := insertCarrot(t, projects)
	analysis, err := o.ResearchProject(ctx, p)
	require.NoError(t, err)
	assert.Nil(t, analysis)

	saved, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, saved.Researched())
	assert.Nil(t, saved.GotFunding)
	assert.Equal(t, 0, mem.Len())
}

func TestResearchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	projects := store.NewMemoryStore()
	searcher := &fakeSearch{results: carrotResults}
	o := newTestPipeline(searcher, carrotLLM(), projects, memory.NewQueryMemory(nil, nil, nil))

	p := insertCarrot(t, projects)
	_, err := o.ResearchProject(ctx, p)
	require.NoError(t, err)
	first, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)

	_, err = o.ResearchProject(ctx, p)
	require.NoError(t, err)
	second, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, first.GotFunding, second.GotFunding)
	assert.Equal(t, first.OverallScore, second.OverallScore)
	assert.Equal(t, first.ResearchSummary, second.ResearchSummary)
	assert.Equal(t, first.ResearchSources, second.ResearchSources)
}

func TestZeroResultRunNeverErasesPriorAnalysis(t *testing.T) {
	ctx := context.Background()
	projects := store.NewMemoryStore()
	searcher := &fakeSearch{results: carrotResults}
	o := newTestPipeline(searcher, carrotLLM(), projects, memory.NewQueryMemory(nil, nil, nil))

	p := insertCarrot(t, projects)
	_, err := o.ResearchProject(ctx, p)
	require.NoError(t, err)

	// Second run finds nothing: the prior analysis must stay intact.
	searcher.results = func(string) ([]search.Result, error) { return nil, nil }
	analysis, err := o.ResearchProject(ctx, p)
	require.NoError(t, err)
	assert.Nil(t, analysis)

	saved, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, saved.GotFunding)
	assert.True(t, *saved.GotFunding)
	assert.True(t, saved.Researched())
}

func TestDeepDiveExtendsPlan(t *testing.T) {
	ctx := context.Background()
	projects := store.NewMemoryStore()
	searcher := &fakeSearch{results: carrotResults}
	decided := false
	gateway := &fakeLLM{respond: func(req llm.Request) (string, error) {
		switch roleOf(req) {
		case "plan":
			return `{"plan": ["Carrot funding raised", "Carrot startup company", "Carrot users"]}`, nil
		case "evaluate":
			return goodEvaluation, nil
		case "decide":
			if !decided {
				decided = true
				return `{"action": "deep_dive", "reason": "funding signal found"}`, nil
			}
			return `{"action": "continue", "reason": "keep going"}`, nil
		case "analyze":
			return carrotAnalysis, nil
		}
		return "", schemaFailure()
	}}
	o := newTestPipeline(searcher, gateway, projects, memory.NewQueryMemory(nil, nil, nil))

	p := insertCarrot(t, projects)
	_, err := o.ResearchProject(ctx, p)
	require.NoError(t, err)

	// 3 planned queries plus at most 2 deep-dive additions.
	assert.Equal(t, 5, searcher.callCount())
}

func TestCompleteStopsEarly(t *testing.T) {
	ctx := context.Background()
	projects := store.NewMemoryStore()
	searcher := &fakeSearch{results: carrotResults}
	gateway := &fakeLLM{respond: func(req llm.Request) (string, error) {
		switch roleOf(req) {
		case "plan":
			return `{"plan": ["Carrot funding raised", "Carrot startup company", "Carrot users"]}`, nil
		case "evaluate":
			return goodEvaluation, nil
		case "decide":
			return `{"action": "complete", "reason": "enough information"}`, nil
		case "analyze":
			return carrotAnalysis, nil
		}
		return "", schemaFailure()
	}}
	o := newTestPipeline(searcher, gateway, projects, memory.NewQueryMemory(nil, nil, nil))

	p := insertCarrot(t, projects)
	analysis, err := o.ResearchProject(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, analysis)
	assert.Equal(t, 1, searcher.callCount())
}
