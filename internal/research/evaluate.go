package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hackscout/hackscout/internal/llm"
	"github.com/hackscout/hackscout/internal/search"
	"github.com/hackscout/hackscout/internal/types"
)

const (
	maxRefinements    = 2
	resultsPerQuery   = 5
	refineBelowScore  = 60
	interAttemptDelay = 2 * time.Second
)

// QueryOutcome is the terminal state of one query's evaluation loop.
// Accepted outcomes carry the retained results and the final (possibly
// refined) query string; exhausted outcomes carry neither.
type QueryOutcome struct {
	Accepted bool
	Query    string
	Results  []search.Result
}

// EvaluationLoop executes one query at a time: search, score the result
// quality, and refine the query within a bounded retry budget.
type EvaluationLoop struct {
	search search.Gateway
	llm    llm.Gateway
	logger *zap.Logger

	// sleep is replaceable so tests run without real delays.
	sleep func(time.Duration)
}

func NewEvaluationLoop(gateway search.Gateway, completions llm.Gateway, logger *zap.Logger) *EvaluationLoop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationLoop{
		search: gateway,
		llm:    completions,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Run drives the per-query state machine. A search provider failure or an
// empty result set consumes a refinement like a poor-quality result does;
// when the budget runs out the query is skipped.
func (l *EvaluationLoop) Run(ctx context.Context, project *types.Project, query string) QueryOutcome {
	current := query
	for refinements := 0; ; {
		results, err := l.search.Search(ctx, current, search.Options{
			NumResults: resultsPerQuery,
			Mode:       search.ModeAuto,
		})
		if err != nil {
			l.logger.Warn("search failed", zap.String("query", current), zap.Error(err))
			if refinements >= maxRefinements {
				return QueryOutcome{Query: current}
			}
			current = l.refineQuery(ctx, current, nil, project, fmt.Sprintf("Error: %v", err))
			refinements++
			l.sleep(interAttemptDelay)
			continue
		}

		if len(results) == 0 {
			if refinements >= maxRefinements {
				return QueryOutcome{Query: current}
			}
			current = l.refineQuery(ctx, current, nil, project, "No results returned")
			refinements++
			l.sleep(interAttemptDelay)
			continue
		}

		eval := l.evaluateQuality(ctx, current, results, project)
		l.logger.Debug("evaluated results",
			zap.String("query", current),
			zap.Int("quality", eval.Quality),
			zap.String("feedback", eval.Feedback))

		if eval.ShouldRefine && refinements < maxRefinements {
			current = l.refineQuery(ctx, current, results, project, eval.Feedback)
			refinements++
			l.sleep(interAttemptDelay)
			continue
		}

		return QueryOutcome{Accepted: true, Query: current, Results: results}
	}
}

type qualityEvaluation struct {
	Quality      int    `json:"quality"`
	Feedback     string `json:"feedback"`
	ShouldRefine bool   `json:"shouldRefine"`
}

var qualitySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"quality":      {Type: genai.TypeInteger},
		"feedback":     {Type: genai.TypeString},
		"shouldRefine": {Type: genai.TypeBoolean},
	},
	Required: []string{"quality", "feedback", "shouldRefine"},
}

func (l *EvaluationLoop) evaluateQuality(ctx context.Context, query string, results []search.Result, project *types.Project) qualityEvaluation {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate the quality of these search results for finding information about a hackathon project.\n\n")
	fmt.Fprintf(&b, "QUERY: %q\nPROJECT: %s\nHACKATHON: %s\n\nRESULTS:\n", query, project.Name, project.HackathonName)
	for i, r := range results {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", r.URL, llm.Truncate(r.Text, 100))
	}
	b.WriteString(`
Rate the quality (0-100) and provide feedback:
- 80-100: Excellent, highly relevant results
- 60-79: Good, mostly relevant
- 40-59: Moderate, some relevant results
- 20-39: Poor, few relevant results
- 0-19: Very poor, no relevant results

Return JSON:
{
  "quality": number (0-100),
  "feedback": "brief explanation of why this score",
  "shouldRefine": boolean (true if quality < 60 and we should try a better query)
}`)

	var eval qualityEvaluation
	err := l.llm.Complete(ctx, llm.Request{
		System:      "You are a quality evaluator for search results. Respond only with valid JSON.",
		Prompt:      b.String(),
		Schema:      qualitySchema,
		Out:         &eval,
		Temperature: 0.3,
	})
	if err != nil {
		relevant := resultsMention(results, project)
		if relevant {
			return qualityEvaluation{Quality: 70, Feedback: "Some relevant results found"}
		}
		return qualityEvaluation{Quality: 30, Feedback: "No relevant results", ShouldRefine: true}
	}
	if eval.Quality < refineBelowScore {
		eval.ShouldRefine = true
	}
	return eval
}

func resultsMention(results []search.Result, project *types.Project) bool {
	name := strings.ToLower(project.Name)
	hackathon := strings.ToLower(project.HackathonName)
	for _, r := range results {
		text := strings.ToLower(r.Text)
		if name != "" && strings.Contains(text, name) {
			return true
		}
		if hackathon != "" && strings.Contains(text, hackathon) {
			return true
		}
	}
	return false
}

var refineSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"refined_query": {Type: genai.TypeString},
	},
	Required: []string{"refined_query"},
}

func (l *EvaluationLoop) refineQuery(ctx context.Context, original string, results []search.Result, project *types.Project, feedback string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The previous search query didn't return good results. Generate a better, more specific query.\n\n")
	fmt.Fprintf(&b, "ORIGINAL QUERY: %q\nPROJECT: %s\n", original, project.Name)
	fmt.Fprintf(&b, "DESCRIPTION: %s\n", llm.Truncate(deref(project.Description), 100))
	techs := project.Technologies
	if len(techs) > 3 {
		techs = techs[:3]
	}
	fmt.Fprintf(&b, "TECHNOLOGIES: %s\nHACKATHON: %s\n", strings.Join(techs, ", "), project.HackathonName)
	if len(results) > 0 {
		b.WriteString("\nPREVIOUS RESULTS (for context):\n")
		for i, r := range results {
			if i >= 2 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", r.URL, llm.Truncate(r.Text, 80))
		}
	}
	fmt.Fprintf(&b, "\nFEEDBACK: %s\n", feedback)
	b.WriteString(`
Generate a NEW, IMPROVED search query (max 60 chars) that:
- Is more specific to this project
- Targets funding, startup status, or user growth
- Uses better keywords based on the project details

Return JSON: {"refined_query": "new query here"}`)

	var out struct {
		RefinedQuery string `json:"refined_query"`
	}
	err := l.llm.Complete(ctx, llm.Request{
		System:      "You are a search query optimizer. Respond only with valid JSON.",
		Prompt:      b.String(),
		Schema:      refineSchema,
		Out:         &out,
		Temperature: 0.7,
	})
	if err != nil || out.RefinedQuery == "" {
		return project.Name + " " + original
	}
	return out.RefinedQuery
}
