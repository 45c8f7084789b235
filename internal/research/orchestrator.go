package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hackscout/hackscout/internal/llm"
	"github.com/hackscout/hackscout/internal/memory"
	"github.com/hackscout/hackscout/internal/search"
	"github.com/hackscout/hackscout/internal/store"
	"github.com/hackscout/hackscout/internal/types"
)

// nextAction is the orchestrator's decision after each accepted query.
type nextAction string

const (
	actionContinue nextAction = "continue"
	actionRefine   nextAction = "refine"
	actionDeepDive nextAction = "deep_dive"
	actionComplete nextAction = "complete"

	deepDiveExtraQueries = 2
)

// Orchestrator drives one full research run for a project: plan the
// queries, evaluate each one, decide how to proceed after each accepted
// query, analyze the accumulated results and persist the outcome.
type Orchestrator struct {
	planner  *Planner
	loop     *EvaluationLoop
	analyzer *Analyzer
	store    store.ProjectStore
	memory   *memory.QueryMemory
	llm      llm.Gateway
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrchestrator(planner *Planner, loop *EvaluationLoop, analyzer *Analyzer, projects store.ProjectStore, mem *memory.QueryMemory, gateway llm.Gateway, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		planner:  planner,
		loop:     loop,
		analyzer: analyzer,
		store:    projects,
		memory:   mem,
		llm:      gateway,
		logger:   logger,
		now:      time.Now,
	}
}

// ResearchProject runs the full pipeline for one project. A run that
// accumulates zero search results returns (nil, nil): nothing is
// persisted and the query memory is not updated. A store failure is the
// only error surfaced to the caller.
func (o *Orchestrator) ResearchProject(ctx context.Context, project *types.Project) (*types.Analysis, error) {
	o.logger.Info("starting research",
		zap.String("project", project.Name),
		zap.String("hackathon", project.HackathonName))

	plan := o.planner.Plan(ctx, project)
	o.logger.Info("research plan created", zap.Int("queries", len(plan)))

	var allResults []search.Result
	var completedQueries []string
	var attemptedQueries []string

	for i := 0; i < len(plan); i++ {
		attemptedQueries = append(attemptedQueries, plan[i])
		outcome := o.loop.Run(ctx, project, plan[i])
		if !outcome.Accepted {
			o.logger.Info("query exhausted", zap.String("query", plan[i]))
			continue
		}

		allResults = append(allResults, outcome.Results...)
		completedQueries = append(completedQueries, outcome.Query)
		o.logger.Info("query accepted",
			zap.String("query", outcome.Query),
			zap.Int("results", len(outcome.Results)))

		action := o.decideNextAction(ctx, project, allResults, completedQueries, plan)
		if action == actionDeepDive {
			extra := o.planner.Plan(ctx, project)
			if len(extra) > deepDiveExtraQueries {
				extra = extra[:deepDiveExtraQueries]
			}
			plan = append(plan, extra...)
			o.logger.Info("deep dive", zap.Int("extra_queries", len(extra)))
		}
		if action == actionComplete {
			o.logger.Info("sufficient information gathered")
			break
		}
	}

	if len(allResults) == 0 {
		o.logger.Info("no results found", zap.String("project", project.Name))
		return nil, nil
	}

	analysis := o.analyzer.Analyze(ctx, project, allResults)
	analysis.EnsureScores()

	summary := BuildResearchSummary(analysis)
	urls := make([]string, 0, len(allResults))
	for _, r := range allResults {
		urls = append(urls, r.URL)
	}
	sources := SanitizeSources(urls)

	if err := o.store.ApplyAnalysis(ctx, project.ID, analysis, summary, sources, o.now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to persist analysis for %s: %w", project.ID, err)
	}

	if o.memory != nil {
		o.memory.Record(ctx, memory.Pattern{
			Category:          Categorize(project),
			Context:           fmt.Sprintf("%s - %s", project.Name, project.HackathonName),
			SuccessfulQueries: completedQueries,
			FailedQueries:     difference(attemptedQueries, completedQueries),
		})
	}

	o.logger.Info("research complete",
		zap.String("project", project.Name),
		zap.Int("successful_queries", len(completedQueries)),
		zap.Int("results", len(allResults)))
	return analysis, nil
}

var nextActionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"action": {Type: genai.TypeString, Enum: []string{"continue", "refine", "deep_dive", "complete"}},
		"reason": {Type: genai.TypeString},
	},
	Required: []string{"action", "reason"},
}

func (o *Orchestrator) decideNextAction(ctx context.Context, project *types.Project, results []search.Result, completed []string, plan []string) nextAction {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on research progress, decide the next action.\n\n")
	fmt.Fprintf(&b, "PROJECT: %s\nCOMPLETED QUERIES: %d\nREMAINING IN PLAN: %d\n\nCURRENT RESULTS SUMMARY:\n",
		project.Name, len(completed), len(plan)-len(completed))
	for i, r := range results {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "- %s\n", llm.Truncate(r.Text, 100))
	}
	b.WriteString(`
Decide next action:
- "continue": Proceed with next query in plan (if we have more queries and results are decent)
- "refine": Current query needs refinement (if results are poor)
- "deep_dive": We found something interesting, investigate deeper (if we found funding/startup signals)
- "complete": We have enough information (if we found comprehensive info)

Return JSON: {"action": "continue|refine|deep_dive|complete", "reason": "brief explanation"}`)

	var out struct {
		Action string `json:"action"`
		Reason string `json:"reason"`
	}
	err := o.llm.Complete(ctx, llm.Request{
		System:      "You are a research coordinator. Decide the next step. Respond only with valid JSON.",
		Prompt:      b.String(),
		Schema:      nextActionSchema,
		Out:         &out,
		Temperature: 0.5,
	})
	if err != nil {
		if len(plan) > len(completed) {
			return actionContinue
		}
		return actionComplete
	}

	switch nextAction(out.Action) {
	case actionRefine, actionDeepDive, actionComplete:
		return nextAction(out.Action)
	default:
		return actionContinue
	}
}

func difference(all, kept []string) []string {
	keep := make(map[string]struct{}, len(kept))
	for _, q := range kept {
		keep[q] = struct{}{}
	}
	var out []string
	for _, q := range all {
		if _, ok := keep[q]; !ok {
			out = append(out, q)
		}
	}
	return out
}
