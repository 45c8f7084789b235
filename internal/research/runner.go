package research

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hackscout/hackscout/internal/llm"
	"github.com/hackscout/hackscout/internal/search"
	"github.com/hackscout/hackscout/internal/store"
	"github.com/hackscout/hackscout/internal/types"
)

const (
	defaultBatchLimit   = 10
	successStoriesLimit = 20
	interProjectDelay   = 3 * time.Second
)

// Runner drives batches of sequential research runs. One project's
// failure is logged and skipped; sibling runs continue.
type Runner struct {
	store        store.ProjectStore
	orchestrator *Orchestrator
	analyzer     *Analyzer
	search       search.Gateway
	llm          llm.Gateway
	logger       *zap.Logger

	sleep func(time.Duration)
	now   func() time.Time
}

func NewRunner(projects store.ProjectStore, orchestrator *Orchestrator, analyzer *Analyzer, gateway search.Gateway, completions llm.Gateway, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		store:        projects,
		orchestrator: orchestrator,
		analyzer:     analyzer,
		search:       gateway,
		llm:          completions,
		logger:       logger,
		sleep:        time.Sleep,
		now:          time.Now,
	}
}

// ResearchAll researches up to limit never-researched projects, one at a
// time with an inter-project delay.
func (r *Runner) ResearchAll(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	projects, err := r.store.ListUnresearched(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list unresearched projects: %w", err)
	}
	r.logger.Info("researching projects", zap.Int("count", len(projects)))

	for i := range projects {
		project := &projects[i]
		if _, err := r.orchestrator.ResearchProject(ctx, project); err != nil {
			r.logger.Error("research run failed",
				zap.String("project", project.Name), zap.Error(err))
		}
		r.sleep(interProjectDelay)
	}
	return nil
}

var successQueriesSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"queries": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"queries"},
}

func (r *Runner) successStoryQueries(ctx context.Context, project *types.Project) []string {
	status := ""
	if project.GotFunding != nil && *project.GotFunding {
		status += "Funded "
	}
	if project.BecameStartup != nil && *project.BecameStartup {
		status += "Startup"
	}
	prompt := fmt.Sprintf(`Generate 4-5 short queries (max 50 chars) for deep research on a successful hackathon project:

PROJECT: %s
STATUS: %s

Focus on: funding details, achievements, milestones, user growth, company news, partnerships.

Return JSON: {"queries": ["short query1", ...]}`, llm.Truncate(project.Name, 50), status)

	var out struct {
		Queries []string `json:"queries"`
	}
	err := r.llm.Complete(ctx, llm.Request{
		System:      "You are a research agent. Respond only with valid JSON.",
		Prompt:      prompt,
		Schema:      successQueriesSchema,
		Out:         &out,
		Temperature: 0.7,
	})
	if err != nil || len(out.Queries) == 0 {
		name := llm.Truncate(project.Name, 30)
		return []string{
			name + " funding achievements",
			name + " startup milestones",
			name + " users growth",
			name + " success story",
		}
	}
	return out.Queries
}

// ResearchSuccessStories re-researches funded or startup-forming projects
// with the richer analyzer, merging new sources into the existing ones.
func (r *Runner) ResearchSuccessStories(ctx context.Context) error {
	projects, err := r.store.ListSuccessStories(ctx, successStoriesLimit)
	if err != nil {
		return fmt.Errorf("failed to list success stories: %w", err)
	}
	if len(projects) == 0 {
		r.logger.Info("no success stories to research")
		return nil
	}
	r.logger.Info("deep researching success stories", zap.Int("count", len(projects)))

	for i := range projects {
		project := &projects[i]
		if err := r.researchSuccessStory(ctx, project); err != nil {
			r.logger.Error("success story research failed",
				zap.String("project", project.Name), zap.Error(err))
		}
		r.sleep(interProjectDelay)
	}
	return nil
}

func (r *Runner) researchSuccessStory(ctx context.Context, project *types.Project) error {
	r.logger.Info("deep research", zap.String("project", project.Name))

	queries := r.successStoryQueries(ctx, project)
	var allResults []search.Result
	for _, query := range queries {
		results, err := r.search.Search(ctx, query, search.Options{NumResults: 3, Mode: search.ModeAuto})
		if err != nil {
			r.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
			continue
		}
		allResults = append(allResults, results...)
		r.sleep(time.Second)
	}
	if len(allResults) == 0 {
		r.logger.Info("no new results", zap.String("project", project.Name))
		return nil
	}

	analysis := r.analyzer.AnalyzeSuccessStory(ctx, project, allResults)
	analysis.EnsureScores()
	summary := BuildSuccessStorySummary(analysis)

	urls := append([]string(nil), project.ResearchSources...)
	for _, result := range allResults {
		urls = append(urls, result.URL)
	}
	sources := SanitizeSources(urls)

	if err := r.store.ApplyAnalysis(ctx, project.ID, analysis, summary, sources, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to persist analysis for %s: %w", project.ID, err)
	}
	r.logger.Info("updated success story", zap.String("project", project.Name))
	return nil
}
