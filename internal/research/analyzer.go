package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hackscout/hackscout/internal/llm"
	"github.com/hackscout/hackscout/internal/search"
	"github.com/hackscout/hackscout/internal/types"
)

// Analyzer synthesizes accumulated search results plus project metadata
// into a structured analysis. It never fails: provider or schema errors
// degrade to a fixed default analysis.
type Analyzer struct {
	llm    llm.Gateway
	logger *zap.Logger
}

func NewAnalyzer(gateway llm.Gateway, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{llm: gateway, logger: logger}
}

var scoresSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"market":     {Type: genai.TypeInteger},
		"team":       {Type: genai.TypeInteger},
		"innovation": {Type: genai.TypeInteger},
		"execution":  {Type: genai.TypeInteger},
		"overall":    {Type: genai.TypeInteger},
	},
	Required: []string{"market", "team", "innovation", "execution", "overall"},
}

func analysisProperties() map[string]*genai.Schema {
	return map[string]*genai.Schema{
		"got_funding":    {Type: genai.TypeBoolean},
		"funding_amount": {Type: genai.TypeNumber, Nullable: genai.Ptr(true)},
		"funding_source": {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"became_startup": {Type: genai.TypeBoolean},
		"startup_name":   {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"startup_url":    {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"has_real_users": {Type: genai.TypeBoolean},
		"user_count":     {Type: genai.TypeInteger, Nullable: genai.Ptr(true)},
		"is_still_active": {Type: genai.TypeBoolean},
		"summary":        {Type: genai.TypeString},
		"achievements":   {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"reasoning":      {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"scores":         scoresSchema,
	}
}

var analysisSchema = &genai.Schema{
	Type:       genai.TypeObject,
	Properties: analysisProperties(),
	Required:   []string{"got_funding", "became_startup", "has_real_users", "is_still_active", "summary", "scores"},
}

var successStorySchema = func() *genai.Schema {
	props := analysisProperties()
	props["funding_round"] = &genai.Schema{Type: genai.TypeString, Nullable: genai.Ptr(true)}
	props["funding_date"] = &genai.Schema{Type: genai.TypeString, Nullable: genai.Ptr(true)}
	props["key_metrics"] = &genai.Schema{Type: genai.TypeString, Nullable: genai.Ptr(true)}
	props["timeline"] = &genai.Schema{Type: genai.TypeString, Nullable: genai.Ptr(true)}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   []string{"got_funding", "became_startup", "has_real_users", "is_still_active", "summary", "scores"},
	}
}()

// Analyze requests a structured analysis from the completion gateway over
// a bounded context of at most 5 results, 300 chars each.
func (a *Analyzer) Analyze(ctx context.Context, project *types.Project, results []search.Result) *types.Analysis {
	findings := buildContext(results, 5, 300)

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze post-hackathon journey:\n\n")
	fmt.Fprintf(&b, "PROJECT: %s\n", llm.Truncate(project.Name, 50))
	fmt.Fprintf(&b, "DESC: %s\n", llm.Truncate(descOrTagline(project), 150))
	fmt.Fprintf(&b, "HACKATHON: %s\n\nFINDINGS:\n%s\n", llm.Truncate(project.HackathonName, 50), findings)
	b.WriteString(`
Provide a JSON analysis with:
{
  "got_funding": boolean,
  "funding_amount": number or null,
  "funding_source": string or null,
  "became_startup": boolean,
  "startup_name": string or null,
  "startup_url": string or null,
  "has_real_users": boolean,
  "user_count": number or null,
  "is_still_active": boolean,
  "summary": "2-3 sentence summary of what happened after the hackathon",
  "achievements": "List key achievements, milestones, or notable accomplishments (if any)",
  "reasoning": "Brief explanation of why this project succeeded or failed post-hackathon",
  "scores": {
    "market": 0-100 (market opportunity),
    "team": 0-100 (team quality/execution),
    "innovation": 0-100 (uniqueness),
    "execution": 0-100 (how far they got),
    "overall": 0-100 (average)
  }
}

If no evidence found, return false/null for tracking fields but still provide scores and reasoning.`)

	var analysis types.Analysis
	err := a.llm.Complete(ctx, llm.Request{
		System:      "You are a VC analyst researching hackathon projects. Respond only with valid JSON.",
		Prompt:      b.String(),
		Schema:      analysisSchema,
		Out:         &analysis,
		Temperature: 0.3,
	})
	if err != nil {
		a.logger.Warn("analysis failed, returning default",
			zap.String("project", project.Name), zap.Error(err))
		return DefaultAnalysis()
	}
	analysis.EnsureScores()
	return &analysis
}

// AnalyzeSuccessStory is the richer analysis path for confirmed success
// stories: more context (8 results, 400 chars each) and extra fields.
// On gateway failure it degrades to the plain Analyze path.
func (a *Analyzer) AnalyzeSuccessStory(ctx context.Context, project *types.Project, results []search.Result) *types.Analysis {
	findings := buildContext(results, 8, 400)

	status := ""
	if project.GotFunding != nil && *project.GotFunding {
		status += "Funded "
	}
	if project.BecameStartup != nil && *project.BecameStartup {
		status += "Became Startup"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Provide detailed analysis of this SUCCESSFUL hackathon project:\n\n")
	fmt.Fprintf(&b, "PROJECT: %s\n", llm.Truncate(project.Name, 50))
	fmt.Fprintf(&b, "DESC: %s\n", llm.Truncate(descOrTagline(project), 200))
	fmt.Fprintf(&b, "HACKATHON: %s\n", llm.Truncate(project.HackathonName, 50))
	fmt.Fprintf(&b, "CURRENT STATUS: %s\n\nRESEARCH FINDINGS:\n%s\n", strings.TrimSpace(status), findings)
	b.WriteString(`
Provide detailed JSON analysis:
{
  "got_funding": boolean,
  "funding_amount": number or null,
  "funding_source": string (e.g., "Y Combinator", "Sequoia Capital", "Angel investors"),
  "funding_round": string (e.g., "Seed", "Series A", "Pre-seed"),
  "funding_date": string or null (YYYY-MM format if known),
  "became_startup": boolean,
  "startup_name": string or null,
  "startup_url": string or null,
  "has_real_users": boolean,
  "user_count": number or null,
  "is_still_active": boolean,
  "achievements": "Detailed list of key achievements, milestones, awards, partnerships, or notable accomplishments. Be specific with dates, numbers, and facts.",
  "reasoning": "Comprehensive explanation (3-5 sentences) of WHY this project succeeded: What made it successful? What factors contributed? What was the path from hackathon to success?",
  "key_metrics": "Specific metrics if available: revenue, users, growth rate, partnerships, etc.",
  "timeline": "Brief timeline of major events post-hackathon (if available)",
  "summary": "2-3 sentence executive summary",
  "scores": {
    "market": 0-100,
    "team": 0-100,
    "innovation": 0-100,
    "execution": 0-100,
    "overall": 0-100
  }
}

Be thorough and specific. Include concrete facts, numbers, and dates when available.`)

	var analysis types.Analysis
	err := a.llm.Complete(ctx, llm.Request{
		System:      "You are a VC analyst providing detailed research on successful startups. Respond only with valid JSON. Be specific and factual.",
		Prompt:      b.String(),
		Schema:      successStorySchema,
		Out:         &analysis,
		Temperature: 0.3,
	})
	if err != nil {
		a.logger.Warn("success story analysis failed, falling back to plain analysis",
			zap.String("project", project.Name), zap.Error(err))
		return a.Analyze(ctx, project, results)
	}
	analysis.EnsureScores()
	return &analysis
}

// DefaultAnalysis is the safe result used when the completion gateway
// cannot produce a parseable analysis.
func DefaultAnalysis() *types.Analysis {
	reasoning := "Unable to complete research analysis"
	return &types.Analysis{
		Summary:   "Research could not be completed",
		Reasoning: &reasoning,
		Scores:    types.Scores{Market: 50, Team: 50, Innovation: 50, Execution: 50, Overall: 50},
	}
}

func buildContext(results []search.Result, maxResults, maxChars int) string {
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("Source: %s\n%s\n", r.URL, llm.Truncate(r.Text, maxChars)))
	}
	return strings.Join(parts, "\n---\n")
}

func descOrTagline(p *types.Project) string {
	if p.Description != nil && *p.Description != "" {
		return *p.Description
	}
	if p.Tagline != nil {
		return *p.Tagline
	}
	return ""
}

// BuildResearchSummary composes the persisted summary text from the
// analysis's summary, achievements and reasoning sections.
func BuildResearchSummary(a *types.Analysis) string {
	summary := a.Summary
	if a.Achievements != nil && *a.Achievements != "" {
		summary += "\n\nAchievements:\n" + *a.Achievements
	}
	if a.Reasoning != nil && *a.Reasoning != "" {
		summary += "\n\nAnalysis:\n" + *a.Reasoning
	}
	return summary
}

// BuildSuccessStorySummary is the richer summary for deep-researched
// success stories, adding metrics, timeline and funding sections.
func BuildSuccessStorySummary(a *types.Analysis) string {
	summary := a.Summary
	if a.Achievements != nil && *a.Achievements != "" {
		summary += "\n\nKey Achievements:\n" + *a.Achievements
	}
	if a.Reasoning != nil && *a.Reasoning != "" {
		summary += "\n\nWhy This Project Succeeded:\n" + *a.Reasoning
	}
	if a.KeyMetrics != nil && *a.KeyMetrics != "" {
		summary += "\n\nKey Metrics:\n" + *a.KeyMetrics
	}
	if a.Timeline != nil && *a.Timeline != "" {
		summary += "\n\nTimeline:\n" + *a.Timeline
	}
	if a.FundingSource != nil && a.FundingAmount != nil {
		line := fmt.Sprintf("\n\nFunding: %.0f from %s", *a.FundingAmount, *a.FundingSource)
		if a.FundingRound != nil && *a.FundingRound != "" {
			line += fmt.Sprintf(" (%s)", *a.FundingRound)
		}
		if a.FundingDate != nil && *a.FundingDate != "" {
			line += " in " + *a.FundingDate
		}
		summary += line
	}
	return summary
}
