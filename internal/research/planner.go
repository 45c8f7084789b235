package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hackscout/hackscout/internal/llm"
	"github.com/hackscout/hackscout/internal/memory"
	"github.com/hackscout/hackscout/internal/types"
)

// Planner turns a project's metadata into an ordered list of search
// queries, biased by previously successful queries for the same category.
type Planner struct {
	llm    llm.Gateway
	memory *memory.QueryMemory
	logger *zap.Logger
}

func NewPlanner(gateway llm.Gateway, mem *memory.QueryMemory, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{llm: gateway, memory: mem, logger: logger}
}

var planSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"plan": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"plan"},
}

// Plan returns 4-5 search queries in priority order: funding, startup
// formation, user traction, founder updates, general news. On gateway
// failure it falls back to a deterministic template plan.
func (p *Planner) Plan(ctx context.Context, project *types.Project) []string {
	var learned []string
	if p.memory != nil {
		category := Categorize(project)
		contextText := fmt.Sprintf("%s - %s", project.Name, project.HackathonName)
		learned = p.memory.LearnedQueries(ctx, category, contextText, 3)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a research plan for finding post-hackathon information about this project.\n\n")
	fmt.Fprintf(&b, "PROJECT: %s\n", project.Name)
	fmt.Fprintf(&b, "DESCRIPTION: %s\n", llm.Truncate(deref(project.Description), 150))
	fmt.Fprintf(&b, "TECHNOLOGIES: %s\n", strings.Join(project.Technologies, ", "))
	fmt.Fprintf(&b, "HACKATHON: %s\n", project.HackathonName)
	if len(learned) > 0 {
		fmt.Fprintf(&b, "\nLEARNED FROM SIMILAR PROJECTS:\n")
		for _, q := range learned {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	b.WriteString(`
Create 4-5 search queries (max 60 chars each) in order of priority:
1. Most likely to find funding information
2. Most likely to find startup/company formation
3. Most likely to find user growth/traction
4. Most likely to find founder updates
5. General post-hackathon news

Return JSON: {"plan": ["query1", "query2", ...]}`)

	var out struct {
		Plan []string `json:"plan"`
	}
	err := p.llm.Complete(ctx, llm.Request{
		System:      "You are a research planner. Create strategic search queries. Respond only with valid JSON.",
		Prompt:      b.String(),
		Schema:      planSchema,
		Out:         &out,
		Temperature: 0.7,
	})
	if err != nil || len(out.Plan) == 0 {
		if err != nil {
			p.logger.Warn("plan generation failed, using fallback plan",
				zap.String("project", project.Name), zap.Error(err))
		}
		return fallbackPlan(project)
	}
	return out.Plan
}

func fallbackPlan(project *types.Project) []string {
	return []string{
		project.Name + " funding raised",
		project.Name + " startup company",
		project.Name + " users growth",
		project.Name + " founders update",
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
