package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hackscout/hackscout/internal/llm"
	"github.com/hackscout/hackscout/internal/types"
)

// Investor is the thesis a project is screened against.
type Investor struct {
	Name             string
	Description      string
	FocusGeography   []string
	FocusSectors     []string
	InvestmentStages []string
	TypicalCheckSize string
	Philosophy       string
}

// DefaultInvestor is the built-in screening profile used by the CLI.
var DefaultInvestor = Investor{
	Name:             "Forge Ventures",
	Description:      "Early-stage fund backing technical founders who keep building after the demo.",
	FocusGeography:   []string{"North America", "Europe"},
	FocusSectors:     []string{"AI/ML", "Developer Tools", "Fintech", "Climate"},
	InvestmentStages: []string{"Pre-seed", "Seed"},
	TypicalCheckSize: "$250k - $1M",
	Philosophy:       "Back hackathon teams that shipped to real users within six months of the event.",
}

// FitReport scores one dimension of the match.
type FitReport struct {
	Score    int    `json:"score"`
	Analysis string `json:"analysis"`
}

// MatchPoint is a titled strength or concern.
type MatchPoint struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// VerificationCheck records one criterion checked against the thesis.
type VerificationCheck struct {
	Check  string `json:"check"`
	Passed bool   `json:"passed"`
	Notes  string `json:"notes"`
}

// MatchReport is the full investment screening memo for one project.
type MatchReport struct {
	MatchScore         int                 `json:"match_score"`
	OverallAssessment  string              `json:"overall_assessment"`
	Strengths          []MatchPoint        `json:"strengths"`
	Concerns           []MatchPoint        `json:"concerns"`
	SectorFit          FitReport           `json:"sector_fit"`
	GeographyFit       FitReport           `json:"geography_fit"`
	StageFit           FitReport           `json:"stage_fit"`
	TeamFit            FitReport           `json:"team_fit"`
	MarketFit          FitReport           `json:"market_fit"`
	Recommendation     string              `json:"recommendation"`
	VerificationChecks []VerificationCheck `json:"verification_checks"`
	NextSteps          []string            `json:"next_steps"`
}

// MatchAnalyzer screens projects against an investor thesis.
type MatchAnalyzer struct {
	llm    llm.Gateway
	logger *zap.Logger
}

func NewMatchAnalyzer(gateway llm.Gateway, logger *zap.Logger) *MatchAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchAnalyzer{llm: gateway, logger: logger}
}

var fitSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"score":    {Type: genai.TypeInteger},
		"analysis": {Type: genai.TypeString},
	},
	Required: []string{"score", "analysis"},
}

var matchPointSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":       {Type: genai.TypeString},
		"description": {Type: genai.TypeString},
	},
	Required: []string{"title", "description"},
}

var matchSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"match_score":        {Type: genai.TypeInteger},
		"overall_assessment": {Type: genai.TypeString},
		"strengths":          {Type: genai.TypeArray, Items: matchPointSchema},
		"concerns":           {Type: genai.TypeArray, Items: matchPointSchema},
		"sector_fit":         fitSchema,
		"geography_fit":      fitSchema,
		"stage_fit":          fitSchema,
		"team_fit":           fitSchema,
		"market_fit":         fitSchema,
		"recommendation":     {Type: genai.TypeString},
		"verification_checks": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"check":  {Type: genai.TypeString},
					"passed": {Type: genai.TypeBoolean},
					"notes":  {Type: genai.TypeString},
				},
				Required: []string{"check", "passed", "notes"},
			},
		},
		"next_steps": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{
		"match_score", "overall_assessment", "strengths", "concerns",
		"sector_fit", "geography_fit", "stage_fit", "team_fit", "market_fit",
		"recommendation", "verification_checks", "next_steps",
	},
}

// AnalyzeMatch produces an investment memo for project against investor.
// A gateway failure yields a fixed low-confidence report, never an error.
func (m *MatchAnalyzer) AnalyzeMatch(ctx context.Context, project *types.Project, investor Investor) *MatchReport {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a Senior Investment Partner at %s.\n", investor.Name)
	b.WriteString("Your job is to rigorously screen this hackathon project against your investment thesis.\n\n")
	fmt.Fprintf(&b, "--- VC PROFILE ---\n")
	fmt.Fprintf(&b, "Name: %s\nDescription: %s\n", investor.Name, investor.Description)
	fmt.Fprintf(&b, "Focus Sectors: %s\n", strings.Join(investor.FocusSectors, ", "))
	fmt.Fprintf(&b, "Focus Geography: %s\n", strings.Join(investor.FocusGeography, ", "))
	fmt.Fprintf(&b, "Stage: %s\n", strings.Join(investor.InvestmentStages, ", "))
	fmt.Fprintf(&b, "Philosophy: %s\n\n", investor.Philosophy)
	fmt.Fprintf(&b, "--- PROJECT DATA ---\n")
	fmt.Fprintf(&b, "Name: %s\nTagline: %s\nDescription: %s\n",
		project.Name, deref(project.Tagline), deref(project.Description))
	fmt.Fprintf(&b, "Hackathon: %s\n", project.HackathonName)
	fmt.Fprintf(&b, "Prize Won: %s\n", orUnknown(deref(project.Prize)))
	fmt.Fprintf(&b, "Tech Stack: %s\n", orUnknown(strings.Join(project.Technologies, ", ")))
	researchSummary := deref(project.ResearchSummary)
	if researchSummary == "" {
		researchSummary = "No deep research available yet."
	}
	fmt.Fprintf(&b, "Research Summary: %s\n", researchSummary)
	status := "Inactive/Unknown"
	if project.IsStillActive != nil && *project.IsStillActive {
		status = "Active"
	}
	fmt.Fprintf(&b, "Active Status: %s\n\n", status)
	b.WriteString(`--- INSTRUCTIONS ---
1. Verify Alignment: First, check if the project strictly matches the VC's Sector and Geography. If not, the score should be low.
2. Analyze Quality: Look for signals of quality (Hackathon winner? Active repo? Founders?).
3. Be Critical: Do not be overly optimistic. Most hackathon projects are not investable. Only give high scores (>80) to exceptional matches.
4. Evidence-Based: Cite specific parts of the project description or research summary in your reasoning.

Generate a detailed investment memo in JSON format.`)

	var report MatchReport
	err := m.llm.Complete(ctx, llm.Request{
		System:      "You are a VC analyst. Output valid JSON matching the schema.",
		Prompt:      b.String(),
		Schema:      matchSchema,
		Out:         &report,
		Temperature: 0.3,
	})
	if err != nil {
		m.logger.Warn("match analysis failed, returning default report",
			zap.String("project", project.Name), zap.Error(err))
		return defaultMatchReport(investor)
	}
	return &report
}

func defaultMatchReport(investor Investor) *MatchReport {
	low := FitReport{Score: 30, Analysis: "Could not be assessed automatically."}
	return &MatchReport{
		MatchScore:        30,
		OverallAssessment: "Automated screening was unavailable; the match could not be assessed with confidence.",
		Concerns: []MatchPoint{{
			Title:       "Incomplete screening",
			Description: "The analysis service did not return a usable memo, so no thesis alignment was verified.",
		}},
		SectorFit:      low,
		GeographyFit:   low,
		StageFit:       low,
		TeamFit:        low,
		MarketFit:      low,
		Recommendation: "Watch",
		VerificationChecks: []VerificationCheck{{
			Check:  "Automated screening",
			Passed: false,
			Notes:  "Screening against " + investor.Name + "'s thesis could not be completed.",
		}},
		NextSteps: []string{"Re-run the match analysis before making a decision."},
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
