package research

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackscout/hackscout/internal/llm"
)

func TestAnalyzeMatch(t *testing.T) {
	gateway := &fakeLLM{respond: func(req llm.Request) (string, error) {
		require.Equal(t, "match", roleOf(req))
		assert.True(t, strings.Contains(req.Prompt, "Forge Ventures"))
		assert.True(t, strings.Contains(req.Prompt, "Carrot"))
		return `{
			"match_score": 82,
			"overall_assessment": "Strong fit with the AI/ML thesis.",
			"strengths": [{"title": "Traction", "description": "Real users within months."}],
			"concerns": [{"title": "Competition", "description": "Crowded market."}],
			"sector_fit": {"score": 90, "analysis": "Core AI/ML."},
			"geography_fit": {"score": 80, "analysis": "US-based."},
			"stage_fit": {"score": 85, "analysis": "Seed stage."},
			"team_fit": {"score": 75, "analysis": "Technical founders."},
			"market_fit": {"score": 78, "analysis": "Growing market."},
			"recommendation": "Invest",
			"verification_checks": [{"check": "Sector Alignment", "passed": true, "notes": "AI/ML"}],
			"next_steps": ["Schedule founder call"]
		}`, nil
	}}
	m := NewMatchAnalyzer(gateway, nil)

	report := m.AnalyzeMatch(context.Background(), testProject(), DefaultInvestor)
	require.NotNil(t, report)
	assert.Equal(t, 82, report.MatchScore)
	assert.Equal(t, "Invest", report.Recommendation)
	assert.Equal(t, 90, report.SectorFit.Score)
	require.Len(t, report.VerificationChecks, 1)
	assert.True(t, report.VerificationChecks[0].Passed)
}

func TestAnalyzeMatchFallsBackToDefaultReport(t *testing.T) {
	m := NewMatchAnalyzer(&fakeLLM{}, nil)

	report := m.AnalyzeMatch(context.Background(), testProject(), DefaultInvestor)
	require.NotNil(t, report)
	assert.Equal(t, 30, report.MatchScore)
	assert.Equal(t, "Watch", report.Recommendation)
	require.NotEmpty(t, report.VerificationChecks)
	assert.False(t, report.VerificationChecks[0].Passed)
}
