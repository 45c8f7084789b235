package research

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackscout/hackscout/internal/llm"
	"github.com/hackscout/hackscout/internal/memory"
)

func TestPlanFallbackOnFailure(t *testing.T) {
	planner := NewPlanner(&fakeLLM{}, nil, nil)
	plan := planner.Plan(context.Background(), testProject())

	assert.Equal(t, []string{
		"Carrot funding raised",
		"Carrot startup company",
		"Carrot users growth",
		"Carrot founders update",
	}, plan)
}

func TestPlanFeedsLearnedQueriesToModel(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewQueryMemory(nil, nil, nil)
	mem.Record(ctx, memory.Pattern{
		Category:          CategoryGeneral,
		SuccessfulQueries: []string{"Carrot YC batch"},
	})

	var sawLearned bool
	gateway := &fakeLLM{respond: func(req llm.Request) (string, error) {
		require.Equal(t, "plan", roleOf(req))
		sawLearned = strings.Contains(req.Prompt, "LEARNED FROM SIMILAR PROJECTS") &&
			strings.Contains(req.Prompt, "Carrot YC batch")
		return `{"plan": ["Carrot funding raised"]}`, nil
	}}
	planner := NewPlanner(gateway, mem, nil)

	plan := planner.Plan(ctx, testProject())
	assert.Equal(t, []string{"Carrot funding raised"}, plan)
	assert.True(t, sawLearned, "learned queries should be presented to the model")
}

func TestPlanFallbackOnEmptyPlan(t *testing.T) {
	gateway := &fakeLLM{respond: func(req llm.Request) (string, error) {
		return `{"plan": []}`, nil
	}}
	planner := NewPlanner(gateway, nil, nil)

	plan := planner.Plan(context.Background(), testProject())
	assert.Len(t, plan, 4)
	assert.Equal(t, "Carrot funding raised", plan[0])
}
