package recipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-recipe-pipeline/internal/model"
)

func TestTrackerExecuteSuccess(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	tracker := &ExecutionTracker{}

	recipe := model.Recipe{ID: "r1", Name: "Tracked", Stages: []model.RecipeStage{genStage(0, "one"), genStage(1, "two")}}

	var callerCalls int
	result := tracker.Execute(context.Background(), e, ExecuteOptions{
		Recipe:     recipe,
		OnProgress: func(stage, totalStages int, status string) { callerCalls++ },
	})
	require.True(t, result.Success)

	state := tracker.State()
	assert.False(t, state.IsExecuting)
	assert.Equal(t, "Completed", state.Status)
	assert.Equal(t, 2, state.CurrentStage)
	assert.Equal(t, 2, state.TotalStages)
	assert.Empty(t, state.Error)

	// The caller's own progress callback still fires.
	assert.Equal(t, 5, callerCalls)
}

func TestTrackerExecuteFailure(t *testing.T) {
	e, _, gen, _ := newTestEngine(t)
	gen.failAt = 1
	tracker := &ExecutionTracker{}

	recipe := model.Recipe{ID: "r1", Name: "Tracked", Stages: []model.RecipeStage{genStage(0, "one")}}
	result := tracker.Execute(context.Background(), e, ExecuteOptions{Recipe: recipe})
	require.False(t, result.Success)

	state := tracker.State()
	assert.False(t, state.IsExecuting)
	assert.Equal(t, "Failed", state.Status)
	assert.Equal(t, "Stage 1 failed: provider rejected the request", state.Error)
}

func TestFindSystemRecipeByName(t *testing.T) {
	recipes := []model.Recipe{
		{ID: "a", Name: "Character Sheet"},
		{ID: "b", Name: "Character Sheet", IsSystemOnly: true},
	}

	found, ok := FindSystemRecipeByName(recipes, "Character Sheet")
	require.True(t, ok)
	assert.Equal(t, "b", found.ID)

	_, ok = FindSystemRecipeByName(recipes, "Missing")
	assert.False(t, ok)
}

func TestGetRecipeByID(t *testing.T) {
	recipes := []model.Recipe{{ID: "a", Name: "One"}, {ID: "b", Name: "Two"}}

	found, ok := GetRecipeByID(recipes, "b")
	require.True(t, ok)
	assert.Equal(t, "Two", found.Name)

	_, ok = GetRecipeByID(recipes, "z")
	assert.False(t, ok)
}

func TestExecuteSystemRecipeNotFound(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	tracker := &ExecutionTracker{}

	result := tracker.ExecuteSystemRecipe(context.Background(), e, nil, "Ghost", ExecuteOptions{})

	assert.False(t, result.Success)
	assert.Equal(t, `Recipe "Ghost" not found`, result.Error)
	require.NotNil(t, result.ImageURLs)
	assert.Empty(t, result.ImageURLs)
	assert.Equal(t, "Failed", tracker.State().Status)
}

func TestExecuteSystemRecipeRuns(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	tracker := &ExecutionTracker{}

	recipes := []model.Recipe{
		{ID: "sys-1", Name: "Style Guide", IsSystemOnly: true, Stages: []model.RecipeStage{genStage(0, "style grid")}},
	}

	result := tracker.ExecuteSystemRecipe(context.Background(), e, recipes, "Style Guide", ExecuteOptions{})
	assert.True(t, result.Success)
	assert.Equal(t, "Completed", tracker.State().Status)
}
