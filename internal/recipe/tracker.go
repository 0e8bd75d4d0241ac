package recipe

import (
	"context"
	"fmt"
	"sync"

	"go-recipe-pipeline/internal/model"
)

// ExecutionTracker exposes the progress of a running recipe to UI
// consumers. It mirrors the engine's progress callback into mutable state
// that can be read concurrently while a run is in flight.
type ExecutionTracker struct {
	mu           sync.RWMutex
	isExecuting  bool
	currentStage int
	totalStages  int
	status       string
	err          string
}

// Snapshot is a point-in-time copy of the tracker state.
type Snapshot struct {
	IsExecuting  bool   `json:"isExecuting"`
	CurrentStage int    `json:"currentStage"`
	TotalStages  int    `json:"totalStages"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

// State returns the current tracker state.
func (t *ExecutionTracker) State() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{
		IsExecuting:  t.isExecuting,
		CurrentStage: t.currentStage,
		TotalStages:  t.totalStages,
		Status:       t.status,
		Error:        t.err,
	}
}

// reset clears transient state at the start of a fresh invocation.
func (t *ExecutionTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.isExecuting = true
	t.currentStage = 0
	t.totalStages = 0
	t.status = "Starting..."
	t.err = ""
}

func (t *ExecutionTracker) progress(stage, totalStages int, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentStage = stage
	t.totalStages = totalStages
	t.status = status
}

func (t *ExecutionTracker) finish(result model.ExecutionResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.isExecuting = false
	t.err = result.Error
	if result.Success {
		t.status = "Completed"
	} else {
		t.status = "Failed"
	}
}

// Execute runs a recipe through the engine while keeping the tracker state
// current. The engine's terminal result is surfaced unmodified; any caller
// progress callback is chained after the tracker's own update.
func (t *ExecutionTracker) Execute(ctx context.Context, engine *Engine, opts ExecuteOptions) model.ExecutionResult {
	t.reset()

	callerProgress := opts.OnProgress
	opts.OnProgress = func(stage, totalStages int, status string) {
		t.progress(stage, totalStages, status)
		if callerProgress != nil {
			callerProgress(stage, totalStages, status)
		}
	}

	result := engine.ExecuteRecipe(ctx, opts)
	t.finish(result)
	return result
}

// FindSystemRecipeByName looks up a system-only recipe by name. Used by
// internal features that depend on specific pre-registered recipes.
func FindSystemRecipeByName(recipes []model.Recipe, name string) (model.Recipe, bool) {
	for _, r := range recipes {
		if r.Name == name && r.IsSystemOnly {
			return r, true
		}
	}
	return model.Recipe{}, false
}

// GetRecipeByID looks up a recipe by id.
func GetRecipeByID(recipes []model.Recipe, id string) (model.Recipe, bool) {
	for _, r := range recipes {
		if r.ID == id {
			return r, true
		}
	}
	return model.Recipe{}, false
}

// ExecuteSystemRecipe resolves a system recipe by name from the supplied
// list and executes it with the given options. The recipe on opts is
// replaced by the resolved one.
func (t *ExecutionTracker) ExecuteSystemRecipe(ctx context.Context, engine *Engine, recipes []model.Recipe, name string, opts ExecuteOptions) model.ExecutionResult {
	r, ok := FindSystemRecipeByName(recipes, name)
	if !ok {
		res := model.ExecutionResult{
			Success:   false,
			ImageURLs: []string{},
			Error:     fmt.Sprintf("Recipe %q not found", name),
		}
		t.reset()
		t.finish(res)
		return res
	}
	opts.Recipe = r
	return t.Execute(ctx, engine, opts)
}
