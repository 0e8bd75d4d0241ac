package recipe

import (
	"errors"
	"fmt"

	"go-recipe-pipeline/internal/model"
)

// ErrEmptyRecipe is returned when a recipe has no stages to execute.
var ErrEmptyRecipe = errors.New("Recipe has no stages")

// ConfigurationError means a stage references an unregistered tool or
// analysis identifier. Not retriable; the recipe definition is broken.
type ConfigurationError struct {
	Stage  int
	Detail string
}

func (e *ConfigurationError) Error() string { return e.Detail }

// MissingInputError means a tool or analysis stage has no input image.
type MissingInputError struct {
	Stage     int
	StageType model.StageType
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s stage has no input image", e.StageType)
}

// SubmissionError means the generation endpoint accepted the request but
// returned no job identifier.
type SubmissionError struct {
	Detail string
}

func (e *SubmissionError) Error() string { return e.Detail }

// ToolExecutionError is an explicit upstream failure from a tool endpoint.
type ToolExecutionError struct {
	Tool   string
	Detail string
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Tool, e.Detail)
}

// ToolTimeoutError means a deferred tool result did not arrive within the
// polling ceiling. LastStatus carries the last observed job status.
type ToolTimeoutError struct {
	Tool       string
	LastStatus string
}

func (e *ToolTimeoutError) Error() string {
	return fmt.Sprintf("%s timed out (last status: %s)", e.Tool, e.LastStatus)
}

// AnalysisExecutionError is an explicit upstream failure from an analysis
// endpoint, or a failure preparing its input image.
type AnalysisExecutionError struct {
	Analysis string
	Detail   string
}

func (e *AnalysisExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Analysis, e.Detail)
}

// GenerationTimeoutError means no durable result URL appeared within the
// completion wait timeout.
type GenerationTimeoutError struct {
	Seconds    int
	LastStatus string
	LastError  string
}

func (e *GenerationTimeoutError) Error() string {
	msg := fmt.Sprintf("Timeout after %ds. Status: %s. ", e.Seconds, e.LastStatus)
	if e.LastError != "" {
		return msg + "Error: " + e.LastError
	}
	return msg + "No public URL received from webhook."
}

// GenerationFailedError is the job's explicit failure status.
type GenerationFailedError struct {
	Detail string
}

func (e *GenerationFailedError) Error() string {
	return "Generation failed: " + e.Detail
}

// GenerationCancelledError is the job's explicit cancellation status.
type GenerationCancelledError struct{}

func (e *GenerationCancelledError) Error() string { return "Generation was canceled" }

// StageExecutionError wraps any error raised while executing a single stage
// with the 1-based stage number; StageType records which executor failed.
type StageExecutionError struct {
	Stage     int // 1-based
	StageType model.StageType
	Err       error
}

func (e *StageExecutionError) Error() string {
	return fmt.Sprintf("Stage %d failed: %s", e.Stage, e.Err.Error())
}

func (e *StageExecutionError) Unwrap() error { return e.Err }
