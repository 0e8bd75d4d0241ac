package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go-recipe-pipeline/internal/model"
)

// toolResponse covers the three response shapes a tool endpoint may return:
// multi-output, immediate single output, or a deferred prediction id.
type toolResponse struct {
	ImageURLs    []string `json:"imageUrls,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	PredictionID string   `json:"predictionId,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// toolStatusResponse is the poll response for a deferred tool job.
type toolStatusResponse struct {
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// executeTool runs one tool stage against a single input image and returns
// the produced URL(s).
func (e *Engine) executeTool(ctx context.Context, stage model.RecipeStage, inputImageURL string) ([]string, error) {
	if stage.ToolID == "" {
		return nil, &ConfigurationError{Stage: stage.Order, Detail: "tool stage has no tool ID"}
	}
	tool, ok := e.Registry.Tool(stage.ToolID)
	if !ok {
		return nil, &ConfigurationError{Stage: stage.Order, Detail: fmt.Sprintf("unknown tool %q", stage.ToolID)}
	}

	payload, _ := json.Marshal(map[string]string{"imageUrl": inputImageURL})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tool.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &ToolExecutionError{Tool: tool.Name, Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, &ToolExecutionError{Tool: tool.Name, Detail: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var parsed toolResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := parsed.Error
		if detail == "" {
			detail = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, &ToolExecutionError{Tool: tool.Name, Detail: detail}
	}

	// Checked in order: multi-output, immediate single output, deferred.
	switch {
	case len(parsed.ImageURLs) > 0:
		return parsed.ImageURLs, nil
	case parsed.ImageURL != "":
		return []string{parsed.ImageURL}, nil
	case parsed.PredictionID != "":
		return e.pollToolResult(ctx, tool, parsed.PredictionID)
	}

	return nil, &ToolExecutionError{Tool: tool.Name, Detail: "unrecognized response shape"}
}

// pollToolResult polls the tool's status endpoint every second until the
// job reaches a terminal state or the 60s ceiling is exceeded.
func (e *Engine) pollToolResult(ctx context.Context, tool model.ToolDefinition, predictionID string) ([]string, error) {
	deadline := time.Now().Add(toolPollCeiling)
	ticker := time.NewTicker(toolPollInterval)
	defer ticker.Stop()

	lastStatus := "unknown"

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		status, err := e.fetchToolStatus(ctx, tool, predictionID)
		if err != nil {
			// Transient status-endpoint failures keep the loop going.
			continue
		}
		if status.Status != "" {
			lastStatus = status.Status
		}

		switch status.Status {
		case "succeeded":
			if urls := statusOutputURLs(status.Output); len(urls) > 0 {
				return urls, nil
			}
			return nil, &ToolExecutionError{Tool: tool.Name, Detail: "succeeded with no output"}
		case "failed":
			detail := status.Error
			if detail == "" {
				detail = "prediction failed"
			}
			return nil, &ToolExecutionError{Tool: tool.Name, Detail: detail}
		}
	}

	return nil, &ToolTimeoutError{Tool: tool.Name, LastStatus: lastStatus}
}

func (e *Engine) fetchToolStatus(ctx context.Context, tool model.ToolDefinition, predictionID string) (*toolStatusResponse, error) {
	statusURL := fmt.Sprintf("%s?id=%s", tool.StatusEndpoint, predictionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var status toolStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

// statusOutputURLs extracts result URL(s) from a prediction output, which
// may be a single string or an array of strings.
func statusOutputURLs(output json.RawMessage) []string {
	if len(output) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(output, &single); err == nil && single != "" {
		return []string{single}
	}
	var many []string
	if err := json.Unmarshal(output, &many); err == nil && len(many) > 0 {
		return many
	}
	return nil
}
