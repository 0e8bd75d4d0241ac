package recipe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go-recipe-pipeline/internal/model"
)

// analysisResponse is the union of the fields the registered analysis
// endpoints return.
type analysisResponse struct {
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	StylePrompt string          `json:"stylePrompt,omitempty"`
	Elements    json.RawMessage `json:"elements,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// executeAnalysis runs one analysis stage and maps the response into named
// template variables. Only the first input image is analyzed, even when
// several are supplied.
func (e *Engine) executeAnalysis(ctx context.Context, stage model.RecipeStage, inputImageURLs []string) (model.AnalysisVariables, error) {
	if stage.AnalysisID == "" {
		return nil, &ConfigurationError{Stage: stage.Order, Detail: "analysis stage has no analysis ID"}
	}
	analysis, ok := e.Registry.Analysis(stage.AnalysisID)
	if !ok {
		return nil, &ConfigurationError{Stage: stage.Order, Detail: fmt.Sprintf("unknown analysis %q", stage.AnalysisID)}
	}

	embedded, err := e.embedImage(ctx, inputImageURLs[0])
	if err != nil {
		return nil, &AnalysisExecutionError{Analysis: analysis.Name, Detail: err.Error()}
	}

	payload, _ := json.Marshal(map[string]string{"image": embedded})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, analysis.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &AnalysisExecutionError{Analysis: analysis.Name, Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, &AnalysisExecutionError{Analysis: analysis.Name, Detail: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var parsed analysisResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := parsed.Error
		if detail == "" {
			detail = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, &AnalysisExecutionError{Analysis: analysis.Name, Detail: detail}
	}

	return mapAnalysisVariables(stage.AnalysisID, parsed), nil
}

// mapAnalysisVariables converts a raw analysis response into the fixed
// variable set for the analysis type. Unknown types produce no variables.
func mapAnalysisVariables(analysisID string, parsed analysisResponse) model.AnalysisVariables {
	vars := model.AnalysisVariables{}

	switch analysisID {
	case "style":
		vars["ANALYZED_STYLE_NAME"] = parsed.Name
		vars["ANALYZED_STYLE_DESCRIPTION"] = parsed.Description
		vars["ANALYZED_STYLE_PROMPT"] = parsed.StylePrompt
	case "character":
		vars["ANALYZED_CHARACTER_DESCRIPTION"] = parsed.Description
	case "scene":
		vars["ANALYZED_SCENE_ELEMENTS"] = elementsString(parsed.Elements)
	}

	return vars
}

// elementsString renders scene elements, which may arrive as a string or an
// array of strings.
func elementsString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return strings.Join(many, ", ")
	}
	return string(raw)
}

// embedImage normalizes an image reference into an embeddable data URL. An
// already-embedded image is used as-is; remote images are fetched and
// base64-encoded with their detected media type.
func (e *Engine) embedImage(ctx context.Context, imageURL string) (string, error) {
	if strings.HasPrefix(imageURL, "data:") {
		return imageURL, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
