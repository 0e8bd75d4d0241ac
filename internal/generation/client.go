package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"go-recipe-pipeline/internal/model"
	"go-recipe-pipeline/internal/store"
)

// Client submits image generation requests. Each submission creates a
// pending gallery row whose id doubles as the job handle; the provider
// reports completion to the webhook, which fills the row in out-of-band.
type Client struct {
	ProviderURL string // provider's prediction endpoint
	WebhookURL  string // our callback base, gallery id appended
	HTTPClient  *http.Client
	Store       *store.Store
}

// NewClient wires a generation client against the configured provider.
func NewClient(providerURL, webhookURL string, st *store.Store) *Client {
	return &Client{
		ProviderURL: providerURL,
		WebhookURL:  webhookURL,
		HTTPClient:  &http.Client{Timeout: 60 * time.Second},
		Store:       st,
	}
}

// providerRequest is the payload sent to the generation provider.
type providerRequest struct {
	Model           string              `json:"model"`
	Prompt          string              `json:"prompt"`
	ReferenceImages []string            `json:"referenceImages,omitempty"`
	ModelSettings   model.ModelSettings `json:"modelSettings"`
	Webhook         string              `json:"webhook,omitempty"`
}

// providerResponse is the provider's acknowledgement of a submission.
type providerResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// Submit creates the gallery job record and hands the request to the
// provider. Returns the gallery id the caller can wait on.
func (c *Client) Submit(ctx context.Context, req model.GenerationRequest) (string, error) {
	galleryID := uuid.New().String()

	item := model.GalleryItem{
		ID:         galleryID,
		Status:     model.GalleryPending,
		RecipeID:   req.RecipeID,
		RecipeName: req.RecipeName,
		FolderID:   req.FolderID,
		Metadata:   model.GalleryMetadata{Extra: req.ExtraMetadata},
	}
	if err := c.Store.CreateItem(ctx, item); err != nil {
		return "", fmt.Errorf("failed to create gallery item: %w", err)
	}

	payload, _ := json.Marshal(providerRequest{
		Model:           req.Model,
		Prompt:          req.Prompt,
		ReferenceImages: req.ReferenceImages,
		ModelSettings:   req.ModelSettings,
		Webhook:         c.WebhookURL + "/" + galleryID,
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ProviderURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		_ = c.Store.UpdateItemError(ctx, galleryID, err.Error())
		return "", fmt.Errorf("generation submission failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var parsed providerResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := parsed.Error
		if detail == "" {
			detail = fmt.Sprintf("provider returned status %d", resp.StatusCode)
		}
		_ = c.Store.UpdateItemError(ctx, galleryID, detail)
		return "", fmt.Errorf("generation submission failed: %s", detail)
	}

	metadata := item.Metadata
	metadata.PredictionID = parsed.ID
	if err := c.Store.UpdateItemMetadata(ctx, galleryID, metadata); err != nil {
		return "", err
	}
	if err := c.Store.UpdateItemStatus(ctx, galleryID, model.GalleryGenerating); err != nil {
		return "", err
	}

	return galleryID, nil
}
