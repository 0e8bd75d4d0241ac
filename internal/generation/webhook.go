package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"

	"go-recipe-pipeline/internal/model"
	"go-recipe-pipeline/internal/storage"
	"go-recipe-pipeline/internal/store"
)

// WebhookPayload is the provider's terminal callback for one prediction.
// Output may be a single delivery URL or an array of them.
type WebhookPayload struct {
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// WebhookProcessor turns provider callbacks into gallery row updates. The
// provider's delivery URL is transient, so the output is downloaded and
// re-uploaded to durable storage before the row is marked completed.
type WebhookProcessor struct {
	Store      *store.Store
	Storage    *storage.Storage
	HTTPClient *http.Client
}

// Process applies one provider callback to the gallery row.
func (p *WebhookProcessor) Process(ctx context.Context, galleryID string, payload WebhookPayload) error {
	switch payload.Status {
	case "succeeded":
		return p.processSuccess(ctx, galleryID, payload)
	case "failed":
		detail := payload.Error
		if detail == "" {
			detail = "generation failed"
		}
		return p.Store.UpdateItemError(ctx, galleryID, detail)
	case "canceled":
		return p.Store.UpdateItemStatus(ctx, galleryID, model.GalleryCanceled)
	default:
		// Intermediate progress callbacks just bump the status.
		return p.Store.UpdateItemStatus(ctx, galleryID, model.GalleryGenerating)
	}
}

func (p *WebhookProcessor) processSuccess(ctx context.Context, galleryID string, payload WebhookPayload) error {
	transientURL := firstOutputURL(payload.Output)
	if transientURL == "" {
		return p.Store.UpdateItemError(ctx, galleryID, "webhook succeeded with no output")
	}

	// Record the transient URL first; the waiter ignores it until the
	// durable upload lands.
	if err := p.Store.UpdateItemURL(ctx, galleryID, transientURL); err != nil {
		return err
	}

	data, contentType, err := p.download(ctx, transientURL)
	if err != nil {
		log.Printf("⚠️ Failed to download generation output for %s: %v", galleryID, err)
		return p.Store.UpdateItemError(ctx, galleryID, fmt.Sprintf("failed to persist output: %v", err))
	}

	filename := path.Base(strings.Split(transientURL, "?")[0])
	durableURL, err := p.Storage.Upload(ctx, filename, data, contentType)
	if err != nil {
		return p.Store.UpdateItemError(ctx, galleryID, fmt.Sprintf("failed to persist output: %v", err))
	}

	return p.Store.UpdateItemResult(ctx, galleryID, durableURL)
}

func (p *WebhookProcessor) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// firstOutputURL extracts the first delivery URL from a webhook output.
func firstOutputURL(output json.RawMessage) string {
	if len(output) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(output, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(output, &many); err == nil && len(many) > 0 {
		return many[0]
	}
	return ""
}
