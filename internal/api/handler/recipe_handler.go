package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-recipe-pipeline/internal/generation"
	"go-recipe-pipeline/internal/model"
	"go-recipe-pipeline/internal/recipe"
	"go-recipe-pipeline/internal/storage"
	"go-recipe-pipeline/internal/store"
	"go-recipe-pipeline/internal/ws"
)

// Handler carries the wired collaborators for all recipe API endpoints.
type Handler struct {
	Store   *store.Store
	Storage *storage.Storage
	Engine  *recipe.Engine
	Webhook *generation.WebhookProcessor
	Hub     *ws.EventHub
}

// ExecuteRequest is the body of POST /recipes/execute.
type ExecuteRequest struct {
	Recipe               model.Recipe      `json:"recipe"`
	FieldValues          model.FieldValues `json:"fieldValues"`
	StageReferenceImages [][]string        `json:"stageReferenceImages"`
	Model                string            `json:"model,omitempty"`
	AspectRatio          string            `json:"aspectRatio,omitempty"`
	FolderID             string            `json:"folderId,omitempty"`
	ExtraMetadata        map[string]string `json:"extraMetadata,omitempty"`
}

// ExecuteRecipe starts a recipe run
// @Summary Execute a recipe
// @Description Start a multi-stage recipe execution; the run proceeds asynchronously
// @Tags recipes
// @Accept json
// @Produce json
// @Param request body ExecuteRequest true "Recipe and field values"
// @Success 200 {object} map[string]interface{} "Run created"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /recipes/execute [post]
func (h *Handler) ExecuteRecipe(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if req.Recipe.Name == "" {
		http.Error(w, "Recipe name is required", http.StatusBadRequest)
		return
	}

	runID := uuid.New().String()
	run := model.RunRecord{
		ID:         runID,
		RecipeID:   req.Recipe.ID,
		RecipeName: req.Recipe.Name,
		Status:     "pending",
	}
	if err := h.Store.SaveRun(r.Context(), run); err != nil {
		http.Error(w, "Failed to save run", http.StatusInternalServerError)
		return
	}

	go h.executeAsync(runID, req)

	resp := map[string]interface{}{
		"message":   "Recipe execution started",
		"runId":     runID,
		"status":    "pending",
		"createdAt": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) executeAsync(runID string, req ExecuteRequest) {
	ctx := context.Background()

	_ = h.Store.UpdateRunStatus(ctx, runID, "running")

	opts := recipe.ExecuteOptions{
		Recipe:               req.Recipe,
		FieldValues:          req.FieldValues,
		StageReferenceImages: req.StageReferenceImages,
		Model:                req.Model,
		AspectRatio:          req.AspectRatio,
		FolderID:             req.FolderID,
		ExtraMetadata:        req.ExtraMetadata,
		OnProgress: func(stage, totalStages int, status string) {
			h.Hub.Broadcast(ws.Event{Type: "run_progress", Payload: map[string]interface{}{
				"runId":       runID,
				"stage":       stage,
				"totalStages": totalStages,
				"status":      status,
			}})
		},
	}

	result := h.Engine.ExecuteRecipe(ctx, opts)

	_ = h.Store.FinishRun(ctx, runID, result)
	h.Hub.Broadcast(ws.Event{Type: "run_finished", Payload: map[string]interface{}{
		"runId":  runID,
		"result": result,
	}})
}

// ListRuns retrieves all recipe runs
// @Summary List runs
// @Description Get all recipe runs with their current status
// @Tags runs
// @Produce json
// @Success 200 {array} model.RunRecord "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// GetRun retrieves a specific run
// @Summary Get run
// @Description Retrieve the status and result of one recipe run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.RunRecord "Run details"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := lastSegment(r.URL.Path)
	if runID == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	run, err := h.Store.GetRun(r.Context(), runID)
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

// GetGalleryItem retrieves a gallery job record
// @Summary Get gallery item
// @Description Retrieve one asynchronous generation job record
// @Tags gallery
// @Produce json
// @Param id path string true "Gallery ID"
// @Success 200 {object} model.GalleryItem "Gallery item"
// @Failure 404 {object} map[string]interface{} "Item not found"
// @Router /gallery/{id} [get]
func (h *Handler) GetGalleryItem(w http.ResponseWriter, r *http.Request) {
	galleryID := lastSegment(r.URL.Path)
	if galleryID == "" {
		http.Error(w, "Gallery ID is required", http.StatusBadRequest)
		return
	}

	item, err := h.Store.GetItem(r.Context(), galleryID)
	if err != nil {
		http.Error(w, "Gallery item not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

// GenerationWebhook receives the provider's terminal callback
// @Summary Generation webhook
// @Description Provider callback updating a gallery job record out-of-band
// @Tags webhooks
// @Accept json
// @Produce json
// @Param galleryId path string true "Gallery ID"
// @Success 200 {object} map[string]interface{} "Acknowledged"
// @Failure 400 {object} map[string]interface{} "Invalid payload"
// @Router /webhooks/generation/{galleryId} [post]
func (h *Handler) GenerationWebhook(w http.ResponseWriter, r *http.Request) {
	galleryID := lastSegment(r.URL.Path)
	if galleryID == "" {
		http.Error(w, "Gallery ID is required", http.StatusBadRequest)
		return
	}

	var payload generation.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if err := h.Webhook.Process(r.Context(), galleryID, payload); err != nil {
		http.Error(w, "Failed to process webhook", http.StatusInternalServerError)
		return
	}

	if item, err := h.Store.GetItem(r.Context(), galleryID); err == nil {
		h.Hub.Broadcast(ws.Event{Type: "gallery_update", Payload: item})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"received": true})
}

// Upload stores a binary asset
// @Summary Upload an asset
// @Description Persist a binary payload to durable storage and return its URL
// @Tags uploads
// @Accept octet-stream
// @Produce json
// @Param filename query string false "Original filename"
// @Success 200 {object} map[string]interface{} "Durable URL"
// @Failure 400 {object} map[string]interface{} "Empty payload"
// @Router /uploads [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		http.Error(w, "Empty payload", http.StatusBadRequest)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	filename := r.URL.Query().Get("filename")
	url, err := h.Storage.Upload(r.Context(), filename, data, contentType)
	if err != nil {
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"url": url})
}

// ServeFile serves a stored asset by object name.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := lastSegment(r.URL.Path)
	path, err := h.Storage.Open(name)
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

// Events upgrades the connection to a websocket event subscription.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	h.Hub.ServeWS(w, r)
}

func lastSegment(path string) string {
	trimmed := strings.Trim(path, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
