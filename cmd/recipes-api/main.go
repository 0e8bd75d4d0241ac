package main

import (
	"net/http"
	"time"

	"go-recipe-pipeline/internal/api"
	"go-recipe-pipeline/internal/api/handler"
	"go-recipe-pipeline/internal/config"
	"go-recipe-pipeline/internal/generation"
	"go-recipe-pipeline/internal/model"
	"go-recipe-pipeline/internal/recipe"
	"go-recipe-pipeline/internal/storage"
	"go-recipe-pipeline/internal/store"
	"go-recipe-pipeline/internal/ws"
	"go-recipe-pipeline/pkg/router"
)

// @title Recipe Pipeline API
// @version 1.0
// @description Multi-stage recipe execution pipeline for AI-assisted content generation
// @BasePath /api/v1
func main() {
	cfg := config.Load()

	// Init DB
	st, err := store.InitDB(cfg.DBPath)
	if err != nil {
		panic(err)
	}

	// Durable asset storage
	stg, err := storage.New(cfg.StorageDir, cfg.BaseURL)
	if err != nil {
		panic(err)
	}

	gen := generation.NewClient(cfg.ProviderURL, cfg.BaseURL+"/api/v1/webhooks/generation", st)

	engine := recipe.NewEngine(st, gen, stg, model.DefaultRegistry(cfg.BaseURL), cfg.BaseURL)
	engine.WaitTimeout = cfg.WaitTimeout

	h := &handler.Handler{
		Store:   st,
		Storage: stg,
		Engine:  engine,
		Webhook: &generation.WebhookProcessor{
			Store:      st,
			Storage:    stg,
			HTTPClient: &http.Client{Timeout: 60 * time.Second},
		},
		Hub: ws.NewEventHub(),
	}

	// Create router and register API routes
	r := router.New()
	api.RegisterRoutes(r, h)

	// Start server
	r.Start(cfg.Addr)
}
