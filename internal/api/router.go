package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-recipe-pipeline/docs"
	"go-recipe-pipeline/internal/api/handler"
	"go-recipe-pipeline/pkg/router"
)

// RegisterRoutes mounts all API routes. More specific routes first; the
// router dispatches in registration order.
func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/recipes/execute", h.ExecuteRecipe)
	r.GET("/api/v1/runs", h.ListRuns)
	r.GET("/api/v1/runs/*", h.GetRun)
	r.GET("/api/v1/gallery/*", h.GetGalleryItem)
	r.POST("/api/v1/webhooks/generation/*", h.GenerationWebhook)
	r.POST("/api/v1/uploads", h.Upload)
	r.GET("/api/v1/events", h.Events)
	r.GET("/files/*", h.ServeFile)
	r.GET("/swagger/*", httpSwagger.WrapHandler.ServeHTTP)
}
