package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scriptreel/editor/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg           *config.Config
	editorHandler *Editor
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, editorHandler *Editor) *Router {
	return &Router{
		cfg:           cfg,
		editorHandler: editorHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupEditorRoutes(v1)
}

// setupEditorRoutes configures editing session routes
func (rt *Router) setupEditorRoutes(g *echo.Group) {
	sessions := g.Group("/editor/sessions")

	if rt.editorHandler == nil {
		sessions.POST("", rt.notImplemented)
		sessions.GET("/:id", rt.notImplemented)
		return
	}

	sessions.POST("", rt.editorHandler.CreateSession)
	sessions.GET("/:id", rt.editorHandler.GetSession)
	sessions.DELETE("/:id", rt.editorHandler.CloseSession)
	sessions.PATCH("/:id/timeline", rt.editorHandler.UpdateTimeline)

	sessions.POST("/:id/segments", rt.editorHandler.AddSegment)
	sessions.DELETE("/:id/segments/:segmentId", rt.editorHandler.DeleteSegment)
	sessions.PATCH("/:id/segments/:segmentId/text", rt.editorHandler.UpdateSegmentText)
	sessions.POST("/:id/segments/:segmentId/split", rt.editorHandler.SplitSegment)
	sessions.POST("/:id/segments/:segmentId/regenerate", rt.editorHandler.RegenerateAsset)
	sessions.POST("/:id/reorder", rt.editorHandler.ReorderSegments)

	sessions.POST("/:id/decisions/:decisionId/confirm", rt.editorHandler.ConfirmDecision)
	sessions.DELETE("/:id/decisions/:decisionId", rt.editorHandler.CancelDecision)

	sessions.POST("/:id/sync/regenerate", rt.editorHandler.RegenerateSync)

	sessions.GET("/:id/operations/:operationId", rt.editorHandler.GetOperation)
	sessions.POST("/:id/operations/:operationId/cancel", rt.editorHandler.CancelOperation)

	sessions.GET("/:id/notifications", rt.editorHandler.DrainNotifications)
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
