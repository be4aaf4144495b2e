package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meddoc-backend/internal/documents"
	"meddoc-backend/internal/pipeline"
	"meddoc-backend/internal/review"
	"meddoc-backend/internal/shared/config"
	"meddoc-backend/internal/shared/metrics"
	"meddoc-backend/internal/shared/server/middleware"
	"meddoc-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up. Handlers are built by
// bootstrap; the router only attaches middleware and routes.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *documents.Handler
	PipelineHandler *pipeline.Handler
	ReviewHandler   *review.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	deps.DocumentHandler.RegisterRoutes(api)
	deps.PipelineHandler.RegisterRoutes(api)
	deps.ReviewHandler.RegisterRoutes(api)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
