// Package api assembles the HTTP router.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mirahq/ingest-manager/internal/handlers"
	"github.com/mirahq/ingest-manager/internal/logger"
)

const corsMaxAgeHours = 12

// Deps carries everything the router mounts.
type Deps struct {
	Sources      *handlers.SourceHandler
	Uploads      *handlers.UploadHandler
	Registry     *prometheus.Registry
	AllowOrigins []string
	Logger       logger.Logger
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowOrigins: deps.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"X-CSRF-Token", "Authorization", "accept", "origin",
			"Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}))

	router.Use(ginLogger(deps.Logger))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")

	sources := v1.Group("/sources")
	sources.POST("/website", deps.Sources.CreateWebsite)
	sources.POST("/document", deps.Uploads.CreateDocument)
	sources.POST("/sheet", deps.Uploads.CreateSheet)
	sources.GET("", deps.Sources.List)
	sources.GET("/:id", deps.Sources.GetByID)
	sources.DELETE("/:id", deps.Sources.Delete)
	sources.GET("/:id/items", deps.Sources.ListItems)
	sources.PUT("/:id/selection", deps.Sources.UpdateSelection)
	sources.POST("/:id/queue", deps.Sources.Queue)
	sources.GET("/:id/progress", deps.Sources.Progress)
	sources.GET("/:id/tags", deps.Sources.ListTags)

	return router
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", c.Writer.Status()),
			logger.String("client_ip", c.ClientIP()),
			logger.Duration("duration", time.Since(start)),
		)
	}
}
