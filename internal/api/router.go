// Package api wires the HTTP routes.
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/config"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/handlers"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/logger"
)

const corsMaxAgeHours = 12

// NewRouter assembles the gin engine with middleware and all routes.
func NewRouter(
	cfg *config.Config,
	analysisHandler *handlers.AnalysisHandler,
	worksHandler *handlers.WorksHandler,
	log logger.Logger,
) *gin.Engine {
	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"Authorization", "accept", "origin", "Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}))

	// Middleware
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", handlers.Health)

	// API v1
	v1 := router.Group("/api/v1")

	works := v1.Group("/works")
	works.GET("", worksHandler.List)
	works.POST("/import", worksHandler.Import)

	analysis := v1.Group("/analysis")
	analysis.POST("/start", analysisHandler.Start)
	analysis.GET("/progress", analysisHandler.Progress)
	analysis.GET("/results", analysisHandler.Results)
	analysis.POST("/save", analysisHandler.Save)

	v1.GET("/summary", analysisHandler.Summary)
	v1.GET("/trends", analysisHandler.Trends)

	return router
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", statusCode),
			logger.String("client_ip", c.ClientIP()),
			logger.Duration("duration", duration),
		)
	}
}
