package api

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tcge/card-intel/backend/internal/api/handlers"
	"github.com/tcge/card-intel/backend/internal/metrics"
	"github.com/tcge/card-intel/backend/internal/services"
)

func SetupRouter(recognizer *services.Recognizer, remote *services.RemoteClassifierService, retrieval *services.RetrievalEngine, prices *services.PriceService) *gin.Engine {
	router := gin.Default()
	router.Use(metricsMiddleware())

	// CORS configuration - allow origins from environment or use defaults
	config := cors.DefaultConfig()
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = false
	router.Use(cors.New(config))

	recognizeHandler := handlers.NewRecognizeHandler(recognizer, remote, retrieval)
	cardHandler := handlers.NewCardHandler(prices)

	api := router.Group("/api")
	{
		api.POST("/recognize-card", recognizeHandler.RecognizeCard)
		api.POST("/recognize-card-cloud", recognizeHandler.RecognizeCardCloud)
		api.GET("/ai-status", recognizeHandler.GetAIStatus)

		api.GET("/search", cardHandler.SearchCards)
		api.GET("/games", cardHandler.GetGames)
		api.GET("/stats", cardHandler.GetStats)
		cards := api.Group("/cards")
		{
			cards.GET("/:id", cardHandler.GetCard)
			cards.GET("/:id/price-history", cardHandler.GetPriceHistory)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// metricsMiddleware records request counts and latency per route template.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
