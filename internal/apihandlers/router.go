package apihandlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine serving h. An empty allowOrigins allows
// every origin.
func NewRouter(h *APIHandler, allowOrigins []string) *gin.Engine {
	router := gin.Default() // Includes logger and recovery middleware

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowOrigins
	}
	router.Use(cors.New(corsCfg))

	router.GET("/health", h.HealthHandler)
	router.GET("/categories", h.CategoriesHandler)
	router.POST("/predict", h.PredictHandler)
	router.POST("/predict/batch", h.PredictBatchHandler)

	v1 := router.Group("/api/v1")
	{
		runs := v1.Group("/runs")
		{
			runs.GET("", h.ListRunsHandler)
			runs.POST("", h.EnqueueRunHandler)
			runs.GET("/:id", h.GetRunHandler)
		}
	}
	return router
}
