package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// NewRouter builds the public HTTP handler: the gin engine with the
// directory routes, wrapped in CORS handling for the given origins.
func NewRouter(handler *Handler, allowedOrigins []string, log *slog.Logger) http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))

	engine.GET("/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/v1")
	{
		v1.GET("/geocode", handler.Geocode)
		v1.POST("/profiles", handler.Register)
		v1.GET("/profiles/nearby", handler.Nearby)
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept"},
		MaxAge:         300,
	})

	return corsHandler.Handler(engine)
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.DebugContext(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
