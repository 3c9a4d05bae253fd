package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(searcher Searcher, logger *slog.Logger) *gin.Engine {
	handler := NewHandler(searcher, logger)

	router := gin.New()
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))

	router.GET("/", handler.Status)
	router.GET("/search", handler.Search)
	router.NoRoute(handler.NotFound)

	return router
}
