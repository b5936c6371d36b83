package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/query-retrieval/middleware"
	"github.com/tieubaoca/query-retrieval/types"
	"go.uber.org/zap"
)

type RouterConfig struct {
	APIToken    string
	CorsEnabled bool
}

// NewRouter exposes POST /query behind bearer authentication.
func NewRouter(cfg RouterConfig, queryHandler *QueryHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(logger))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{Detail: "Internal server error"})
	}))
	if cfg.CorsEnabled {
		router.Use(middleware.Cors())
	}

	router.POST("/query", middleware.BearerAuth(cfg.APIToken, logger), queryHandler.HandleQuery)

	return router
}
