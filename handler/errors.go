package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/query-retrieval/types"
	"go.uber.org/zap"
)

// HandleError maps domain errors to HTTP responses.
func HandleError(c *gin.Context, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	switch {
	case types.IsUnauthorizedError(err):
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, types.ErrorResponse{Detail: err.Error()})

	case types.IsValidationError(err):
		c.JSON(http.StatusUnprocessableEntity, types.ErrorResponse{
			Detail: err.Error(),
			Errors: types.GetErrorDetails(err),
		})

	case types.IsDispatchError(err):
		// the engine's own message is what the client sees
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Detail: err.Error()})

	default:
		logger.Error("internal server error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Detail: "Internal server error"})
	}
}
