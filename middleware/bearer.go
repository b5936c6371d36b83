package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/query-retrieval/types"
	"go.uber.org/zap"
)

// BearerAuth rejects any request whose Authorization header does not carry
// exactly token under the Bearer scheme.
func BearerAuth(token string, logger *zap.Logger) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			reject(c, logger, types.ErrNotAuthenticated)
			return
		}

		credential, ok := extractBearerToken(authHeader)
		if !ok || subtle.ConstantTimeCompare([]byte(credential), expected) != 1 {
			reject(c, logger, types.ErrUnauthorized)
			return
		}

		c.Next()
	}
}

// extractBearerToken splits "<scheme> <credential>"; the scheme is
// case-insensitive and the credential must not be empty.
func extractBearerToken(authHeader string) (string, bool) {
	scheme, credential, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || credential == "" {
		return "", false
	}
	return credential, true
}

func reject(c *gin.Context, logger *zap.Logger, err *types.DomainError) {
	logger.Warn("authentication failed",
		zap.String("path", c.Request.URL.Path),
		zap.String("client_ip", c.ClientIP()),
		zap.String("reason", err.Message))
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Detail: err.Message})
}
