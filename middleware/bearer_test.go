package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newAuthRouter(token string) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)
	reached := false
	router := gin.New()
	router.Use(BearerAuth(token, zap.NewNop()))
	router.POST("/query", func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})
	return router, &reached
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantDetail string
	}{
		{"valid token", "Bearer secret-token", http.StatusOK, ""},
		{"lowercase scheme", "bearer secret-token", http.StatusOK, ""},
		{"wrong token", "Bearer other", http.StatusUnauthorized, "Invalid authentication token"},
		{"case variant token", "Bearer SECRET-TOKEN", http.StatusUnauthorized, "Invalid authentication token"},
		{"truncated token", "Bearer secret-toke", http.StatusUnauthorized, "Invalid authentication token"},
		{"empty credential", "Bearer ", http.StatusUnauthorized, "Invalid authentication token"},
		{"scheme only", "Bearer", http.StatusUnauthorized, "Invalid authentication token"},
		{"basic scheme", "Basic secret-token", http.StatusUnauthorized, "Invalid authentication token"},
		{"missing header", "", http.StatusUnauthorized, "Not authenticated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, reached := newAuthRouter("secret-token")

			req := httptest.NewRequest(http.MethodPost, "/query", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.True(t, *reached)
				return
			}
			assert.False(t, *reached)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			assert.JSONEq(t, `{"detail":"`+tt.wantDetail+`"}`, w.Body.String())
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	token, ok := extractBearerToken("BEARER abc def")
	assert.True(t, ok)
	assert.Equal(t, "abc def", token)

	_, ok = extractBearerToken("Token abc")
	assert.False(t, ok)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Logger(zap.NewNop()))
	var seen string
	router.GET("/", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", seen)
}

func TestCors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Cors())
	router.POST("/query", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/query", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
