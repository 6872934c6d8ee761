package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	sm := NewMiddleware(DefaultConfig())

	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "simple username", username: "octocat", wantErr: false},
		{name: "hyphenated username", username: "my-user-1", wantErr: false},
		{name: "single character", username: "a", wantErr: false},
		{name: "empty", username: "", wantErr: true},
		{name: "leading hyphen", username: "-octocat", wantErr: true},
		{name: "trailing hyphen", username: "octocat-", wantErr: true},
		{name: "consecutive hyphens", username: "octo--cat", wantErr: true},
		{name: "path traversal", username: "../admin", wantErr: true},
		{name: "embedded slash", username: "owner/repo", wantErr: true},
		{name: "null byte", username: "octo\x00cat", wantErr: true},
		{name: "script tag", username: "<script>alert(1)</script>", wantErr: true},
		{name: "too long", username: strings.Repeat("a", 40), wantErr: true},
		{name: "exactly max length", username: strings.Repeat("a", 39), wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sm.ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeUsername(t *testing.T) {
	sm := NewMiddleware(DefaultConfig())

	assert.Equal(t, "octocat", sm.SanitizeUsername("  octocat  "))
	assert.Equal(t, "octocat", sm.SanitizeUsername("@octocat"))
	assert.Equal(t, "octocat", sm.SanitizeUsername(" @octocat "))
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sm := NewMiddleware(DefaultConfig())
	router := gin.New()
	router.Use(sm.SecurityHeaders)
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "no HSTS over plain HTTP")
}

func TestValidateContentType(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sm := NewMiddleware(DefaultConfig())
	router := gin.New()
	router.Use(sm.ValidateContentType)
	router.POST("/analyze", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	tests := []struct {
		name        string
		contentType string
		wantCode    int
	}{
		{name: "json allowed", contentType: "application/json", wantCode: http.StatusOK},
		{name: "json with charset allowed", contentType: "application/json; charset=utf-8", wantCode: http.StatusOK},
		{name: "missing content type allowed", contentType: "", wantCode: http.StatusOK},
		{name: "xml rejected", contentType: "application/xml", wantCode: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRequestTimeoutSetsDeadline(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sm := NewMiddleware(DefaultConfig())
	router := gin.New()
	router.Use(sm.RequestTimeout)
	router.GET("/", func(c *gin.Context) {
		_, hasDeadline := c.Request.Context().Deadline()
		assert.True(t, hasDeadline)
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "30", w.Header().Get("X-Timeout"))
}
