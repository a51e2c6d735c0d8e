package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/kueapp/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, secret string, roles []string) string {
	claims := jwt.MapClaims{
		"user_id": "u-1",
		"email":   "u1@kueapp.local",
		"roles":   roles,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// Opening and closing sessions is admin-only; a staff token must be
// rejected at the route gate, before any handler runs.
func TestSessionOpenCloseRejectStaff(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Environment: "production", JWTSecret: "test-secret"}
	router := gin.New()
	SetupRoutes(router, nil, nil, cfg)

	token := signedToken(t, cfg.JWTSecret, []string{"staff"})
	for _, path := range []string{
		"/api/v1/sessions/abc/open",
		"/api/v1/sessions/abc/close",
	} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
}

func TestSessionOpenRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Environment: "production", JWTSecret: "test-secret"}
	router := gin.New()
	SetupRoutes(router, nil, nil, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/abc/open", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
