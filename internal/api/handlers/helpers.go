package handlers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kueapp/backend/internal/access"
	"github.com/kueapp/backend/internal/rotation"
)

// generateToken returns a 64-char hex token for share links and email flows.
func generateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Printf("Failed to read random bytes: %v", err)
	}
	return hex.EncodeToString(b)
}

// sha256Hex hashes a token for at-rest storage; raw tokens are never stored.
func sha256Hex(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// respondError maps core errors onto HTTP statuses: validation 400,
// not-found 404, conflict 409, anything else 500 with a log line.
func respondError(c *gin.Context, err error) {
	var verr *rotation.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		return
	}
	var nferr *rotation.NotFoundError
	if errors.As(err, &nferr) {
		c.JSON(http.StatusNotFound, gin.H{"error": nferr.Error()})
		return
	}
	var cerr *rotation.ConflictError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusConflict, gin.H{"error": cerr.Error()})
		return
	}
	log.Printf("Internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// scopeFrom reads the authenticated caller's identity set by AuthMiddleware.
func scopeFrom(c *gin.Context) access.Scope {
	scope := access.Scope{UserID: c.GetString("user_id")}
	if v, ok := c.Get("roles"); ok {
		if roles, ok := v.([]string); ok {
			scope.Roles = roles
		}
	}
	return scope
}
