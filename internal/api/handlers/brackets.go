package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/access"
	"github.com/kueapp/backend/internal/models"
)

// ListBracketOverrides returns the session's override ledger. Values are
// opaque JSON consumed by the external bracket feature; the server only
// stores and lists them.
func ListBracketOverrides(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}
		var overrides []models.BracketOverride
		err = db.Select(&overrides, `
			SELECT id, session_id, key, value_json, created_at, updated_at
			FROM bracket_overrides WHERE session_id = $1 ORDER BY key ASC
		`, session.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"overrides": overrides})
	}
}

// SetBracketOverride upserts one override key for the session.
func SetBracketOverride(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}
		key := c.Param("key")
		if key == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "key required"})
			return
		}

		var req struct {
			Value json.RawMessage `json:"value"`
		}
		if err := c.BindJSON(&req); err != nil || len(req.Value) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "value required"})
			return
		}

		var override models.BracketOverride
		err = db.Get(&override, `
			INSERT INTO bracket_overrides (id, session_id, key, value_json)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (session_id, key)
			DO UPDATE SET value_json = EXCLUDED.value_json, updated_at = NOW()
			RETURNING id, session_id, key, value_json, created_at, updated_at
		`, uuid.New().String(), session.ID, key, []byte(req.Value))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"override": override})
	}
}

// DeleteBracketOverride removes one override key.
func DeleteBracketOverride(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}
		res, err := db.Exec(`
			DELETE FROM bracket_overrides WHERE session_id = $1 AND key = $2
		`, session.ID, c.Param("key"))
		if err != nil {
			respondError(c, err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "override not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
