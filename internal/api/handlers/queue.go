package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/access"
	"github.com/kueapp/backend/internal/rotation"
)

// GetQueue lists the session's queued entries in play order.
func GetQueue(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		entries, err := rotation.ListQueue(db, session.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"queue": entries})
	}
}

// Enqueue appends a singles or doubles entry to the session queue.
func Enqueue(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if session.Status != SessionOpen {
			c.JSON(http.StatusConflict, gin.H{"error": "session is not open"})
			return
		}

		var req struct {
			Type      string   `json:"type"`
			PlayerIDs []string `json:"player_ids"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type and player_ids required"})
			return
		}

		entry, err := rotation.Enqueue(db, session.ID, req.Type, req.PlayerIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"entry": entry})
	}
}

// RemoveQueueEntry takes an entry out of the queue.
func RemoveQueueEntry(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if err := rotation.Remove(db, session.ID, c.Param("entryId")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": true})
	}
}

// ReorderQueue rewrites queue positions to the supplied entry order and
// switches the queue to manual ordering.
func ReorderQueue(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req struct {
			OrderedEntryIDs []string `json:"ordered_entry_ids"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ordered_entry_ids required"})
			return
		}

		if err := rotation.Reorder(db, session.ID, req.OrderedEntryIDs); err != nil {
			respondError(c, err)
			return
		}
		entries, err := rotation.ListQueue(db, session.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"queue": entries})
	}
}
