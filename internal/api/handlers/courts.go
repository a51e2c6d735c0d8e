package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/access"
	"github.com/kueapp/backend/internal/models"
	"github.com/kueapp/backend/internal/rotation"
)

// CreateCourt creates a court owned by the caller.
func CreateCourt(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name  string  `json:"name"`
			Notes *string `json:"notes"`
		}
		if err := c.BindJSON(&req); err != nil || req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
			return
		}

		var court models.Court
		err := db.Get(&court, `
			INSERT INTO courts (id, created_by, name, notes, active)
			VALUES ($1, $2, $3, $4, TRUE)
			RETURNING id, created_by, name, notes, active, deleted_at, created_at
		`, uuid.New().String(), c.GetString("user_id"), req.Name, req.Notes)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"court": court})
	}
}

// ListCourts lists the caller's non-deleted courts.
func ListCourts(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := scopeFrom(c)
		var courts []models.Court
		query := `
			SELECT id, created_by, name, notes, active, deleted_at, created_at
			FROM courts WHERE deleted_at IS NULL`
		args := []interface{}{}
		if !scope.IsAdmin() {
			query += ` AND created_by = $1`
			args = append(args, scope.UserID)
		}
		query += ` ORDER BY name ASC`
		if err := db.Select(&courts, query, args...); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"courts": courts})
	}
}

// UpdateCourt patches name, notes and the active flag.
func UpdateCourt(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		court, err := access.CourtForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req struct {
			Name   *string `json:"name"`
			Notes  *string `json:"notes"`
			Active *bool   `json:"active"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		var updated models.Court
		err = db.Get(&updated, `
			UPDATE courts SET
				name   = COALESCE($2, name),
				notes  = COALESCE($3, notes),
				active = COALESCE($4, active)
			WHERE id = $1
			RETURNING id, created_by, name, notes, active, deleted_at, created_at
		`, court.ID, req.Name, req.Notes, req.Active)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"court": updated})
	}
}

// DeleteCourt soft-deletes a court. A court with an active match cannot be
// deleted.
func DeleteCourt(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		court, err := access.CourtForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		var inMatch int
		err = db.Get(&inMatch, `
			SELECT COUNT(*) FROM court_sessions WHERE court_id = $1 AND status = 'in_match'
		`, court.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if inMatch > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "court has an active match"})
			return
		}

		if _, err := db.Exec(`UPDATE courts SET deleted_at = NOW() WHERE id = $1`, court.ID); err != nil {
			respondError(c, err)
			return
		}
		log.Printf("[COURT] Deleted court %s", court.ID)
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// SetCourtStatus flips a court between available and maintenance within a
// session.
func SetCourtStatus(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		court, err := access.CourtForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req struct {
			SessionID string `json:"session_id"`
			Status    string `json:"status"`
		}
		if err := c.BindJSON(&req); err != nil || req.SessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and status required"})
			return
		}
		if _, err := access.SessionForUser(db, scopeFrom(c), req.SessionID); err != nil {
			respondError(c, err)
			return
		}

		cs, err := rotation.SetCourtStatus(db, req.SessionID, court.ID, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"court_session": cs})
	}
}
