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

// CreatePlayer creates a player owned by the caller.
func CreatePlayer(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			FullName   string  `json:"full_name"`
			Nickname   *string `json:"nickname"`
			SkillLevel *string `json:"skill_level"`
			Contact    *string `json:"contact"`
		}
		if err := c.BindJSON(&req); err != nil || req.FullName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "full_name required"})
			return
		}

		var player models.Player
		err := db.Get(&player, `
			INSERT INTO players (id, created_by, full_name, nickname, skill_level, contact)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_by, full_name, nickname, skill_level, contact, deleted_at, created_at
		`, uuid.New().String(), c.GetString("user_id"), req.FullName, req.Nickname, req.SkillLevel, req.Contact)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"player": player})
	}
}

// ListPlayers lists the caller's non-deleted players.
func ListPlayers(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := scopeFrom(c)
		var players []models.Player
		query := `
			SELECT id, created_by, full_name, nickname, skill_level, contact, deleted_at, created_at
			FROM players WHERE deleted_at IS NULL`
		args := []interface{}{}
		if !scope.IsAdmin() {
			query += ` AND created_by = $1`
			args = append(args, scope.UserID)
		}
		query += ` ORDER BY full_name ASC`
		if err := db.Select(&players, query, args...); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"players": players})
	}
}

// UpdatePlayer patches player profile fields.
func UpdatePlayer(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		player, err := access.PlayerForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req struct {
			FullName   *string `json:"full_name"`
			Nickname   *string `json:"nickname"`
			SkillLevel *string `json:"skill_level"`
			Contact    *string `json:"contact"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		var updated models.Player
		err = db.Get(&updated, `
			UPDATE players SET
				full_name   = COALESCE($2, full_name),
				nickname    = COALESCE($3, nickname),
				skill_level = COALESCE($4, skill_level),
				contact     = COALESCE($5, contact)
			WHERE id = $1
			RETURNING id, created_by, full_name, nickname, skill_level, contact, deleted_at, created_at
		`, player.ID, req.FullName, req.Nickname, req.SkillLevel, req.Contact)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"player": updated})
	}
}

// DeletePlayer soft-deletes a player.
func DeletePlayer(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		player, err := access.PlayerForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if _, err := db.Exec(`UPDATE players SET deleted_at = NOW() WHERE id = $1`, player.ID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// CheckInPlayer adds (or re-activates) a player on a session roster.
// Re-checking-in an away or done player flips them back to checked_in
// without resetting stats.
func CheckInPlayer(db *sqlx.DB) gin.HandlerFunc {
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
			PlayerID    string `json:"player_id"`
			IsNewPlayer bool   `json:"is_new_player"`
		}
		if err := c.BindJSON(&req); err != nil || req.PlayerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player_id required"})
			return
		}
		if _, err := access.PlayerForUser(db, scopeFrom(c), req.PlayerID); err != nil {
			respondError(c, err)
			return
		}

		var sp models.SessionPlayer
		err = db.Get(&sp, `
			INSERT INTO session_players (session_id, player_id, status, is_new_player)
			VALUES ($1, $2, 'checked_in', $3)
			ON CONFLICT (session_id, player_id)
			DO UPDATE SET status = 'checked_in'
			RETURNING session_id, player_id, status, games_played, wins, losses, last_played_at, checked_in_at, is_new_player
		`, session.ID, req.PlayerID, req.IsNewPlayer)
		if err != nil {
			respondError(c, err)
			return
		}

		log.Printf("[SESSION] Player %s checked in (session=%s)", req.PlayerID, session.ID)
		c.JSON(http.StatusOK, gin.H{"session_player": sp})
	}
}

// SetPlayerStatus moves a roster player between checked_in, present, away
// and done. A player in an active match cannot change status.
func SetPlayerStatus(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req struct {
			PlayerID string `json:"player_id"`
			Status   string `json:"status"`
		}
		if err := c.BindJSON(&req); err != nil || req.PlayerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player_id and status required"})
			return
		}
		switch req.Status {
		case rotation.PlayerCheckedIn, rotation.PlayerPresent, rotation.PlayerAway, rotation.PlayerDone:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}

		active, err := rotation.ActiveMatchForPlayer(db, session.ID, req.PlayerID)
		if err != nil {
			respondError(c, err)
			return
		}
		if active != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "player is in an active match"})
			return
		}

		res, err := db.Exec(`
			UPDATE session_players SET status = $3 WHERE session_id = $1 AND player_id = $2
		`, session.ID, req.PlayerID, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not on session roster"})
			return
		}

		// Queued entries are left alone; an away player just makes their
		// entries ineligible until removed or checked back in.
		c.JSON(http.StatusOK, gin.H{"updated": true})
	}
}
