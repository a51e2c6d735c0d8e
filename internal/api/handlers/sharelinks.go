package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/access"
	"github.com/kueapp/backend/internal/models"
)

// CreatePlayerShareLink mints a public read-only link for one player in a
// session.
func CreatePlayerShareLink(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req struct {
			PlayerID       string `json:"player_id"`
			ExpiresInHours *int   `json:"expires_in_hours"`
		}
		if err := c.BindJSON(&req); err != nil || req.PlayerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player_id required"})
			return
		}
		if _, err := access.PlayerForUser(db, scopeFrom(c), req.PlayerID); err != nil {
			respondError(c, err)
			return
		}

		var link models.ShareLink
		err = db.Get(&link, `
			INSERT INTO share_links (id, token, session_id, player_id, expires_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, token, session_id, player_id, expires_at, revoked_at, created_at
		`, uuid.New().String(), generateToken(), session.ID, req.PlayerID, expiryArg(req.ExpiresInHours))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"share_link": link})
	}
}

// CreateSessionShareLink mints a public read-only link for a whole session
// board.
func CreateSessionShareLink(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req struct {
			ExpiresInHours *int `json:"expires_in_hours"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		var link models.SessionShareLink
		err = db.Get(&link, `
			INSERT INTO session_share_links (id, token, session_id, expires_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, token, session_id, expires_at, revoked_at, created_at
		`, uuid.New().String(), generateToken(), session.ID, expiryArg(req.ExpiresInHours))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"share_link": link})
	}
}

// CreateInviteLink mints a join-invite link for a session.
func CreateInviteLink(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req struct {
			ExpiresInHours *int `json:"expires_in_hours"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		var link models.SessionInviteLink
		err = db.Get(&link, `
			INSERT INTO session_invite_links (id, token, session_id, expires_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, token, session_id, expires_at, revoked_at, created_at
		`, uuid.New().String(), generateToken(), session.ID, expiryArg(req.ExpiresInHours))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"invite_link": link})
	}
}

// ListShareLinks returns all live links of a session, grouped by kind.
func ListShareLinks(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}

		var playerLinks []models.ShareLink
		if err := db.Select(&playerLinks, `
			SELECT id, token, session_id, player_id, expires_at, revoked_at, created_at
			FROM share_links WHERE session_id = $1 AND revoked_at IS NULL ORDER BY created_at DESC
		`, session.ID); err != nil {
			respondError(c, err)
			return
		}
		var sessionLinks []models.SessionShareLink
		if err := db.Select(&sessionLinks, `
			SELECT id, token, session_id, expires_at, revoked_at, created_at
			FROM session_share_links WHERE session_id = $1 AND revoked_at IS NULL ORDER BY created_at DESC
		`, session.ID); err != nil {
			respondError(c, err)
			return
		}
		var inviteLinks []models.SessionInviteLink
		if err := db.Select(&inviteLinks, `
			SELECT id, token, session_id, expires_at, revoked_at, created_at
			FROM session_invite_links WHERE session_id = $1 AND revoked_at IS NULL ORDER BY created_at DESC
		`, session.ID); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"player_links":  playerLinks,
			"session_links": sessionLinks,
			"invite_links":  inviteLinks,
		})
	}
}

// RevokeShareLink revokes one link of any kind.
func RevokeShareLink(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Type   string `json:"type"`
			LinkID string `json:"link_id"`
		}
		if err := c.BindJSON(&req); err != nil || req.LinkID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type and link_id required"})
			return
		}

		var table string
		switch req.Type {
		case "player":
			table = "share_links"
		case "session":
			table = "session_share_links"
		case "invite":
			table = "session_invite_links"
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be player, session or invite"})
			return
		}

		scope := scopeFrom(c)
		query := `
			UPDATE ` + table + ` SET revoked_at = NOW()
			WHERE id = $1 AND revoked_at IS NULL
			  AND session_id IN (SELECT id FROM sessions`
		args := []interface{}{req.LinkID}
		if !scope.IsAdmin() {
			query += ` WHERE created_by = $2`
			args = append(args, scope.UserID)
		}
		query += `)`

		res, err := db.Exec(query, args...)
		if err != nil {
			respondError(c, err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"revoked": true})
	}
}

func expiryArg(hours *int) interface{} {
	if hours == nil || *hours <= 0 {
		return nil
	}
	return time.Now().Add(time.Duration(*hours) * time.Hour)
}
