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

// session statuses and fee modes
const (
	SessionDraft  = "draft"
	SessionOpen   = "open"
	SessionClosed = "closed"

	FeeModeFlat    = "flat"
	FeeModePerGame = "per_game"
)

// CreateSession creates a draft session owned by the caller.
func CreateSession(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name          string   `json:"name"`
			StartsAt      *string  `json:"starts_at"`
			FeeMode       string   `json:"fee_mode"`
			FeeAmount     *float64 `json:"fee_amount"`
			ReturnToQueue *bool    `json:"return_to_queue"`
		}
		if err := c.BindJSON(&req); err != nil || req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
			return
		}
		feeMode := req.FeeMode
		if feeMode == "" {
			feeMode = FeeModeFlat
		}
		if feeMode != FeeModeFlat && feeMode != FeeModePerGame {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fee_mode must be flat or per_game"})
			return
		}
		feeAmount := 0.0
		if req.FeeAmount != nil {
			feeAmount = *req.FeeAmount
		}
		returnToQueue := false
		if req.ReturnToQueue != nil {
			returnToQueue = *req.ReturnToQueue
		}

		id := uuid.New().String()
		var session models.Session
		err := db.Get(&session, `
			INSERT INTO sessions (id, created_by, name, status, starts_at, fee_mode, fee_amount, return_to_queue)
			VALUES ($1, $2, $3, 'draft', $4::timestamptz, $5, $6, $7)
			RETURNING id, created_by, name, status, starts_at, ends_at, fee_mode, fee_amount,
			          return_to_queue, announcements, closed_at, created_at
		`, id, c.GetString("user_id"), req.Name, req.StartsAt, feeMode, feeAmount, returnToQueue)
		if err != nil {
			respondError(c, err)
			return
		}

		log.Printf("[SESSION] Created draft session %s (%s)", session.ID, session.Name)
		c.JSON(http.StatusCreated, gin.H{"session": session})
	}
}

// ListSessions lists the caller's sessions, newest first.
func ListSessions(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := scopeFrom(c)
		var sessions []models.Session
		query := `
			SELECT id, created_by, name, status, starts_at, ends_at, fee_mode, fee_amount,
			       return_to_queue, announcements, closed_at, created_at
			FROM sessions`
		args := []interface{}{}
		if !scope.IsAdmin() {
			query += ` WHERE created_by = $1`
			args = append(args, scope.UserID)
		}
		query += ` ORDER BY created_at DESC`
		if err := db.Select(&sessions, query, args...); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": sessions})
	}
}

// GetActiveSession returns the caller's open session, or null.
func GetActiveSession(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := scopeFrom(c)
		var sessions []models.Session
		query := `
			SELECT id, created_by, name, status, starts_at, ends_at, fee_mode, fee_amount,
			       return_to_queue, announcements, closed_at, created_at
			FROM sessions WHERE status = 'open'`
		args := []interface{}{}
		if !scope.IsAdmin() {
			query += ` AND created_by = $1`
			args = append(args, scope.UserID)
		}
		query += ` ORDER BY created_at DESC LIMIT 1`
		if err := db.Select(&sessions, query, args...); err != nil {
			respondError(c, err)
			return
		}
		if len(sessions) == 0 {
			c.JSON(http.StatusOK, gin.H{"session": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": sessions[0]})
	}
}

// GetSession returns one session with its court board and queue.
func GetSession(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		board, err := rotation.CourtBoard(db, session.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		queue, err := rotation.ListQueue(db, session.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": session, "courts": board, "queue": queue})
	}
}

// UpdateSession patches name, announcements, return-to-queue and (while the
// session is not closed) fee settings.
func UpdateSession(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req struct {
			Name          *string  `json:"name"`
			Announcements *string  `json:"announcements"`
			ReturnToQueue *bool    `json:"return_to_queue"`
			FeeMode       *string  `json:"fee_mode"`
			FeeAmount     *float64 `json:"fee_amount"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		if req.FeeMode != nil || req.FeeAmount != nil {
			if code, msg := feePatchRejection(session.Status, scopeFrom(c).IsAdmin()); code != 0 {
				c.JSON(code, gin.H{"error": msg})
				return
			}
		}
		if req.FeeMode != nil && *req.FeeMode != FeeModeFlat && *req.FeeMode != FeeModePerGame {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fee_mode must be flat or per_game"})
			return
		}

		var updated models.Session
		err = db.Get(&updated, `
			UPDATE sessions SET
				name            = COALESCE($2, name),
				announcements   = COALESCE($3, announcements),
				return_to_queue = COALESCE($4, return_to_queue),
				fee_mode        = COALESCE($5, fee_mode),
				fee_amount      = COALESCE($6, fee_amount)
			WHERE id = $1
			RETURNING id, created_by, name, status, starts_at, ends_at, fee_mode, fee_amount,
			          return_to_queue, announcements, closed_at, created_at
		`, session.ID, req.Name, req.Announcements, req.ReturnToQueue, req.FeeMode, req.FeeAmount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": updated})
	}
}

// feePatchRejection guards fee-settings changes: admins only, and only
// while the session is open. Returns 0 when the change is allowed.
func feePatchRejection(status string, isAdmin bool) (int, string) {
	if !isAdmin {
		return http.StatusForbidden, "only admins can change fee settings"
	}
	if status != SessionOpen {
		return http.StatusConflict, "fee settings can only change while the session is open"
	}
	return 0, ""
}

// OpenSession moves a draft session to open and provisions its courts. One
// open session per owner: a second open attempt conflicts.
func OpenSession(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req struct {
			CourtIDs []string `json:"court_ids"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		tx, err := db.Beginx()
		if err != nil {
			respondError(c, err)
			return
		}
		defer tx.Rollback()

		if session.Status != SessionDraft {
			c.JSON(http.StatusConflict, gin.H{"error": "only draft sessions can be opened"})
			return
		}

		var openCount int
		err = tx.Get(&openCount, `
			SELECT COUNT(*) FROM sessions WHERE created_by = $1 AND status = 'open'
		`, session.CreatedBy.String)
		if err != nil {
			respondError(c, err)
			return
		}
		if openCount > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "another session is already open"})
			return
		}

		if _, err := tx.Exec(`UPDATE sessions SET status = 'open' WHERE id = $1`, session.ID); err != nil {
			respondError(c, err)
			return
		}

		// Provision requested courts; default to every active court the
		// caller can see.
		courtIDs := req.CourtIDs
		if len(courtIDs) == 0 {
			query := `SELECT id FROM courts WHERE deleted_at IS NULL AND active = TRUE`
			args := []interface{}{}
			if !scopeFrom(c).IsAdmin() {
				query += ` AND created_by = $1`
				args = append(args, c.GetString("user_id"))
			}
			if err := tx.Select(&courtIDs, query, args...); err != nil {
				respondError(c, err)
				return
			}
		}
		for _, courtID := range courtIDs {
			if _, err := tx.Exec(`
				INSERT INTO court_sessions (id, session_id, court_id, status)
				VALUES ($1, $2, $3, 'available')
				ON CONFLICT (session_id, court_id) DO NOTHING
			`, uuid.New().String(), session.ID, courtID); err != nil {
				respondError(c, err)
				return
			}
		}

		if err := tx.Commit(); err != nil {
			respondError(c, err)
			return
		}

		log.Printf("[SESSION] Opened session %s with %d courts", session.ID, len(courtIDs))
		c.JSON(http.StatusOK, gin.H{"opened": true, "court_ids": courtIDs})
	}
}

// CloseSession ends an open session. Active matches must be ended or
// cancelled first.
func CloseSession(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if session.Status != SessionOpen {
			c.JSON(http.StatusConflict, gin.H{"error": "only open sessions can be closed"})
			return
		}

		var activeMatches int
		if err := db.Get(&activeMatches, `
			SELECT COUNT(*) FROM matches WHERE session_id = $1 AND status = 'active'
		`, session.ID); err != nil {
			respondError(c, err)
			return
		}
		if activeMatches > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "session has active matches"})
			return
		}

		if _, err := db.Exec(`
			UPDATE sessions SET status = 'closed', closed_at = NOW(), ends_at = COALESCE(ends_at, NOW())
			WHERE id = $1
		`, session.ID); err != nil {
			respondError(c, err)
			return
		}

		log.Printf("[SESSION] Closed session %s", session.ID)
		c.JSON(http.StatusOK, gin.H{"closed": true})
	}
}

// SessionPlayers returns the session roster with player rows.
func SessionPlayers(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		type rosterRow struct {
			models.SessionPlayer
			Player models.Player `db:"player" json:"player"`
		}
		var roster []rosterRow
		err = db.Select(&roster, `
			SELECT sp.session_id, sp.player_id, sp.status, sp.games_played, sp.wins, sp.losses,
			       sp.last_played_at, sp.checked_in_at, sp.is_new_player,
			       p.id AS "player.id", p.created_by AS "player.created_by", p.full_name AS "player.full_name",
			       p.nickname AS "player.nickname", p.skill_level AS "player.skill_level",
			       p.contact AS "player.contact", p.deleted_at AS "player.deleted_at", p.created_at AS "player.created_at"
			FROM session_players sp
			JOIN players p ON p.id = sp.player_id
			WHERE sp.session_id = $1
			ORDER BY sp.checked_in_at ASC
		`, session.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"players": roster})
	}
}

// SessionRankings returns the session standings.
func SessionRankings(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		standings, err := rotation.Rankings(db, session.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rankings": standings})
	}
}
