package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/access"
	"github.com/kueapp/backend/internal/rotation"
)

// SuggestMatch proposes the next two entries to play. Read-only: nothing
// is claimed until start.
func SuggestMatch(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}
		matchType := c.DefaultQuery("type", rotation.MatchTypeDoubles)

		suggestion, err := rotation.Suggest(db, session.ID, matchType)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"suggestion": suggestion})
	}
}

// StartMatch starts a match on an available court from explicit teams.
func StartMatch(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req struct {
			CourtSessionID string     `json:"court_session_id"`
			MatchType      string     `json:"match_type"`
			Teams          [][]string `json:"teams"`
			EntryIDs       []string   `json:"entry_ids"`
		}
		if err := c.BindJSON(&req); err != nil || req.CourtSessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "court_session_id, match_type and teams required"})
			return
		}

		match, err := rotation.StartMatch(db, session.ID, req.CourtSessionID, req.MatchType, req.Teams, req.EntryIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"match": match})
	}
}

// EndMatch finishes an active match with an optional score and winner.
func EndMatch(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req struct {
			Score      json.RawMessage `json:"score"`
			WinnerTeam *int            `json:"winner_team"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		if err := rotation.EndMatch(db, session.ID, c.Param("matchId"), req.Score, req.WinnerTeam); err != nil {
			respondError(c, err)
			return
		}
		match, err := rotation.GetMatch(db, session.ID, c.Param("matchId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"match": match})
	}
}

// CancelMatch voids an active match without stat changes.
func CancelMatch(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}
		if err := rotation.CancelMatch(db, session.ID, c.Param("matchId")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cancelled": true})
	}
}

// CorrectMatch amends an ended match's score and/or winner. A winner_team
// key present with a null value clears the winner; an absent key leaves it
// alone — hence the raw-body pass to tell the two apart.
func CorrectMatch(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}

		var raw map[string]json.RawMessage
		if err := c.BindJSON(&raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		var patch rotation.ResultPatch
		if v, ok := raw["score"]; ok {
			patch.ScoreSet = true
			if string(v) != "null" {
				patch.Score = v
			}
		}
		if v, ok := raw["winner_team"]; ok {
			patch.WinnerSet = true
			if string(v) != "null" {
				var team int
				if err := json.Unmarshal(v, &team); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "winner_team must be 1, 2 or null"})
					return
				}
				patch.Winner = &team
			}
		}

		if err := rotation.CorrectResult(db, session.ID, c.Param("matchId"), patch); err != nil {
			respondError(c, err)
			return
		}
		match, err := rotation.GetMatch(db, session.ID, c.Param("matchId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"match": match})
	}
}

// GetMatch returns one match with participants.
func GetMatch(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}
		match, err := rotation.GetMatch(db, session.ID, c.Param("matchId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"match": match})
	}
}

// MatchHistory returns the session's ended and cancelled matches.
func MatchHistory(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("sessionId"))
		if err != nil {
			respondError(c, err)
			return
		}
		matches, err := rotation.MatchHistory(db, session.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"matches": matches})
	}
}
