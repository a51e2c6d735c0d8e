package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/access"
	"github.com/kueapp/backend/internal/config"
	"github.com/kueapp/backend/internal/models"
	"github.com/kueapp/backend/internal/rotation"
	"github.com/redis/go-redis/v9"
)

// PublicPlayerView serves the read-only player view behind a share-link
// token: queue position, rough wait estimate, active match and stats.
func PublicPlayerView(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := access.PlayerShareLink(db, c.Param("token"))
		if err != nil {
			respondError(c, err)
			return
		}

		var session models.Session
		if err := db.Get(&session, `
			SELECT id, created_by, name, status, starts_at, ends_at, fee_mode, fee_amount,
			       return_to_queue, announcements, closed_at, created_at
			FROM sessions WHERE id = $1
		`, link.SessionID); err != nil {
			respondError(c, err)
			return
		}

		var player models.Player
		if err := db.Get(&player, `
			SELECT id, created_by, full_name, nickname, skill_level, contact, deleted_at, created_at
			FROM players WHERE id = $1
		`, link.PlayerID); err != nil {
			respondError(c, err)
			return
		}

		queue, err := rotation.ListQueue(db, link.SessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		queuePosition := 0
		for i, entry := range queue {
			for _, p := range entry.Players {
				if p.ID == link.PlayerID {
					queuePosition = i + 1
					break
				}
			}
			if queuePosition > 0 {
				break
			}
		}

		estimatedWait := 0
		if queuePosition > 0 {
			estimatedWait = (queuePosition - 1) * cfg.WaitEstimateMinutes
		}

		activeMatch, err := rotation.ActiveMatchForPlayer(db, link.SessionID, link.PlayerID)
		if err != nil {
			respondError(c, err)
			return
		}

		var stats models.SessionPlayer
		statsFound := true
		if err := db.Get(&stats, `
			SELECT session_id, player_id, status, games_played, wins, losses, last_played_at, checked_in_at, is_new_player
			FROM session_players WHERE session_id = $1 AND player_id = $2
		`, link.SessionID, link.PlayerID); err != nil {
			statsFound = false
		}

		resp := gin.H{
			"session": gin.H{
				"id":            session.ID,
				"name":          session.Name,
				"status":        session.Status,
				"announcements": session.Announcements,
			},
			"player":                 gin.H{"id": player.ID, "full_name": player.FullName, "nickname": player.Nickname},
			"queue_position":         queuePosition,
			"up_next":                queuePosition == 1 || queuePosition == 2,
			"estimated_wait_minutes": estimatedWait,
			"active_match":           activeMatch,
		}
		if statsFound {
			resp["stats"] = gin.H{
				"games_played": stats.GamesPlayed,
				"wins":         stats.Wins,
				"losses":       stats.Losses,
				"status":       stats.Status,
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// PublicBoard serves the read-only session board behind a session share
// token. The rendered board is cached in Redis for a few seconds since
// spectator screens poll it.
func PublicBoard(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := access.SessionShareLinkByToken(db, c.Param("token"))
		if err != nil {
			respondError(c, err)
			return
		}

		ctx := context.Background()
		cacheKey := "public_board:" + link.SessionID
		if rdb != nil && cfg.BoardCacheSeconds > 0 {
			if cached, err := rdb.Get(ctx, cacheKey).Result(); err == nil {
				c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
				return
			}
		}

		var session models.Session
		if err := db.Get(&session, `
			SELECT id, created_by, name, status, starts_at, ends_at, fee_mode, fee_amount,
			       return_to_queue, announcements, closed_at, created_at
			FROM sessions WHERE id = $1
		`, link.SessionID); err != nil {
			respondError(c, err)
			return
		}
		board, err := rotation.CourtBoard(db, link.SessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		queue, err := rotation.ListQueue(db, link.SessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		standings, err := rotation.Rankings(db, link.SessionID)
		if err != nil {
			respondError(c, err)
			return
		}

		resp := gin.H{
			"session": gin.H{
				"id":            session.ID,
				"name":          session.Name,
				"status":        session.Status,
				"announcements": session.Announcements,
			},
			"courts":   board,
			"queue":    queue,
			"rankings": standings,
		}

		if rdb != nil && cfg.BoardCacheSeconds > 0 {
			if b, err := json.Marshal(resp); err == nil {
				rdb.Set(ctx, cacheKey, b, time.Duration(cfg.BoardCacheSeconds)*time.Second)
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// PublicInvite resolves an invite token to basic session info so the
// landing page can show what is being joined.
func PublicInvite(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := access.InviteLinkByToken(db, c.Param("token"))
		if err != nil {
			respondError(c, err)
			return
		}

		var session models.Session
		if err := db.Get(&session, `
			SELECT id, created_by, name, status, starts_at, ends_at, fee_mode, fee_amount,
			       return_to_queue, announcements, closed_at, created_at
			FROM sessions WHERE id = $1
		`, link.SessionID); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"session": gin.H{
			"id":        session.ID,
			"name":      session.Name,
			"status":    session.Status,
			"starts_at": session.StartsAt,
		}})
	}
}
