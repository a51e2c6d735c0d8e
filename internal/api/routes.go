package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/api/handlers"
	"github.com/kueapp/backend/internal/config"
	"github.com/kueapp/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	// No-cache headers in development so the SPA never sees stale queues
	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(db, rdb))

		// Auth endpoints (no token required)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db, rdb, cfg))
			auth.POST("/verify", handlers.VerifyEmail(db))
			auth.POST("/login", handlers.Login(db, cfg))
			auth.POST("/forgot", handlers.ForgotPassword(db, rdb, cfg))
			auth.POST("/reset", handlers.ResetPassword(db))
			auth.GET("/me", handlers.AuthMiddleware(cfg), handlers.Me(db))
		}

		// Public read-only views behind share tokens
		public := v1.Group("/public")
		{
			public.GET("/player/:token", handlers.PublicPlayerView(db, cfg))
			public.GET("/board/:token", handlers.PublicBoard(db, rdb, cfg))
			public.GET("/invite/:token", handlers.PublicInvite(db))
		}

		// Everything below requires a valid operator token
		authed := v1.Group("")
		authed.Use(handlers.AuthMiddleware(cfg))

		sessions := authed.Group("/sessions")
		{
			sessions.POST("", handlers.CreateSession(db))
			sessions.GET("", handlers.ListSessions(db))
			sessions.GET("/active", handlers.GetActiveSession(db))
			sessions.GET("/:id", handlers.GetSession(db))
			sessions.PATCH("/:id", handlers.UpdateSession(db))
			sessions.POST("/:id/open", handlers.RequireRole("admin"), handlers.OpenSession(db))
			sessions.POST("/:id/close", handlers.RequireRole("admin"), handlers.CloseSession(db))
			sessions.GET("/:id/players", handlers.SessionPlayers(db))
			sessions.POST("/:id/players/checkin", handlers.CheckInPlayer(db))
			sessions.POST("/:id/players/status", handlers.SetPlayerStatus(db))
			sessions.GET("/:id/rankings", handlers.SessionRankings(db))
			sessions.GET("/:id/queue", handlers.GetQueue(db))
			sessions.POST("/:id/queue", handlers.Enqueue(db))
			sessions.POST("/:id/queue/reorder", handlers.ReorderQueue(db))
			sessions.DELETE("/:id/queue/:entryId", handlers.RemoveQueueEntry(db))
			sessions.GET("/:id/balances", handlers.SessionBalances(db))
			sessions.GET("/:id/payments", handlers.ListPayments(db))
			sessions.POST("/:id/payments", handlers.RecordPayment(db))
		}

		courts := authed.Group("/courts")
		{
			courts.POST("", handlers.CreateCourt(db))
			courts.GET("", handlers.ListCourts(db))
			courts.PATCH("/:id", handlers.UpdateCourt(db))
			courts.DELETE("/:id", handlers.DeleteCourt(db))
			courts.POST("/:id/status", handlers.SetCourtStatus(db))
		}

		players := authed.Group("/players")
		{
			players.POST("", handlers.CreatePlayer(db))
			players.GET("", handlers.ListPlayers(db))
			players.PATCH("/:id", handlers.UpdatePlayer(db))
			players.DELETE("/:id", handlers.DeletePlayer(db))
		}

		matches := authed.Group("/matches")
		{
			matches.GET("/:sessionId/suggest", handlers.SuggestMatch(db))
			matches.POST("/:sessionId/start", handlers.StartMatch(db))
			matches.GET("/:sessionId/history", handlers.MatchHistory(db))
			matches.GET("/:sessionId/match/:matchId", handlers.GetMatch(db))
			matches.POST("/:sessionId/match/:matchId/end", handlers.EndMatch(db))
			matches.POST("/:sessionId/match/:matchId/cancel", handlers.CancelMatch(db))
			matches.PATCH("/:sessionId/match/:matchId", handlers.CorrectMatch(db))
		}

		shareLinks := authed.Group("/share-links")
		{
			shareLinks.POST("/player/:sessionId", handlers.CreatePlayerShareLink(db))
			shareLinks.POST("/session/:sessionId", handlers.CreateSessionShareLink(db))
			shareLinks.POST("/invite/:sessionId", handlers.CreateInviteLink(db))
			shareLinks.GET("/list/:sessionId", handlers.ListShareLinks(db))
			shareLinks.POST("/revoke", handlers.RevokeShareLink(db))
		}

		brackets := authed.Group("/brackets")
		{
			brackets.GET("/:sessionId", handlers.ListBracketOverrides(db))
			brackets.PUT("/:sessionId/:key", handlers.SetBracketOverride(db))
			brackets.DELETE("/:sessionId/:key", handlers.DeleteBracketOverride(db))
		}
	}
}
