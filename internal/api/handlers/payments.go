package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/access"
	"github.com/kueapp/backend/internal/models"
)

// PlayerBalance is one roster player's fee position: owed under the
// session's fee mode, paid from recorded payments.
type PlayerBalance struct {
	PlayerID    string  `db:"player_id" json:"player_id"`
	FullName    string  `db:"full_name" json:"full_name"`
	GamesPlayed int     `db:"games_played" json:"games_played"`
	Paid        float64 `db:"paid" json:"paid"`
	LastMethod  *string `db:"last_method" json:"last_method"`
	Owed        float64 `db:"-" json:"owed"`
	Remaining   float64 `db:"-" json:"remaining"`
}

// SessionBalances computes every roster player's owed/paid/balance. Flat
// mode charges the fee once per player; per_game multiplies by games
// played.
func SessionBalances(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		var balances []PlayerBalance
		err = db.Select(&balances, `
			SELECT sp.player_id, p.full_name, sp.games_played,
			       COALESCE((SELECT SUM(amount) FROM payments
			                 WHERE session_id = sp.session_id AND player_id = sp.player_id), 0) AS paid,
			       (SELECT method FROM payments
			        WHERE session_id = sp.session_id AND player_id = sp.player_id
			        ORDER BY created_at DESC LIMIT 1) AS last_method
			FROM session_players sp
			JOIN players p ON p.id = sp.player_id
			WHERE sp.session_id = $1
			ORDER BY p.full_name ASC
		`, session.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		for i := range balances {
			if session.FeeMode == FeeModePerGame {
				balances[i].Owed = session.FeeAmount * float64(balances[i].GamesPlayed)
			} else {
				balances[i].Owed = session.FeeAmount
			}
			// Overpayment shows as zero remaining, not a credit.
			if remaining := balances[i].Owed - balances[i].Paid; remaining > 0 {
				balances[i].Remaining = remaining
			}
		}

		c.JSON(http.StatusOK, gin.H{"fee_mode": session.FeeMode, "fee_amount": session.FeeAmount, "balances": balances})
	}
}

// RecordPayment records a fee payment against a roster player.
func RecordPayment(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req struct {
			PlayerID string  `json:"player_id"`
			Amount   float64 `json:"amount"`
			Method   string  `json:"method"`
			Note     *string `json:"note"`
		}
		if err := c.BindJSON(&req); err != nil || req.PlayerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player_id and amount required"})
			return
		}
		if req.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
			return
		}
		method := req.Method
		if method == "" {
			method = "cash"
		}

		var onRoster int
		if err := db.Get(&onRoster, `
			SELECT COUNT(*) FROM session_players WHERE session_id = $1 AND player_id = $2
		`, session.ID, req.PlayerID); err != nil {
			respondError(c, err)
			return
		}
		if onRoster == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not on session roster"})
			return
		}

		var payment models.Payment
		err = db.Get(&payment, `
			INSERT INTO payments (id, session_id, player_id, amount, method, note)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, session_id, player_id, amount, method, note, created_at
		`, uuid.New().String(), session.ID, req.PlayerID, req.Amount, method, req.Note)
		if err != nil {
			respondError(c, err)
			return
		}

		log.Printf("[PAYMENT] Recorded %.2f for player %s (session=%s)", req.Amount, req.PlayerID, session.ID)
		c.JSON(http.StatusCreated, gin.H{"payment": payment})
	}
}

// ListPayments returns the session's recorded payments, newest first.
func ListPayments(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := access.SessionForUser(db, scopeFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		var payments []models.Payment
		err = db.Select(&payments, `
			SELECT id, session_id, player_id, amount, method, note, created_at
			FROM payments WHERE session_id = $1 ORDER BY created_at DESC
		`, session.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payments": payments})
	}
}
