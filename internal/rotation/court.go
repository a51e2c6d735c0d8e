package rotation

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/models"
)

// court occupancy states. available <-> in_match is driven by the match
// lifecycle; available <-> maintenance by explicit operator action.
const (
	CourtAvailable   = "available"
	CourtInMatch     = "in_match"
	CourtMaintenance = "maintenance"
)

// SetCourtStatus flips a court between available and maintenance for one
// session. in_match cannot be set directly, and a court that is mid-match
// cannot be touched until the match ends or is cancelled.
func SetCourtStatus(db *sqlx.DB, sessionID, courtID, status string) (*models.CourtSession, error) {
	if status != CourtAvailable && status != CourtMaintenance {
		return nil, validationf("court status must be %q or %q", CourtAvailable, CourtMaintenance)
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("begin court status tx: %w", err)
	}
	defer tx.Rollback()

	var cs models.CourtSession
	err = tx.Get(&cs, `
		SELECT id, session_id, court_id, status, current_match_id, next_match_id
		FROM court_sessions
		WHERE session_id = $1 AND court_id = $2
		FOR UPDATE
	`, sessionID, courtID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("court session", courtID)
		}
		return nil, fmt.Errorf("lock court session: %w", err)
	}

	if cs.Status == CourtInMatch {
		return nil, conflictf("court %s has an active match", courtID)
	}

	if _, err := tx.Exec(`UPDATE court_sessions SET status = $1 WHERE id = $2`, status, cs.ID); err != nil {
		return nil, fmt.Errorf("update court status: %w", err)
	}
	cs.Status = status

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit court status: %w", err)
	}

	log.Printf("[COURT] Court %s set to %s (session=%s)", courtID, status, sessionID)
	return &cs, nil
}
