package rotation

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/models"
	"github.com/lib/pq"
)

// match statuses
const (
	MatchActive    = "active"
	MatchEnded     = "ended"
	MatchCancelled = "cancelled"
)

// ResultPatch carries a result correction. Set flags distinguish "field
// not supplied" from an explicit null: clearing the winner is a valid
// correction that still reverses the previous team's deltas.
type ResultPatch struct {
	Score     json.RawMessage
	ScoreSet  bool
	Winner    *int
	WinnerSet bool
}

// winnerTransition resolves a recorded-winner change into the team whose
// win/loss deltas must be reversed and the team whose deltas must be
// applied. nil means "no winner". The four real cases (none->1, none->2,
// 1->2, 2->1) and their inverses all reduce to reverse-prev then
// apply-next; an unchanged winner is a stat no-op even if the score moved.
func winnerTransition(prev, next *int) (reverse, apply *int) {
	if prev == nil && next == nil {
		return nil, nil
	}
	if prev != nil && next != nil && *prev == *next {
		return nil, nil
	}
	return prev, next
}

// StartMatch creates an active match on an available court, consuming the
// given queue entries (or, with none supplied, any queued entries sharing a
// player with the match). The whole operation is one transaction; the
// court row is locked and the transition to in_match is a guarded
// conditional update, so two concurrent starts on one court cannot both
// succeed.
func StartMatch(db *sqlx.DB, sessionID, courtSessionID, matchType string, teams [][]string, entryIDs []string) (*models.Match, error) {
	size, err := teamSize(matchType)
	if err != nil {
		return nil, err
	}
	if len(teams) != 2 {
		return nil, validationf("exactly 2 teams required, got %d", len(teams))
	}
	for i, team := range teams {
		if len(team) != size {
			return nil, validationf("%s requires %d player(s) per team, team %d has %d", matchType, size, i+1, len(team))
		}
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("begin start tx: %w", err)
	}
	defer tx.Rollback()

	var cs models.CourtSession
	err = tx.Get(&cs, `
		SELECT id, session_id, court_id, status, current_match_id, next_match_id
		FROM court_sessions
		WHERE id = $1 AND session_id = $2
		FOR UPDATE
	`, courtSessionID, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("court session", courtSessionID)
		}
		return nil, fmt.Errorf("lock court session: %w", err)
	}
	if cs.Status != CourtAvailable {
		return nil, conflictf("court session %s is %s, not available", courtSessionID, cs.Status)
	}

	matchID := uuid.New().String()
	var match models.Match
	err = tx.Get(&match, `
		INSERT INTO matches (id, session_id, court_session_id, status, match_type)
		VALUES ($1, $2, $3, 'active', $4)
		RETURNING id, session_id, court_session_id, status, match_type, started_at, ended_at, score_json, winner_team
	`, matchID, sessionID, courtSessionID, matchType)
	if err != nil {
		return nil, fmt.Errorf("insert match: %w", err)
	}

	allPlayers := make([]string, 0, 2*size)
	for teamIdx, team := range teams {
		for _, playerID := range team {
			if _, err := tx.Exec(`
				INSERT INTO match_participants (match_id, player_id, team_number) VALUES ($1, $2, $3)
			`, matchID, playerID, teamIdx+1); err != nil {
				return nil, fmt.Errorf("insert participant: %w", err)
			}
			allPlayers = append(allPlayers, playerID)
		}
	}

	// Guarded claim; the FOR UPDATE above already serializes competing
	// starts, the status condition keeps the transition honest.
	res, err := tx.Exec(`
		UPDATE court_sessions SET status = 'in_match', current_match_id = $1
		WHERE id = $2 AND status = 'available'
	`, matchID, courtSessionID)
	if err != nil {
		return nil, fmt.Errorf("claim court session: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, conflictf("court session %s is no longer available", courtSessionID)
	}

	if len(entryIDs) > 0 {
		if _, err := tx.Exec(`
			UPDATE queue_entries SET status = 'assigned'
			WHERE session_id = $1 AND status = 'queued' AND id = ANY($2)
		`, sessionID, pq.Array(entryIDs)); err != nil {
			return nil, fmt.Errorf("assign queue entries: %w", err)
		}
	} else {
		// Fallback: consume queued entries by player membership.
		if _, err := tx.Exec(`
			UPDATE queue_entries SET status = 'assigned'
			WHERE session_id = $1 AND status = 'queued' AND id IN (
				SELECT entry_id FROM queue_entry_players WHERE player_id = ANY($2)
			)
		`, sessionID, pq.Array(allPlayers)); err != nil {
			return nil, fmt.Errorf("assign queue entries by players: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit start: %w", err)
	}

	log.Printf("[MATCH] Started %s match %s on court session %s (session=%s)", matchType, matchID, courtSessionID, sessionID)
	return &match, nil
}

// EndMatch finishes an active match: stores score/winner, frees the court,
// bumps games_played and last_played_at for every participant and puts
// them back to checked_in (no automatic requeue). A winner of 1 or 2 adds
// a win to that team and a loss to the other; no winner, no deltas.
func EndMatch(db *sqlx.DB, sessionID, matchID string, score json.RawMessage, winnerTeam *int) error {
	if winnerTeam != nil && *winnerTeam != 1 && *winnerTeam != 2 {
		return validationf("winner team must be 1 or 2, got %d", *winnerTeam)
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("begin end tx: %w", err)
	}
	defer tx.Rollback()

	match, err := lockMatch(tx, sessionID, matchID)
	if err != nil {
		return err
	}
	if match.Status != MatchActive {
		return conflictf("match %s is %s, not active", matchID, match.Status)
	}

	var scoreArg interface{}
	if score != nil {
		scoreArg = []byte(score)
	}
	var winnerArg interface{}
	if winnerTeam != nil {
		winnerArg = *winnerTeam
	}
	if _, err := tx.Exec(`
		UPDATE matches
		SET status = 'ended', ended_at = NOW(), score_json = COALESCE($2, score_json), winner_team = $3
		WHERE id = $1
	`, matchID, scoreArg, winnerArg); err != nil {
		return fmt.Errorf("end match: %w", err)
	}

	participants, err := matchParticipants(tx, matchID)
	if err != nil {
		return err
	}

	if match.CourtSessionID.Valid {
		if err := releaseCourt(tx, match.CourtSessionID.String); err != nil {
			return err
		}
	}

	playerIDs := make([]string, 0, len(participants))
	for _, p := range participants {
		playerIDs = append(playerIDs, p.PlayerID)
	}
	if _, err := tx.Exec(`
		UPDATE session_players
		SET games_played = games_played + 1, last_played_at = NOW(), status = 'checked_in'
		WHERE session_id = $1 AND player_id = ANY($2)
	`, sessionID, pq.Array(playerIDs)); err != nil {
		return fmt.Errorf("update participant stats: %w", err)
	}

	if winnerTeam != nil {
		if err := adjustWinLoss(tx, sessionID, participants, *winnerTeam, 1); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit end: %w", err)
	}

	log.Printf("[MATCH] Ended match %s (session=%s winner=%v)", matchID, sessionID, winnerTeam)
	return nil
}

// CancelMatch voids an active match: the court frees up and no stats move.
// When the session's return-to-queue flag is set, each original team is
// re-inserted as a brand-new queue entry appended after the current tail,
// in team order; consumed entries stay assigned.
func CancelMatch(db *sqlx.DB, sessionID, matchID string) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("begin cancel tx: %w", err)
	}
	defer tx.Rollback()

	match, err := lockMatch(tx, sessionID, matchID)
	if err != nil {
		return err
	}
	if match.Status != MatchActive {
		return conflictf("match %s is %s, not active", matchID, match.Status)
	}

	if _, err := tx.Exec(`
		UPDATE matches SET status = 'cancelled', ended_at = NOW() WHERE id = $1
	`, matchID); err != nil {
		return fmt.Errorf("cancel match: %w", err)
	}

	if match.CourtSessionID.Valid {
		if err := releaseCourt(tx, match.CourtSessionID.String); err != nil {
			return err
		}
	}

	// Lock the session row: the requeue below reads then extends the
	// position counter.
	var returnToQueue bool
	err = tx.Get(&returnToQueue, `SELECT return_to_queue FROM sessions WHERE id = $1 FOR UPDATE`, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return notFound("session", sessionID)
		}
		return fmt.Errorf("load session: %w", err)
	}

	if returnToQueue {
		participants, err := matchParticipants(tx, matchID)
		if err != nil {
			return err
		}
		teams := [2][]string{}
		for _, p := range participants {
			if p.TeamNumber == 1 || p.TeamNumber == 2 {
				teams[p.TeamNumber-1] = append(teams[p.TeamNumber-1], p.PlayerID)
			}
		}

		var maxPos int
		if err := tx.Get(&maxPos, `SELECT COALESCE(MAX(position), 0) FROM queue_entries WHERE session_id = $1`, sessionID); err != nil {
			return fmt.Errorf("read max position: %w", err)
		}

		position := maxPos
		for _, team := range teams {
			if len(team) == 0 {
				continue
			}
			position++
			entryID := uuid.New().String()
			if _, err := tx.Exec(`
				INSERT INTO queue_entries (id, session_id, type, status, position)
				VALUES ($1, $2, $3, 'queued', $4)
			`, entryID, sessionID, match.MatchType, position); err != nil {
				return fmt.Errorf("requeue cancelled team: %w", err)
			}
			for _, playerID := range team {
				if _, err := tx.Exec(`INSERT INTO queue_entry_players (entry_id, player_id) VALUES ($1, $2)`, entryID, playerID); err != nil {
					return fmt.Errorf("requeue cancelled team player: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cancel: %w", err)
	}

	log.Printf("[MATCH] Cancelled match %s (session=%s requeue=%v)", matchID, sessionID, returnToQueue)
	return nil
}

// CorrectResult amends an ended match's score/winner. Stat deltas are
// recomputed symmetrically: reverse the previous winner's deltas, then
// apply the new winner's. Only ended matches can be corrected.
func CorrectResult(db *sqlx.DB, sessionID, matchID string, patch ResultPatch) error {
	if patch.WinnerSet && patch.Winner != nil && *patch.Winner != 1 && *patch.Winner != 2 {
		return validationf("winner team must be 1, 2 or null, got %d", *patch.Winner)
	}
	if !patch.ScoreSet && !patch.WinnerSet {
		return validationf("no corrections supplied")
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("begin correct tx: %w", err)
	}
	defer tx.Rollback()

	match, err := lockMatch(tx, sessionID, matchID)
	if err != nil {
		return err
	}
	if match.Status != MatchEnded {
		return conflictf("match %s is %s; only ended matches can be corrected", matchID, match.Status)
	}

	var prev *int
	if match.WinnerTeam.Valid {
		v := int(match.WinnerTeam.Int64)
		prev = &v
	}
	next := prev
	if patch.WinnerSet {
		next = patch.Winner
	}

	reverse, apply := winnerTransition(prev, next)
	if reverse != nil || apply != nil {
		participants, err := matchParticipants(tx, matchID)
		if err != nil {
			return err
		}
		if reverse != nil {
			if err := adjustWinLoss(tx, sessionID, participants, *reverse, -1); err != nil {
				return err
			}
		}
		if apply != nil {
			if err := adjustWinLoss(tx, sessionID, participants, *apply, 1); err != nil {
				return err
			}
		}
	}

	if patch.WinnerSet {
		var winnerArg interface{}
		if next != nil {
			winnerArg = *next
		}
		if _, err := tx.Exec(`UPDATE matches SET winner_team = $2 WHERE id = $1`, matchID, winnerArg); err != nil {
			return fmt.Errorf("update winner: %w", err)
		}
	}
	if patch.ScoreSet {
		var scoreArg interface{}
		if patch.Score != nil {
			scoreArg = []byte(patch.Score)
		}
		if _, err := tx.Exec(`UPDATE matches SET score_json = $2 WHERE id = $1`, matchID, scoreArg); err != nil {
			return fmt.Errorf("update score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit correct: %w", err)
	}

	log.Printf("[MATCH] Corrected result for match %s (session=%s)", matchID, sessionID)
	return nil
}

// lockMatch loads a session's match FOR UPDATE.
func lockMatch(tx *sqlx.Tx, sessionID, matchID string) (*models.Match, error) {
	var m models.Match
	err := tx.Get(&m, `
		SELECT id, session_id, court_session_id, status, match_type, started_at, ended_at, score_json, winner_team
		FROM matches
		WHERE id = $1 AND session_id = $2
		FOR UPDATE
	`, matchID, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("match", matchID)
		}
		return nil, fmt.Errorf("lock match: %w", err)
	}
	return &m, nil
}

func matchParticipants(tx *sqlx.Tx, matchID string) ([]models.MatchParticipant, error) {
	var participants []models.MatchParticipant
	err := tx.Select(&participants, `
		SELECT match_id, player_id, team_number
		FROM match_participants
		WHERE match_id = $1
		ORDER BY team_number ASC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	return participants, nil
}

// releaseCourt puts a court session back to available and clears its match
// references.
func releaseCourt(tx *sqlx.Tx, courtSessionID string) error {
	if _, err := tx.Exec(`
		UPDATE court_sessions SET status = 'available', current_match_id = NULL, next_match_id = NULL
		WHERE id = $1
	`, courtSessionID); err != nil {
		return fmt.Errorf("release court session: %w", err)
	}
	return nil
}

// adjustWinLoss applies delta wins to the given team's players and delta
// losses to the other team's players.
func adjustWinLoss(tx *sqlx.Tx, sessionID string, participants []models.MatchParticipant, team, delta int) error {
	var winners, losers []string
	for _, p := range participants {
		if p.TeamNumber == team {
			winners = append(winners, p.PlayerID)
		} else {
			losers = append(losers, p.PlayerID)
		}
	}
	if len(winners) > 0 {
		if _, err := tx.Exec(`
			UPDATE session_players SET wins = wins + $3
			WHERE session_id = $1 AND player_id = ANY($2)
		`, sessionID, pq.Array(winners), delta); err != nil {
			return fmt.Errorf("adjust wins: %w", err)
		}
	}
	if len(losers) > 0 {
		if _, err := tx.Exec(`
			UPDATE session_players SET losses = losses + $3
			WHERE session_id = $1 AND player_id = ANY($2)
		`, sessionID, pq.Array(losers), delta); err != nil {
			return fmt.Errorf("adjust losses: %w", err)
		}
	}
	return nil
}
