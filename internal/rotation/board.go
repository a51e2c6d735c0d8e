package rotation

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/models"
	"github.com/lib/pq"
)

// ParticipantWithPlayer is a match participant joined with its player row.
type ParticipantWithPlayer struct {
	models.MatchParticipant
	Player models.Player `json:"player"`
}

// MatchWithParticipants is a match plus its participants.
type MatchWithParticipants struct {
	models.Match
	Participants []ParticipantWithPlayer `json:"participants"`
}

// BoardCourt is one court on the session board: occupancy plus the active
// match, if any.
type BoardCourt struct {
	CourtSession models.CourtSession    `json:"court_session"`
	Court        models.Court           `json:"court"`
	CurrentMatch *MatchWithParticipants `json:"current_match"`
}

// GetMatch loads one match of a session with its participants.
func GetMatch(db *sqlx.DB, sessionID, matchID string) (*MatchWithParticipants, error) {
	var m models.Match
	err := db.Get(&m, `
		SELECT id, session_id, court_session_id, status, match_type, started_at, ended_at, score_json, winner_team
		FROM matches
		WHERE id = $1 AND session_id = $2
	`, matchID, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("match", matchID)
		}
		return nil, fmt.Errorf("load match: %w", err)
	}

	participants, err := loadParticipants(db, []string{m.ID})
	if err != nil {
		return nil, err
	}
	return &MatchWithParticipants{Match: m, Participants: participants[m.ID]}, nil
}

// MatchHistory returns the session's ended and cancelled matches, most
// recently finished first.
func MatchHistory(db *sqlx.DB, sessionID string) ([]MatchWithParticipants, error) {
	var matches []models.Match
	err := db.Select(&matches, `
		SELECT id, session_id, court_session_id, status, match_type, started_at, ended_at, score_json, winner_team
		FROM matches
		WHERE session_id = $1 AND status IN ('ended', 'cancelled')
		ORDER BY ended_at DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load match history: %w", err)
	}
	return attachParticipants(db, matches)
}

// CourtBoard returns the session's courts with their occupancy and active
// matches. Courts that were soft-deleted or deactivated are excluded.
func CourtBoard(db *sqlx.DB, sessionID string) ([]BoardCourt, error) {
	type csRow struct {
		models.CourtSession
		Court models.Court `db:"court"`
	}
	var rows []csRow
	err := db.Select(&rows, `
		SELECT cs.id, cs.session_id, cs.court_id, cs.status, cs.current_match_id, cs.next_match_id,
		       c.id AS "court.id", c.created_by AS "court.created_by", c.name AS "court.name",
		       c.notes AS "court.notes", c.active AS "court.active", c.deleted_at AS "court.deleted_at",
		       c.created_at AS "court.created_at"
		FROM court_sessions cs
		JOIN courts c ON c.id = cs.court_id
		WHERE cs.session_id = $1 AND c.deleted_at IS NULL AND c.active = TRUE
		ORDER BY c.name ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load court sessions: %w", err)
	}

	var activeIDs []string
	for _, r := range rows {
		if r.CurrentMatchID.Valid {
			activeIDs = append(activeIDs, r.CurrentMatchID.String)
		}
	}

	matchByID := make(map[string]*MatchWithParticipants)
	if len(activeIDs) > 0 {
		var matches []models.Match
		err = db.Select(&matches, `
			SELECT id, session_id, court_session_id, status, match_type, started_at, ended_at, score_json, winner_team
			FROM matches
			WHERE id = ANY($1)
		`, pq.Array(activeIDs))
		if err != nil {
			return nil, fmt.Errorf("load active matches: %w", err)
		}
		withParts, err := attachParticipants(db, matches)
		if err != nil {
			return nil, err
		}
		for i := range withParts {
			matchByID[withParts[i].ID] = &withParts[i]
		}
	}

	board := make([]BoardCourt, 0, len(rows))
	for _, r := range rows {
		bc := BoardCourt{CourtSession: r.CourtSession, Court: r.Court}
		if r.CurrentMatchID.Valid {
			bc.CurrentMatch = matchByID[r.CurrentMatchID.String]
		}
		board = append(board, bc)
	}
	return board, nil
}

// ActiveMatchForPlayer returns the player's active match in the session,
// or nil when they are not playing.
func ActiveMatchForPlayer(db *sqlx.DB, sessionID, playerID string) (*models.Match, error) {
	var m models.Match
	err := db.Get(&m, `
		SELECT m.id, m.session_id, m.court_session_id, m.status, m.match_type, m.started_at, m.ended_at, m.score_json, m.winner_team
		FROM matches m
		JOIN match_participants mp ON mp.match_id = m.id
		WHERE m.session_id = $1 AND m.status = 'active' AND mp.player_id = $2
		LIMIT 1
	`, sessionID, playerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load active match for player: %w", err)
	}
	return &m, nil
}

func attachParticipants(db *sqlx.DB, matches []models.Match) ([]MatchWithParticipants, error) {
	if len(matches) == 0 {
		return []MatchWithParticipants{}, nil
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	byMatch, err := loadParticipants(db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]MatchWithParticipants, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchWithParticipants{Match: m, Participants: byMatch[m.ID]})
	}
	return out, nil
}

func loadParticipants(db *sqlx.DB, matchIDs []string) (map[string][]ParticipantWithPlayer, error) {
	type row struct {
		models.MatchParticipant
		Player models.Player `db:"player"`
	}
	var rows []row
	err := db.Select(&rows, `
		SELECT mp.match_id, mp.player_id, mp.team_number,
		       p.id AS "player.id", p.created_by AS "player.created_by", p.full_name AS "player.full_name",
		       p.nickname AS "player.nickname", p.skill_level AS "player.skill_level",
		       p.contact AS "player.contact", p.deleted_at AS "player.deleted_at", p.created_at AS "player.created_at"
		FROM match_participants mp
		JOIN players p ON p.id = mp.player_id
		WHERE mp.match_id = ANY($1)
		ORDER BY mp.team_number ASC
	`, pq.Array(matchIDs))
	if err != nil {
		return nil, fmt.Errorf("load match participants: %w", err)
	}
	byMatch := make(map[string][]ParticipantWithPlayer)
	for _, r := range rows {
		byMatch[r.MatchID] = append(byMatch[r.MatchID], ParticipantWithPlayer{MatchParticipant: r.MatchParticipant, Player: r.Player})
	}
	return byMatch, nil
}
