package rotation

import (
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/models"
	"github.com/lib/pq"
)

// session player statuses
const (
	PlayerCheckedIn = "checked_in"
	PlayerPresent   = "present"
	PlayerAway      = "away"
	PlayerDone      = "done"
)

// Suggestion is the proposed next match: the first entry becomes team 1,
// the second team 2. Suggesting does not mutate anything; starting the
// match is a separate explicit step.
type Suggestion struct {
	MatchType string      `json:"match_type"`
	Teams     [2][]string `json:"teams"`
	EntryIDs  [2]string   `json:"entry_ids"`
}

// candidate is one eligible queue entry with everything ranking needs.
type candidate struct {
	ID          string
	Position    int
	ManualOrder bool
	CreatedAt   time.Time
	PlayerIDs   []string
	LastPlayed  *time.Time // rest anchor, nil when no member has played
}

// rankCandidates orders eligible entries most-due first. If any entry is
// flagged manual_order the whole set falls back to plain position order —
// manual mode is sticky and beats fairness for every entry, not just the
// flagged ones.
func rankCandidates(entries []candidate, now time.Time) []candidate {
	sorted := make([]candidate, len(entries))
	copy(sorted, entries)

	manual := false
	for _, e := range sorted {
		if e.ManualOrder {
			manual = true
			break
		}
	}

	if manual {
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Position < sorted[j].Position
		})
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		si := fairnessScore(now, sorted[i].CreatedAt, sorted[i].LastPlayed)
		sj := fairnessScore(now, sorted[j].CreatedAt, sorted[j].LastPlayed)
		if si != sj {
			return si > sj
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// Suggest proposes the next match for the session, or nil when fewer than
// two entries of the requested type have every player checked in.
func Suggest(db *sqlx.DB, sessionID, matchType string) (*Suggestion, error) {
	if _, err := teamSize(matchType); err != nil {
		return nil, err
	}

	var entries []models.QueueEntry
	err := db.Select(&entries, `
		SELECT id, session_id, type, status, position, manual_order, created_at
		FROM queue_entries
		WHERE session_id = $1 AND status = 'queued' AND type = $2
		ORDER BY position ASC, created_at ASC
	`, sessionID, matchType)
	if err != nil {
		return nil, fmt.Errorf("load queued entries: %w", err)
	}
	if len(entries) < 2 {
		return nil, nil
	}

	entryIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		entryIDs = append(entryIDs, e.ID)
	}

	var epRows []struct {
		EntryID  string `db:"entry_id"`
		PlayerID string `db:"player_id"`
	}
	err = db.Select(&epRows, `
		SELECT entry_id, player_id FROM queue_entry_players WHERE entry_id = ANY($1)
	`, pq.Array(entryIDs))
	if err != nil {
		return nil, fmt.Errorf("load entry players: %w", err)
	}
	playersByEntry := make(map[string][]string, len(entries))
	for _, r := range epRows {
		playersByEntry[r.EntryID] = append(playersByEntry[r.EntryID], r.PlayerID)
	}

	var spRows []models.SessionPlayer
	err = db.Select(&spRows, `
		SELECT session_id, player_id, status, games_played, wins, losses, last_played_at, checked_in_at, is_new_player
		FROM session_players
		WHERE session_id = $1
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session players: %w", err)
	}
	spByPlayer := make(map[string]models.SessionPlayer, len(spRows))
	for _, sp := range spRows {
		spByPlayer[sp.PlayerID] = sp
	}

	now := time.Now()
	var eligible []candidate
	for _, e := range entries {
		playerIDs := playersByEntry[e.ID]
		ok := len(playerIDs) > 0
		lastPlayed := make([]*time.Time, 0, len(playerIDs))
		for _, pid := range playerIDs {
			sp, found := spByPlayer[pid]
			if !found || sp.Status != PlayerCheckedIn {
				ok = false
				break
			}
			if sp.LastPlayedAt.Valid {
				t := sp.LastPlayedAt.Time
				lastPlayed = append(lastPlayed, &t)
			}
		}
		if !ok {
			continue
		}
		eligible = append(eligible, candidate{
			ID:          e.ID,
			Position:    e.Position,
			ManualOrder: e.ManualOrder,
			CreatedAt:   e.CreatedAt,
			PlayerIDs:   playerIDs,
			LastPlayed:  restAnchor(lastPlayed),
		})
	}
	if len(eligible) < 2 {
		return nil, nil
	}

	ranked := rankCandidates(eligible, now)
	first, second := ranked[0], ranked[1]
	return &Suggestion{
		MatchType: matchType,
		Teams:     [2][]string{first.PlayerIDs, second.PlayerIDs},
		EntryIDs:  [2]string{first.ID, second.ID},
	}, nil
}
