package rotation

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/models"
	"github.com/lib/pq"
)

// match types and queue entry statuses
const (
	MatchTypeSingles = "singles"
	MatchTypeDoubles = "doubles"

	EntryQueued   = "queued"
	EntryAssigned = "assigned"
	EntryRemoved  = "removed"
)

// EntryWithPlayers is a queue entry plus its player rows, the shape the
// queue listing and public views return.
type EntryWithPlayers struct {
	models.QueueEntry
	Players []models.Player `json:"players"`
}

// teamSize returns the players-per-team count for a match type.
func teamSize(matchType string) (int, error) {
	switch matchType {
	case MatchTypeSingles:
		return 1, nil
	case MatchTypeDoubles:
		return 2, nil
	default:
		return 0, validationf("unknown match type %q", matchType)
	}
}

// Enqueue creates a queued entry at the end of the session's queue.
// The session row is locked for the duration of the transaction so the
// position counter and the one-queued-entry-per-player check cannot race
// with a concurrent enqueue.
func Enqueue(db *sqlx.DB, sessionID, entryType string, playerIDs []string) (*EntryWithPlayers, error) {
	size, err := teamSize(entryType)
	if err != nil {
		return nil, err
	}
	if len(playerIDs) != size {
		return nil, validationf("%s requires %d player(s), got %d", entryType, size, len(playerIDs))
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("begin enqueue tx: %w", err)
	}
	defer tx.Rollback()

	var lockedID string
	if err := tx.Get(&lockedID, `SELECT id FROM sessions WHERE id=$1 FOR UPDATE`, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("session", sessionID)
		}
		return nil, fmt.Errorf("lock session: %w", err)
	}

	var clash int
	err = tx.Get(&clash, `
		SELECT COUNT(*)
		FROM queue_entry_players qep
		JOIN queue_entries qe ON qe.id = qep.entry_id
		WHERE qe.session_id = $1
		  AND qe.status = 'queued'
		  AND qep.player_id = ANY($2)
	`, sessionID, pq.Array(playerIDs))
	if err != nil {
		return nil, fmt.Errorf("check queued players: %w", err)
	}
	if clash > 0 {
		return nil, conflictf("one or more players already have a queued entry in session %s", sessionID)
	}

	var maxPos int
	if err := tx.Get(&maxPos, `SELECT COALESCE(MAX(position), 0) FROM queue_entries WHERE session_id=$1`, sessionID); err != nil {
		return nil, fmt.Errorf("read max position: %w", err)
	}

	entryID := uuid.New().String()
	var entry models.QueueEntry
	err = tx.Get(&entry, `
		INSERT INTO queue_entries (id, session_id, type, status, position)
		VALUES ($1, $2, $3, 'queued', $4)
		RETURNING id, session_id, type, status, position, manual_order, created_at
	`, entryID, sessionID, entryType, maxPos+1)
	if err != nil {
		return nil, fmt.Errorf("insert queue entry: %w", err)
	}

	for _, pid := range playerIDs {
		if _, err := tx.Exec(`INSERT INTO queue_entry_players (entry_id, player_id) VALUES ($1, $2)`, entryID, pid); err != nil {
			return nil, fmt.Errorf("insert queue entry player: %w", err)
		}
	}

	var players []models.Player
	err = tx.Select(&players, `
		SELECT p.id, p.created_by, p.full_name, p.nickname, p.skill_level, p.contact, p.deleted_at, p.created_at
		FROM players p
		JOIN queue_entry_players qep ON qep.player_id = p.id
		WHERE qep.entry_id = $1
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("load entry players: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enqueue: %w", err)
	}

	log.Printf("[QUEUE] Enqueued %s entry %s at position %d (session=%s)", entryType, entryID, entry.Position, sessionID)
	return &EntryWithPlayers{QueueEntry: entry, Players: players}, nil
}

// Reorder rewrites position to the 1-based index of each supplied entry id
// and flags every rewritten entry manual_order. All-or-nothing: any id that
// is not a queued entry of this session fails the whole call. Entries not
// in the list keep their old position, which may now collide — position is
// a sort key, not a unique slot.
func Reorder(db *sqlx.DB, sessionID string, orderedEntryIDs []string) error {
	if len(orderedEntryIDs) == 0 {
		return validationf("orderedEntryIds must not be empty")
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("begin reorder tx: %w", err)
	}
	defer tx.Rollback()

	var found []string
	err = tx.Select(&found, `
		SELECT id FROM queue_entries
		WHERE session_id = $1 AND status = 'queued' AND id = ANY($2)
		FOR UPDATE
	`, sessionID, pq.Array(orderedEntryIDs))
	if err != nil {
		return fmt.Errorf("lock queue entries: %w", err)
	}
	if len(found) != len(orderedEntryIDs) {
		foundSet := make(map[string]bool, len(found))
		for _, id := range found {
			foundSet[id] = true
		}
		for _, id := range orderedEntryIDs {
			if !foundSet[id] {
				return notFound("queued entry", id)
			}
		}
	}

	for idx, entryID := range orderedEntryIDs {
		if _, err := tx.Exec(`
			UPDATE queue_entries SET position = $1, manual_order = TRUE WHERE id = $2
		`, idx+1, entryID); err != nil {
			return fmt.Errorf("rewrite position for entry %s: %w", entryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}

	log.Printf("[QUEUE] Reordered %d entries (session=%s)", len(orderedEntryIDs), sessionID)
	return nil
}

// Remove marks an entry removed. Idempotent on an already-removed entry;
// the "away" action uses the same transition.
func Remove(db *sqlx.DB, sessionID, entryID string) error {
	res, err := db.Exec(`
		UPDATE queue_entries SET status = 'removed' WHERE id = $1 AND session_id = $2
	`, entryID, sessionID)
	if err != nil {
		return fmt.Errorf("remove queue entry: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return notFound("queue entry", entryID)
	}
	return nil
}

// ListQueue returns the session's queued entries with their players,
// ordered by position (created_at breaks position collisions left behind
// by partial reorders).
func ListQueue(db *sqlx.DB, sessionID string) ([]EntryWithPlayers, error) {
	return listQueue(db, sessionID)
}

func listQueue(q sqlx.Queryer, sessionID string) ([]EntryWithPlayers, error) {
	var entries []models.QueueEntry
	err := sqlx.Select(q, &entries, `
		SELECT id, session_id, type, status, position, manual_order, created_at
		FROM queue_entries
		WHERE session_id = $1 AND status = 'queued'
		ORDER BY position ASC, created_at ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	if len(entries) == 0 {
		return []EntryWithPlayers{}, nil
	}

	entryIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		entryIDs = append(entryIDs, e.ID)
	}

	type entryPlayerRow struct {
		EntryID string `db:"entry_id"`
		models.Player
	}
	var rows []entryPlayerRow
	err = sqlx.Select(q, &rows, `
		SELECT qep.entry_id, p.id, p.created_by, p.full_name, p.nickname, p.skill_level, p.contact, p.deleted_at, p.created_at
		FROM queue_entry_players qep
		JOIN players p ON p.id = qep.player_id
		WHERE qep.entry_id = ANY($1)
	`, pq.Array(entryIDs))
	if err != nil {
		return nil, fmt.Errorf("list entry players: %w", err)
	}

	byEntry := make(map[string][]models.Player, len(entries))
	for _, r := range rows {
		byEntry[r.EntryID] = append(byEntry[r.EntryID], r.Player)
	}

	out := make([]EntryWithPlayers, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryWithPlayers{QueueEntry: e, Players: byEntry[e.ID]})
	}
	return out, nil
}
