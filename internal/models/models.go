package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// User is an operator account (admin or staff)
type User struct {
	ID                          string         `db:"id" json:"id"`
	Email                       string         `db:"email" json:"email"`
	PasswordHash                string         `db:"password_hash" json:"-"`
	FullName                    sql.NullString `db:"full_name" json:"full_name,omitempty"`
	Roles                       pq.StringArray `db:"roles" json:"roles"`
	EmailVerifiedAt             sql.NullTime   `db:"email_verified_at" json:"email_verified_at,omitempty"`
	EmailVerifyTokenHash        sql.NullString `db:"email_verify_token_hash" json:"-"`
	EmailVerifyTokenExpiresAt   sql.NullTime   `db:"email_verify_token_expires_at" json:"-"`
	PasswordResetTokenHash      sql.NullString `db:"password_reset_token_hash" json:"-"`
	PasswordResetTokenExpiresAt sql.NullTime   `db:"password_reset_token_expires_at" json:"-"`
	CreatedAt                   time.Time      `db:"created_at" json:"created_at"`
}

// Player is a person who plays in sessions (not a login account)
type Player struct {
	ID         string         `db:"id" json:"id"`
	CreatedBy  sql.NullString `db:"created_by" json:"-"`
	FullName   string         `db:"full_name" json:"full_name"`
	Nickname   sql.NullString `db:"nickname" json:"nickname,omitempty"`
	SkillLevel sql.NullString `db:"skill_level" json:"skill_level,omitempty"`
	Contact    sql.NullString `db:"contact" json:"contact,omitempty"`
	DeletedAt  sql.NullTime   `db:"deleted_at" json:"-"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// Court is a physical court
type Court struct {
	ID        string         `db:"id" json:"id"`
	CreatedBy sql.NullString `db:"created_by" json:"-"`
	Name      string         `db:"name" json:"name"`
	Notes     sql.NullString `db:"notes" json:"notes,omitempty"`
	Active    bool           `db:"active" json:"active"`
	DeletedAt sql.NullTime   `db:"deleted_at" json:"-"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// Session is one live rotation event (players queue and play on courts)
type Session struct {
	ID            string         `db:"id" json:"id"`
	CreatedBy     sql.NullString `db:"created_by" json:"-"`
	Name          string         `db:"name" json:"name"`
	Status        string         `db:"status" json:"status"`
	StartsAt      sql.NullTime   `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt        sql.NullTime   `db:"ends_at" json:"ends_at,omitempty"`
	FeeMode       string         `db:"fee_mode" json:"fee_mode"`
	FeeAmount     float64        `db:"fee_amount" json:"fee_amount"`
	ReturnToQueue bool           `db:"return_to_queue" json:"return_to_queue"`
	Announcements sql.NullString `db:"announcements" json:"announcements,omitempty"`
	ClosedAt      sql.NullTime   `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// CourtSession is the per-session occupancy state of one court
type CourtSession struct {
	ID             string         `db:"id" json:"id"`
	SessionID      string         `db:"session_id" json:"session_id"`
	CourtID        string         `db:"court_id" json:"court_id"`
	Status         string         `db:"status" json:"status"`
	CurrentMatchID sql.NullString `db:"current_match_id" json:"current_match_id,omitempty"`
	NextMatchID    sql.NullString `db:"next_match_id" json:"next_match_id,omitempty"`
}

// SessionPlayer is a player's per-session status and stats row
type SessionPlayer struct {
	SessionID    string       `db:"session_id" json:"session_id"`
	PlayerID     string       `db:"player_id" json:"player_id"`
	Status       string       `db:"status" json:"status"`
	GamesPlayed  int          `db:"games_played" json:"games_played"`
	Wins         int          `db:"wins" json:"wins"`
	Losses       int          `db:"losses" json:"losses"`
	LastPlayedAt sql.NullTime `db:"last_played_at" json:"last_played_at,omitempty"`
	CheckedInAt  time.Time    `db:"checked_in_at" json:"checked_in_at"`
	IsNewPlayer  bool         `db:"is_new_player" json:"is_new_player"`
}

// QueueEntry is a queued group of 1 (singles) or 2 (doubles) players
type QueueEntry struct {
	ID          string    `db:"id" json:"id"`
	SessionID   string    `db:"session_id" json:"session_id"`
	Type        string    `db:"type" json:"type"`
	Status      string    `db:"status" json:"status"`
	Position    int       `db:"position" json:"position"`
	ManualOrder bool      `db:"manual_order" json:"manual_order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Match is one game played on a court
type Match struct {
	ID             string          `db:"id" json:"id"`
	SessionID      string          `db:"session_id" json:"session_id"`
	CourtSessionID sql.NullString  `db:"court_session_id" json:"court_session_id,omitempty"`
	Status         string          `db:"status" json:"status"`
	MatchType      string          `db:"match_type" json:"match_type"`
	StartedAt      time.Time       `db:"started_at" json:"started_at"`
	EndedAt        sql.NullTime    `db:"ended_at" json:"ended_at,omitempty"`
	ScoreJSON      json.RawMessage `db:"score_json" json:"score,omitempty"`
	WinnerTeam     sql.NullInt64   `db:"winner_team" json:"winner_team,omitempty"`
}

// MatchParticipant assigns a player to one team of a match
type MatchParticipant struct {
	MatchID    string `db:"match_id" json:"match_id"`
	PlayerID   string `db:"player_id" json:"player_id"`
	TeamNumber int    `db:"team_number" json:"team_number"`
}

// Payment is a recorded session-fee payment (no provider integration)
type Payment struct {
	ID        string         `db:"id" json:"id"`
	SessionID string         `db:"session_id" json:"session_id"`
	PlayerID  string         `db:"player_id" json:"player_id"`
	Amount    float64        `db:"amount" json:"amount"`
	Method    string         `db:"method" json:"method"`
	Note      sql.NullString `db:"note" json:"note,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// ShareLink is a public read-only link for one player in one session
type ShareLink struct {
	ID        string       `db:"id" json:"id"`
	Token     string       `db:"token" json:"token"`
	SessionID string       `db:"session_id" json:"session_id"`
	PlayerID  string       `db:"player_id" json:"player_id"`
	ExpiresAt sql.NullTime `db:"expires_at" json:"expires_at,omitempty"`
	RevokedAt sql.NullTime `db:"revoked_at" json:"revoked_at,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// SessionShareLink is a public read-only link for a whole session
type SessionShareLink struct {
	ID        string       `db:"id" json:"id"`
	Token     string       `db:"token" json:"token"`
	SessionID string       `db:"session_id" json:"session_id"`
	ExpiresAt sql.NullTime `db:"expires_at" json:"expires_at,omitempty"`
	RevokedAt sql.NullTime `db:"revoked_at" json:"revoked_at,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// SessionInviteLink is a join-invite link for a session
type SessionInviteLink struct {
	ID        string       `db:"id" json:"id"`
	Token     string       `db:"token" json:"token"`
	SessionID string       `db:"session_id" json:"session_id"`
	ExpiresAt sql.NullTime `db:"expires_at" json:"expires_at,omitempty"`
	RevokedAt sql.NullTime `db:"revoked_at" json:"revoked_at,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// BracketOverride is an opaque correction entry consumed by the external bracket feature
type BracketOverride struct {
	ID        string          `db:"id" json:"id"`
	SessionID string          `db:"session_id" json:"session_id"`
	Key       string          `db:"key" json:"key"`
	ValueJSON json.RawMessage `db:"value_json" json:"value"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
