// Package access resolves resources under the caller's visibility scope.
// Admins see everything; staff see what they created. A resource outside
// the caller's scope reads as not-found, never as forbidden.
package access

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kueapp/backend/internal/models"
	"github.com/kueapp/backend/internal/rotation"
)

// Scope carries the caller's identity for visibility checks.
type Scope struct {
	UserID string
	Roles  []string
}

// IsAdmin reports whether the scope carries the admin role.
func (s Scope) IsAdmin() bool {
	for _, r := range s.Roles {
		if r == "admin" {
			return true
		}
	}
	return false
}

func notFound(resource, id string) error {
	return &rotation.NotFoundError{Resource: resource, ID: id}
}

// SessionForUser loads a session visible to the caller.
func SessionForUser(db *sqlx.DB, scope Scope, sessionID string) (*models.Session, error) {
	var s models.Session
	query := `
		SELECT id, created_by, name, status, starts_at, ends_at, fee_mode, fee_amount,
		       return_to_queue, announcements, closed_at, created_at
		FROM sessions WHERE id = $1`
	args := []interface{}{sessionID}
	if !scope.IsAdmin() {
		query += ` AND created_by = $2`
		args = append(args, scope.UserID)
	}
	if err := db.Get(&s, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("session", sessionID)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &s, nil
}

// CourtForUser loads a non-deleted court visible to the caller.
func CourtForUser(db *sqlx.DB, scope Scope, courtID string) (*models.Court, error) {
	var c models.Court
	query := `
		SELECT id, created_by, name, notes, active, deleted_at, created_at
		FROM courts WHERE id = $1 AND deleted_at IS NULL`
	args := []interface{}{courtID}
	if !scope.IsAdmin() {
		query += ` AND created_by = $2`
		args = append(args, scope.UserID)
	}
	if err := db.Get(&c, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("court", courtID)
		}
		return nil, fmt.Errorf("load court: %w", err)
	}
	return &c, nil
}

// PlayerForUser loads a non-deleted player visible to the caller.
func PlayerForUser(db *sqlx.DB, scope Scope, playerID string) (*models.Player, error) {
	var p models.Player
	query := `
		SELECT id, created_by, full_name, nickname, skill_level, contact, deleted_at, created_at
		FROM players WHERE id = $1 AND deleted_at IS NULL`
	args := []interface{}{playerID}
	if !scope.IsAdmin() {
		query += ` AND created_by = $2`
		args = append(args, scope.UserID)
	}
	if err := db.Get(&p, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("player", playerID)
		}
		return nil, fmt.Errorf("load player: %w", err)
	}
	return &p, nil
}

// PlayerShareLink resolves an unexpired, unrevoked player share link by token.
func PlayerShareLink(db *sqlx.DB, token string) (*models.ShareLink, error) {
	var link models.ShareLink
	err := db.Get(&link, `
		SELECT id, token, session_id, player_id, expires_at, revoked_at, created_at
		FROM share_links
		WHERE token = $1 AND revoked_at IS NULL
		  AND (expires_at IS NULL OR expires_at > NOW())
	`, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("share link", "")
		}
		return nil, fmt.Errorf("load share link: %w", err)
	}
	return &link, nil
}

// SessionShareLinkByToken resolves an unexpired, unrevoked session share link.
func SessionShareLinkByToken(db *sqlx.DB, token string) (*models.SessionShareLink, error) {
	var link models.SessionShareLink
	err := db.Get(&link, `
		SELECT id, token, session_id, expires_at, revoked_at, created_at
		FROM session_share_links
		WHERE token = $1 AND revoked_at IS NULL
		  AND (expires_at IS NULL OR expires_at > NOW())
	`, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("share link", "")
		}
		return nil, fmt.Errorf("load session share link: %w", err)
	}
	return &link, nil
}

// InviteLinkByToken resolves an unexpired, unrevoked session invite link.
func InviteLinkByToken(db *sqlx.DB, token string) (*models.SessionInviteLink, error) {
	var link models.SessionInviteLink
	err := db.Get(&link, `
		SELECT id, token, session_id, expires_at, revoked_at, created_at
		FROM session_invite_links
		WHERE token = $1 AND revoked_at IS NULL
		  AND (expires_at IS NULL OR expires_at > NOW())
	`, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("invite link", "")
		}
		return nil, fmt.Errorf("load invite link: %w", err)
	}
	return &link, nil
}
