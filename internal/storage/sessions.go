package storage

import (
	"context"
	"time"
)

// SessionInfo holds session validation data.
type SessionInfo struct {
	Token        string
	Username     string
	LastActivity time.Time
	ExpiresAt    time.Time
}

// CreateSession stores a new session token.
func (db *DB) CreateSession(ctx context.Context, token, username string, expiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO sessions (token, username, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, username, expiresAt.UTC(), time.Now().UTC(),
	)
	return err
}

// ValidateSession checks that a token exists and has not expired.
func (db *DB) ValidateSession(ctx context.Context, token string) (*SessionInfo, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT token, username, last_activity, expires_at
		FROM sessions
		WHERE token = ? AND expires_at > ?
	`, token, time.Now().UTC())

	var info SessionInfo
	if err := row.Scan(&info.Token, &info.Username, &info.LastActivity, &info.ExpiresAt); err != nil {
		return nil, err
	}
	return &info, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		time.Now().UTC(), newExpiresAt.UTC(), token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes all expired sessions and returns how many were dropped.
func (db *DB) CleanExpiredSessions(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
