package auth

import (
	"context"
	"errors"
	"time"

	"finstress/internal/storage"

	log "github.com/sirupsen/logrus"
)

// SessionDuration is how long sessions last (30 days).
const SessionDuration = 30 * 24 * time.Hour

// ErrNoSession is returned by Check for unknown or expired tokens.
var ErrNoSession = errors.New("not logged in")

// SessionStore persists session tokens.
type SessionStore interface {
	CreateSession(ctx context.Context, token, username string, expiresAt time.Time) error
	ValidateSession(ctx context.Context, token string) (*storage.SessionInfo, error)
	RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
}

// Gate guards access to the dashboard.
type Gate struct {
	provider Provider
	sessions SessionStore
	now      func() time.Time
}

// NewGate creates a Gate.
func NewGate(provider Provider, sessions SessionStore) *Gate {
	return &Gate{provider: provider, sessions: sessions, now: time.Now}
}

// Login authenticates the pair and records a new session.
func (g *Gate) Login(ctx context.Context, username, password string) (SessionToken, error) {
	token, err := g.provider.Authenticate(username, password)
	if err != nil {
		return "", err
	}
	if err := g.sessions.CreateSession(ctx, string(token), username, g.now().Add(SessionDuration)); err != nil {
		return "", err
	}
	log.WithField("user", username).Info("User logged in")
	return token, nil
}

// Logout drops the session. Unknown tokens are ignored.
func (g *Gate) Logout(ctx context.Context, token SessionToken) error {
	if token == "" {
		return nil
	}
	return g.sessions.DeleteSession(ctx, string(token))
}

// Check validates a token. Sessions past the halfway point of their lifetime
// are renewed; the returned bool reports a renewal.
func (g *Gate) Check(ctx context.Context, token SessionToken) (bool, error) {
	if token == "" {
		return false, ErrNoSession
	}
	info, err := g.sessions.ValidateSession(ctx, string(token))
	if err != nil {
		return false, ErrNoSession
	}

	now := g.now()
	if info.ExpiresAt.Sub(now) >= SessionDuration/2 {
		return false, nil
	}
	if err := g.sessions.RenewSession(ctx, string(token), now.Add(SessionDuration)); err != nil {
		// Keep the current session if renewal fails.
		log.WithError(err).Warn("Failed to renew session")
		return false, nil
	}
	return true, nil
}
