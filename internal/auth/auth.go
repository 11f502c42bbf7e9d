package auth

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingCredentials = errors.New("please fill in all fields")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// SessionToken identifies an authenticated session.
type SessionToken string

// Provider checks a username and password pair.
type Provider interface {
	Authenticate(username, password string) (SessionToken, error)
}

// The single account accepted by StaticProvider.
const (
	DemoUsername = "ghyl"
	demoPassword = "123"
)

// StaticProvider accepts exactly one username/password pair.
type StaticProvider struct {
	username string
	hash     []byte
}

// NewStaticProvider builds the provider for the built-in demo account.
func NewStaticProvider() (*StaticProvider, error) {
	hash, err := HashPassword(demoPassword)
	if err != nil {
		return nil, err
	}
	return &StaticProvider{username: DemoUsername, hash: []byte(hash)}, nil
}

// Authenticate returns a fresh token for the configured pair. Comparison is case sensitive.
func (p *StaticProvider) Authenticate(username, password string) (SessionToken, error) {
	if username == "" || password == "" {
		return "", ErrMissingCredentials
	}
	if username != p.username || !CheckPassword(password, string(p.hash)) {
		return "", ErrInvalidCredentials
	}
	return GenerateSessionToken(), nil
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword compares a password with a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateSessionToken returns a random session token.
func GenerateSessionToken() SessionToken {
	return SessionToken(uuid.NewString())
}
