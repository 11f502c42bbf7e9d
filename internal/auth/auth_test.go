package auth

import (
	"context"
	"testing"
	"time"

	"finstress/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestStaticProvider(t *testing.T) {
	p, err := NewStaticProvider()
	require.NoError(t, err)

	token, err := p.Authenticate("ghyl", "123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	other, err := p.Authenticate("ghyl", "123")
	require.NoError(t, err)
	assert.NotEqual(t, token, other, "tokens must be unique")

	rejected := []struct{ user, pass string }{
		{"GHYL", "123"},
		{"Ghyl", "123"},
		{"ghyl", "1234"},
		{"ghyl ", "123"},
		{"admin", "123"},
		{"123", "ghyl"},
	}
	for _, c := range rejected {
		_, err := p.Authenticate(c.user, c.pass)
		assert.ErrorIs(t, err, ErrInvalidCredentials, "%q/%q", c.user, c.pass)
	}

	_, err = p.Authenticate("", "123")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = p.Authenticate("ghyl", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.True(t, CheckPassword("secret", hash))
	assert.False(t, CheckPassword("Secret", hash))
}

type GateTestSuite struct {
	suite.Suite
	db   *storage.DB
	gate *Gate
	ctx  context.Context
}

func (suite *GateTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err)
	suite.db = db

	p, err := NewStaticProvider()
	require.NoError(suite.T(), err)
	suite.gate = NewGate(p, db)
	suite.ctx = context.Background()
}

func (suite *GateTestSuite) TearDownTest() {
	suite.db.Close()
}

func (suite *GateTestSuite) TestLoginLogout() {
	token, err := suite.gate.Login(suite.ctx, "ghyl", "123")
	require.NoError(suite.T(), err)

	renewed, err := suite.gate.Check(suite.ctx, token)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), renewed)

	require.NoError(suite.T(), suite.gate.Logout(suite.ctx, token))
	_, err = suite.gate.Check(suite.ctx, token)
	assert.ErrorIs(suite.T(), err, ErrNoSession)
}

func (suite *GateTestSuite) TestFailedLoginCreatesNoSession() {
	_, err := suite.gate.Login(suite.ctx, "ghyl", "wrong")
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)

	_, err = suite.gate.Check(suite.ctx, "")
	assert.ErrorIs(suite.T(), err, ErrNoSession)
	_, err = suite.gate.Check(suite.ctx, "made-up")
	assert.ErrorIs(suite.T(), err, ErrNoSession)
}

func (suite *GateTestSuite) TestRollingRenewal() {
	token, err := suite.gate.Login(suite.ctx, "ghyl", "123")
	require.NoError(suite.T(), err)

	// Pretend 20 days have passed.
	suite.gate.now = func() time.Time { return time.Now().Add(20 * 24 * time.Hour) }

	renewed, err := suite.gate.Check(suite.ctx, token)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), renewed)

	info, err := suite.db.ValidateSession(suite.ctx, string(token))
	require.NoError(suite.T(), err)
	assert.True(suite.T(), info.ExpiresAt.After(time.Now().Add(40*24*time.Hour)))
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateTestSuite))
}
