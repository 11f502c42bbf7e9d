package storage

import (
	"context"
	"testing"
	"time"

	"finstress/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// StateTestSuite provides a test suite for state persistence
type StateTestSuite struct {
	suite.Suite
	db  *DB
	ctx context.Context
}

// SetupTest runs before each test
func (suite *StateTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ctx = context.Background()
}

// TearDownTest runs after each test
func (suite *StateTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *StateTestSuite) TestLoadEmpty() {
	st, found, err := suite.db.Load(suite.ctx)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), found)
	assert.Empty(suite.T(), st.Expenses)
	assert.Zero(suite.T(), st.Budget)
}

func (suite *StateTestSuite) TestSaveAndLoad() {
	want := State{
		Budget: 1500.5,
		Expenses: []models.Expense{
			{ID: "a", Description: "Lunch", Amount: 50, Category: models.CategoryFood, Date: models.NewDate(2024, time.January, 1)},
			{ID: "b", Description: "Bus", Amount: 4.4, Category: models.CategoryTransport, Date: models.NewDate(2024, time.January, 2)},
		},
	}
	require.NoError(suite.T(), suite.db.Save(suite.ctx, want))

	got, found, err := suite.db.Load(suite.ctx)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), found)
	assert.Equal(suite.T(), want.Budget, got.Budget)
	require.Len(suite.T(), got.Expenses, 2)
	assert.Equal(suite.T(), "Lunch", got.Expenses[0].Description)
	assert.Equal(suite.T(), "2024-01-02", got.Expenses[1].Date.String())
}

func (suite *StateTestSuite) TestSaveEmptyListClearsStoredExpenses() {
	require.NoError(suite.T(), suite.db.Save(suite.ctx, State{
		Expenses: []models.Expense{{ID: "a", Description: "x", Amount: 1, Category: models.CategoryOther, Date: models.Today()}},
	}))
	require.NoError(suite.T(), suite.db.Save(suite.ctx, State{}))

	raw, ok, err := suite.db.Get(suite.ctx, KeyExpenses)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "[]", raw)

	st, _, err := suite.db.Load(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), st.Expenses)
}

func (suite *StateTestSuite) TestCorruptedValuesAreTreatedAsAbsent() {
	require.NoError(suite.T(), suite.db.Set(suite.ctx, KeyExpenses, "{not json"))
	require.NoError(suite.T(), suite.db.Set(suite.ctx, KeyBudget, "lots"))

	st, found, err := suite.db.Load(suite.ctx)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), found)
	assert.Empty(suite.T(), st.Expenses)
	assert.Zero(suite.T(), st.Budget)
}

func (suite *StateTestSuite) TestMalformedRecordsAreDropped() {
	raw := `[{"id":"a","description":"ok","amount":5,"category":"food","date":"2024-01-01"},
	         {"id":"b","description":"bad","amount":5,"category":"rent","date":"2024-01-01"}]`
	require.NoError(suite.T(), suite.db.Set(suite.ctx, KeyExpenses, raw))

	st, found, err := suite.db.Load(suite.ctx)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), found)
	require.Len(suite.T(), st.Expenses, 1)
	assert.Equal(suite.T(), "a", st.Expenses[0].ID)
}

func (suite *StateTestSuite) TestBadDateDropsOnlyThatRecord() {
	raw := `[{"id":"a","description":"ok","amount":5,"category":"food","date":"2024-01-01"},
	         {"id":"b","description":"null date","amount":5,"category":"food","date":null},
	         {"id":"c","description":"empty date","amount":5,"category":"food","date":""},
	         {"id":"d","description":"other layout","amount":5,"category":"food","date":"01/02/2024"},
	         {"id":"e","description":"also ok","amount":7,"category":"health","date":"2024-01-03"}]`
	require.NoError(suite.T(), suite.db.Set(suite.ctx, KeyExpenses, raw))

	st, found, err := suite.db.Load(suite.ctx)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), found)
	require.Len(suite.T(), st.Expenses, 2)
	assert.Equal(suite.T(), "a", st.Expenses[0].ID)
	assert.Equal(suite.T(), "e", st.Expenses[1].ID)
}

func (suite *StateTestSuite) TestBudgetIndependentOfExpenses() {
	require.NoError(suite.T(), suite.db.Set(suite.ctx, KeyBudget, "100"))

	st, found, err := suite.db.Load(suite.ctx)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), found)
	assert.Equal(suite.T(), 100.0, st.Budget)
	assert.Empty(suite.T(), st.Expenses)
}

func (suite *StateTestSuite) TestKeyValue() {
	require.NoError(suite.T(), suite.db.Set(suite.ctx, KeySession, "one"))
	require.NoError(suite.T(), suite.db.Set(suite.ctx, KeySession, "two"))

	v, ok, err := suite.db.Get(suite.ctx, KeySession)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "two", v)

	require.NoError(suite.T(), suite.db.Delete(suite.ctx, KeySession))
	_, ok, err = suite.db.Get(suite.ctx, KeySession)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

// SessionTestSuite provides a test suite for session operations
type SessionTestSuite struct {
	suite.Suite
	db  *DB
	ctx context.Context
}

func (suite *SessionTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ctx = context.Background()
}

func (suite *SessionTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *SessionTestSuite) TestCreateAndValidateSession() {
	token := uuid.NewString()
	err := suite.db.CreateSession(suite.ctx, token, "ghyl", time.Now().Add(30*24*time.Hour))
	require.NoError(suite.T(), err)

	info, err := suite.db.ValidateSession(suite.ctx, token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "ghyl", info.Username)
	assert.Less(suite.T(), time.Since(info.LastActivity), 5*time.Second, "LastActivity should be recent")
}

func (suite *SessionTestSuite) TestExpiredSessionIsInvalid() {
	token := uuid.NewString()
	require.NoError(suite.T(), suite.db.CreateSession(suite.ctx, token, "ghyl", time.Now().Add(-time.Minute)))

	_, err := suite.db.ValidateSession(suite.ctx, token)
	assert.Error(suite.T(), err)

	n, err := suite.db.CleanExpiredSessions(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), n)
}

func (suite *SessionTestSuite) TestRenewSession() {
	token := uuid.NewString()
	require.NoError(suite.T(), suite.db.CreateSession(suite.ctx, token, "ghyl", time.Now().Add(time.Hour)))

	original, err := suite.db.ValidateSession(suite.ctx, token)
	require.NoError(suite.T(), err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(suite.T(), suite.db.RenewSession(suite.ctx, token, time.Now().Add(48*time.Hour)))

	updated, err := suite.db.ValidateSession(suite.ctx, token)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), updated.LastActivity.After(original.LastActivity), "LastActivity should be updated after renewal")
	assert.True(suite.T(), updated.ExpiresAt.After(original.ExpiresAt), "ExpiresAt should be extended after renewal")
}

func (suite *SessionTestSuite) TestDeleteSession() {
	token := uuid.NewString()
	require.NoError(suite.T(), suite.db.CreateSession(suite.ctx, token, "ghyl", time.Now().Add(time.Hour)))

	_, err := suite.db.ValidateSession(suite.ctx, token)
	require.NoError(suite.T(), err, "session should exist before deletion")

	require.NoError(suite.T(), suite.db.DeleteSession(suite.ctx, token))

	_, err = suite.db.ValidateSession(suite.ctx, token)
	assert.Error(suite.T(), err, "expected error after deleting session")
}

// Test suite runners
func TestStateSuite(t *testing.T) {
	suite.Run(t, new(StateTestSuite))
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}
