package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"finstress/internal/expenses"
	"finstress/internal/finance"
	"finstress/internal/models"
	"finstress/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type memRepo struct {
	state   storage.State
	saved   int
	failErr error
}

func (m *memRepo) Load(context.Context) (storage.State, bool, error) {
	return m.state, m.saved > 0, nil
}

func (m *memRepo) Save(_ context.Context, st storage.State) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.state = st
	m.saved++
	return nil
}

type TrackerTestSuite struct {
	suite.Suite
	repo    *memRepo
	tracker *Tracker
	ctx     context.Context
	day     models.Date
}

func (suite *TrackerTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.repo = &memRepo{}
	tracker, err := NewTracker(suite.ctx, suite.repo)
	require.NoError(suite.T(), err)
	suite.tracker = tracker
	suite.day = models.NewDate(2024, time.January, 1)
}

func (suite *TrackerTestSuite) TestBudgetScenario() {
	t := suite.T()

	_, err := suite.tracker.AddExpense(suite.ctx, "Lunch", 50, models.CategoryFood, suite.day)
	require.NoError(t, err)
	snap := suite.tracker.Snapshot()
	assert.Equal(t, 50.0, snap.Summary.TotalSpent)
	assert.Zero(t, snap.Summary.Percentage)

	require.NoError(t, suite.tracker.SetBudget(suite.ctx, 100))
	snap = suite.tracker.Snapshot()
	assert.Equal(t, 50.0, snap.Summary.Percentage)
	assert.Equal(t, finance.SeverityNone, snap.Alert.Severity)

	_, err = suite.tracker.AddExpense(suite.ctx, "Dinner", 40, models.CategoryFood, suite.day)
	require.NoError(t, err)
	snap = suite.tracker.Snapshot()
	assert.Equal(t, 90.0, snap.Summary.TotalSpent)
	assert.Equal(t, 90.0, snap.Summary.Percentage)
	assert.Equal(t, finance.SeverityWarning, snap.Alert.Severity)

	_, err = suite.tracker.AddExpense(suite.ctx, "Taxi", 20, models.CategoryTransport, suite.day)
	require.NoError(t, err)
	snap = suite.tracker.Snapshot()
	assert.Equal(t, 110.0, snap.Summary.TotalSpent)
	assert.Equal(t, -10.0, snap.Summary.Remaining)
	assert.Equal(t, finance.SeverityDanger, snap.Alert.Severity)
	assert.Equal(t, 10.0, snap.Alert.Overage)
}

func (suite *TrackerTestSuite) TestEveryMutationIsPersisted() {
	e, err := suite.tracker.AddExpense(suite.ctx, "Lunch", 50, models.CategoryFood, suite.day)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), suite.repo.state.Expenses, 1)

	require.NoError(suite.T(), suite.tracker.SetBudget(suite.ctx, 300))
	assert.Equal(suite.T(), 300.0, suite.repo.state.Budget)

	deleted, err := suite.tracker.DeleteExpense(suite.ctx, e.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), deleted)
	assert.Empty(suite.T(), suite.repo.state.Expenses, "deleting the last expense must be written")
	assert.Equal(suite.T(), 3, suite.repo.saved)
}

func (suite *TrackerTestSuite) TestInvalidInputIsNotPersisted() {
	_, err := suite.tracker.AddExpense(suite.ctx, "", 50, models.CategoryFood, suite.day)
	assert.True(suite.T(), IsValidation(err))
	assert.ErrorIs(suite.T(), err, expenses.ErrEmptyDescription)

	_, err = suite.tracker.AddExpense(suite.ctx, "x", -1, models.CategoryFood, suite.day)
	assert.ErrorIs(suite.T(), err, expenses.ErrInvalidAmount)

	err = suite.tracker.SetBudget(suite.ctx, 0)
	assert.ErrorIs(suite.T(), err, ErrInvalidBudget)
	assert.True(suite.T(), IsValidation(err))

	assert.Zero(suite.T(), suite.repo.saved)
	assert.Empty(suite.T(), suite.tracker.Snapshot().Expenses)
}

func (suite *TrackerTestSuite) TestDeleteUnknownIsNoop() {
	_, err := suite.tracker.AddExpense(suite.ctx, "Lunch", 50, models.CategoryFood, suite.day)
	require.NoError(suite.T(), err)
	saves := suite.repo.saved

	deleted, err := suite.tracker.DeleteExpense(suite.ctx, "missing")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), deleted)
	assert.Equal(suite.T(), saves, suite.repo.saved)
	assert.Len(suite.T(), suite.tracker.Snapshot().Expenses, 1)
}

func (suite *TrackerTestSuite) TestFailedSaveRollsBack() {
	_, err := suite.tracker.AddExpense(suite.ctx, "Lunch", 50, models.CategoryFood, suite.day)
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.tracker.SetBudget(suite.ctx, 100))

	suite.repo.failErr = errors.New("disk full")

	_, err = suite.tracker.AddExpense(suite.ctx, "More", 5, models.CategoryFood, suite.day)
	assert.Error(suite.T(), err)
	assert.False(suite.T(), IsValidation(err))
	assert.Error(suite.T(), suite.tracker.SetBudget(suite.ctx, 999))
	assert.Error(suite.T(), suite.tracker.ClearExpenses(suite.ctx))

	snap := suite.tracker.Snapshot()
	assert.Len(suite.T(), snap.Expenses, 1)
	assert.Equal(suite.T(), 100.0, snap.Budget)
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerTestSuite))
}

func TestTrackerReloadsFromSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	tracker, err := NewTracker(ctx, db)
	require.NoError(t, err)
	_, err = tracker.AddExpense(ctx, "Lunch", 50, models.CategoryFood, models.NewDate(2024, time.January, 1))
	require.NoError(t, err)
	require.NoError(t, tracker.SetBudget(ctx, 100))

	reloaded, err := NewTracker(ctx, db)
	require.NoError(t, err)
	snap := reloaded.Snapshot()
	assert.Len(t, snap.Expenses, 1)
	assert.Equal(t, 100.0, snap.Budget)

	require.NoError(t, reloaded.ClearExpenses(ctx))
	again, err := NewTracker(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, again.Snapshot().Expenses, "cleared expenses must not reappear")
}
