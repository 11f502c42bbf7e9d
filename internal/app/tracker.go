// Package app ties the expense store and the budget to durable storage.
package app

import (
	"context"
	"errors"
	"math"
	"sync"

	"finstress/internal/expenses"
	"finstress/internal/finance"
	"finstress/internal/models"
	"finstress/internal/storage"

	log "github.com/sirupsen/logrus"
)

// ErrInvalidBudget is returned when the budget is not a positive number.
var ErrInvalidBudget = errors.New("please enter a valid budget")

// Repository persists the application state.
type Repository interface {
	Load(ctx context.Context) (storage.State, bool, error)
	Save(ctx context.Context, st storage.State) error
}

// ValidationError wraps an input error that should be shown to the user as is.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a user input error.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Snapshot is a consistent view of the state and its aggregates.
type Snapshot struct {
	Expenses []models.Expense
	Budget   float64
	Summary  finance.Summary
	Alert    finance.Alert
}

// Tracker owns the expense list and the budget and writes them through to the
// repository after every change.
type Tracker struct {
	mu     sync.Mutex
	repo   Repository
	store  *expenses.Store
	budget float64
}

// NewTracker loads the persisted state. Missing state starts empty.
func NewTracker(ctx context.Context, repo Repository) (*Tracker, error) {
	st, found, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Info("No stored expenses, starting empty")
	}
	return &Tracker{
		repo:   repo,
		store:  expenses.NewStore(st.Expenses),
		budget: st.Budget,
	}, nil
}

// AddExpense validates and stores a new expense.
func (t *Tracker) AddExpense(ctx context.Context, description string, amount float64, category models.Category, date models.Date) (models.Expense, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.store.Add(description, amount, category, date)
	if err != nil {
		return models.Expense{}, &ValidationError{Err: err}
	}
	if err := t.saveLocked(ctx); err != nil {
		t.store.Remove(e.ID)
		return models.Expense{}, err
	}
	return e, nil
}

// DeleteExpense removes an expense. It reports false when the id is unknown.
func (t *Tracker) DeleteExpense(ctx context.Context, id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	before := t.store.List()
	if !t.store.Remove(id) {
		return false, nil
	}
	if err := t.saveLocked(ctx); err != nil {
		t.store = expenses.NewStore(before)
		return false, err
	}
	return true, nil
}

// ClearExpenses removes every expense.
func (t *Tracker) ClearExpenses(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	before := t.store.List()
	t.store.Clear()
	if err := t.saveLocked(ctx); err != nil {
		t.store = expenses.NewStore(before)
		return err
	}
	return nil
}

// SetBudget replaces the monthly budget.
func (t *Tracker) SetBudget(ctx context.Context, budget float64) error {
	if math.IsNaN(budget) || math.IsInf(budget, 0) || budget <= 0 {
		return &ValidationError{Err: ErrInvalidBudget}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.budget
	t.budget = budget
	if err := t.saveLocked(ctx); err != nil {
		t.budget = prev
		return err
	}
	return nil
}

// Snapshot returns the current state with freshly computed aggregates.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	list := t.store.List()
	summary := finance.Summarize(list, t.budget)
	return Snapshot{
		Expenses: list,
		Budget:   t.budget,
		Summary:  summary,
		Alert:    finance.Evaluate(summary),
	}
}

func (t *Tracker) saveLocked(ctx context.Context) error {
	return t.repo.Save(ctx, storage.State{Expenses: t.store.List(), Budget: t.budget})
}
