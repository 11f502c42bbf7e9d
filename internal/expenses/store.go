// Package expenses holds the ordered in-memory list of expense records.
package expenses

import (
	"errors"
	"math"
	"sort"
	"strings"

	"finstress/internal/models"

	"github.com/google/uuid"
)

var (
	ErrEmptyDescription = errors.New("description is required")
	ErrInvalidAmount    = errors.New("amount must be a number greater than zero")
	ErrMissingDate      = errors.New("date is required")
)

// Store keeps expenses in insertion order. It is not safe for concurrent use;
// callers serialize access.
type Store struct {
	items []models.Expense
	newID func() string
}

// NewStore creates a store seeded with the given records.
func NewStore(seed []models.Expense) *Store {
	items := make([]models.Expense, len(seed))
	copy(items, seed)
	return &Store{items: items, newID: uuid.NewString}
}

// Validate checks the fields of a new expense.
func Validate(description string, amount float64, category models.Category, date models.Date) error {
	if strings.TrimSpace(description) == "" {
		return ErrEmptyDescription
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidAmount
	}
	if !category.Valid() {
		return models.ErrUnknownCategory
	}
	if date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// Add validates and appends a new expense, returning the stored record.
func (s *Store) Add(description string, amount float64, category models.Category, date models.Date) (models.Expense, error) {
	if err := Validate(description, amount, category, date); err != nil {
		return models.Expense{}, err
	}
	e := models.Expense{
		ID:          s.newID(),
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Category:    category,
		Date:        date,
	}
	s.items = append(s.items, e)
	return e, nil
}

// Remove deletes the record with the given id and reports whether one was found.
func (s *Store) Remove(id string) bool {
	for i, e := range s.items {
		if e.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops every record.
func (s *Store) Clear() {
	s.items = nil
}

// List returns a copy of all records in insertion order.
func (s *Store) List() []models.Expense {
	out := make([]models.Expense, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.items)
}

// SortedByDate returns a copy of list ordered by descending date. Records on the
// same day keep their relative order.
func SortedByDate(list []models.Expense) []models.Expense {
	out := make([]models.Expense, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}
