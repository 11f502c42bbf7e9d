package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"finstress/internal/models"

	log "github.com/sirupsen/logrus"
)

// Storage keys.
const (
	KeyExpenses = "expenses"
	KeyBudget   = "monthlyBudget"
	KeySession  = "session"
)

// State is the durable application state.
type State struct {
	Expenses []models.Expense
	Budget   float64
}

// Load reads the persisted state. The boolean is false when nothing usable was
// stored. Corrupted values are logged and treated as absent.
func (db *DB) Load(ctx context.Context) (State, bool, error) {
	var (
		st    State
		found bool
	)

	raw, ok, err := db.Get(ctx, KeyExpenses)
	if err != nil {
		return State{}, false, err
	}
	if ok {
		var records []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			log.WithError(err).Warn("Discarding unreadable stored expenses")
		} else {
			valid := decodeExpenses(records)
			if len(valid) != len(records) {
				log.Warnf("Discarding %d malformed stored expenses", len(records)-len(valid))
			}
			st.Expenses, found = valid, true
		}
	}

	raw, ok, err = db.Get(ctx, KeyBudget)
	if err != nil {
		return State{}, false, err
	}
	if ok {
		b, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(b) || math.IsInf(b, 0) || b < 0 {
			log.WithField("value", raw).Warn("Discarding unreadable stored budget")
		} else {
			st.Budget, found = b, true
		}
	}

	return st, found, nil
}

// decodeExpenses decodes records one by one and keeps the valid ones.
func decodeExpenses(records []json.RawMessage) []models.Expense {
	out := make([]models.Expense, 0, len(records))
	for _, rec := range records {
		var e models.Expense
		if err := json.Unmarshal(rec, &e); err != nil {
			log.WithError(err).Debug("Skipping undecodable stored expense")
			continue
		}
		if e.ID == "" || !e.Category.Valid() || e.Amount <= 0 || e.Date.IsZero() {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Save rewrites both keys in one transaction. An empty list is written as "[]".
func (db *DB) Save(ctx context.Context, st State) error {
	list := st.Expenses
	if list == nil {
		list = []models.Expense{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := setTx(ctx, tx, KeyExpenses, string(raw)); err != nil {
		return err
	}
	if err := setTx(ctx, tx, KeyBudget, strconv.FormatFloat(st.Budget, 'f', -1, 64)); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns the raw value stored under key.
func (db *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set stores value under key, replacing any prior value.
func (db *DB) Set(ctx context.Context, key, value string) error {
	return setTx(ctx, db.conn, key, value)
}

// Delete removes key.
func (db *DB) Delete(ctx context.Context, key string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setTx(ctx context.Context, ex execer, key, value string) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	return err
}
