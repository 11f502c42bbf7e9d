package handlers

import (
	"encoding/json"
	"net/http"

	"finstress/internal/expenses"
	"finstress/internal/finance"
	"finstress/internal/models"

	log "github.com/sirupsen/logrus"
)

// CategoryItem represents a category with its spending statistics.
type CategoryItem struct {
	finance.CategoryTotal
	Info models.CategoryInfo
}

// categoryItems lists the category totals, largest first.
func categoryItems(s finance.Summary) []CategoryItem {
	totals := s.ByAmount()
	items := make([]CategoryItem, 0, len(totals))
	for _, ct := range totals {
		items = append(items, CategoryItem{CategoryTotal: ct, Info: ct.Category.Info()})
	}
	return items
}

type categoryJSON struct {
	Category models.Category `json:"category"`
	Name     string          `json:"name"`
	Total    float64         `json:"total"`
	Count    int             `json:"count"`
	Share    float64         `json:"share"`
}

type alertJSON struct {
	Severity finance.Severity `json:"severity"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Overage  float64          `json:"overage,omitempty"`
}

// SummaryResponse is the body of GET /api/summary.
type SummaryResponse struct {
	Budget     float64          `json:"budget"`
	TotalSpent float64          `json:"totalSpent"`
	Remaining  float64          `json:"remaining"`
	Percentage float64          `json:"percentage"`
	Count      int              `json:"count"`
	Categories []categoryJSON   `json:"categories"`
	Alert      *alertJSON       `json:"alert,omitempty"`
	Expenses   []models.Expense `json:"expenses"`
}

// Summary returns the current state and its aggregates as JSON.
func (h *Handlers) Summary(w http.ResponseWriter, _ *http.Request) {
	snap := h.tracker.Snapshot()
	s := snap.Summary

	resp := SummaryResponse{
		Budget:     s.Budget,
		TotalSpent: s.TotalSpent,
		Remaining:  s.Remaining,
		Percentage: s.Percentage,
		Count:      s.Count,
		Categories: make([]categoryJSON, 0, len(s.CategoryTotals)),
		Expenses:   expenses.SortedByDate(snap.Expenses),
	}
	for _, item := range categoryItems(s) {
		resp.Categories = append(resp.Categories, categoryJSON{
			Category: item.Category,
			Name:     item.Info.Name,
			Total:    item.Total,
			Count:    item.Count,
			Share:    item.Share,
		})
	}
	if snap.Alert.Active() {
		resp.Alert = &alertJSON{
			Severity: snap.Alert.Severity,
			Title:    snap.Alert.Title,
			Message:  snap.Alert.Message,
			Overage:  snap.Alert.Overage,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.WithError(err).Error("Failed to encode summary")
	}
}
