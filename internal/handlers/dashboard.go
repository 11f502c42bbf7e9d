package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"finstress/internal/app"
	"finstress/internal/expenses"
	"finstress/internal/finance"
	"finstress/internal/metrics"
	"finstress/internal/models"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// ExpenseItem represents an expense in the list view.
type ExpenseItem struct {
	models.Expense
	Info models.CategoryInfo
}

// ExpenseForm echoes the values of the add-expense form.
type ExpenseForm struct {
	Description string
	Amount      string
	Category    string
	Date        string
}

// ChatViewModel is the assistant panel.
type ChatViewModel struct {
	Messages []models.ChatMessage
	Busy     bool
}

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	BudgetInput string
	Summary     finance.Summary
	Alert       finance.Alert
	Progress    finance.Progress
	BarWidth    float64
	Categories  []CategoryItem
	Expenses    []ExpenseItem
	Options     []models.CategoryInfo
	Form        ExpenseForm
	Chat        ChatViewModel
	Error       string
}

// Dashboard renders the main view.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderDashboard(w, r, http.StatusOK, h.defaultForm(), "")
}

func (h *Handlers) defaultForm() ExpenseForm {
	now := h.now()
	return ExpenseForm{
		Category: string(models.CategoryFood),
		Date:     models.NewDate(now.Year(), now.Month(), now.Day()).String(),
	}
}

func (h *Handlers) renderDashboard(w http.ResponseWriter, r *http.Request, status int, form ExpenseForm, errMsg string) {
	snap := h.tracker.Snapshot()

	items := make([]ExpenseItem, 0, len(snap.Expenses))
	for _, e := range expenses.SortedByDate(snap.Expenses) {
		items = append(items, ExpenseItem{Expense: e, Info: e.Category.Info()})
	}

	vm := DashboardViewModel{
		Summary:    snap.Summary,
		Alert:      snap.Alert,
		Progress:   finance.ProgressLevel(snap.Summary.Percentage),
		BarWidth:   finance.BarWidth(snap.Summary.Percentage),
		Categories: categoryItems(snap.Summary),
		Expenses:   items,
		Options:    models.Categories(),
		Form:       form,
		Error:      errMsg,
	}
	if snap.Budget > 0 {
		vm.BudgetInput = strconv.FormatFloat(snap.Budget, 'f', -1, 64)
	}
	if conv := h.chats.get(TokenFromContext(r)); conv != nil {
		vm.Chat = ChatViewModel{Messages: conv.Messages(), Busy: conv.Busy()}
	}
	h.render(w, r, status, "dashboard.html", vm)
}

// afterChange shows the updated dashboard.
func (h *Handlers) afterChange(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		h.renderDashboard(w, r, http.StatusOK, h.defaultForm(), "")
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// fail re-renders the dashboard for input errors and logs everything else.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, form ExpenseForm, err error) {
	if app.IsValidation(err) {
		h.renderDashboard(w, r, http.StatusBadRequest, form, userMessage(err))
		return
	}
	log.WithError(err).Error("Failed to save state")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func userMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return "Invalid input"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// SetBudget handles the budget form.
func (h *Handlers) SetBudget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	budget, err := finance.ParseAmount(r.FormValue("budget"))
	if err != nil {
		h.fail(w, r, h.defaultForm(), &app.ValidationError{Err: app.ErrInvalidBudget})
		return
	}
	if err := h.tracker.SetBudget(r.Context(), budget); err != nil {
		h.fail(w, r, h.defaultForm(), err)
		return
	}
	h.afterChange(w, r)
}

// AddExpense handles the new expense form.
func (h *Handlers) AddExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	form := ExpenseForm{
		Description: r.FormValue("description"),
		Amount:      r.FormValue("amount"),
		Category:    r.FormValue("category"),
		Date:        r.FormValue("date"),
	}

	description, amount, category, date, err := parseExpense(form)
	if err != nil {
		h.fail(w, r, form, &app.ValidationError{Err: err})
		return
	}
	e, err := h.tracker.AddExpense(r.Context(), description, amount, category, date)
	if err != nil {
		h.fail(w, r, form, err)
		return
	}
	metrics.ExpensesAdded.Inc()
	log.WithFields(log.Fields{"id": e.ID, "category": e.Category}).Debug("Expense added")
	h.afterChange(w, r)
}

func parseExpense(form ExpenseForm) (string, float64, models.Category, models.Date, error) {
	if form.Description == "" {
		return "", 0, "", models.Date{}, expenses.ErrEmptyDescription
	}
	amount, err := finance.ParseAmount(form.Amount)
	if err != nil {
		return "", 0, "", models.Date{}, err
	}
	category, err := models.ParseCategory(form.Category)
	if err != nil {
		return "", 0, "", models.Date{}, err
	}
	if form.Date == "" {
		return "", 0, "", models.Date{}, expenses.ErrMissingDate
	}
	date, err := models.ParseDate(form.Date)
	if err != nil {
		return "", 0, "", models.Date{}, errors.New("invalid date")
	}
	return form.Description, amount, category, date, nil
}

// DeleteExpense removes one expense. Unknown ids are a no-op.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	removed, err := h.tracker.DeleteExpense(r.Context(), id)
	if err != nil {
		h.fail(w, r, h.defaultForm(), err)
		return
	}
	if removed {
		metrics.ExpensesDeleted.Inc()
	}
	h.afterChange(w, r)
}

// ClearExpenses removes every expense.
func (h *Handlers) ClearExpenses(w http.ResponseWriter, r *http.Request) {
	n := len(h.tracker.Snapshot().Expenses)
	if err := h.tracker.ClearExpenses(r.Context()); err != nil {
		h.fail(w, r, h.defaultForm(), err)
		return
	}
	metrics.ExpensesDeleted.Add(float64(n))
	h.afterChange(w, r)
}
