package chat

import (
	"fmt"
	"strings"

	"finstress/internal/finance"
	"finstress/internal/models"
)

const refusal = "Sorry, I only handle personal finance and economics questions. How can I help you with your finances?"

var instructions = "You are a financial assistant specialized EXCLUSIVELY in economics and personal finance. " +
	"Your responsibilities are: helping with budgeting, expense control, investments, saving, financial planning and financial education. " +
	"IMPORTANT RULES: 1) ONLY answer questions related to economics, finance, money and money management. " +
	"2) If the question is NOT about economics or finance, politely answer: \"" + refusal + "\" " +
	"3) Be friendly and didactic and give practical advice. " +
	"4) Use amounts in reais (R$) when appropriate. " +
	"5) You have access to the user's real financial data and can make specific analyses based on it."

// SystemPrompt builds the system instruction. The financial context block is
// appended only when there is at least one expense.
func SystemPrompt(list []models.Expense, budget float64) string {
	if len(list) == 0 {
		return instructions
	}
	return instructions + FinancialContext(list, budget)
}

// FinancialContext renders the user's data for the model.
func FinancialContext(list []models.Expense, budget float64) string {
	s := finance.Summarize(list, budget)

	cats := make([]string, 0, len(s.CategoryTotals))
	for _, ct := range s.CategoryTotals {
		cats = append(cats, fmt.Sprintf("%s: %s", ct.Category.Info().Name, finance.FormatMoney(ct.Total)))
	}

	var b strings.Builder
	b.WriteString("\n\nUSER FINANCIAL CONTEXT:\n")
	fmt.Fprintf(&b, "- Monthly budget: %s\n", finance.FormatMoney(s.Budget))
	fmt.Fprintf(&b, "- Total spent: %s\n", finance.FormatMoney(s.TotalSpent))
	fmt.Fprintf(&b, "- Remaining: %s\n", finance.FormatMoney(s.Remaining))
	fmt.Fprintf(&b, "- Percentage spent: %.1f%%\n", s.Percentage)
	fmt.Fprintf(&b, "- Number of expenses: %d\n", s.Count)
	fmt.Fprintf(&b, "- Spending by category: %s\n", strings.Join(cats, ", "))
	b.WriteString("\nITEMIZED LIST OF ALL EXPENSES:\n")
	for _, e := range list {
		fmt.Fprintf(&b, "  • %s — %s — %s (%s)\n",
			e.Description, e.Category.Info().Name, finance.FormatMoney(e.Amount), e.Date.Display())
	}
	return b.String()
}
