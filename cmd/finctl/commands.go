package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"finstress/internal/app"
	"finstress/internal/chat"
	"finstress/internal/expenses"
	"finstress/internal/finance"
	"finstress/internal/models"
	"finstress/internal/report"
)

func cmdBudget(e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: finctl budget <amount>")
	}
	budget, err := finance.ParseAmount(args[0])
	if err != nil {
		return app.ErrInvalidBudget
	}
	if err := e.tracker.SetBudget(e.ctx, budget); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Monthly budget set to %s\n", finance.FormatMoney(budget))
	return nil
}

func cmdAdd(e *env, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	desc := fs.String("desc", "", "Description")
	amountFlag := fs.String("amount", "", "Amount")
	categoryFlag := fs.String("category", string(models.CategoryOther), "Category id")
	dateFlag := fs.String("date", models.Today().String(), "Date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	amount, err := finance.ParseAmount(*amountFlag)
	if err != nil {
		return err
	}
	category, err := models.ParseCategory(*categoryFlag)
	if err != nil {
		return fmt.Errorf("%w %q, expected one of: %s", err, *categoryFlag, categoryIDs())
	}
	date, err := models.ParseDate(*dateFlag)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", *dateFlag)
	}

	exp, err := e.tracker.AddExpense(e.ctx, *desc, amount, category, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Added %s: %s %s\n", exp.ID, exp.Description, finance.FormatMoney(exp.Amount))
	printAlert(e.stdout, e.tracker.Snapshot().Alert)
	return nil
}

func categoryIDs() string {
	ids := make([]string, 0, len(models.Categories()))
	for _, c := range models.Categories() {
		ids = append(ids, string(c.ID))
	}
	return strings.Join(ids, ", ")
}

func cmdList(e *env, _ []string) error {
	snap := e.tracker.Snapshot()
	if len(snap.Expenses) == 0 {
		fmt.Fprintln(e.stdout, "No expenses yet.")
		return nil
	}
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tDESCRIPTION\tAMOUNT")
	for _, exp := range expenses.SortedByDate(snap.Expenses) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			exp.ID, exp.Date.Display(), exp.Category.Info().Name, exp.Description, finance.FormatMoney(exp.Amount))
	}
	return tw.Flush()
}

func cmdRemove(e *env, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	yes := fs.Bool("yes", false, "Skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: finctl rm [-yes] <id>")
	}
	id := fs.Arg(0)

	var target *models.Expense
	for _, exp := range e.tracker.Snapshot().Expenses {
		if exp.ID == id {
			target = &exp
			break
		}
	}
	if target == nil {
		fmt.Fprintf(e.stdout, "No expense with id %s\n", id)
		return nil
	}
	if !*yes && !e.confirm(fmt.Sprintf("Delete %q (%s)?", target.Description, finance.FormatMoney(target.Amount))) {
		fmt.Fprintln(e.stdout, "Cancelled")
		return nil
	}

	removed, err := e.tracker.DeleteExpense(e.ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(e.stdout, "No expense with id %s\n", id)
		return nil
	}
	fmt.Fprintf(e.stdout, "Removed %s\n", id)
	return nil
}

// confirm asks a y/N question on stdin.
func (e *env) confirm(question string) bool {
	fmt.Fprintf(e.stdout, "%s [y/N]: ", question)
	answer, err := readLine(e.stdin)
	if err != nil {
		fmt.Fprintln(e.stdout)
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func cmdClear(e *env, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	yes := fs.Bool("yes", false, "Skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes && !e.confirm("Remove all expenses?") {
		fmt.Fprintln(e.stdout, "Cancelled")
		return nil
	}
	if err := e.tracker.ClearExpenses(e.ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, "All expenses removed")
	return nil
}

func cmdSummary(e *env, _ []string) error {
	snap := e.tracker.Snapshot()
	s := snap.Summary

	fmt.Fprintf(e.stdout, "Budget:     %s\n", finance.FormatMoney(s.Budget))
	fmt.Fprintf(e.stdout, "Spent:      %s\n", finance.FormatMoney(s.TotalSpent))
	fmt.Fprintf(e.stdout, "Remaining:  %s\n", finance.FormatMoney(s.Remaining))
	fmt.Fprintf(e.stdout, "Used:       %.1f%%\n", s.Percentage)
	fmt.Fprintf(e.stdout, "Expenses:   %d\n", s.Count)

	if totals := s.ByAmount(); len(totals) > 0 {
		fmt.Fprintln(e.stdout)
		tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
		for _, ct := range totals {
			info := ct.Category.Info()
			fmt.Fprintf(tw, "%s %s\t%d\t%s\t%.1f%%\n", info.Icon, info.Name, ct.Count, finance.FormatMoney(ct.Total), ct.Share)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	printAlert(e.stdout, snap.Alert)
	return nil
}

func printAlert(w io.Writer, a finance.Alert) {
	if a.Active() {
		fmt.Fprintf(w, "\n%s %s\n", a.Title, a.Message)
	}
}

func cmdReport(e *env, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	now := time.Now()
	out := fs.String("o", report.FileName(now), "Output file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	snap := e.tracker.Snapshot()
	if len(snap.Expenses) == 0 {
		return report.ErrNoExpenses
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := report.Render(f, snap.Expenses, snap.Budget, now); err != nil {
		f.Close()
		os.Remove(*out)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Report saved to %s\n", *out)
	return nil
}

func cmdAsk(e *env, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("usage: finctl ask <question>")
	}

	var conv *chat.Conversation
	if client, err := chat.NewClient(e.cfg.Chat.ClientConfig()); err != nil {
		conv = chat.NewConversation(nil, err, nil)
	} else {
		conv = chat.NewConversation(client, nil, nil)
	}

	snap := e.tracker.Snapshot()
	reply, err := conv.Send(e.ctx, question, snap.Expenses, snap.Budget)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, reply.Content)
	return nil
}
