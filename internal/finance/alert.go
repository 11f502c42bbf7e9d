package finance

import (
	"fmt"
	"math"
)

// Severity is the alert band selected by the consumed percentage.
type Severity string

const (
	SeverityNone    Severity = ""
	SeverityAlert   Severity = "alert"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Band thresholds, closed on the lower end.
const (
	AlertThreshold   = 60.0
	WarningThreshold = 80.0
	DangerThreshold  = 100.0
)

// Alert is the budget alert shown to the user.
type Alert struct {
	Severity Severity
	Title    string
	Message  string
	// Overage is set only for SeverityDanger.
	Overage float64
}

// Active reports whether the alert should be shown.
func (a Alert) Active() bool {
	return a.Severity != SeverityNone
}

// Band maps a percentage onto a severity.
func Band(percentage float64) Severity {
	switch {
	case percentage >= DangerThreshold:
		return SeverityDanger
	case percentage >= WarningThreshold:
		return SeverityWarning
	case percentage >= AlertThreshold:
		return SeverityAlert
	default:
		return SeverityNone
	}
}

// Evaluate builds the alert for a summary. A budget that is not set never alerts.
func Evaluate(s Summary) Alert {
	if s.Budget <= 0 {
		return Alert{}
	}
	switch sev := Band(s.Percentage); sev {
	case SeverityDanger:
		overage := s.TotalSpent - s.Budget
		return Alert{
			Severity: sev,
			Title:    "Limit exceeded!",
			Message:  fmt.Sprintf("You spent %s over your monthly budget.", FormatMoney(overage)),
			Overage:  overage,
		}
	case SeverityWarning:
		return Alert{
			Severity: sev,
			Title:    "Warning!",
			Message:  fmt.Sprintf("You have already spent %.0f%% of your monthly budget.", math.Floor(s.Percentage)),
		}
	case SeverityAlert:
		return Alert{
			Severity: sev,
			Title:    "Heads up!",
			Message:  fmt.Sprintf("You have already spent %.0f%% of your monthly budget. Watch your spending!", math.Floor(s.Percentage)),
		}
	}
	return Alert{}
}

// ReportLine is the one-line form of the alert used in exported reports.
func (a Alert) ReportLine() string {
	switch a.Severity {
	case SeverityDanger:
		return "ATTENTION: budget exceeded!"
	case SeverityWarning:
		return "Careful: you have spent more than 80% of the budget!"
	case SeverityAlert:
		return "Heads up: you have spent more than 60% of the budget!"
	}
	return ""
}
