package finance

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a user-supplied amount is not a positive number.
var ErrInvalidAmount = errors.New("please enter a valid amount")

// ParseAmount parses a positive decimal, accepting either a dot or a comma as
// the decimal separator.
func ParseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// FormatMoney renders a value as "R$ 1234.56"; negative values keep their sign.
func FormatMoney(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.IsNegative() {
		return "-R$ " + d.Neg().StringFixed(2)
	}
	return "R$ " + d.StringFixed(2)
}
