// Package core provides money parsing and formatting utilities.
//
// Payment values are carried as decimal.Decimal so that sums over tens of
// thousands of order lines do not drift the way float64 sums do.
package core

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ParseAmount converts a decimal string to a non-negative amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Empty, negative or malformed values return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("0")     -> 0, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatUSD renders an amount the way the dashboard cards show it,
// e.g. "US $1,234.50".
func FormatUSD(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return "US $" + humanize.FormatFloat("#,###.##", f)
}

// Label returns a human readable name, e.g. "Credit Card".
func (p PaymentType) Label() string {
	// Casers are stateful; build one per call.
	return cases.Title(language.English).String(strings.ReplaceAll(string(p), "_", " "))
}
