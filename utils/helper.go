package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// ConvertToDate truncates t to its UTC calendar day. Ledger entries are
// day-precision; everything past midnight is noise.
func ConvertToDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return ConvertToDate(t), nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NewDecimal returns a pointer to d. Movement inputs use pointer decimals so a
// missing quantity is distinguishable from an explicit zero.
func NewDecimal(d decimal.Decimal) *decimal.Decimal {
	return &d
}
