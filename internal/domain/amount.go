package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	zeroAmount     = "0.00"
	isoDateLayout  = "2006-01-02"
	fullDateLayout = "20060102"
)

// CentsToAmount converts an integer-cents string such as "000012345" into a
// major-unit amount with two fraction digits ("123.45"). Anything that is not
// a run of decimal digits yields "0.00" and ErrInvalidAmount.
func CentsToAmount(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !isDigits(raw) {
		return zeroAmount, ErrInvalidAmount
	}

	cents, err := decimal.NewFromString(raw)
	if err != nil {
		return zeroAmount, ErrInvalidAmount
	}

	return cents.Shift(-2).StringFixed(2), nil
}

// FormatDate turns a YYMMDD date into YYYY-MM-DD, assuming the 21st century.
// Anything that is not exactly six digits forming a real calendar date falls
// back to the date of now.
func FormatDate(yymmdd string, now time.Time) string {
	fallback := now.Format(isoDateLayout)
	if len(yymmdd) != 6 || !isDigits(yymmdd) {
		return fallback
	}

	t, err := time.Parse(fullDateLayout, "20"+yymmdd)
	if err != nil {
		return fallback
	}
	return t.Format(isoDateLayout)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
