// Package money handles tender monetary values. Amounts are stored in
// paise (minor units) so no floating point touches the persisted value;
// formatting to rupees with lakh/crore suffixes is presentation only.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrInvalidAmount = errors.New("invalid amount")

const (
	paisePerRupee  = 100
	rupeesPerLakh  = 100_000
	rupeesPerCrore = 10_000_000
)

var enIN = message.NewPrinter(language.MustParse("en-IN"))

// ParseRupees converts a user-entered rupee amount such as
// "₹12,34,567" or "12345.67" into paise. Currency symbols, grouping
// commas and whitespace are ignored; at most two decimal places are
// accepted.
func ParseRupees(s string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '₹', ',', ' ', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if cleaned == "" {
		return 0, ErrInvalidAmount
	}

	intPart, fracPart, hasFrac := strings.Cut(cleaned, ".")
	if intPart == "" {
		intPart = "0"
	}

	rupees, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || rupees < 0 {
		return 0, ErrInvalidAmount
	}

	paise := rupees * paisePerRupee
	if hasFrac {
		if len(fracPart) == 0 || len(fracPart) > 2 {
			return 0, ErrInvalidAmount
		}
		// Digits only; ParseInt would let a stray sign through here.
		for _, r := range fracPart {
			if r < '0' || r > '9' {
				return 0, ErrInvalidAmount
			}
		}
		for len(fracPart) < 2 {
			fracPart += "0"
		}
		frac, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
		paise += frac
	}

	return paise, nil
}

// FormatPaise renders a paise amount in the Indian convention:
// crores above ₹1 Cr, lakhs above ₹1 Lakh, grouped rupees below that.
func FormatPaise(p int64) string {
	rupees := float64(p) / paisePerRupee

	switch {
	case rupees >= rupeesPerCrore:
		return fmt.Sprintf("₹%.2f Cr", rupees/rupeesPerCrore)
	case rupees >= rupeesPerLakh:
		return fmt.Sprintf("₹%.2f Lakh", rupees/rupeesPerLakh)
	default:
		return enIN.Sprintf("₹%d", int64(math.Round(rupees)))
	}
}

// Format renders an optional stored value for display.
func Format(p *int64) string {
	if p == nil || *p == 0 {
		return "Not specified"
	}
	return FormatPaise(*p)
}
