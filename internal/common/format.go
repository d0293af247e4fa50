package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount as a currency string with comma separators,
// e.g. 1234567.5 -> "₩1,234,568" for KRW (no minor units) or "$1,234.56".
func FormatMoney(v decimal.Decimal, currency string) string {
	sym, places := currencyDisplay(currency)
	negative := v.IsNegative()
	if negative {
		v = v.Neg()
	}

	s := v.StringFixed(places)
	whole, frac, _ := strings.Cut(s, ".")
	whole = groupThousands(whole)
	if frac != "" {
		whole = whole + "." + frac
	}

	if negative {
		return "-" + sym + whole
	}
	return sym + whole
}

// FormatSignedMoney formats an amount with an explicit +/- prefix.
func FormatSignedMoney(v decimal.Decimal, currency string) string {
	if v.IsNegative() {
		return FormatMoney(v, currency)
	}
	return "+" + FormatMoney(v, currency)
}

// FormatSignedPct formats a percentage with an explicit +/- prefix.
func FormatSignedPct(v decimal.Decimal) string {
	s := v.StringFixed(2) + "%"
	if v.IsNegative() {
		return s
	}
	return "+" + s
}

// currencyDisplay returns the symbol and decimal places for a currency code.
func currencyDisplay(currency string) (string, int32) {
	switch strings.ToUpper(currency) {
	case "KRW":
		return "₩", 0
	case "USD":
		return "$", 2
	default:
		return "", 2
	}
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}

// Truncate shortens a string to max runes with an ellipsis, for log previews.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return fmt.Sprintf("%s…", string(r[:max]))
}
