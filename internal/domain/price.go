package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// amountPattern accepts plain digits or comma-grouped thousands, with an
// optional fraction after '.'.
var amountPattern = regexp.MustCompile(`^-?(\d{1,3}(,\d{3})+|\d+)(\.\d+)?$`)

// isAffix reports whether r may surround the amount: currency symbols,
// currency codes and spaces.
func isAffix(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r)
}

// ParsePrice turns a display price such as "$1,250.00", "₪89", "USD 19.99"
// or "10.5" into an exact decimal. A currency symbol or code is allowed
// only before or after the amount, and ',' only as a thousands separator.
// Empty or negative amounts are rejected.
func ParsePrice(display string) (decimal.Decimal, error) {
	amount := strings.TrimRightFunc(strings.TrimLeftFunc(display, isAffix), isAffix)
	if amount == "" {
		return decimal.Zero, fmt.Errorf("price %q: no amount", display)
	}
	if !amountPattern.MatchString(amount) {
		return decimal.Zero, fmt.Errorf("price %q: malformed amount %q", display, amount)
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(amount, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("price %q: %w", display, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("price %q: must not be negative", display)
	}
	return d, nil
}

// IsValidPrice reports whether display parses with ParsePrice.
func IsValidPrice(display string) bool {
	_, err := ParsePrice(display)
	return err == nil
}

// FormatPrice renders an amount with a leading dollar sign and two decimals.
func FormatPrice(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
