// Package format converts amounts and ticket numbers to and from the text
// forms used by the Brazilian lottery results.
package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const currencySymbol = "R$"

var hundred = decimal.NewFromInt(100)

// BRL renders an amount as Brazilian currency text, e.g. "R$ 1.234,56".
// Negative amounts are prefixed with a minus sign: "-R$ 1.234,56".
func BRL(amount decimal.Decimal) string {
	cents := amount.Mul(hundred).Round(0)
	sign := ""
	if cents.IsNegative() {
		sign = "-"
		cents = cents.Neg()
	}
	reais := cents.Div(hundred).Truncate(0)
	centavos := cents.Sub(reais.Mul(hundred)).IntPart()

	return fmt.Sprintf("%s%s %s,%02d", sign, currencySymbol, groupThousands(reais.String()), centavos)
}

// groupThousands inserts a dot every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ParseBRL reads Brazilian currency or decimal text ("R$ 1.234,56",
// "1.234,56", "10,5"). Dots are thousands separators and the comma is the
// decimal mark. Text that cannot be read yields zero.
func ParseBRL(text string) decimal.Decimal {
	s := strings.TrimSpace(text)
	s = strings.TrimSpace(strings.ReplaceAll(s, currencySymbol, ""))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}

// ParseAmount converts a prize value taken from a result payload. Numbers
// are used as they are; text goes through ParseBRL. Anything else is zero.
func ParseAmount(v any) decimal.Decimal {
	switch x := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		return ParseBRL(x)
	default:
		return decimal.Zero
	}
}
