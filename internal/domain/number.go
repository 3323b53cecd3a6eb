package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Quantities and money carry at most MaxIntegerDigits digits before the
// point and MaxFractionDigits after it. Anything wider is rejected before it
// reaches the cost arithmetic, where a huge exponent makes rounding unbounded.
const (
	MaxIntegerDigits  = 18
	MaxFractionDigits = 18
)

// Number is a decimal that decodes from a JSON number, a numeric string or a
// blank. Blank and null decode to zero.
type Number struct {
	decimal.Decimal
}

func NewNumber(d decimal.Decimal) Number {
	return Number{Decimal: d}
}

func NumberFromInt(v int64) Number {
	return Number{Decimal: decimal.NewFromInt(v)}
}

// MustNumber panics on malformed input; use it for literals only.
func MustNumber(raw string) Number {
	return Number{Decimal: decimal.RequireFromString(raw)}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		n.Decimal = decimal.Zero
		return nil
	}
	raw = strings.TrimSpace(strings.Trim(raw, `"`))
	if raw == "" {
		n.Decimal = decimal.Zero
		return nil
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid number %q", raw)
	}
	if !InRange(parsed) {
		return fmt.Errorf("number %q out of range", shorten(raw))
	}
	n.Decimal = parsed
	return nil
}

// InRange reports whether d fits the digit bounds above.
func InRange(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	return exp >= -MaxFractionDigits && int64(d.NumDigits())+exp <= MaxIntegerDigits
}

func shorten(raw string) string {
	if len(raw) > 32 {
		return raw[:32] + "..."
	}
	return raw
}

func (n Number) MarshalJSON() ([]byte, error) {
	return n.Decimal.MarshalJSON()
}

// ParseDate accepts YYYY-MM-DD or RFC3339. A blank value yields fallback.
func ParseDate(raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t.UTC(), nil
}
