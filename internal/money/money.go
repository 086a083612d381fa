// Package money represents currency values as integer cents.
//
// All arithmetic in the ledger happens on Cents. Floats only appear at the
// edges: decoding user or imported input, and RoundToCents for callers that
// still hold float amounts.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Cents is a signed amount in the currency's minor unit.
type Cents int64

// Zero is the zero amount.
const Zero Cents = 0

// maxAbs bounds amounts to the range where a float64 still represents every
// cent exactly.
const maxAbs = Cents(1<<53 - 1)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrOutOfRange    = errors.New("amount out of range")
)

var hundred = decimal.NewFromInt(100)

// FromFloat converts a decimal currency value to cents, rounding half away
// from zero. Non-finite or out-of-range input maps to zero.
func FromFloat(v float64) Cents {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Zero
	}
	c, err := fromDecimal(decimal.NewFromFloat(v))
	if err != nil {
		return Zero
	}
	return c
}

// RoundToCents rounds a float currency value to two decimals.
// RoundToCents(RoundToCents(x)) == RoundToCents(x) for every finite x.
func RoundToCents(v float64) float64 {
	return FromFloat(v).Float64()
}

// Parse reads a decimal string such as "12.34", "-5" or "1,234.50".
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return fromDecimal(d)
}

func fromDecimal(d decimal.Decimal) (Cents, error) {
	d = d.Mul(hundred).Round(0)
	if d.Abs().GreaterThan(decimal.NewFromInt(int64(maxAbs))) {
		return Zero, ErrOutOfRange
	}
	return Cents(d.IntPart()), nil
}

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Float64 returns the amount in major units. Zero is always positive zero.
func (c Cents) Float64() float64 {
	if c == 0 {
		return 0
	}
	f, _ := c.Decimal().Float64()
	return f
}

// Abs returns the absolute amount.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// Half returns half of the amount, rounded half away from zero.
func (c Cents) Half() Cents {
	return c.DivRound(2)
}

// DivRound divides by n and rounds half away from zero. Division by zero
// yields zero.
func (c Cents) DivRound(n int64) Cents {
	if n == 0 {
		return Zero
	}
	q := decimal.NewFromInt(int64(c)).Div(decimal.NewFromInt(n)).Round(0)
	return Cents(q.IntPart())
}

// Ratio returns c/of as a float, or 0 when of is zero.
func (c Cents) Ratio(of Cents) float64 {
	if of == 0 {
		return 0
	}
	return float64(c) / float64(of)
}

// String renders the amount with Format.
func (c Cents) String() string {
	return Format(c)
}

// Format renders a fixed two-decimal USD amount with thousands grouping,
// e.g. "$1,234.56" or "-$25.00". Output never depends on the process locale.
func Format(c Cents) string {
	sign := ""
	if c < 0 {
		sign = "-"
	}
	abs := int64(c.Abs())
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.Comma(abs/100), abs%100)
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number (or a quoted numeric string) in major
// units and rounds it to the cent. null decodes to zero.
func (c *Cents) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = Zero
		return nil
	}
	s = strings.Trim(s, `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}
	v, err := fromDecimal(d)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Sum adds amounts.
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}
