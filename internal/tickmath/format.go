package tickmath

import "github.com/shopspring/decimal"

// RoundSignificant rounds d half away from zero to sig significant digits.
func RoundSignificant(d decimal.Decimal, sig int) decimal.Decimal {
	if d.IsZero() || sig <= 0 {
		return d
	}
	c := d.Coefficient()
	digits := len(c.Abs(c).String())
	// Position of the leading digit relative to the decimal point.
	lead := digits + int(d.Exponent())
	return d.Round(int32(sig - lead))
}
