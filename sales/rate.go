/*
rate.go - Commission rate normalization

PURPOSE:
  Canonicalizes a rate input into a decimal in [0, 1]. The source data
  mixes percentages ("25") with fractions ("0.25"); normalization makes
  one canonical representation before any arithmetic touches it.

CONTRACT:
  - Empty / non-numeric input normalizes to 0 (missing rate, not an error)
  - |raw| > 1 is treated as a percentage and divided by 100
  - The result must land in [0, 1]; anything else is InvalidRateError
  - Exactly 1 is ambiguous ("1%" vs "100%"); policy: the <= 1 branch
    applies, so 1 means 100%

SEE ALSO:
  - engine.go: Normalizes at the moment of realization
  - directory.go: Normalizes at agent registration
*/
package sales

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	rateOne        = decimal.NewFromInt(1)
	rateOneHundred = decimal.NewFromInt(100)
)

// NormalizeRate canonicalizes a rate into a decimal in [0, 1].
// Values with |raw| > 1 are read as percentages and divided by 100.
// Results outside [0, 1] after that heuristic return InvalidRateError.
func NormalizeRate(raw decimal.Decimal) (decimal.Decimal, error) {
	r := raw
	if r.Abs().GreaterThan(rateOne) {
		r = r.Div(rateOneHundred)
	}
	if r.IsNegative() || r.GreaterThan(rateOne) {
		return decimal.Zero, &InvalidRateError{Raw: raw.String(), Normalized: r.String()}
	}
	return r, nil
}

// ParseRate parses and normalizes a raw rate string. Empty or non-numeric
// input means "no rate" and yields 0 without error; a parseable value goes
// through NormalizeRate.
func ParseRate(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, nil
	}
	return NormalizeRate(d)
}
