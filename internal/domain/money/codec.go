// Package money centralizes every place a provider-supplied amount is parsed
// and validated, so decimal/locale parsing never gets sprinkled through the
// payment handlers (see the "Decimal/locale-dependent amount parsing"
// redesign note).
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount cannot be parsed, or parses to
// a non-integral value (fractional tiyin).
var ErrInvalidAmount = errors.New("money: invalid amount")

// ParseInt parses a provider amount (number, or string with digits, commas,
// or surrounding whitespace) into an integer minor-unit amount. It accepts
// the value only if, after trimming whitespace and normalizing ',' to '.',
// the decimal is exactly equal to its integer truncation.
func ParseInt(raw any) (int64, error) {
	d, err := toDecimal(raw)
	if err != nil {
		return 0, err
	}
	truncated := d.Truncate(0)
	if !d.Equal(truncated) {
		return 0, ErrInvalidAmount
	}
	return truncated.IntPart(), nil
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case nil:
		return decimal.Decimal{}, ErrInvalidAmount
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		if s == "" {
			return decimal.Decimal{}, ErrInvalidAmount
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, ErrInvalidAmount
		}
		return d, nil
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Decimal{}, ErrInvalidAmount
	}
}

// SumToTiyin converts an integer sum amount to tiyin (1/100 of a sum).
func SumToTiyin(sum int64) int64 { return sum * 100 }

// TiyinToSum converts tiyin back to whole sum, truncating any remainder
// (provider amounts that satisfy ParseInt never carry a remainder).
func TiyinToSum(tiyin int64) int64 { return tiyin / 100 }
