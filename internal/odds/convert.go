package odds

import (
	"fmt"
	"math"
)

// ImpliedProbability converts decimal odds to implied probability.
// Decimal 2.00 → 0.50 (50%), decimal 1.50 → 0.667 (66.7%)
func ImpliedProbability(decimal float64) (float64, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidOdds, decimal)
	}
	return 1.0 / decimal, nil
}

// ProbabilityToDecimal converts a probability to fair decimal odds.
// 0.50 → 2.00, 0.667 → 1.50
func ProbabilityToDecimal(probability float64) (float64, error) {
	if probability <= 0 || probability >= 1 {
		return 0, fmt.Errorf("%w: probability must be between 0 and 1, got %v", ErrInvalidInput, probability)
	}
	return 1.0 / probability, nil
}

// AmericanToDecimal converts American odds to decimal odds.
// American +150 → Decimal 2.50
// American -150 → Decimal 1.67
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("%w: American odds cannot be 0", ErrInvalidInput)
	}

	if american > 0 {
		return (float64(american) / 100.0) + 1.0, nil
	}
	return (100.0 / float64(-american)) + 1.0, nil
}

// DecimalToAmerican converts decimal odds to American odds.
// Decimal 2.50 → American +150
// Decimal 1.67 → American -149 (rounding)
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidOdds, decimal)
	}

	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}
	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// RoundToCents rounds a currency amount to 2 decimal places. Intended for
// the presentation boundary only; intermediate stakes stay unrounded.
func RoundToCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
