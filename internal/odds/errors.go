package odds

import "errors"

// Error taxonomy shared by every computation in the engine. Callers match
// with errors.Is; all constructors wrap these with context.
var (
	// ErrInvalidOdds is returned when any decimal odds value is <= 1.0.
	ErrInvalidOdds = errors.New("invalid odds: decimal odds must be greater than 1.0")

	// ErrIncompleteMarket is returned when an outcome set does not contain
	// all and only the outcomes of a supported market shape.
	ErrIncompleteMarket = errors.New("incomplete market: outcome set does not match a supported shape")

	// ErrInsufficientLegs is returned for parlays with fewer than 2 legs.
	ErrInsufficientLegs = errors.New("insufficient legs: parlay requires at least 2 legs")

	// ErrInvalidStake is returned when a stake is zero or negative.
	ErrInvalidStake = errors.New("invalid stake: stake must be positive")

	// ErrInvalidInput covers probabilities outside (0,1) and other
	// malformed numeric input.
	ErrInvalidInput = errors.New("invalid input")
)
