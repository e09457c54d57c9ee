// Package parlay combines independent bet legs into a joint price with
// payout, edge, Kelly stake sizing, and a qualitative risk tier.
//
// Legs are treated as statistically independent when multiplying
// probabilities. Same-event or same-team legs are materially correlated in
// reality; the combiner surfaces that as a warning on the result instead of
// attempting correlation modeling.
package parlay

import (
	"fmt"
	"math"

	"odds-intelligence/internal/odds"
)

// Leg is one component bet of a parlay. WinProb is optional: when absent,
// the implied probability of the leg's own odds is used as the fallback.
type Leg struct {
	Odds    float64  `json:"odds"` // decimal, > 1.0
	WinProb *float64 `json:"win_prob,omitempty"`
	EventID string   `json:"event_id,omitempty"`
	Team    string   `json:"team,omitempty"`
}

// Result carries every computed parlay metric.
type Result struct {
	CombinedOdds         float64   `json:"combined_odds"`
	CombinedProbability  float64   `json:"combined_probability"`
	ProjectedPayout      float64   `json:"projected_payout"`
	ExpectedProfit       float64   `json:"expected_profit"`
	BreakEvenProbability float64   `json:"break_even_probability"`
	ExpectedValue        float64   `json:"expected_value"`
	KellyCriterion       float64   `json:"kelly_criterion"`
	RiskLevel            RiskLevel `json:"risk_level"`
	Recommendation       string    `json:"recommendation"`
	Warnings             []string  `json:"warnings,omitempty"`
}

// Options tunes policy knobs that sit outside the core math.
type Options struct {
	// KellyCap bounds the recommended bankroll fraction after the [0,1]
	// clamp. 0 means no cap.
	KellyCap float64
}

// Combine computes the joint metrics for 2+ independent legs.
func Combine(legs []Leg, stake float64) (*Result, error) {
	return CombineWithOptions(legs, stake, Options{})
}

// CombineWithOptions is Combine with explicit policy knobs.
func CombineWithOptions(legs []Leg, stake float64, opts Options) (*Result, error) {
	if len(legs) < 2 {
		return nil, fmt.Errorf("parlay: %w: got %d", odds.ErrInsufficientLegs, len(legs))
	}
	if stake <= 0 {
		return nil, fmt.Errorf("parlay: %w: got %v", odds.ErrInvalidStake, stake)
	}

	combinedOdds := 1.0
	combinedProb := 1.0
	for i, leg := range legs {
		if leg.Odds <= 1.0 {
			return nil, fmt.Errorf("parlay leg %d: %w: got %v", i+1, odds.ErrInvalidOdds, leg.Odds)
		}
		p := 1.0 / leg.Odds
		if leg.WinProb != nil {
			if *leg.WinProb <= 0 || *leg.WinProb >= 1 {
				return nil, fmt.Errorf("parlay leg %d: %w: win probability must be between 0 and 1, got %v",
					i+1, odds.ErrInvalidInput, *leg.WinProb)
			}
			p = *leg.WinProb
		}
		combinedOdds *= leg.Odds
		combinedProb *= p
	}

	payout := stake * combinedOdds
	expectedProfit := combinedProb*payout - stake
	expectedValue := combinedProb*combinedOdds - 1.0

	// Kelly with b = combined_odds - 1: f* = (p*b - (1-p)) / b.
	// Negative edge reports 0, not a negative fraction.
	b := combinedOdds - 1.0
	kelly := (combinedProb*b - (1.0 - combinedProb)) / b
	kelly = math.Max(0, math.Min(kelly, 1.0))
	if opts.KellyCap > 0 && kelly > opts.KellyCap {
		kelly = opts.KellyCap
	}

	risk := ClassifyRisk(len(legs), combinedProb)

	return &Result{
		CombinedOdds:         combinedOdds,
		CombinedProbability:  combinedProb,
		ProjectedPayout:      payout,
		ExpectedProfit:       expectedProfit,
		BreakEvenProbability: 1.0 / combinedOdds,
		ExpectedValue:        expectedValue,
		KellyCriterion:       kelly,
		RiskLevel:            risk,
		Recommendation:       Recommend(expectedValue, risk, kelly),
		Warnings:             correlationWarnings(legs),
	}, nil
}

// correlationWarnings flags leg pairs that share an event or a team. The
// warning annotates the result; it never changes the numbers.
func correlationWarnings(legs []Leg) []string {
	var warnings []string
	for i := 0; i < len(legs); i++ {
		for j := i + 1; j < len(legs); j++ {
			if legs[i].EventID != "" && legs[i].EventID == legs[j].EventID {
				warnings = append(warnings, fmt.Sprintf(
					"legs %d and %d share event %s; probabilities are multiplied as if independent",
					i+1, j+1, legs[i].EventID))
				continue
			}
			if legs[i].Team != "" && legs[i].Team == legs[j].Team {
				warnings = append(warnings, fmt.Sprintf(
					"legs %d and %d share team %s; probabilities are multiplied as if independent",
					i+1, j+1, legs[i].Team))
			}
		}
	}
	return warnings
}
