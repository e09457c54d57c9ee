// Package ev detects positive expected value: a fair probability from a
// reference book or model compared against a shopped price.
package ev

import (
	"fmt"
	"time"

	"odds-intelligence/internal/odds"
)

// Result is the outcome of a single EV check. Deterministic: same inputs
// always produce the same edge.
type Result struct {
	FairProb    float64 `json:"fair_probability"`
	Odds        float64 `json:"odds"`
	ImpliedProb float64 `json:"implied_probability"`
	Edge        float64 `json:"edge"`     // expected value per unit staked
	EdgePct     float64 `json:"edge_pct"` // edge * 100
	HasValue    bool    `json:"has_value"`
	Recommended bool    `json:"recommended"` // edge meets the configured threshold
}

// Opportunity is a Result bound to a concrete (market, outcome, book),
// shaped for persistence as a flat row.
type Opportunity struct {
	EventID    string          `json:"event_id"`
	Market     odds.MarketType `json:"market"`
	Outcome    odds.Outcome    `json:"outcome"`
	Line       *float64        `json:"line,omitempty"`
	Book       string          `json:"book"`
	Result     Result          `json:"result"`
	ComputedAt time.Time       `json:"computed_at"`
}

// Detect computes the edge of an offered price against a fair probability.
//
// The multiplicative form edge = fairProb*odds - 1 is used because it
// directly yields expected value per unit staked; fairProb - impliedProb is
// only a probability gap. minEdgeThreshold is a fraction (0.02 for 2%).
//
// Inputs outside their domains are rejected rather than clamped; silent
// coercion would mask upstream devig bugs.
func Detect(fairProb, decimalOdds, minEdgeThreshold float64) (Result, error) {
	if fairProb <= 0 || fairProb >= 1 {
		return Result{}, fmt.Errorf("%w: fair probability must be between 0 and 1, got %v", odds.ErrInvalidInput, fairProb)
	}
	if decimalOdds <= 1.0 {
		return Result{}, fmt.Errorf("%w: got %v", odds.ErrInvalidOdds, decimalOdds)
	}
	if minEdgeThreshold < 0 {
		return Result{}, fmt.Errorf("%w: threshold must be non-negative, got %v", odds.ErrInvalidInput, minEdgeThreshold)
	}

	edge := fairProb*decimalOdds - 1.0

	return Result{
		FairProb:    fairProb,
		Odds:        decimalOdds,
		ImpliedProb: 1.0 / decimalOdds,
		Edge:        edge,
		EdgePct:     edge * 100,
		HasValue:    edge > 0,
		Recommended: edge*100 >= minEdgeThreshold*100,
	}, nil
}

// DetectMarket evaluates every offer in a market against per-outcome fair
// probabilities (typically a baseline built from devig records), one EV
// check per outcome. Works identically for 2-way and 1X2 markets; nothing
// in the edge formula is shape-specific.
func DetectMarket(fair map[odds.Outcome]float64, offers []odds.Offer, minEdgeThreshold float64) ([]Opportunity, error) {
	var opps []Opportunity
	now := time.Now().UTC()

	for _, o := range offers {
		p := fair[o.Outcome]
		if p <= 0 || p >= 1 {
			continue // outcome not covered by the baseline
		}
		res, err := Detect(p, o.Decimal, minEdgeThreshold)
		if err != nil {
			return nil, fmt.Errorf("ev %s %s: %w", o.Book, o.Outcome, err)
		}
		opps = append(opps, Opportunity{
			EventID:    o.EventID,
			Market:     o.Market,
			Outcome:    o.Outcome,
			Line:       o.Line,
			Book:       o.Book,
			Result:     res,
			ComputedAt: now,
		})
	}
	return opps, nil
}
