// Package devig removes the bookmaker's margin from a quoted outcome set,
// producing fair probabilities that sum to 1.
package devig

import (
	"fmt"
	"time"

	"odds-intelligence/internal/odds"
)

// MethodMultiplicative is the only devig method in scope. Shin's method and
// the power method are known alternatives but are not implemented.
const MethodMultiplicative = "multiplicative"

// FairProbability is one outcome's vig-free probability.
type FairProbability struct {
	Outcome     odds.Outcome `json:"outcome"`
	Odds        float64      `json:"odds"` // the raw quote the probability was derived from
	Probability float64      `json:"probability"`
}

// Record is the output of devigging one outcome set, tagged with enough
// provenance to be re-derived or audited later.
type Record struct {
	EventID       string               `json:"event_id"`
	Market        odds.MarketType      `json:"market"`
	Line          *float64             `json:"line,omitempty"`
	Book          string               `json:"book"`
	Method        string               `json:"method"`
	Overround     float64              `json:"overround"` // sum of raw implied probabilities
	Vig           float64              `json:"vig"`       // overround - 1
	Probabilities []FairProbability    `json:"probabilities"`
	ComputedAt    time.Time            `json:"computed_at"`
}

// Probability returns the fair probability for one outcome, or 0 if the
// outcome is not part of the record.
func (r *Record) Probability(outcome odds.Outcome) float64 {
	for _, p := range r.Probabilities {
		if p.Outcome == outcome {
			return p.Probability
		}
	}
	return 0
}

// Devig converts a complete outcome set into fair probabilities using the
// multiplicative (overround) method:
//
//	p_raw_i  = 1 / odds_i
//	S        = sum(p_raw_i)
//	p_fair_i = p_raw_i / S
//
// The fair probabilities sum to 1.0 within floating-point rounding. A set
// whose implied probabilities sum to <= 1 (a stale or no-margin book) still
// normalizes; that is a limit case, not an error.
func Devig(set odds.OutcomeSet) (*Record, error) {
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("devig: %w", err)
	}

	raw := make([]float64, len(set.Offers))
	var sum float64
	for i, o := range set.Offers {
		p, err := odds.ImpliedProbability(o.Decimal)
		if err != nil {
			return nil, fmt.Errorf("devig %s: %w", o.Outcome, err)
		}
		raw[i] = p
		sum += p
	}

	probs := make([]FairProbability, len(set.Offers))
	for i, o := range set.Offers {
		probs[i] = FairProbability{
			Outcome:     o.Outcome,
			Odds:        o.Decimal,
			Probability: raw[i] / sum,
		}
	}

	first := set.Offers[0]
	return &Record{
		EventID:       first.EventID,
		Market:        set.Market,
		Line:          first.Line,
		Book:          first.Book,
		Method:        MethodMultiplicative,
		Overround:     sum,
		Vig:           sum - 1.0,
		Probabilities: probs,
		ComputedAt:    time.Now().UTC(),
	}, nil
}
