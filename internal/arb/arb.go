// Package arb detects riskless profit across books: when the best available
// price per outcome of a market sums to less than 100% implied probability,
// a stake split exists that pays the same regardless of which outcome wins.
package arb

import (
	"fmt"
	"time"

	"odds-intelligence/internal/odds"
)

// Allocation is the stake assigned to one outcome at one book.
type Allocation struct {
	Outcome odds.Outcome `json:"outcome"`
	Book    string       `json:"book"`
	Odds    float64      `json:"odds"`
	Stake   float64      `json:"stake"` // unrounded; round at the presentation boundary only
}

// Opportunity is a detected arbitrage with its guaranteed payout.
type Opportunity struct {
	EventID          string          `json:"event_id"`
	Market           odds.MarketType `json:"market"`
	Line             *float64        `json:"line,omitempty"`
	ImpliedSum       float64         `json:"implied_sum"`
	ProfitMargin     float64         `json:"profit_margin"` // 1 - implied_sum
	TotalStake       float64         `json:"total_stake"`
	Payout           float64         `json:"payout"` // identical whichever outcome wins
	GuaranteedProfit float64         `json:"guaranteed_profit"`
	Allocations      []Allocation    `json:"allocations"`
	ComputedAt       time.Time       `json:"computed_at"`
}

// Detect scans a complete outcome set of best prices (one offer per outcome,
// possibly from different books) for arbitrage. Returns (nil, nil) when no
// arbitrage exists; absence is the common case, not an error.
//
// The formula generalizes to any N >= 2 outcomes:
//
//	S        = sum(1/odds_i)
//	arbitrage iff S < 1
//	stake_i  = T * (1/odds_i) / S      → sum(stake_i) = T
//	payout   = stake_i * odds_i = T/S  for every i
//
// All intermediate division stays in float64 with no rounding; rounding a
// marginal stake mid-calculation can flip the detection.
func Detect(set odds.OutcomeSet, totalStake float64) (*Opportunity, error) {
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("arbitrage: %w", err)
	}
	if totalStake <= 0 {
		return nil, fmt.Errorf("arbitrage: %w: got %v", odds.ErrInvalidStake, totalStake)
	}

	var impliedSum float64
	for _, o := range set.Offers {
		impliedSum += 1.0 / o.Decimal
	}

	if impliedSum >= 1.0 {
		return nil, nil
	}

	allocs := make([]Allocation, len(set.Offers))
	for i, o := range set.Offers {
		allocs[i] = Allocation{
			Outcome: o.Outcome,
			Book:    o.Book,
			Odds:    o.Decimal,
			Stake:   totalStake * (1.0 / o.Decimal) / impliedSum,
		}
	}

	payout := totalStake / impliedSum
	first := set.Offers[0]

	return &Opportunity{
		EventID:          first.EventID,
		Market:           set.Market,
		Line:             first.Line,
		ImpliedSum:       impliedSum,
		ProfitMargin:     1.0 - impliedSum,
		TotalStake:       totalStake,
		Payout:           payout,
		GuaranteedProfit: payout - totalStake,
		Allocations:      allocs,
		ComputedAt:       time.Now().UTC(),
	}, nil
}

// BestPrices reduces a pile of offers for one market instance to the best
// (highest) price per outcome across books, the "shop every book" input to
// Detect. Offers for other markets are the caller's bug, not filtered here.
func BestPrices(offers []odds.Offer) []odds.Offer {
	best := make(map[odds.Outcome]odds.Offer)
	order := make([]odds.Outcome, 0, 3)

	for _, o := range offers {
		curr, ok := best[o.Outcome]
		if !ok {
			order = append(order, o.Outcome)
			best[o.Outcome] = o
			continue
		}
		if o.Decimal > curr.Decimal {
			best[o.Outcome] = o
		}
	}

	out := make([]odds.Offer, 0, len(order))
	for _, outcome := range order {
		out = append(out, best[outcome])
	}
	return out
}
