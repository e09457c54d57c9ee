// Package odds defines the normalized offer model shared by the intelligence
// engine: market types, outcome labels, outcome sets, odds conversions, and
// the error taxonomy. All odds are decimal; converting from American or
// fractional formats is an ingestion concern.
package odds

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MarketType identifies the kind of betting market an offer belongs to.
type MarketType string

const (
	MarketMoneyline MarketType = "moneyline"
	MarketSpread    MarketType = "spread"
	MarketTotal     MarketType = "total"
)

// Outcome is one side of a market.
type Outcome string

const (
	OutcomeHome  Outcome = "HOME"
	OutcomeAway  Outcome = "AWAY"
	OutcomeDraw  Outcome = "DRAW"
	OutcomeOver  Outcome = "OVER"
	OutcomeUnder Outcome = "UNDER"
)

// Offer is one sportsbook's quoted price for one outcome of one market.
// Offers are read-only to the engine; newer quotes supersede rather than
// mutate older ones.
type Offer struct {
	EventID    string     `json:"event_id"`
	Market     MarketType `json:"market"`
	Outcome    Outcome    `json:"outcome"`
	Line       *float64   `json:"line,omitempty"` // present for spread/total, nil for moneyline
	Decimal    float64    `json:"odds"`           // decimal odds, must be > 1.0
	Book       string     `json:"book"`
	ObservedAt time.Time  `json:"observed_at"`
}

// OutcomeSet groups the mutually exclusive outcomes of one market instance,
// one offer per outcome. For devigging the offers come from a single book;
// for arbitrage detection each offer may come from a different book.
type OutcomeSet struct {
	Market MarketType
	Offers []Offer
}

// marketShapes lists the outcome-label sets each market type supports.
// Market shape is validated explicitly rather than inferred from sport.
var marketShapes = map[MarketType][][]Outcome{
	MarketMoneyline: {
		{OutcomeHome, OutcomeAway},
		{OutcomeHome, OutcomeAway, OutcomeDraw}, // soccer 1X2
	},
	MarketSpread: {
		{OutcomeHome, OutcomeAway},
	},
	MarketTotal: {
		{OutcomeOver, OutcomeUnder},
	},
}

// Validate checks that the set carries valid odds and that its outcome
// labels exactly match one of the supported shapes for its market type.
// A single malformed odds value rejects the whole set: a partial devig on
// a corrupted set produces misleading probabilities.
func (s OutcomeSet) Validate() error {
	shapes, ok := marketShapes[s.Market]
	if !ok {
		return fmt.Errorf("%w: unknown market type %q", ErrIncompleteMarket, s.Market)
	}

	for _, o := range s.Offers {
		if o.Decimal <= 1.0 {
			return fmt.Errorf("%w: %s quoted at %v", ErrInvalidOdds, o.Outcome, o.Decimal)
		}
	}

	seen := make(map[Outcome]bool, len(s.Offers))
	for _, o := range s.Offers {
		if seen[o.Outcome] {
			return fmt.Errorf("%w: duplicate outcome %s", ErrIncompleteMarket, o.Outcome)
		}
		seen[o.Outcome] = true
	}

	for _, shape := range shapes {
		if matchesShape(seen, shape) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s market with outcomes %v", ErrIncompleteMarket, s.Market, outcomeList(seen))
}

func matchesShape(seen map[Outcome]bool, shape []Outcome) bool {
	if len(seen) != len(shape) {
		return false
	}
	for _, o := range shape {
		if !seen[o] {
			return false
		}
	}
	return true
}

func outcomeList(seen map[Outcome]bool) []Outcome {
	out := make([]Outcome, 0, len(seen))
	for o := range seen {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LineKey renders a nullable line as a stable map/grouping key.
func LineKey(line *float64) string {
	if line == nil {
		return "-"
	}
	return strconv.FormatFloat(*line, 'f', -1, 64)
}

// GroupKey identifies one market instance quoted by one book.
func (o Offer) GroupKey() string {
	return strings.Join([]string{o.EventID, string(o.Market), LineKey(o.Line), o.Book}, "|")
}

// MarketKey identifies one market instance across books.
func (o Offer) MarketKey() string {
	return strings.Join([]string{o.EventID, string(o.Market), LineKey(o.Line)}, "|")
}
