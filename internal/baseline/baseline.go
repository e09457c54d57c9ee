// Package baseline selects the fair-probability source used for EV
// comparison on one market instance. A reference book's devig is trusted
// outright when available; otherwise the per-book devigs are averaged.
package baseline

import (
	"strings"

	"odds-intelligence/internal/devig"
	"odds-intelligence/internal/odds"
)

// DefaultReferenceBooks are the sharp books whose devigged probabilities
// are preferred over the field average.
var DefaultReferenceBooks = []string{"pinnacle", "betfair"}

// Compute derives one fair probability per outcome from the devig records
// of a single market instance (same event, market, and line across books).
//
// The first record from a reference book wins, in the order referenceBooks
// lists them. With no reference book present, each outcome's probability is
// the unweighted mean across all records quoting it. Returns nil when no
// records are supplied.
func Compute(records []*devig.Record, referenceBooks []string) map[odds.Outcome]float64 {
	if len(records) == 0 {
		return nil
	}
	if referenceBooks == nil {
		referenceBooks = DefaultReferenceBooks
	}

	for _, ref := range referenceBooks {
		for _, rec := range records {
			if strings.EqualFold(rec.Book, ref) {
				return toMap(rec)
			}
		}
	}

	sums := make(map[odds.Outcome]float64)
	counts := make(map[odds.Outcome]int)
	for _, rec := range records {
		for _, p := range rec.Probabilities {
			sums[p.Outcome] += p.Probability
			counts[p.Outcome]++
		}
	}

	out := make(map[odds.Outcome]float64, len(sums))
	for outcome, sum := range sums {
		out[outcome] = sum / float64(counts[outcome])
	}
	return out
}

func toMap(rec *devig.Record) map[odds.Outcome]float64 {
	out := make(map[odds.Outcome]float64, len(rec.Probabilities))
	for _, p := range rec.Probabilities {
		out[p.Outcome] = p.Probability
	}
	return out
}
