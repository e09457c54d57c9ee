// Package engine orchestrates a batch intelligence scan: it groups a slate
// of normalized offers, devigs every complete per-book market, builds a
// fair-probability baseline per market instance, flags EV on every offer,
// and detects cross-book arbitrage from the best price per outcome.
package engine

import (
	"context"
	"log/slog"
	"sort"

	"odds-intelligence/internal/arb"
	"odds-intelligence/internal/baseline"
	"odds-intelligence/internal/devig"
	"odds-intelligence/internal/ev"
	"odds-intelligence/internal/odds"
)

// Config holds scan parameters.
type Config struct {
	MinEdgeThreshold float64  // fraction, e.g. 0.02 for 2%
	ReferenceBooks   []string // sharp books preferred for the EV baseline
	ArbStake         float64  // notional total stake for arbitrage allocations
}

// Intelligence is the full output of one scan over a slate of offers.
type Intelligence struct {
	FairProbabilities []*devig.Record
	EVOpportunities   []ev.Opportunity
	Arbitrages        []*arb.Opportunity
	MarketsScanned    int
	MarketsSkipped    int // per-book groups or markets that were incomplete or malformed
}

// Scan runs the full pipeline over a slate of offers. Pure aside from
// provenance timestamps; concurrent calls need no coordination.
//
// Incomplete or malformed per-book groups are skipped, not fatal: a batch
// over a day's slate should survive one book's corrupt quote.
func Scan(offers []odds.Offer, cfg Config) Intelligence {
	var out Intelligence

	// Per-book groups devig independently
	byBook := groupBy(offers, odds.Offer.GroupKey)
	records := make(map[string][]*devig.Record) // market key → records across books

	for _, key := range sortedKeys(byBook) {
		group := byBook[key]
		set := odds.OutcomeSet{Market: group[0].Market, Offers: group}

		rec, err := devig.Devig(set)
		if err != nil {
			out.MarketsSkipped++
			continue
		}
		out.FairProbabilities = append(out.FairProbabilities, rec)
		records[group[0].MarketKey()] = append(records[group[0].MarketKey()], rec)
	}

	// Per market instance: baseline → EV per offer, best prices → arbitrage
	byMarket := groupBy(offers, odds.Offer.MarketKey)
	for _, key := range sortedKeys(byMarket) {
		group := byMarket[key]
		out.MarketsScanned++

		if fair := baseline.Compute(records[key], cfg.ReferenceBooks); fair != nil {
			opps, err := ev.DetectMarket(fair, group, cfg.MinEdgeThreshold)
			if err != nil {
				slog.Warn("ev detection failed", "market", key, "err", err)
				out.MarketsSkipped++
			} else {
				out.EVOpportunities = append(out.EVOpportunities, opps...)
			}
		}

		best := arb.BestPrices(group)
		set := odds.OutcomeSet{Market: group[0].Market, Offers: best}
		opp, err := arb.Detect(set, cfg.ArbStake)
		if err != nil || opp == nil {
			continue
		}
		out.Arbitrages = append(out.Arbitrages, opp)
	}

	return out
}

// Store persists scan output. Implemented by the sqlite store; nil disables
// persistence.
type Store interface {
	SaveFairProbabilities(rec *devig.Record) error
	SaveEVOpportunity(opp ev.Opportunity) error
	SaveArbitrage(opp *arb.Opportunity) error
}

// Notifier surfaces findings worth acting on.
type Notifier interface {
	AlertEV(opp ev.Opportunity)
	AlertArbitrage(opp *arb.Opportunity)
	LogError(context string, err error)
}

// Engine binds a scan configuration to its persistence and alerting sinks.
type Engine struct {
	store    Store
	notifier Notifier
	cfg      Config
}

// New creates an Engine. store and notifier may be nil.
func New(store Store, notifier Notifier, cfg Config) *Engine {
	return &Engine{store: store, notifier: notifier, cfg: cfg}
}

// ScanAndStore runs Scan, persists every produced row, and alerts on
// recommended EV and on every arbitrage. Persistence failures are logged
// and do not abort the batch.
func (e *Engine) ScanAndStore(ctx context.Context, offers []odds.Offer) (Intelligence, error) {
	result := Scan(offers, e.cfg)

	slog.Info("scan complete",
		"markets", result.MarketsScanned,
		"skipped", result.MarketsSkipped,
		"fair_records", len(result.FairProbabilities),
		"ev_opportunities", len(result.EVOpportunities),
		"arbitrages", len(result.Arbitrages),
	)

	if e.store != nil {
		for _, rec := range result.FairProbabilities {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if err := e.store.SaveFairProbabilities(rec); err != nil {
				e.logError("saving fair probabilities", err)
			}
		}
		for _, opp := range result.EVOpportunities {
			if err := e.store.SaveEVOpportunity(opp); err != nil {
				e.logError("saving ev opportunity", err)
			}
		}
		for _, opp := range result.Arbitrages {
			if err := e.store.SaveArbitrage(opp); err != nil {
				e.logError("saving arbitrage", err)
			}
		}
	}

	if e.notifier != nil {
		for _, opp := range result.EVOpportunities {
			if opp.Result.Recommended {
				e.notifier.AlertEV(opp)
			}
		}
		for _, opp := range result.Arbitrages {
			e.notifier.AlertArbitrage(opp)
		}
	}

	return result, nil
}

func (e *Engine) logError(context string, err error) {
	if e.notifier != nil {
		e.notifier.LogError(context, err)
		return
	}
	slog.Error(context, "err", err)
}

func groupBy(offers []odds.Offer, key func(odds.Offer) string) map[string][]odds.Offer {
	groups := make(map[string][]odds.Offer)
	for _, o := range offers {
		k := key(o)
		groups[k] = append(groups[k], o)
	}
	return groups
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
