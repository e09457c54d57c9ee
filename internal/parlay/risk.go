package parlay

import (
	"fmt"
	"math"
)

// RiskLevel is an ordinal tier driven by leg count and combined probability.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// riskRules is checked in order; the first rule a parlay satisfies decides
// its tier, and anything that satisfies none is VERY_HIGH. Thresholds are
// policy and live here as data so they can be tuned and tested apart from
// the arithmetic. More legs or lower probability can only move the tier up.
var riskRules = []struct {
	maxLegs int
	minProb float64
	level   RiskLevel
}{
	{maxLegs: 2, minProb: 0.40, level: RiskLow},
	{maxLegs: 3, minProb: 0.20, level: RiskMedium},
	{maxLegs: 5, minProb: 0.08, level: RiskHigh},
}

// ClassifyRisk maps (leg count, combined probability) to a risk tier.
func ClassifyRisk(numLegs int, combinedProb float64) RiskLevel {
	for _, r := range riskRules {
		if numLegs <= r.maxLegs && combinedProb >= r.minProb {
			return r.level
		}
	}
	return RiskVeryHigh
}

// riskRank orders tiers for monotonicity comparisons.
func riskRank(l RiskLevel) int {
	switch l {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 3
	}
}

// recommendationBands maps expected-value ranges to fixed message templates.
// Selection is a pure lookup: same EV band, risk tier, and Kelly fraction
// always produce the same string. Bands follow ascending maxEV; the last
// band catches everything above 15%.
var recommendationBands = []struct {
	maxEV     float64
	verdict   string
	withKelly bool
}{
	{maxEV: -0.05, verdict: "NOT RECOMMENDED - negative expected value; this parlay loses money over time", withKelly: false},
	{maxEV: 0.0, verdict: "MARGINAL - slightly negative expected value; consider skipping this parlay", withKelly: false},
	{maxEV: 0.05, verdict: "NEUTRAL - thin positive expected value; proceed with caution", withKelly: false},
	{maxEV: 0.15, verdict: "GOOD VALUE - positive expected value", withKelly: true},
	{maxEV: math.Inf(1), verdict: "EXCELLENT VALUE - strong positive expected value; strong opportunity", withKelly: true},
}

// Recommend renders the recommendation message for a computed parlay.
func Recommend(expectedValue float64, risk RiskLevel, kelly float64) string {
	for _, b := range recommendationBands {
		if expectedValue < b.maxEV {
			msg := fmt.Sprintf("%s (EV %+.1f%%, risk %s)", b.verdict, expectedValue*100, risk)
			if b.withKelly {
				msg += fmt.Sprintf("; Kelly suggests %.1f%% of bankroll", kelly*100)
			}
			return msg
		}
	}
	// Unreachable: the last band's maxEV is +Inf
	return string(risk)
}
