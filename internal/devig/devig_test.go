package devig

import (
	"errors"
	"math"
	"testing"

	"odds-intelligence/internal/odds"
)

func twoWay(homeOdds, awayOdds float64) odds.OutcomeSet {
	return odds.OutcomeSet{
		Market: odds.MarketMoneyline,
		Offers: []odds.Offer{
			{EventID: "e1", Market: odds.MarketMoneyline, Outcome: odds.OutcomeHome, Decimal: homeOdds, Book: "pinnacle"},
			{EventID: "e1", Market: odds.MarketMoneyline, Outcome: odds.OutcomeAway, Decimal: awayOdds, Book: "pinnacle"},
		},
	}
}

func TestDevigTwoWay(t *testing.T) {
	tests := []struct {
		name         string
		homeOdds     float64
		awayOdds     float64
		expectedHome float64
		expectedAway float64
		expectedVig  float64
		delta        float64
	}{
		{
			name:         "Symmetric 1.91/1.91",
			homeOdds:     1.91,
			awayOdds:     1.91,
			expectedHome: 0.5,
			expectedAway: 0.5,
			expectedVig:  0.0471,
			delta:        0.001,
		},
		{
			name:         "Favorite 1.50/2.70",
			homeOdds:     1.50,
			awayOdds:     2.70,
			expectedHome: 0.6429,
			expectedAway: 0.3571,
			expectedVig:  0.037,
			delta:        0.001,
		},
		{
			name:         "No-margin book normalizes as a no-op",
			homeOdds:     2.00,
			awayOdds:     2.00,
			expectedHome: 0.5,
			expectedAway: 0.5,
			expectedVig:  0.0,
			delta:        1e-9,
		},
		{
			name:         "Underround book still normalizes",
			homeOdds:     2.10,
			awayOdds:     2.10,
			expectedHome: 0.5,
			expectedAway: 0.5,
			expectedVig:  -0.0476,
			delta:        0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Devig(twoWay(tt.homeOdds, tt.awayOdds))
			if err != nil {
				t.Fatalf("Devig error: %v", err)
			}
			if rec.Method != MethodMultiplicative {
				t.Errorf("Method = %q, want %q", rec.Method, MethodMultiplicative)
			}
			if math.Abs(rec.Probability(odds.OutcomeHome)-tt.expectedHome) > tt.delta {
				t.Errorf("home prob = %v, want %v", rec.Probability(odds.OutcomeHome), tt.expectedHome)
			}
			if math.Abs(rec.Probability(odds.OutcomeAway)-tt.expectedAway) > tt.delta {
				t.Errorf("away prob = %v, want %v", rec.Probability(odds.OutcomeAway), tt.expectedAway)
			}
			if math.Abs(rec.Vig-tt.expectedVig) > tt.delta {
				t.Errorf("vig = %v, want %v", rec.Vig, tt.expectedVig)
			}
		})
	}
}

func TestDevigSumsToOne(t *testing.T) {
	sets := []odds.OutcomeSet{
		twoWay(1.91, 1.91),
		twoWay(1.17, 5.40),
		{
			Market: odds.MarketMoneyline,
			Offers: []odds.Offer{
				{Market: odds.MarketMoneyline, Outcome: odds.OutcomeHome, Decimal: 2.45},
				{Market: odds.MarketMoneyline, Outcome: odds.OutcomeDraw, Decimal: 3.25},
				{Market: odds.MarketMoneyline, Outcome: odds.OutcomeAway, Decimal: 3.10},
			},
		},
	}

	for _, set := range sets {
		rec, err := Devig(set)
		if err != nil {
			t.Fatalf("Devig error: %v", err)
		}
		var sum float64
		for _, p := range rec.Probabilities {
			sum += p.Probability
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("fair probabilities sum to %v, want 1.0 within 1e-9", sum)
		}
	}
}

func TestDevigThreeWay(t *testing.T) {
	rec, err := Devig(odds.OutcomeSet{
		Market: odds.MarketMoneyline,
		Offers: []odds.Offer{
			{EventID: "e2", Market: odds.MarketMoneyline, Outcome: odds.OutcomeHome, Decimal: 2.50, Book: "bet365"},
			{EventID: "e2", Market: odds.MarketMoneyline, Outcome: odds.OutcomeDraw, Decimal: 3.30, Book: "bet365"},
			{EventID: "e2", Market: odds.MarketMoneyline, Outcome: odds.OutcomeAway, Decimal: 2.90, Book: "bet365"},
		},
	})
	if err != nil {
		t.Fatalf("Devig error: %v", err)
	}

	// Raw implieds: 0.4, 0.30303, 0.34483; overround ≈ 1.04786
	if math.Abs(rec.Overround-1.04786) > 0.001 {
		t.Errorf("overround = %v, want ≈1.04786", rec.Overround)
	}
	if math.Abs(rec.Probability(odds.OutcomeHome)-0.3817) > 0.001 {
		t.Errorf("home prob = %v, want ≈0.3817", rec.Probability(odds.OutcomeHome))
	}
	if math.Abs(rec.Probability(odds.OutcomeDraw)-0.2892) > 0.001 {
		t.Errorf("draw prob = %v, want ≈0.2892", rec.Probability(odds.OutcomeDraw))
	}
}

func TestDevigMonotonicity(t *testing.T) {
	// Shortening one outcome's price must not decrease its fair probability
	base, err := Devig(twoWay(1.91, 1.91))
	if err != nil {
		t.Fatalf("Devig error: %v", err)
	}
	shortened, err := Devig(twoWay(1.80, 1.91))
	if err != nil {
		t.Fatalf("Devig error: %v", err)
	}

	if shortened.Probability(odds.OutcomeHome) < base.Probability(odds.OutcomeHome) {
		t.Errorf("home prob decreased from %v to %v after home price shortened",
			base.Probability(odds.OutcomeHome), shortened.Probability(odds.OutcomeHome))
	}
}

func TestDevigRejectsMalformed(t *testing.T) {
	if _, err := Devig(twoWay(0.95, 1.91)); !errors.Is(err, odds.ErrInvalidOdds) {
		t.Errorf("Devig with odds < 1 error = %v, want ErrInvalidOdds", err)
	}

	incomplete := odds.OutcomeSet{
		Market: odds.MarketMoneyline,
		Offers: []odds.Offer{
			{Market: odds.MarketMoneyline, Outcome: odds.OutcomeHome, Decimal: 1.91},
		},
	}
	if _, err := Devig(incomplete); !errors.Is(err, odds.ErrIncompleteMarket) {
		t.Errorf("Devig with partial set error = %v, want ErrIncompleteMarket", err)
	}
}
