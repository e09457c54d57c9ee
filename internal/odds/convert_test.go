package odds

import (
	"errors"
	"math"
	"testing"
)

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		name     string
		decimal  float64
		expected float64
		delta    float64
	}{
		{"Even money", 2.00, 0.50, 0.0001},
		{"Favorite 1.50", 1.50, 0.6667, 0.001},
		{"Standard -110 equivalent", 1.9091, 0.5238, 0.001},
		{"Longshot 5.00", 5.00, 0.20, 0.0001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImpliedProbability(tt.decimal)
			if err != nil {
				t.Fatalf("ImpliedProbability(%v) error: %v", tt.decimal, err)
			}
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("ImpliedProbability(%v) = %v, want %v", tt.decimal, got, tt.expected)
			}
		})
	}
}

func TestImpliedProbabilityInvalid(t *testing.T) {
	for _, decimal := range []float64{1.0, 0.5, 0, -2.0} {
		if _, err := ImpliedProbability(decimal); !errors.Is(err, ErrInvalidOdds) {
			t.Errorf("ImpliedProbability(%v) error = %v, want ErrInvalidOdds", decimal, err)
		}
	}
}

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		name     string
		american int
		expected float64
		delta    float64
	}{
		{"Underdog +150", 150, 2.50, 0.0001},
		{"Favorite -150", -150, 1.6667, 0.001},
		{"Favorite -125", -125, 1.80, 0.0001},
		{"Standard -110", -110, 1.9091, 0.001},
		{"Even +100", 100, 2.00, 0.0001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AmericanToDecimal(tt.american)
			if err != nil {
				t.Fatalf("AmericanToDecimal(%d) error: %v", tt.american, err)
			}
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("AmericanToDecimal(%d) = %v, want %v", tt.american, got, tt.expected)
			}
		})
	}

	if _, err := AmericanToDecimal(0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("AmericanToDecimal(0) error = %v, want ErrInvalidInput", err)
	}
}

func TestDecimalToAmerican(t *testing.T) {
	tests := []struct {
		name     string
		decimal  float64
		expected int
	}{
		{"Decimal 2.50", 2.50, 150},
		{"Decimal 1.80", 1.80, -125},
		{"Decimal 2.00", 2.00, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecimalToAmerican(tt.decimal)
			if err != nil {
				t.Fatalf("DecimalToAmerican(%v) error: %v", tt.decimal, err)
			}
			if got != tt.expected {
				t.Errorf("DecimalToAmerican(%v) = %d, want %d", tt.decimal, got, tt.expected)
			}
		})
	}

	if _, err := DecimalToAmerican(1.0); !errors.Is(err, ErrInvalidOdds) {
		t.Errorf("DecimalToAmerican(1.0) error = %v, want ErrInvalidOdds", err)
	}
}

func TestRoundTripAmericanDecimal(t *testing.T) {
	for _, american := range []int{-300, -150, -110, 100, 130, 250} {
		decimal, err := AmericanToDecimal(american)
		if err != nil {
			t.Fatalf("AmericanToDecimal(%d) error: %v", american, err)
		}
		back, err := DecimalToAmerican(decimal)
		if err != nil {
			t.Fatalf("DecimalToAmerican(%v) error: %v", decimal, err)
		}
		if back != american {
			t.Errorf("round trip %d → %v → %d", american, decimal, back)
		}
	}
}

func TestRoundToCents(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{50.004, 50.00},
		{47.619047, 47.62},
		{33.333333, 33.33},
		{100.0, 100.0},
	}
	for _, tt := range tests {
		if got := RoundToCents(tt.in); got != tt.expected {
			t.Errorf("RoundToCents(%v) = %v, want %v", tt.in, got, tt.expected)
		}
	}
}
