package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"odds-intelligence/internal/config"
	"odds-intelligence/internal/devig"
	"odds-intelligence/internal/ev"
	"odds-intelligence/internal/odds"
	"odds-intelligence/internal/parlay"
	"odds-intelligence/internal/store"
)

func testHandler() http.Handler {
	cfg := config.Config{
		MinEdgeThreshold: 0.02,
		KellyCap:         0.25,
		DefaultStake:     100,
	}
	return NewHandler(cfg, nil).Router()
}

func postJSON(t *testing.T, h http.Handler, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	testHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
}

func TestDevigEndpoint(t *testing.T) {
	rec := postJSON(t, testHandler(), "/api/v1/devig", `{
		"event_id": "e1",
		"market": "moneyline",
		"book": "pinnacle",
		"offers": [
			{"outcome": "HOME", "odds": 1.91},
			{"outcome": "AWAY", "odds": 1.91}
		]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var record devig.Record
	if err := json.NewDecoder(rec.Body).Decode(&record); err != nil {
		t.Fatalf("decoding body: %v", err)
	}

	if len(record.Probabilities) != 2 {
		t.Fatalf("got %d probabilities, want 2", len(record.Probabilities))
	}
	for _, p := range record.Probabilities {
		if math.Abs(p.Probability-0.5) > 1e-9 {
			t.Errorf("%s probability = %v, want 0.5", p.Outcome, p.Probability)
		}
	}
}

func TestDevigEndpointIncompleteMarket(t *testing.T) {
	rec := postJSON(t, testHandler(), "/api/v1/devig", `{
		"event_id": "e1",
		"market": "moneyline",
		"book": "pinnacle",
		"offers": [{"outcome": "HOME", "odds": 1.91}]
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestEVEndpoint(t *testing.T) {
	rec := postJSON(t, testHandler(), "/api/v1/ev", `{
		"fair_probability": 0.55,
		"odds": 2.00
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Edge        float64 `json:"edge"`
		Recommended bool    `json:"recommended"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if math.Abs(body.Edge-0.10) > 1e-9 {
		t.Errorf("edge = %v, want 0.10", body.Edge)
	}
	if !body.Recommended {
		t.Error("edge above the default threshold should be recommended")
	}
}

func TestEVEndpointExplicitZeroThreshold(t *testing.T) {
	// edge 0.01 sits below the configured 0.02 default, so the default
	// threshold rejects it
	rec := postJSON(t, testHandler(), "/api/v1/ev", `{
		"fair_probability": 0.505,
		"odds": 2.00
	}`)
	var body struct {
		Recommended bool `json:"recommended"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Recommended {
		t.Error("edge below the default threshold should not be recommended")
	}

	// An explicit zero threshold is honored, not swapped for the default
	rec = postJSON(t, testHandler(), "/api/v1/ev", `{
		"fair_probability": 0.505,
		"odds": 2.00,
		"min_edge": 0
	}`)
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if !body.Recommended {
		t.Error("positive edge should be recommended at an explicit zero threshold")
	}
}

func TestEVEndpointInvalidProbability(t *testing.T) {
	rec := postJSON(t, testHandler(), "/api/v1/ev", `{
		"fair_probability": 1.5,
		"odds": 2.00
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestArbitrageEndpointFound(t *testing.T) {
	rec := postJSON(t, testHandler(), "/api/v1/arbitrage", `{
		"event_id": "e1",
		"market": "moneyline",
		"total_stake": 100,
		"offers": [
			{"outcome": "HOME", "book": "betmgm", "odds": 2.10},
			{"outcome": "AWAY", "book": "caesars", "odds": 2.10}
		]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Found       bool `json:"found"`
		Opportunity struct {
			Payout           float64 `json:"payout"`
			GuaranteedProfit float64 `json:"guaranteed_profit"`
			Allocations      []struct {
				Stake float64 `json:"stake"`
			} `json:"allocations"`
		} `json:"opportunity"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}

	if !body.Found {
		t.Fatal("arbitrage should be found at 2.10/2.10")
	}
	// Rounded to cents at the boundary: equal $50.00 stakes, $105.00 payout
	if body.Opportunity.Payout != 105.00 {
		t.Errorf("payout = %v, want 105.00", body.Opportunity.Payout)
	}
	if body.Opportunity.GuaranteedProfit != 5.00 {
		t.Errorf("profit = %v, want 5.00", body.Opportunity.GuaranteedProfit)
	}
	for i, a := range body.Opportunity.Allocations {
		if a.Stake != 50.00 {
			t.Errorf("allocation %d stake = %v, want 50.00", i, a.Stake)
		}
	}
}

func TestArbitrageEndpointNotFound(t *testing.T) {
	rec := postJSON(t, testHandler(), "/api/v1/arbitrage", `{
		"event_id": "e1",
		"market": "moneyline",
		"total_stake": 100,
		"offers": [
			{"outcome": "HOME", "book": "betmgm", "odds": 1.91},
			{"outcome": "AWAY", "book": "caesars", "odds": 1.91}
		]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Found bool `json:"found"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Found {
		t.Error("vig prices should not be flagged as arbitrage")
	}
}

func TestParlayEndpoint(t *testing.T) {
	rec := postJSON(t, testHandler(), "/api/v1/parlay/calculate", `{
		"stake": 100,
		"legs": [
			{"odds": 1.85},
			{"odds": 2.10}
		]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body parlay.Result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if math.Abs(body.CombinedOdds-3.885) > 1e-9 {
		t.Errorf("combined odds = %v, want 3.885", body.CombinedOdds)
	}
	if body.ProjectedPayout != 388.50 {
		t.Errorf("payout = %v, want 388.50", body.ProjectedPayout)
	}
	if body.Recommendation == "" {
		t.Error("recommendation should be populated")
	}
}

func TestParlayEndpointSingleLeg(t *testing.T) {
	rec := postJSON(t, testHandler(), "/api/v1/parlay/calculate", `{
		"stake": 100,
		"legs": [{"odds": 1.85}]
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func storedHandler(t *testing.T) http.Handler {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	seeds := []ev.Opportunity{
		{EventID: "e1", Market: odds.MarketMoneyline, Outcome: odds.OutcomeHome, Book: "draftkings",
			Result: ev.Result{FairProb: 0.55, Odds: 2.00, Edge: 0.10, Recommended: true}, ComputedAt: time.Now().UTC()},
		{EventID: "e1", Market: odds.MarketTotal, Outcome: odds.OutcomeOver, Book: "betmgm",
			Result: ev.Result{FairProb: 0.52, Odds: 2.00, Edge: 0.04, Recommended: true}, ComputedAt: time.Now().UTC()},
		{EventID: "e2", Market: odds.MarketMoneyline, Outcome: odds.OutcomeAway, Book: "caesars",
			Result: ev.Result{FairProb: 0.53, Odds: 2.00, Edge: 0.06, Recommended: true}, ComputedAt: time.Now().UTC()},
	}
	for _, opp := range seeds {
		if err := db.SaveEVOpportunity(opp); err != nil {
			t.Fatalf("seeding ev opportunity: %v", err)
		}
	}

	cfg := config.Config{
		MinEdgeThreshold: 0.02,
		KellyCap:         0.25,
		DefaultStake:     100,
	}
	return NewHandler(cfg, db).Router()
}

func TestListEVQueryFilters(t *testing.T) {
	h := storedHandler(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"all rows", "/api/v1/opportunities/ev", 3},
		{"by event", "/api/v1/opportunities/ev?event_id=e1", 2},
		{"by market", "/api/v1/opportunities/ev?market=moneyline", 2},
		{"event and market", "/api/v1/opportunities/ev?event_id=e1&market=moneyline", 1},
		{"min edge", "/api/v1/opportunities/ev?min_edge=0.05", 2},
		{"limit", "/api/v1/opportunities/ev?limit=1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}
			var body []ev.Opportunity
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if len(body) != tt.want {
				t.Errorf("got %d rows, want %d", len(body), tt.want)
			}
		})
	}
}

func TestListEVRejectsMalformedMinEdge(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/opportunities/ev?min_edge=lots", nil)
	rec := httptest.NewRecorder()
	storedHandler(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestOpportunityRoutesWithoutStore(t *testing.T) {
	for _, path := range []string{"/api/v1/opportunities/ev", "/api/v1/opportunities/arbitrage"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		testHandler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rec.Code)
		}
		var body []json.RawMessage
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decoding body: %v", path, err)
		}
		if len(body) != 0 {
			t.Errorf("%s returned %d rows, want 0", path, len(body))
		}
	}
}
