// Package server exposes the intelligence calculations over HTTP. Handlers
// are thin: decode, delegate, encode. Dollar amounts are rounded to cents
// here and nowhere earlier.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"odds-intelligence/internal/arb"
	"odds-intelligence/internal/config"
	"odds-intelligence/internal/devig"
	"odds-intelligence/internal/ev"
	"odds-intelligence/internal/odds"
	"odds-intelligence/internal/parlay"
	"odds-intelligence/internal/store"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	cfg config.Config
	db  *store.DB // nil disables persistence and the /opportunities routes' data
}

// NewHandler creates a new handler. db may be nil.
func NewHandler(cfg config.Config, db *store.DB) *Handler {
	return &Handler{cfg: cfg, db: db}
}

// Router builds the chi router with middleware and all routes mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/devig", h.Devig)
		r.Post("/ev", h.DetectEV)
		r.Post("/arbitrage", h.DetectArbitrage)
		r.Post("/parlay/calculate", h.CalculateParlay)
		r.Get("/opportunities/ev", h.ListEV)
		r.Get("/opportunities/arbitrage", h.ListArbitrage)
	})

	return r
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "odds-intelligence",
	})
}

// DevigRequest is one book's complete quote on one market.
type DevigRequest struct {
	EventID string          `json:"event_id"`
	Market  odds.MarketType `json:"market"`
	Line    *float64        `json:"line,omitempty"`
	Book    string          `json:"book"`
	Offers  []OfferPrice    `json:"offers"`
}

// OfferPrice is an outcome with its quoted decimal odds.
type OfferPrice struct {
	Outcome odds.Outcome `json:"outcome"`
	Odds    float64      `json:"odds"`
}

// Devig strips the vig from a posted outcome set.
func (h *Handler) Devig(w http.ResponseWriter, r *http.Request) {
	var req DevigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	rec, err := devig.Devig(req.outcomeSet())
	if err != nil {
		respondError(w, badRequestStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// EVRequest asks for an edge check of one price against a fair probability.
// MinEdge is optional; absent means the configured threshold. An explicit 0
// is honored as a zero threshold.
type EVRequest struct {
	FairProbability float64  `json:"fair_probability"`
	Odds            float64  `json:"odds"`
	MinEdge         *float64 `json:"min_edge,omitempty"`
}

// DetectEV evaluates one offered price against a fair probability.
func (h *Handler) DetectEV(w http.ResponseWriter, r *http.Request) {
	var req EVRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	minEdge := h.cfg.MinEdgeThreshold
	if req.MinEdge != nil {
		minEdge = *req.MinEdge
	}

	res, err := ev.Detect(req.FairProbability, req.Odds, minEdge)
	if err != nil {
		respondError(w, badRequestStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// ArbitrageRequest carries the best price per outcome, possibly from
// different books, plus the total stake to split.
type ArbitrageRequest struct {
	EventID    string          `json:"event_id"`
	Market     odds.MarketType `json:"market"`
	Line       *float64        `json:"line,omitempty"`
	TotalStake float64         `json:"total_stake"`
	Offers     []BookPrice     `json:"offers"`
}

// BookPrice is an outcome quoted by a named book.
type BookPrice struct {
	Outcome odds.Outcome `json:"outcome"`
	Book    string       `json:"book"`
	Odds    float64      `json:"odds"`
}

// ArbitrageResponse wraps detection output; Found is false when the prices
// carry no arbitrage.
type ArbitrageResponse struct {
	Found       bool             `json:"found"`
	Opportunity *arb.Opportunity `json:"opportunity,omitempty"`
}

// DetectArbitrage checks a set of best prices for riskless profit. Stakes
// and payouts in the response are rounded to cents.
func (h *Handler) DetectArbitrage(w http.ResponseWriter, r *http.Request) {
	var req ArbitrageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	stake := req.TotalStake
	if stake == 0 {
		stake = h.cfg.DefaultStake
	}

	offers := make([]odds.Offer, len(req.Offers))
	for i, o := range req.Offers {
		offers[i] = odds.Offer{
			EventID: req.EventID,
			Market:  req.Market,
			Outcome: o.Outcome,
			Line:    req.Line,
			Decimal: o.Odds,
			Book:    o.Book,
		}
	}

	opp, err := arb.Detect(odds.OutcomeSet{Market: req.Market, Offers: offers}, stake)
	if err != nil {
		respondError(w, badRequestStatus(err), err.Error())
		return
	}
	if opp == nil {
		respondJSON(w, http.StatusOK, ArbitrageResponse{Found: false})
		return
	}

	roundArbitrage(opp)
	respondJSON(w, http.StatusOK, ArbitrageResponse{Found: true, Opportunity: opp})
}

// ParlayRequest carries the legs and stake of a parlay to price.
type ParlayRequest struct {
	Legs  []parlay.Leg `json:"legs"`
	Stake float64      `json:"stake"`
}

// ParlayResponse is the computed parlay with dollar fields rounded to cents.
type ParlayResponse struct {
	ID string `json:"id,omitempty"`
	*parlay.Result
}

// CalculateParlay prices a parlay and records the calculation.
func (h *Handler) CalculateParlay(w http.ResponseWriter, r *http.Request) {
	var req ParlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	res, err := parlay.CombineWithOptions(req.Legs, req.Stake, parlay.Options{KellyCap: h.cfg.KellyCap})
	if err != nil {
		respondError(w, badRequestStatus(err), err.Error())
		return
	}

	resp := ParlayResponse{Result: res}
	if h.db != nil {
		if id, err := h.db.SaveParlay(req.Legs, req.Stake, res); err == nil {
			resp.ID = id
		}
	}

	res.ProjectedPayout = odds.RoundToCents(res.ProjectedPayout)
	res.ExpectedProfit = odds.RoundToCents(res.ExpectedProfit)

	respondJSON(w, http.StatusOK, resp)
}

// ListEV returns stored EV opportunities, filterable with event_id, market,
// min_edge, and limit query parameters. min_edge defaults to the configured
// threshold.
func (h *Handler) ListEV(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respondJSON(w, http.StatusOK, []ev.Opportunity{})
		return
	}

	query := r.URL.Query()
	minEdge := h.cfg.MinEdgeThreshold
	if v := query.Get("min_edge"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid min_edge: %v", err))
			return
		}
		minEdge = f
	}

	opps, err := h.db.ListEVOpportunities(store.EVFilter{
		EventID: query.Get("event_id"),
		Market:  query.Get("market"),
		MinEdge: minEdge,
		Limit:   limitParam(query.Get("limit")),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if opps == nil {
		opps = []ev.Opportunity{}
	}
	respondJSON(w, http.StatusOK, opps)
}

// ListArbitrage returns stored arbitrage opportunities, filterable with
// event_id, market, and limit query parameters.
func (h *Handler) ListArbitrage(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respondJSON(w, http.StatusOK, []*arb.Opportunity{})
		return
	}

	query := r.URL.Query()
	opps, err := h.db.ListArbitrages(store.ArbFilter{
		EventID: query.Get("event_id"),
		Market:  query.Get("market"),
		Limit:   limitParam(query.Get("limit")),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if opps == nil {
		opps = []*arb.Opportunity{}
	}
	for _, opp := range opps {
		roundArbitrage(opp)
	}
	respondJSON(w, http.StatusOK, opps)
}

// limitParam parses a limit query value; absent or malformed means the
// default page size.
func limitParam(v string) int {
	if v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 100
}

func roundArbitrage(opp *arb.Opportunity) {
	opp.TotalStake = odds.RoundToCents(opp.TotalStake)
	opp.Payout = odds.RoundToCents(opp.Payout)
	opp.GuaranteedProfit = odds.RoundToCents(opp.GuaranteedProfit)
	for i := range opp.Allocations {
		opp.Allocations[i].Stake = odds.RoundToCents(opp.Allocations[i].Stake)
	}
}

func (req DevigRequest) outcomeSet() odds.OutcomeSet {
	offers := make([]odds.Offer, len(req.Offers))
	for i, o := range req.Offers {
		offers[i] = odds.Offer{
			EventID: req.EventID,
			Market:  req.Market,
			Outcome: o.Outcome,
			Line:    req.Line,
			Decimal: o.Odds,
			Book:    req.Book,
		}
	}
	return odds.OutcomeSet{Market: req.Market, Offers: offers}
}

// badRequestStatus maps calculation errors to 400; anything outside the
// known taxonomy is a 500.
func badRequestStatus(err error) int {
	switch {
	case errors.Is(err, odds.ErrInvalidOdds),
		errors.Is(err, odds.ErrIncompleteMarket),
		errors.Is(err, odds.ErrInsufficientLegs),
		errors.Is(err, odds.ErrInvalidStake),
		errors.Is(err, odds.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
