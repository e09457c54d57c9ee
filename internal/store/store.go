package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"odds-intelligence/internal/arb"
	"odds-intelligence/internal/devig"
	"odds-intelligence/internal/ev"
	"odds-intelligence/internal/odds"
	"odds-intelligence/internal/parlay"
)

// DB handles intelligence result storage
type DB struct {
	db *sql.DB
}

// New opens (or creates) the intelligence database at dbPath.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS fair_probabilities (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		market TEXT NOT NULL,
		line TEXT NOT NULL,
		book TEXT NOT NULL,
		outcome TEXT NOT NULL,
		odds REAL NOT NULL,
		probability REAL NOT NULL,
		method TEXT NOT NULL,
		overround REAL NOT NULL,
		vig REAL NOT NULL,
		computed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fair_market ON fair_probabilities(event_id, market, line);

	CREATE TABLE IF NOT EXISTS ev_opportunities (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		market TEXT NOT NULL,
		line TEXT NOT NULL,
		book TEXT NOT NULL,
		outcome TEXT NOT NULL,
		odds REAL NOT NULL,
		fair_probability REAL NOT NULL,
		implied_probability REAL NOT NULL,
		edge REAL NOT NULL,
		recommended INTEGER NOT NULL,
		computed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ev_event ON ev_opportunities(event_id);
	CREATE INDEX IF NOT EXISTS idx_ev_recommended ON ev_opportunities(recommended, edge);

	CREATE TABLE IF NOT EXISTS arbitrage_opportunities (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		market TEXT NOT NULL,
		line TEXT NOT NULL,
		implied_sum REAL NOT NULL,
		profit_margin REAL NOT NULL,
		total_stake REAL NOT NULL,
		payout REAL NOT NULL,
		guaranteed_profit REAL NOT NULL,
		computed_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS arbitrage_legs (
		arbitrage_id TEXT NOT NULL,
		outcome TEXT NOT NULL,
		book TEXT NOT NULL,
		odds REAL NOT NULL,
		stake REAL NOT NULL,
		FOREIGN KEY (arbitrage_id) REFERENCES arbitrage_opportunities(id)
	);

	CREATE INDEX IF NOT EXISTS idx_arb_legs ON arbitrage_legs(arbitrage_id);

	CREATE TABLE IF NOT EXISTS parlay_calculations (
		id TEXT PRIMARY KEY,
		stake REAL NOT NULL,
		legs_json TEXT NOT NULL,
		combined_odds REAL NOT NULL,
		combined_probability REAL NOT NULL,
		expected_value REAL NOT NULL,
		kelly REAL NOT NULL,
		risk_level TEXT NOT NULL,
		recommendation TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// SaveFairProbabilities inserts one row per outcome of a devig record.
func (d *DB) SaveFairProbabilities(rec *devig.Record) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range rec.Probabilities {
		_, err := tx.Exec(`
			INSERT INTO fair_probabilities (id, event_id, market, line, book, outcome, odds, probability, method, overround, vig, computed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), rec.EventID, string(rec.Market), odds.LineKey(rec.Line), rec.Book,
			string(p.Outcome), p.Odds, p.Probability, rec.Method, rec.Overround, rec.Vig, rec.ComputedAt)
		if err != nil {
			return fmt.Errorf("inserting fair probability: %w", err)
		}
	}

	return tx.Commit()
}

// SaveEVOpportunity inserts a single EV row.
func (d *DB) SaveEVOpportunity(opp ev.Opportunity) error {
	_, err := d.db.Exec(`
		INSERT INTO ev_opportunities (id, event_id, market, line, book, outcome, odds, fair_probability, implied_probability, edge, recommended, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), opp.EventID, string(opp.Market), odds.LineKey(opp.Line), opp.Book,
		string(opp.Outcome), opp.Result.Odds, opp.Result.FairProb, opp.Result.ImpliedProb,
		opp.Result.Edge, opp.Result.Recommended, opp.ComputedAt)
	if err != nil {
		return fmt.Errorf("inserting ev opportunity: %w", err)
	}
	return nil
}

// SaveArbitrage inserts an arbitrage opportunity and its per-outcome legs.
func (d *DB) SaveArbitrage(opp *arb.Opportunity) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.Exec(`
		INSERT INTO arbitrage_opportunities (id, event_id, market, line, implied_sum, profit_margin, total_stake, payout, guaranteed_profit, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, opp.EventID, string(opp.Market), odds.LineKey(opp.Line), opp.ImpliedSum,
		opp.ProfitMargin, opp.TotalStake, opp.Payout, opp.GuaranteedProfit, opp.ComputedAt)
	if err != nil {
		return fmt.Errorf("inserting arbitrage: %w", err)
	}

	for _, leg := range opp.Allocations {
		_, err := tx.Exec(`
			INSERT INTO arbitrage_legs (arbitrage_id, outcome, book, odds, stake)
			VALUES (?, ?, ?, ?, ?)
		`, id, string(leg.Outcome), leg.Book, leg.Odds, leg.Stake)
		if err != nil {
			return fmt.Errorf("inserting arbitrage leg: %w", err)
		}
	}

	return tx.Commit()
}

// SaveParlay records a parlay calculation with its input legs as JSON.
func (d *DB) SaveParlay(legs []parlay.Leg, stake float64, res *parlay.Result) (string, error) {
	legsJSON, err := json.Marshal(legs)
	if err != nil {
		return "", fmt.Errorf("marshaling parlay legs: %w", err)
	}

	id := uuid.NewString()
	_, err = d.db.Exec(`
		INSERT INTO parlay_calculations (id, stake, legs_json, combined_odds, combined_probability, expected_value, kelly, risk_level, recommendation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, stake, string(legsJSON), res.CombinedOdds, res.CombinedProbability,
		res.ExpectedValue, res.KellyCriterion, string(res.RiskLevel), res.Recommendation, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("inserting parlay calculation: %w", err)
	}
	return id, nil
}

// EVFilter narrows ListEVOpportunities output. Zero-valued fields do not
// filter; Limit <= 0 means no limit.
type EVFilter struct {
	EventID string
	Market  string
	MinEdge float64
	Limit   int
}

// ListEVOpportunities returns stored EV rows matching the filter, newest
// first with the fattest edges on top.
func (d *DB) ListEVOpportunities(f EVFilter) ([]ev.Opportunity, error) {
	q := `
		SELECT event_id, market, line, book, outcome, odds, fair_probability, implied_probability, edge, recommended, computed_at
		FROM ev_opportunities
		WHERE edge >= ?
	`
	args := []any{f.MinEdge}
	if f.EventID != "" {
		q += " AND event_id = ?"
		args = append(args, f.EventID)
	}
	if f.Market != "" {
		q += " AND market = ?"
		args = append(args, f.Market)
	}
	q += " ORDER BY computed_at DESC, edge DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := d.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ev opportunities: %w", err)
	}
	defer rows.Close()

	var opps []ev.Opportunity
	for rows.Next() {
		var (
			opp     ev.Opportunity
			market  string
			line    string
			outcome string
		)
		if err := rows.Scan(&opp.EventID, &market, &line, &opp.Book, &outcome,
			&opp.Result.Odds, &opp.Result.FairProb, &opp.Result.ImpliedProb,
			&opp.Result.Edge, &opp.Result.Recommended, &opp.ComputedAt); err != nil {
			return nil, fmt.Errorf("scanning ev row: %w", err)
		}
		opp.Market = odds.MarketType(market)
		opp.Outcome = odds.Outcome(outcome)
		opp.Line = parseLine(line)
		opp.Result.EdgePct = opp.Result.Edge * 100
		opp.Result.HasValue = opp.Result.Edge > 0
		opps = append(opps, opp)
	}

	return opps, rows.Err()
}

// ArbFilter narrows ListArbitrages output. Zero-valued fields do not
// filter; Limit <= 0 means no limit.
type ArbFilter struct {
	EventID string
	Market  string
	Limit   int
}

// ListArbitrages returns stored arbitrage opportunities matching the filter,
// with legs, newest first.
func (d *DB) ListArbitrages(f ArbFilter) ([]*arb.Opportunity, error) {
	q := `
		SELECT id, event_id, market, line, implied_sum, profit_margin, total_stake, payout, guaranteed_profit, computed_at
		FROM arbitrage_opportunities
		WHERE 1=1
	`
	var args []any
	if f.EventID != "" {
		q += " AND event_id = ?"
		args = append(args, f.EventID)
	}
	if f.Market != "" {
		q += " AND market = ?"
		args = append(args, f.Market)
	}
	q += " ORDER BY computed_at DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := d.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying arbitrages: %w", err)
	}
	defer rows.Close()

	var opps []*arb.Opportunity
	var ids []string
	for rows.Next() {
		var (
			opp    arb.Opportunity
			id     string
			market string
			line   string
		)
		if err := rows.Scan(&id, &opp.EventID, &market, &line, &opp.ImpliedSum,
			&opp.ProfitMargin, &opp.TotalStake, &opp.Payout, &opp.GuaranteedProfit, &opp.ComputedAt); err != nil {
			return nil, fmt.Errorf("scanning arbitrage row: %w", err)
		}
		opp.Market = odds.MarketType(market)
		opp.Line = parseLine(line)
		opps = append(opps, &opp)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		legs, err := d.arbitrageLegs(id)
		if err != nil {
			return nil, err
		}
		opps[i].Allocations = legs
	}

	return opps, nil
}

func (d *DB) arbitrageLegs(arbitrageID string) ([]arb.Allocation, error) {
	rows, err := d.db.Query(`
		SELECT outcome, book, odds, stake
		FROM arbitrage_legs
		WHERE arbitrage_id = ?
	`, arbitrageID)
	if err != nil {
		return nil, fmt.Errorf("querying arbitrage legs: %w", err)
	}
	defer rows.Close()

	var legs []arb.Allocation
	for rows.Next() {
		var (
			leg     arb.Allocation
			outcome string
		)
		if err := rows.Scan(&outcome, &leg.Book, &leg.Odds, &leg.Stake); err != nil {
			return nil, fmt.Errorf("scanning arbitrage leg: %w", err)
		}
		leg.Outcome = odds.Outcome(outcome)
		legs = append(legs, leg)
	}

	return legs, rows.Err()
}

func parseLine(s string) *float64 {
	if s == "" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
