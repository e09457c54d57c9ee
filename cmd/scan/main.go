// Command scan runs one intelligence pass over a slate of offers read from
// a JSON file and persists what it finds.
//
// Usage:
//
//	scan -offers slate.json [-no-store]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"odds-intelligence/internal/alerts"
	"odds-intelligence/internal/config"
	"odds-intelligence/internal/engine"
	"odds-intelligence/internal/odds"
	"odds-intelligence/internal/store"
)

func main() {
	offersPath := flag.String("offers", "", "path to a JSON array of offers")
	noStore := flag.Bool("no-store", false, "print findings without persisting")
	flag.Parse()

	if *offersPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	offers, err := loadOffers(*offersPath)
	if err != nil {
		log.Fatalf("loading offers: %v", err)
	}

	var db *store.DB
	if !*noStore {
		db, err = store.New(cfg.DBPath)
		if err != nil {
			log.Fatalf("opening store: %v", err)
		}
		defer db.Close()
	}

	var sender alerts.Sender
	if cfg.TelegramBotToken != "" {
		tg, err := alerts.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatalf("telegram setup: %v", err)
		}
		sender = tg
	}
	notifier := alerts.NewNotifier(cfg.AlertCooldown, sender)

	eng := engine.New(storeOrNil(db), notifier, engine.Config{
		MinEdgeThreshold: cfg.MinEdgeThreshold,
		ReferenceBooks:   cfg.ReferenceBooks,
		ArbStake:         cfg.DefaultStake,
	})

	result, err := eng.ScanAndStore(context.Background(), offers)
	if err != nil {
		log.Fatalf("scan: %v", err)
	}

	log.Printf("done: %d markets, %d skipped, %d ev opportunities, %d arbitrages",
		result.MarketsScanned, result.MarketsSkipped,
		len(result.EVOpportunities), len(result.Arbitrages))
}

func loadOffers(path string) ([]odds.Offer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var offers []odds.Offer
	if err := json.Unmarshal(data, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// storeOrNil keeps a typed-nil *store.DB out of the engine's Store interface.
func storeOrNil(db *store.DB) engine.Store {
	if db == nil {
		return nil
	}
	return db
}
