package alerts

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"odds-intelligence/internal/arb"
	"odds-intelligence/internal/ev"
	"odds-intelligence/internal/odds"
)

// Sender delivers a formatted alert to an external channel. Nil sender means
// log-only alerting.
type Sender interface {
	SendMessage(text string) error
}

// Notifier handles alert notifications
type Notifier struct {
	mu         sync.Mutex
	lastAlerts map[string]time.Time // Dedupe alerts
	cooldown   time.Duration        // Minimum time between same alerts
	sender     Sender
}

// NewNotifier creates a new notifier. sender may be nil.
func NewNotifier(cooldown time.Duration, sender Sender) *Notifier {
	return &Notifier{
		lastAlerts: make(map[string]time.Time),
		cooldown:   cooldown,
		sender:     sender,
	}
}

// AlertEV sends an alert for a +EV opportunity
func (n *Notifier) AlertEV(opp ev.Opportunity) {
	key := fmt.Sprintf("ev-%s-%s-%s-%s-%s", opp.EventID, opp.Market, odds.LineKey(opp.Line), opp.Outcome, opp.Book)
	if !n.checkCooldown(key) {
		return
	}

	msg := fmt.Sprintf("+EV: %s %s %s @ %s | odds=%.2f fair=%.1f%% edge=%+.2f%%",
		opp.EventID, opp.Market, strings.ToUpper(string(opp.Outcome)), opp.Book,
		opp.Result.Odds, opp.Result.FairProb*100, opp.Result.EdgePct,
	)
	n.deliver(msg)
}

// AlertArbitrage sends an alert for a cross-book arbitrage
func (n *Notifier) AlertArbitrage(opp *arb.Opportunity) {
	key := fmt.Sprintf("arb-%s-%s-%s", opp.EventID, opp.Market, odds.LineKey(opp.Line))
	if !n.checkCooldown(key) {
		return
	}

	var legs []string
	for _, leg := range opp.Allocations {
		legs = append(legs, fmt.Sprintf("%s@%s %.2f $%.2f", strings.ToUpper(string(leg.Outcome)), leg.Book, leg.Odds, leg.Stake))
	}

	msg := fmt.Sprintf("ARB: %s %s | margin=%.2f%% payout=$%.2f profit=$%.2f | %s",
		opp.EventID, opp.Market,
		opp.ProfitMargin*100, opp.Payout, opp.GuaranteedProfit,
		strings.Join(legs, " / "),
	)
	n.deliver(msg)
}

// cleanupThreshold bounds lastAlerts growth; stale entries are purged
// lazily once the map grows past it.
const cleanupThreshold = 1024

// checkCooldown reports whether an alert for key may fire now, and records
// the attempt when it may.
func (n *Notifier) checkCooldown(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.lastAlerts) > cleanupThreshold {
		n.cleanupLocked()
	}

	if lastTime, ok := n.lastAlerts[key]; ok {
		if time.Since(lastTime) < n.cooldown {
			return false
		}
	}
	n.lastAlerts[key] = time.Now()
	return true
}

func (n *Notifier) deliver(msg string) {
	log.Print(msg)
	if n.sender != nil {
		if err := n.sender.SendMessage(msg); err != nil {
			log.Printf("ERROR [telegram send]: %v", err)
		}
	}
}

// LogError logs an error
func (n *Notifier) LogError(context string, err error) {
	log.Printf("ERROR [%s]: %v", context, err)
}

// CleanupOldAlerts removes stale alert records
func (n *Notifier) CleanupOldAlerts() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cleanupLocked()
}

func (n *Notifier) cleanupLocked() {
	cutoff := time.Now().Add(-1 * time.Hour)
	for key, t := range n.lastAlerts {
		if t.Before(cutoff) {
			delete(n.lastAlerts, key)
		}
	}
}
