// Package watch polls the user's watchlist on a schedule and reports price
// moves and threshold breaches.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pricewatch-dev/pricewatch/internal/api"
)

const pollTimeout = 30 * time.Second

// PriceSource fetches the watchlist with live prices
type PriceSource interface {
	Watchlist(ctx context.Context) ([]api.WatchItem, error)
}

// Watcher re-fetches watchlist prices on the rules' cron schedule
type Watcher struct {
	source PriceSource
	rules  *Rules
	log    zerolog.Logger
	cron   *cron.Cron

	mu   sync.Mutex
	last map[string]float64 // product ID -> last seen price
}

// New creates a watcher polling the given source
func New(source PriceSource, rules *Rules, log zerolog.Logger) *Watcher {
	return &Watcher{
		source: source,
		rules:  rules,
		log:    log,
		last:   make(map[string]float64),
	}
}

// Start schedules polling and runs one poll immediately
func (w *Watcher) Start() error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(w.rules.Schedule, w.Poll); err != nil {
		return err
	}

	w.Poll()
	w.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running poll to finish
func (w *Watcher) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// Poll fetches the watchlist once and logs price moves and rule breaches
func (w *Watcher) Poll() {
	ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()

	items, err := w.source.Watchlist(ctx)
	if err != nil {
		w.log.Warn().Err(err).Msg("Watchlist poll failed")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, item := range items {
		prev, seen := w.last[item.ProductID]
		w.last[item.ProductID] = item.PricePerUnit

		if seen && prev != item.PricePerUnit {
			w.log.Info().
				Str("item", item.ItemName).
				Str("market", item.MarketName).
				Float64("from", prev).
				Float64("to", item.PricePerUnit).
				Msg("Price changed")
		}

		rule := w.rules.forItem(item.ItemName)
		if rule == nil {
			continue
		}

		if rule.MaxPrice > 0 && item.PricePerUnit > rule.MaxPrice {
			w.log.Warn().
				Str("item", item.ItemName).
				Str("market", item.MarketName).
				Float64("price", item.PricePerUnit).
				Float64("max", rule.MaxPrice).
				Msg("Price above threshold")
		}
		if rule.MinPrice > 0 && item.PricePerUnit < rule.MinPrice {
			w.log.Info().
				Str("item", item.ItemName).
				Str("market", item.MarketName).
				Float64("price", item.PricePerUnit).
				Float64("min", rule.MinPrice).
				Msg("Price below threshold")
		}
	}
}
