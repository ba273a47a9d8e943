// Package sim advances every registered stock's price on a fixed cadence
// and keeps each history series bounded by the retention cap.
package sim

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/RickyOwings/rogue-stock/pkg/models"
)

const (
	// DefaultInterval is the pause between the end of one tick and the
	// start of the next.
	DefaultInterval = 100 * time.Millisecond

	// DefaultRetentionCap is the maximum number of price points kept per
	// series.
	DefaultRetentionCap = 1000
)

// Loop is the recurring simulation task. A tick always runs to completion
// before the next one is scheduled, so a slow tick delays rather than
// overlaps its successor.
type Loop struct {
	store    Store
	logger   *zap.Logger
	clock    Clock
	rand     Rand
	interval time.Duration
	cap      int
}

// NewLoop wires up a Loop. Non-positive interval or cap fall back to the
// defaults.
func NewLoop(store Store, logger *zap.Logger, clock Clock, rnd Rand, interval time.Duration, retentionCap int) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if retentionCap <= 0 {
		retentionCap = DefaultRetentionCap
	}
	return &Loop{
		store:    store,
		logger:   logger,
		clock:    clock,
		rand:     rnd,
		interval: interval,
		cap:      retentionCap,
	}
}

// Run executes ticks until ctx is cancelled. Per-stock failures never stop
// the loop; only cancellation does.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("Simulation loop started",
		zap.Duration("interval", l.interval),
		zap.Int("retention_cap", l.cap))

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Simulation loop stopped")
			return
		default:
			l.Tick(ctx)
			l.clock.Sleep(l.interval)
		}
	}
}

// Tick advances every registered stock by one step. An empty or unreadable
// registry skips the tick body; each stock fails independently.
func (l *Loop) Tick(ctx context.Context) {
	stocks, err := l.store.ListStocks(ctx)
	if err != nil {
		l.logger.Warn("Skipping tick, registry unreadable", zap.Error(err))
		return
	}
	for _, stock := range stocks {
		if err := l.advance(ctx, stock); err != nil {
			l.logger.Warn("Skipping stock this tick",
				zap.String("name", stock.Name),
				zap.Error(err))
		}
	}
}

// advance draws one perturbation for stock and appends the new price,
// trimming the series back to the retention cap. A candidate below zero is
// discarded for this tick; nothing is appended and nothing is trimmed.
func (l *Loop) advance(ctx context.Context, stock models.Stock) error {
	series, err := l.store.ListPrices(ctx, stock.Name)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return nil
	}

	latest := series[len(series)-1].Value
	delta := l.rand.Float64()*(2*stock.Volatility) - stock.Volatility
	candidate := latest + delta
	if candidate < 0 {
		return nil
	}

	if err := l.store.InsertPrice(ctx, stock.Name, candidate); err != nil {
		return err
	}
	if excess := len(series) + 1 - l.cap; excess > 0 {
		if err := l.store.TrimOldest(ctx, stock.Name, excess); err != nil {
			return err
		}
	}
	return nil
}
