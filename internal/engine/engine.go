// Package engine is the single public surface over the stock store and the
// simulation loop. Callers never see schema or loop details.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/RickyOwings/rogue-stock/internal/sim"
	"github.com/RickyOwings/rogue-stock/internal/storage"
	"github.com/RickyOwings/rogue-stock/pkg/models"
)

// Options tune the engine. Zero values select the production defaults.
type Options struct {
	TickInterval time.Duration
	RetentionCap int
	Clock        sim.Clock
	Rand         sim.Rand

	// DisableLoop keeps the simulation loop off, for tests that drive
	// ticks manually through Tick.
	DisableLoop bool
}

// Engine owns the storage adapter and the simulation loop.
type Engine struct {
	store  *storage.Store
	loop   *sim.Loop
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// New opens storage at dbPath, ensures the registry exists, and starts the
// simulation loop. A storage-open failure is fatal to startup; nothing is
// left half-initialized.
func New(dbPath string, logger *zap.Logger, opts Options) (*Engine, error) {
	store, err := storage.Open(dbPath, logger)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureRegistry(context.Background()); err != nil {
		store.Close()
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = sim.RealClock{}
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = sim.RealRand{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		store:  store,
		loop:   sim.NewLoop(store, logger, clock, rnd, opts.TickInterval, opts.RetentionCap),
		logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if opts.DisableLoop {
		close(e.done)
	} else {
		go func() {
			defer close(e.done)
			e.loop.Run(loopCtx)
		}()
	}
	return e, nil
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil {
		return storage.ErrStorageUnavailable
	}
	return nil
}

// Initialized reports whether storage is open and usable.
func (e *Engine) Initialized() bool {
	return e.ready() == nil
}

// AddStock registers a new stock: registry row, empty history series, and a
// seed price point equal to shareValue, all or nothing.
func (e *Engine) AddStock(ctx context.Context, name string, shareValue, volatility float64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !storage.ValidName(name) {
		return fmt.Errorf("stock name %q: %w", name, storage.ErrInvalidInput)
	}
	if shareValue < 0 {
		return fmt.Errorf("share value %v: %w", shareValue, storage.ErrInvalidInput)
	}
	if volatility < 0 {
		return fmt.Errorf("volatility %v: %w", volatility, storage.ErrInvalidInput)
	}
	return e.store.AddStock(ctx, name, shareValue, volatility)
}

// StockExists reports whether name is registered.
func (e *Engine) StockExists(ctx context.Context, name string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.store.StockExists(ctx, name)
}

// ListStocks returns every registered stock in creation order.
func (e *Engine) ListStocks(ctx context.Context) ([]models.Stock, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.store.ListStocks(ctx)
}

// PriceHistory returns the stock's price series in insertion order,
// limited to the most recent maxPoints entries when maxPoints is positive.
func (e *Engine) PriceHistory(ctx context.Context, name string, maxPoints int) ([]models.PricePoint, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	points, err := e.store.ListPrices(ctx, name)
	if err != nil {
		return nil, err
	}
	if maxPoints > 0 && len(points) > maxPoints {
		points = points[len(points)-maxPoints:]
	}
	return points, nil
}

// UpdateStock applies each set field of upd independently. Volatility
// changes the registry row. A share value cannot live on the registry (the
// stored layout has no price column), so it is applied as an
// administrative append to the stock's history series, the same mechanism
// as the seed point.
func (e *Engine) UpdateStock(ctx context.Context, name string, upd models.StockUpdate) error {
	if err := e.ready(); err != nil {
		return err
	}

	var errs []error
	if upd.Volatility != nil {
		if *upd.Volatility < 0 {
			errs = append(errs, fmt.Errorf("volatility %v: %w", *upd.Volatility, storage.ErrInvalidInput))
		} else if err := e.store.UpdateStockField(ctx, name, "volatility", *upd.Volatility); err != nil {
			errs = append(errs, err)
		}
	}
	if upd.ShareValue != nil {
		if *upd.ShareValue < 0 {
			errs = append(errs, fmt.Errorf("share value %v: %w", *upd.ShareValue, storage.ErrInvalidInput))
		} else if err := e.store.InsertPrice(ctx, name, *upd.ShareValue); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RemoveStock is declared for symmetry with AddStock but deletes nothing
// yet.
// TODO: delete the registry row and drop its history table in one transaction.
func (e *Engine) RemoveStock(ctx context.Context, name string) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.logger.Warn("RemoveStock is not implemented", zap.String("name", name))
	return nil
}

// Tick runs one simulation step immediately, outside the loop's cadence.
func (e *Engine) Tick(ctx context.Context) {
	e.loop.Tick(ctx)
}

// Close stops the simulation loop and releases storage. The production
// server only calls this at process exit.
func (e *Engine) Close() error {
	e.cancel()
	<-e.done
	return e.store.Close()
}
