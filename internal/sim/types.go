package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/RickyOwings/rogue-stock/pkg/models"
)

// for deterministic testing
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// for deterministic values
type Rand interface {
	Float64() float64
}

// Store is the slice of the storage adapter the loop needs.
type Store interface {
	ListStocks(ctx context.Context) ([]models.Stock, error)
	ListPrices(ctx context.Context, name string) ([]models.PricePoint, error)
	InsertPrice(ctx context.Context, name string, value float64) error
	TrimOldest(ctx context.Context, name string, count int) error
}

type RealClock struct{}

func (RealClock) Now() time.Time        { return time.Now() }
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

type RealRand struct{ *rand.Rand }

func (r RealRand) Float64() float64 { return r.Rand.Float64() }
