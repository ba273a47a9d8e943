package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RickyOwings/rogue-stock/pkg/models"
)

type MockClock struct {
	CurrentTime time.Time
}

func (m *MockClock) Now() time.Time        { return m.CurrentTime }
func (m *MockClock) Sleep(d time.Duration) { m.CurrentTime = m.CurrentTime.Add(d) }

type MockRand struct {
	ValFloat float64
}

func (m *MockRand) Float64() float64 { return m.ValFloat }

// MockStore is an in-memory stand-in for the storage adapter. FailList and
// FailSeries force errors so tests can exercise failure isolation.
type MockStore struct {
	Mu         sync.Mutex
	Stocks     []models.Stock
	Series     map[string][]models.PricePoint
	FailList   bool
	FailSeries map[string]bool

	nextKey map[string]int64
}

func NewMockStore() *MockStore {
	return &MockStore{
		Series:     make(map[string][]models.PricePoint),
		FailSeries: make(map[string]bool),
		nextKey:    make(map[string]int64),
	}
}

// AddStock registers a stock with a seed price, mirroring the real
// adapter's creation contract.
func (m *MockStore) AddStock(name string, shareValue, volatility float64) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Stocks = append(m.Stocks, models.Stock{
		Key:        int64(len(m.Stocks) + 1),
		Name:       name,
		Volatility: volatility,
	})
	m.nextKey[name] = 2
	m.Series[name] = []models.PricePoint{{Key: 1, Value: shareValue}}
}

func (m *MockStore) ListStocks(ctx context.Context) ([]models.Stock, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.FailList {
		return nil, errors.New("registry unavailable")
	}
	out := make([]models.Stock, len(m.Stocks))
	copy(out, m.Stocks)
	return out, nil
}

func (m *MockStore) ListPrices(ctx context.Context, name string) ([]models.PricePoint, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.FailSeries[name] {
		return nil, errors.New("series unavailable")
	}
	series, ok := m.Series[name]
	if !ok {
		return nil, errors.New("unknown series")
	}
	out := make([]models.PricePoint, len(series))
	copy(out, series)
	return out, nil
}

func (m *MockStore) InsertPrice(ctx context.Context, name string, value float64) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.FailSeries[name] {
		return errors.New("series unavailable")
	}
	if _, ok := m.Series[name]; !ok {
		return errors.New("unknown series")
	}
	key := m.nextKey[name]
	m.nextKey[name] = key + 1
	m.Series[name] = append(m.Series[name], models.PricePoint{Key: key, Value: value})
	return nil
}

func (m *MockStore) TrimOldest(ctx context.Context, name string, count int) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if count <= 0 {
		return nil
	}
	series, ok := m.Series[name]
	if !ok {
		return errors.New("unknown series")
	}
	if count > len(series) {
		count = len(series)
	}
	m.Series[name] = series[count:]
	return nil
}
