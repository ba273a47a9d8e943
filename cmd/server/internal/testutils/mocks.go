// Package testutils provides mock implementations for testing the server's
// command surfaces.
package testutils

import (
	"context"
	"fmt"

	"github.com/RickyOwings/rogue-stock/internal/storage"
	"github.com/RickyOwings/rogue-stock/pkg/models"
)

// MockEngine implements the console's Engine interface in memory and
// records the mutating calls it receives.
type MockEngine struct {
	Uninitialized bool

	Stocks []models.Stock
	Series map[string][]models.PricePoint

	// AddCalls and UpdateCalls record every mutation in order.
	AddCalls    []AddCall
	UpdateCalls []UpdateCall

	nextKey int64
}

type AddCall struct {
	Name       string
	ShareValue float64
	Volatility float64
}

type UpdateCall struct {
	Name   string
	Update models.StockUpdate
}

func NewMockEngine() *MockEngine {
	return &MockEngine{Series: make(map[string][]models.PricePoint), nextKey: 1}
}

// Seed registers a stock with a price history without recording a call.
func (m *MockEngine) Seed(name string, volatility float64, values ...float64) {
	m.Stocks = append(m.Stocks, models.Stock{
		Key:        int64(len(m.Stocks) + 1),
		Name:       name,
		Volatility: volatility,
	})
	for _, v := range values {
		m.Series[name] = append(m.Series[name], models.PricePoint{Key: m.nextKey, Value: v})
		m.nextKey++
	}
}

func (m *MockEngine) Initialized() bool {
	return !m.Uninitialized
}

func (m *MockEngine) AddStock(ctx context.Context, name string, shareValue, volatility float64) error {
	m.AddCalls = append(m.AddCalls, AddCall{Name: name, ShareValue: shareValue, Volatility: volatility})
	if exists, _ := m.StockExists(ctx, name); exists {
		return storage.ErrDuplicateStock
	}
	m.Seed(name, volatility, shareValue)
	return nil
}

func (m *MockEngine) StockExists(_ context.Context, name string) (bool, error) {
	for _, s := range m.Stocks {
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockEngine) ListStocks(_ context.Context) ([]models.Stock, error) {
	return append([]models.Stock(nil), m.Stocks...), nil
}

func (m *MockEngine) PriceHistory(_ context.Context, name string, maxPoints int) ([]models.PricePoint, error) {
	points, ok := m.Series[name]
	if !ok {
		return nil, fmt.Errorf("series for %q: %w", name, storage.ErrUnknownSeries)
	}
	if maxPoints > 0 && len(points) > maxPoints {
		points = points[len(points)-maxPoints:]
	}
	return append([]models.PricePoint(nil), points...), nil
}

func (m *MockEngine) UpdateStock(_ context.Context, name string, upd models.StockUpdate) error {
	m.UpdateCalls = append(m.UpdateCalls, UpdateCall{Name: name, Update: upd})
	if upd.Volatility != nil {
		for i := range m.Stocks {
			if m.Stocks[i].Name == name {
				m.Stocks[i].Volatility = *upd.Volatility
			}
		}
	}
	if upd.ShareValue != nil {
		m.Series[name] = append(m.Series[name], models.PricePoint{Key: m.nextKey, Value: *upd.ShareValue})
		m.nextKey++
	}
	return nil
}
