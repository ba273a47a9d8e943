package engine_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/RickyOwings/rogue-stock/internal/engine"
	"github.com/RickyOwings/rogue-stock/internal/storage"
	"github.com/RickyOwings/rogue-stock/internal/testutils"
	"github.com/RickyOwings/rogue-stock/pkg/models"
)

func newEngine(t *testing.T, opts engine.Options) *engine.Engine {
	t.Helper()
	opts.DisableLoop = true
	if opts.Clock == nil {
		opts.Clock = &testutils.MockClock{}
	}
	if opts.Rand == nil {
		opts.Rand = &testutils.MockRand{ValFloat: 0.5}
	}
	e, err := engine.New(filepath.Join(t.TempDir(), "stocks.db"), zap.NewNop(), opts)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func floatPtr(v float64) *float64 { return &v }

func values(t *testing.T, e *engine.Engine, name string, maxPoints int) []float64 {
	t.Helper()
	points, err := e.PriceHistory(context.Background(), name, maxPoints)
	if err != nil {
		t.Fatalf("price history: %v", err)
	}
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

func TestAddStock_SeedsHistory(t *testing.T) {
	e := newEngine(t, engine.Options{})
	ctx := context.Background()

	if err := e.AddStock(ctx, "Acme", 100, 5); err != nil {
		t.Fatalf("add stock: %v", err)
	}

	exists, err := e.StockExists(ctx, "Acme")
	if err != nil || !exists {
		t.Fatalf("expected Acme registered, got exists=%v err=%v", exists, err)
	}
	if got := values(t, e, "Acme", 0); len(got) != 1 || got[0] != 100 {
		t.Fatalf("expected seed history [100], got %v", got)
	}
}

func TestAddStock_RejectsInvalidInput(t *testing.T) {
	e := newEngine(t, engine.Options{})
	ctx := context.Background()

	cases := []struct {
		name       string
		shareValue float64
		volatility float64
	}{
		{"two words", 100, 5},
		{"", 100, 5},
		{"drop'table", 100, 5},
		{"Acme", -1, 5},
		{"Acme", 100, -1},
	}
	for _, tc := range cases {
		err := e.AddStock(ctx, tc.name, tc.shareValue, tc.volatility)
		if !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("AddStock(%q, %g, %g): expected ErrInvalidInput, got %v",
				tc.name, tc.shareValue, tc.volatility, err)
		}
	}
}

func TestAddStock_Duplicate(t *testing.T) {
	e := newEngine(t, engine.Options{})
	ctx := context.Background()

	if err := e.AddStock(ctx, "Acme", 100, 5); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if err := e.AddStock(ctx, "Acme", 50, 1); !errors.Is(err, storage.ErrDuplicateStock) {
		t.Fatalf("expected ErrDuplicateStock, got %v", err)
	}
}

func TestPriceHistory_LimitsToMostRecent(t *testing.T) {
	e := newEngine(t, engine.Options{})
	ctx := context.Background()

	if err := e.AddStock(ctx, "Acme", 1, 0); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	for _, v := range []float64{2, 3, 4} {
		if err := e.UpdateStock(ctx, "Acme", models.StockUpdate{ShareValue: floatPtr(v)}); err != nil {
			t.Fatalf("update stock: %v", err)
		}
	}

	if got := values(t, e, "Acme", 2); len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("expected the 2 most recent points [3 4], got %v", got)
	}
	if got := values(t, e, "Acme", 0); len(got) != 4 {
		t.Fatalf("expected unlimited read of 4 points, got %v", got)
	}
}

func TestPriceHistory_UnknownStock(t *testing.T) {
	e := newEngine(t, engine.Options{})
	if _, err := e.PriceHistory(context.Background(), "Nope", 0); !errors.Is(err, storage.ErrUnknownSeries) {
		t.Fatalf("expected ErrUnknownSeries, got %v", err)
	}
}

func TestUpdateStock_VolatilityOnly(t *testing.T) {
	e := newEngine(t, engine.Options{})
	ctx := context.Background()

	if err := e.AddStock(ctx, "Acme", 100, 5); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if err := e.UpdateStock(ctx, "Acme", models.StockUpdate{Volatility: floatPtr(9)}); err != nil {
		t.Fatalf("update stock: %v", err)
	}

	stocks, err := e.ListStocks(ctx)
	if err != nil {
		t.Fatalf("list stocks: %v", err)
	}
	if stocks[0].Volatility != 9 {
		t.Errorf("expected volatility 9, got %g", stocks[0].Volatility)
	}
	if got := values(t, e, "Acme", 0); len(got) != 1 {
		t.Errorf("volatility-only update must not touch history, got %v", got)
	}
}

func TestUpdateStock_ShareValueAppends(t *testing.T) {
	e := newEngine(t, engine.Options{})
	ctx := context.Background()

	if err := e.AddStock(ctx, "Acme", 100, 5); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if err := e.UpdateStock(ctx, "Acme", models.StockUpdate{ShareValue: floatPtr(250)}); err != nil {
		t.Fatalf("update stock: %v", err)
	}

	if got := values(t, e, "Acme", 0); len(got) != 2 || got[1] != 250 {
		t.Fatalf("expected history [100 250], got %v", got)
	}
}

func TestUpdateStock_FieldsApplyIndependently(t *testing.T) {
	e := newEngine(t, engine.Options{})
	ctx := context.Background()

	if err := e.AddStock(ctx, "Acme", 100, 5); err != nil {
		t.Fatalf("add stock: %v", err)
	}

	// invalid volatility fails that field; the share value still lands
	err := e.UpdateStock(ctx, "Acme", models.StockUpdate{
		Volatility: floatPtr(-3),
		ShareValue: floatPtr(42),
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative volatility, got %v", err)
	}

	stocks, _ := e.ListStocks(ctx)
	if stocks[0].Volatility != 5 {
		t.Errorf("expected volatility unchanged at 5, got %g", stocks[0].Volatility)
	}
	if got := values(t, e, "Acme", 0); len(got) != 2 || got[1] != 42 {
		t.Errorf("expected share value appended despite the volatility error, got %v", got)
	}
}

func TestUpdateStock_NegativeShareValue(t *testing.T) {
	e := newEngine(t, engine.Options{})
	ctx := context.Background()

	if err := e.AddStock(ctx, "Acme", 100, 5); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	err := e.UpdateStock(ctx, "Acme", models.StockUpdate{ShareValue: floatPtr(-1)})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if got := values(t, e, "Acme", 0); len(got) != 1 {
		t.Errorf("rejected value must not append, got %v", got)
	}
}

func TestTick_PerturbsEveryStock(t *testing.T) {
	// delta = 0.2*(2*5) - 5 = -3
	e := newEngine(t, engine.Options{Rand: &testutils.MockRand{ValFloat: 0.2}})
	ctx := context.Background()

	if err := e.AddStock(ctx, "Acme", 100, 5); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	e.Tick(ctx)

	if got := values(t, e, "Acme", 0); len(got) != 2 || got[1] != 97 {
		t.Fatalf("expected history [100 97], got %v", got)
	}
}

func TestTick_DiscardsNegativeCandidate(t *testing.T) {
	// ValFloat 0 pins delta at -volatility
	e := newEngine(t, engine.Options{Rand: &testutils.MockRand{ValFloat: 0}})
	ctx := context.Background()

	if err := e.AddStock(ctx, "Acme", 100, 150); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	e.Tick(ctx)

	if got := values(t, e, "Acme", 0); len(got) != 1 || got[0] != 100 {
		t.Fatalf("expected history untouched at [100], got %v", got)
	}
}

func TestTick_EnforcesRetentionCap(t *testing.T) {
	// volatility 0 keeps the series flat so only length matters
	e := newEngine(t, engine.Options{RetentionCap: 3})
	ctx := context.Background()

	if err := e.AddStock(ctx, "Acme", 7, 0); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := e.UpdateStock(ctx, "Acme", models.StockUpdate{ShareValue: floatPtr(7)}); err != nil {
			t.Fatalf("update stock: %v", err)
		}
	}

	e.Tick(ctx)

	if got := values(t, e, "Acme", 0); len(got) != 3 {
		t.Fatalf("expected series capped at 3 points, got %v", got)
	}
}

func TestRemoveStock_LeavesDataInPlace(t *testing.T) {
	e := newEngine(t, engine.Options{})
	ctx := context.Background()

	if err := e.AddStock(ctx, "Acme", 100, 5); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if err := e.RemoveStock(ctx, "Acme"); err != nil {
		t.Fatalf("remove stock: %v", err)
	}

	exists, err := e.StockExists(ctx, "Acme")
	if err != nil || !exists {
		t.Fatalf("expected Acme still registered, got exists=%v err=%v", exists, err)
	}
	if got := values(t, e, "Acme", 0); len(got) != 1 {
		t.Fatalf("expected history intact, got %v", got)
	}
}

func TestClose_StopsLoop(t *testing.T) {
	e, err := engine.New(filepath.Join(t.TempDir(), "stocks.db"), zap.NewNop(), engine.Options{
		Clock: &testutils.MockClock{},
		Rand:  &testutils.MockRand{ValFloat: 0.5},
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
