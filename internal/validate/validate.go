// Package validate is the typed parse step between raw database rows and
// the models the rest of the engine consumes. A row that does not match the
// expected shape rejects the whole read; nothing is coerced or defaulted.
package validate

import (
	"database/sql"
	"fmt"

	"github.com/RickyOwings/rogue-stock/pkg/models"
)

// StockRow is a registry row as scanned, before validation. The schema
// allows NULL volatility, so the field stays nullable until parsed.
type StockRow struct {
	Key        int64
	Name       sql.NullString
	Volatility sql.NullFloat64
}

// PriceRow is a history row as scanned, before validation.
type PriceRow struct {
	Key   int64
	Value sql.NullFloat64
}

// Stocks parses raw registry rows into models. It fails on the first
// malformed row; callers must treat the error as "no usable data".
func Stocks(rows []StockRow) ([]models.Stock, error) {
	out := make([]models.Stock, 0, len(rows))
	for i, r := range rows {
		if !r.Name.Valid || r.Name.String == "" {
			return nil, fmt.Errorf("stock row %d: missing name", i)
		}
		if !r.Volatility.Valid {
			return nil, fmt.Errorf("stock row %d (%s): missing volatility", i, r.Name.String)
		}
		out = append(out, models.Stock{
			Key:        r.Key,
			Name:       r.Name.String,
			Volatility: r.Volatility.Float64,
		})
	}
	return out, nil
}

// Prices parses raw history rows into models, failing on the first
// malformed row.
func Prices(rows []PriceRow) ([]models.PricePoint, error) {
	out := make([]models.PricePoint, 0, len(rows))
	for i, r := range rows {
		if !r.Value.Valid {
			return nil, fmt.Errorf("price row %d (key %d): missing value", i, r.Key)
		}
		out = append(out, models.PricePoint{Key: r.Key, Value: r.Value.Float64})
	}
	return out, nil
}
