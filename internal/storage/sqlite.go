// Package storage owns the SQLite database holding the stock registry and
// one append-only price-history table per stock. It is the only package that
// talks to the database; everything above it works with validated models.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/RickyOwings/rogue-stock/internal/validate"
	"github.com/RickyOwings/rogue-stock/pkg/models"
)

const (
	registryTable = "Stocks"
	seriesPrefix  = "ShareValues_"
)

// namePattern restricts stock names to an identifier-safe character set.
// A conforming name produces the same history table name as any existing
// data directory, so stored databases stay loadable.
var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidName reports whether name can be safely spliced into a table
// identifier.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// seriesTable derives the history table name for a stock. Names that would
// produce an ambiguous or invalid identifier are rejected.
func seriesTable(name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("stock name %q: %w", name, ErrInvalidInput)
	}
	return seriesPrefix + name, nil
}

// dbtx is the subset of *sql.DB and *sql.Tx the row-level helpers need, so
// the same helper serves both direct calls and transactions.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the storage adapter. One Store owns one database handle for the
// lifetime of the process.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open acquires the database handle at path, creating the containing
// directory and an empty database file if absent. Safe to call repeatedly
// with the same path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	logger.Info("Stock database opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureRegistry creates the stock registry table if it does not exist.
func (s *Store) EnsureRegistry(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS Stocks (
	key INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	volatility FLOAT
);`)
	if err != nil {
		return fmt.Errorf("create registry: %w", err)
	}
	return nil
}

// InsertStock inserts a registry row for name.
func (s *Store) InsertStock(ctx context.Context, name string, volatility float64) error {
	return insertStock(ctx, s.db, name, volatility)
}

func insertStock(ctx context.Context, q dbtx, name string, volatility float64) error {
	if !ValidName(name) {
		return fmt.Errorf("stock name %q: %w", name, ErrInvalidInput)
	}
	_, err := q.ExecContext(ctx, `INSERT INTO Stocks (name, volatility) VALUES (?, ?);`, name, volatility)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("stock %s: %w", name, ErrDuplicateStock)
		}
		return fmt.Errorf("insert stock %s: %w", name, err)
	}
	return nil
}

// CreateSeries creates an empty price-history table for name.
func (s *Store) CreateSeries(ctx context.Context, name string) error {
	return createSeries(ctx, s.db, name)
}

func createSeries(ctx context.Context, q dbtx, name string) error {
	table, err := seriesTable(name)
	if err != nil {
		return err
	}
	// The table name cannot be parameterized; seriesTable has already
	// rejected anything outside the identifier-safe character set.
	_, err = q.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE %s (
	key INTEGER PRIMARY KEY,
	value FLOAT
);`, table))
	if err != nil {
		if isAlreadyExists(err) {
			return fmt.Errorf("series for %s: %w", name, ErrDuplicateSeries)
		}
		return fmt.Errorf("create series for %s: %w", name, err)
	}
	return nil
}

// InsertPrice appends a price point to the named series.
func (s *Store) InsertPrice(ctx context.Context, name string, value float64) error {
	return insertPrice(ctx, s.db, name, value)
}

func insertPrice(ctx context.Context, q dbtx, name string, value float64) error {
	table, err := seriesTable(name)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (value) VALUES (?);`, table), value)
	if err != nil {
		if isNoSuchTable(err) {
			return fmt.Errorf("series for %s: %w", name, ErrUnknownSeries)
		}
		return fmt.Errorf("insert price for %s: %w", name, err)
	}
	return nil
}

// AddStock creates the registry row, the empty history series, and the seed
// price point in a single transaction, so a caller never observes one
// without the others.
func (s *Store) AddStock(ctx context.Context, name string, shareValue, volatility float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add stock: %w", err)
	}
	defer tx.Rollback()

	if err := insertStock(ctx, tx, name, volatility); err != nil {
		return err
	}
	if err := createSeries(ctx, tx, name); err != nil {
		return err
	}
	if err := insertPrice(ctx, tx, name, shareValue); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add stock: %w", err)
	}
	s.logger.Info("Stock added",
		zap.String("name", name),
		zap.Float64("share_value", shareValue),
		zap.Float64("volatility", volatility))
	return nil
}

// StockExists reports whether a registry row exists for name.
func (s *Store) StockExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM Stocks WHERE name = ?;`, name).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case isNoSuchTable(err):
		return false, nil
	default:
		return false, fmt.Errorf("lookup stock %s: %w", name, err)
	}
}

// ListStocks returns every registry row in key order. A registry that was
// never created reads as empty. A single malformed row rejects the whole
// read with ErrValidationFailed.
func (s *Store) ListStocks(ctx context.Context) ([]models.Stock, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, name, volatility FROM Stocks ORDER BY key ASC;`)
	if err != nil {
		if isNoSuchTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	defer rows.Close()

	var raw []validate.StockRow
	for rows.Next() {
		var r validate.StockRow
		if err := rows.Scan(&r.Key, &r.Name, &r.Volatility); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}

	stocks, err := validate.Stocks(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return stocks, nil
}

// ListPrices returns the full price series for name in ascending key order.
func (s *Store) ListPrices(ctx context.Context, name string) ([]models.PricePoint, error) {
	table, err := seriesTable(name)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT key, value FROM %s ORDER BY key ASC;`, table))
	if err != nil {
		if isNoSuchTable(err) {
			return nil, fmt.Errorf("series for %s: %w", name, ErrUnknownSeries)
		}
		return nil, fmt.Errorf("list prices for %s: %w", name, err)
	}
	defer rows.Close()

	var raw []validate.PriceRow
	for rows.Next() {
		var r validate.PriceRow
		if err := rows.Scan(&r.Key, &r.Value); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list prices for %s: %w", name, err)
	}

	points, err := validate.Prices(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return points, nil
}

// TrimOldest deletes the count lowest-key rows from the named series.
// count <= 0 is a no-op.
func (s *Store) TrimOldest(ctx context.Context, name string, count int) error {
	if count <= 0 {
		return nil
	}
	table, err := seriesTable(name)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
DELETE FROM %s
WHERE key IN (
	SELECT key FROM %s ORDER BY key ASC LIMIT ?
);`, table, table), count)
	if err != nil {
		if isNoSuchTable(err) {
			return fmt.Errorf("series for %s: %w", name, ErrUnknownSeries)
		}
		return fmt.Errorf("trim series for %s: %w", name, err)
	}
	return nil
}

// registryColumns whitelists the mutable registry fields.
var registryColumns = map[string]string{
	"volatility": "volatility",
}

// UpdateStockField updates one mutable registry column for name. A name
// with no matching row is a no-op, not an error.
func (s *Store) UpdateStockField(ctx context.Context, name, field string, value float64) error {
	column, ok := registryColumns[field]
	if !ok {
		return fmt.Errorf("registry field %q: %w", field, ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE Stocks SET %s = ? WHERE name = ?;`, column), value, name)
	if err != nil {
		return fmt.Errorf("update %s for %s: %w", field, name, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// SQLite reports a CREATE TABLE collision and a missing table only through
// the message text of a generic SQLITE_ERROR.
func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

func isNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
