package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/stock-chart-service/internal/models"
)

const priceDataColumns = `id, symbol, date, open, high, low, close, volume, source, created_at`

const upsertPriceData = `
	INSERT INTO price_data_daily (symbol, date, open, high, low, close, volume, source, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (symbol, date) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		volume = EXCLUDED.volume,
		source = EXCLUDED.source
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPriceData(row rowScanner) (*models.PriceDataDaily, error) {
	var p models.PriceDataDaily
	var source sql.NullString

	err := row.Scan(
		&p.ID, &p.Symbol, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume, &source, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if source.Valid {
		p.Source = source.String
	}
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreatePriceData inserts a price bar, replacing any bar already stored for the same symbol and date
func (db *DB) CreatePriceData(p *models.PriceDataDaily) error {
	err := db.conn.QueryRow(upsertPriceData+" RETURNING id",
		p.Symbol, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume, nullString(p.Source), time.Now(),
	).Scan(&p.ID)

	if err != nil {
		return fmt.Errorf("failed to create price data: %w", err)
	}
	return nil
}

// CreatePriceDataBatch upserts multiple price bars in one transaction
func (db *DB) CreatePriceDataBatch(prices []*models.PriceDataDaily) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertPriceData)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range prices {
		_, err := stmt.Exec(p.Symbol, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume, nullString(p.Source), now)
		if err != nil {
			return fmt.Errorf("failed to insert price data for %s: %w", p.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPriceDataBySymbolAndDate retrieves the bar for a specific symbol and date
func (db *DB) GetPriceDataBySymbolAndDate(symbol string, date time.Time) (*models.PriceDataDaily, error) {
	query := `SELECT ` + priceDataColumns + `
		FROM price_data_daily
		WHERE symbol = $1 AND date = $2
	`
	p, err := scanPriceData(db.conn.QueryRow(query, symbol, date))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("price data not found for %s on %s", symbol, date.Format("2006-01-02"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get price data: %w", err)
	}
	return p, nil
}

// GetPriceDataBySymbol retrieves the most recent bars for a symbol, ordered by date descending
func (db *DB) GetPriceDataBySymbol(symbol string, limit int) ([]*models.PriceDataDaily, error) {
	query := `SELECT ` + priceDataColumns + `
		FROM price_data_daily
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT $2
	`
	rows, err := db.conn.Query(query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price data: %w", err)
	}
	defer rows.Close()

	var prices []*models.PriceDataDaily
	for rows.Next() {
		p, err := scanPriceData(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price data: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price data: %w", err)
	}

	return prices, nil
}

// GetPriceDataRange retrieves bars for a symbol within a date range, ordered by date ascending
func (db *DB) GetPriceDataRange(symbol string, startDate, endDate time.Time) ([]*models.PriceDataDaily, error) {
	query := `SELECT ` + priceDataColumns + `
		FROM price_data_daily
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, symbol, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get price data range: %w", err)
	}
	defer rows.Close()

	var prices []*models.PriceDataDaily
	for rows.Next() {
		p, err := scanPriceData(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price data: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price data: %w", err)
	}

	return prices, nil
}

// GetLatestPriceData retrieves the most recent bar for a symbol
func (db *DB) GetLatestPriceData(symbol string) (*models.PriceDataDaily, error) {
	query := `SELECT ` + priceDataColumns + `
		FROM price_data_daily
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`
	p, err := scanPriceData(db.conn.QueryRow(query, symbol))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no price data found for %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price data: %w", err)
	}
	return p, nil
}

// ListSymbols returns every symbol with stored bars, alphabetically
func (db *DB) ListSymbols() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT symbol FROM price_data_daily ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// DeletePriceDataBySymbol removes all bars for a symbol
func (db *DB) DeletePriceDataBySymbol(symbol string) error {
	query := `DELETE FROM price_data_daily WHERE symbol = $1`
	_, err := db.conn.Exec(query, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete price data for %s: %w", symbol, err)
	}
	return nil
}

// DeletePriceDataOlderThan removes bars dated before the given date
func (db *DB) DeletePriceDataOlderThan(date time.Time) (int64, error) {
	query := `DELETE FROM price_data_daily WHERE date < $1`
	result, err := db.conn.Exec(query, date)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old price data: %w", err)
	}
	return result.RowsAffected()
}
