// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/pkg/utils"
)

// busyRetry covers writers that outlast the driver's busy timeout.
var busyRetry = utils.RetryConfig{
	MaxAttempts:   3,
	InitialDelay:  50 * time.Millisecond,
	MaxDelay:      500 * time.Millisecond,
	BackoffFactor: 2,
	Retryable:     isBusy,
}

// isDuplicate reports whether err is a primary key violation.
func isDuplicate(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// isBusy reports whether err is SQLite lock contention.
func isBusy(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
}

// SQLiteStore implements TradeRepository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ TradeRepository = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite-based trade store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// The date is kept as RFC 3339 text so the trade's UTC offset survives a
// round trip; date_unix carries the same instant for ordering and ranges.
const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		quantity REAL NOT NULL,
		side TEXT NOT NULL,
		date TEXT NOT NULL,
		date_unix INTEGER NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		strategy TEXT NOT NULL DEFAULT '',
		timeframe TEXT NOT NULL,
		stop_loss REAL NOT NULL,
		take_profit REAL NOT NULL,
		fee_rate REAL NOT NULL,
		leverage REAL NOT NULL,
		confidence TEXT NOT NULL,
		emotions TEXT NOT NULL DEFAULT '',
		setup_quality TEXT NOT NULL,
		market_condition TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_strategy ON trades(strategy);
	CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(date_unix);
`

const tradeColumns = `id, symbol, entry_price, exit_price, quantity, side, date, notes, strategy, timeframe,
	stop_loss, take_profit, fee_rate, leverage, confidence, emotions, setup_quality, market_condition`

const tradeInsertColumns = `trades (id, symbol, entry_price, exit_price, quantity, side, date, date_unix,
		notes, strategy, timeframe, stop_loss, take_profit, fee_rate, leverage, confidence, emotions,
		setup_quality, market_condition)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const (
	insertTrade = "INSERT INTO " + tradeInsertColumns
	upsertTrade = "INSERT OR REPLACE INTO " + tradeInsertColumns
)

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func saveTrade(ctx context.Context, db execer, query string, t *models.Trade) error {
	_, err := db.ExecContext(ctx, query,
		t.ID.String(), t.Symbol, t.EntryPrice, t.ExitPrice, t.Quantity, string(t.Side),
		t.Date.Format(time.RFC3339Nano), t.Date.UnixNano(),
		t.Notes, t.Strategy, string(t.TimeFrame), t.StopLoss, t.TakeProfit, t.FeeRate, t.Leverage,
		string(t.Confidence), t.Emotions, string(t.SetupQuality), string(t.MarketCondition))
	return err
}

// checkDate rejects dates the nanosecond date_unix column cannot hold.
func checkDate(t *models.Trade) error {
	if !models.ValidDate(t.Date) {
		return errors.NewValidationError("date", t.Date.Format(time.RFC3339), "date out of range")
	}
	return nil
}

// Save inserts a new trade. A trade without an ID is assigned one; an ID
// already in the journal fails with errors.ErrDuplicateTrade.
func (s *SQLiteStore) Save(ctx context.Context, trade *models.Trade) error {
	if trade.ID == uuid.Nil {
		trade.ID = uuid.New()
	}
	if err := checkDate(trade); err != nil {
		return err
	}
	err := utils.Retry(ctx, busyRetry, func() error {
		return saveTrade(ctx, s.db, insertTrade, trade)
	})
	if isDuplicate(err) {
		return errors.Wrapf(errors.ErrDuplicateTrade, "trade %s", trade.ID)
	}
	if err != nil {
		return errors.NewDataError("trade", trade.Symbol, "failed to save trade", fmt.Errorf("%w: %v", errors.ErrDatabaseError, err))
	}
	return nil
}

// SaveBatch saves trades in a single transaction, replacing trades whose ID
// already exists.
func (s *SQLiteStore) SaveBatch(ctx context.Context, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	for i := range trades {
		if trades[i].ID == uuid.Nil {
			trades[i].ID = uuid.New()
		}
		if err := checkDate(&trades[i]); err != nil {
			return err
		}
	}

	var failed *models.Trade
	err := utils.Retry(ctx, busyRetry, func() error {
		failed = nil
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		for i := range trades {
			if err := saveTrade(ctx, tx, upsertTrade, &trades[i]); err != nil {
				failed = &trades[i]
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		symbol := ""
		if failed != nil {
			symbol = failed.Symbol
		}
		return errors.NewDataError("trade", symbol, "failed to save batch", fmt.Errorf("%w: %v", errors.ErrDatabaseError, err))
	}

	return nil
}

// Get retrieves a trade by ID.
func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (models.Trade, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+tradeColumns+" FROM trades WHERE id = ?", id.String())
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return models.Trade{}, errors.Wrapf(errors.ErrTradeNotFound, "trade %s", id)
	}
	if err != nil {
		return models.Trade{}, fmt.Errorf("failed to get trade: %w", err)
	}
	return t, nil
}

// Delete removes a trade by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM trades WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrTradeNotFound, "trade %s", id)
	}
	return nil
}

// List retrieves trades matching filter, newest first unless filter.Oldest is set.
func (s *SQLiteStore) List(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := "SELECT " + tradeColumns + " FROM trades WHERE 1=1"
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Strategy != "" {
		query += " AND strategy = ?"
		args = append(args, filter.Strategy)
	}
	if !filter.StartDate.IsZero() {
		query += " AND date_unix >= ?"
		args = append(args, filter.StartDate.UnixNano())
	}
	if !filter.EndDate.IsZero() {
		query += " AND date_unix <= ?"
		args = append(args, filter.EndDate.UnixNano())
	}

	if filter.Oldest {
		query += " ORDER BY date_unix ASC, rowid ASC"
	} else {
		query += " ORDER BY date_unix DESC, rowid DESC"
	}
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// ListBySymbol retrieves every trade for symbol, oldest first.
func (s *SQLiteStore) ListBySymbol(ctx context.Context, symbol string) ([]models.Trade, error) {
	return s.List(ctx, TradeFilter{Symbol: symbol, Oldest: true})
}

// Count returns the number of stored trades.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trades").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(row scanner) (models.Trade, error) {
	var t models.Trade
	var id, side, date, timeframe, confidence, setup, market string

	err := row.Scan(&id, &t.Symbol, &t.EntryPrice, &t.ExitPrice, &t.Quantity, &side, &date,
		&t.Notes, &t.Strategy, &timeframe, &t.StopLoss, &t.TakeProfit, &t.FeeRate, &t.Leverage,
		&confidence, &t.Emotions, &setup, &market)
	if err != nil {
		return t, err
	}

	if t.ID, err = uuid.Parse(id); err != nil {
		return t, fmt.Errorf("invalid trade id %q: %w", id, err)
	}
	if t.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
		return t, fmt.Errorf("invalid trade date %q: %w", date, err)
	}
	t.Side = models.Side(side)
	t.TimeFrame = models.TimeFrame(timeframe)
	t.Confidence = models.Confidence(confidence)
	t.SetupQuality = models.SetupQuality(setup)
	t.MarketCondition = models.MarketCondition(market)

	return t, nil
}
