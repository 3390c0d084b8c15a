// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trade-journal/internal/models"
)

// TradeRepository defines the interface for trade persistence.
// Implementations must return fully-populated trades; unknown ids yield
// errors.ErrTradeNotFound. Save never overwrites: a known id yields
// errors.ErrDuplicateTrade. SaveBatch replaces existing ids.
type TradeRepository interface {
	List(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	Get(ctx context.Context, id uuid.UUID) (models.Trade, error)
	Save(ctx context.Context, trade *models.Trade) error
	SaveBatch(ctx context.Context, trades []models.Trade) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListBySymbol(ctx context.Context, symbol string) ([]models.Trade, error)
	Count(ctx context.Context) (int, error)

	// Lifecycle
	Close() error
}

// TradeFilter represents filters for querying trades.
// Results are ordered newest first, or oldest first when Oldest is set.
// Trades sharing a date keep insertion order in the oldest-first listing.
type TradeFilter struct {
	Symbol    string
	Strategy  string
	StartDate time.Time // inclusive
	EndDate   time.Time // inclusive
	Offset    int
	Limit     int
	Oldest    bool
}
