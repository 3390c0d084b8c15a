// Package journal coordinates trade persistence with analytics.
package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trade-journal/internal/analytics"
	"trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/metrics"
	"trade-journal/internal/models"
	"trade-journal/internal/performance"
	"trade-journal/internal/security"
	"trade-journal/internal/store"
)

// Defaults for Options fields left at zero.
const (
	DefaultPageSize          = 50
	DefaultBatchSize         = 100
	DefaultParallelThreshold = 1000
)

// Options tunes a Service.
type Options struct {
	// Pool, when set and started, parallelises grouping of large journals.
	Pool              *performance.WorkerPool
	ParallelThreshold int
	PageSize          int
	BatchSize         int
	TopSymbols        int
	// Access gates mutations; nil allows all of them.
	Access *security.AccessController
	// Audit receives one event per mutation; nil disables the trail.
	Audit *security.AuditLogger
}

// Page is one page of trades, newest first.
type Page struct {
	Trades  []models.Trade `json:"trades"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
	Total   int            `json:"total"`
	HasMore bool           `json:"has_more"`
}

// Service owns the trade repository and the symbol statistics cache.
// Every mutation invalidates the whole cache; the next read rebuilds it.
type Service struct {
	repo   store.TradeRepository
	logger zerolog.Logger
	opts   Options

	mu          sync.Mutex
	symbolStats map[string]analytics.GroupStats
	dirty       bool
}

// NewService creates a journal service over repo.
func NewService(repo store.TradeRepository, logger zerolog.Logger, opts Options) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ParallelThreshold <= 0 {
		opts.ParallelThreshold = DefaultParallelThreshold
	}
	if opts.TopSymbols <= 0 {
		opts.TopSymbols = analytics.DefaultTopSymbols
	}
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "journal").Logger(),
		opts:   opts,
		dirty:  true,
	}
}

func (s *Service) invalidate() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// AddTrade persists a new trade. A trade whose ID is already recorded fails
// with errors.ErrDuplicateTrade and leaves the stored trade untouched.
func (s *Service) AddTrade(ctx context.Context, trade models.Trade) (models.Trade, error) {
	if err := s.checkPermission(ctx, security.OpAddTrade); err != nil {
		return models.Trade{}, err
	}

	err := s.repo.Save(ctx, &trade)
	metrics.RecordMutation("add", err)
	s.audit(s.opts.Audit.LogTradeAdded(ctx, trade.ID.String(), trade.Symbol, string(trade.Side), trade.ProfitLoss(), err))
	if err != nil {
		return models.Trade{}, errors.Wrap(err, "add trade")
	}

	s.invalidate()
	logging.LogTrade(s.logger, trade)
	return trade, nil
}

// AddTrades persists trades in batches and returns how many were saved.
// A failing batch stops the import; earlier batches stay committed.
func (s *Service) AddTrades(ctx context.Context, trades []models.Trade) (int, error) {
	if err := s.checkPermission(ctx, security.OpImport); err != nil {
		return 0, err
	}
	return s.addTrades(ctx, trades)
}

func (s *Service) addTrades(ctx context.Context, trades []models.Trade) (int, error) {
	saved := 0
	batcher := performance.NewBatchProcessor(s.opts.BatchSize, func(batch []models.Trade) error {
		if err := s.repo.SaveBatch(ctx, batch); err != nil {
			return err
		}
		saved += len(batch)
		return nil
	})

	var err error
	for _, t := range trades {
		if err = batcher.Add(t); err != nil {
			break
		}
	}
	if err == nil {
		err = batcher.Flush()
	}

	metrics.RecordMutation("add_batch", err)
	s.audit(s.opts.Audit.LogTradesImported(ctx, saved, len(trades), err))
	if saved > 0 {
		s.invalidate()
	}
	if err != nil {
		return saved, errors.Wrapf(err, "add trades (saved %d of %d)", saved, len(trades))
	}

	s.logger.Info().Int("count", saved).Msg("Trades imported")
	return saved, nil
}

// DeleteTrade removes a trade by ID.
func (s *Service) DeleteTrade(ctx context.Context, id uuid.UUID) error {
	if err := s.checkPermission(ctx, security.OpDeleteTrade); err != nil {
		return err
	}

	err := s.repo.Delete(ctx, id)
	metrics.RecordMutation("delete", err)
	s.audit(s.opts.Audit.LogTradeDeleted(ctx, id.String(), err))
	if err != nil {
		return errors.Wrap(err, "delete trade")
	}

	s.invalidate()
	logging.LogTradeDeleted(s.logger, id.String())
	return nil
}

// Trade returns a trade by ID.
func (s *Service) Trade(ctx context.Context, id uuid.UUID) (models.Trade, error) {
	return s.repo.Get(ctx, id)
}

// AllTrades returns every trade oldest first, trades sharing a date in the
// order they were recorded. Analytics passes read through here.
func (s *Service) AllTrades(ctx context.Context) ([]models.Trade, error) {
	trades, err := s.repo.List(ctx, store.TradeFilter{Oldest: true})
	if err != nil {
		return nil, errors.Wrap(err, "list trades")
	}
	return trades, nil
}

// Trades returns the trades kept by the date filter, newest first.
func (s *Service) Trades(ctx context.Context, filter analytics.DateFilter, now time.Time) ([]models.Trade, error) {
	f := store.TradeFilter{}
	if cutoff, ok := filter.Cutoff(now); ok {
		f.StartDate = cutoff
	}
	trades, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list trades")
	}
	return trades, nil
}

// TradesPage returns one page of trades. A non-positive limit uses the
// configured page size.
func (s *Service) TradesPage(ctx context.Context, offset, limit int) (Page, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = s.opts.PageSize
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return Page{}, errors.Wrap(err, "count trades")
	}
	trades, err := s.repo.List(ctx, store.TradeFilter{Offset: offset, Limit: limit})
	if err != nil {
		return Page{}, errors.Wrap(err, "list trades")
	}

	return Page{
		Trades:  trades,
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		HasMore: offset+len(trades) < total,
	}, nil
}

// Groups computes per-group statistics for the trades matching q.
func (s *Service) Groups(ctx context.Context, key analytics.KeyFunc, q analytics.Query, now time.Time) ([]analytics.GroupStats, error) {
	trades, err := s.AllTrades(ctx)
	if err != nil {
		return nil, err
	}
	return s.groupBy(q.Apply(trades, now), key), nil
}

func (s *Service) groupBy(trades []models.Trade, key analytics.KeyFunc) []analytics.GroupStats {
	if s.opts.Pool != nil && len(trades) >= s.opts.ParallelThreshold {
		return analytics.GroupByParallel(trades, key, s.opts.Pool)
	}
	return analytics.GroupBy(trades, key)
}

// SymbolStats returns statistics for every symbol, rebuilding the cache if
// any mutation happened since the last read.
func (s *Service) SymbolStats(ctx context.Context) (map[string]analytics.GroupStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty || s.symbolStats == nil {
		if err := s.refreshLocked(ctx); err != nil {
			return nil, err
		}
	}

	out := make(map[string]analytics.GroupStats, len(s.symbolStats))
	for k, v := range s.symbolStats {
		out[k] = v
	}
	return out, nil
}

func (s *Service) refreshLocked(ctx context.Context) error {
	start := time.Now()
	trades, err := s.repo.List(ctx, store.TradeFilter{Oldest: true})
	if err != nil {
		return errors.Wrap(err, "refresh symbol stats")
	}

	stats := make(map[string]analytics.GroupStats)
	for _, g := range s.groupBy(trades, analytics.BySymbol) {
		stats[g.Key] = g
	}
	s.symbolStats = stats
	s.dirty = false

	metrics.SymbolCacheRefreshes.Inc()
	metrics.TradesStored.Set(float64(len(trades)))
	metrics.RecordReport("symbols", time.Since(start))
	s.logger.Debug().Int("symbols", len(stats)).Int("trades", len(trades)).Msg("Symbol stats refreshed")
	return nil
}

// SymbolStat returns statistics for a single symbol. The bool is false when
// the journal has no trades for it. A stale cache is bypassed rather than
// rebuilt, so only the symbol's own trades are read.
func (s *Service) SymbolStat(ctx context.Context, symbol string) (analytics.GroupStats, bool, error) {
	s.mu.Lock()
	if !s.dirty && s.symbolStats != nil {
		g, ok := s.symbolStats[symbol]
		s.mu.Unlock()
		return g, ok, nil
	}
	s.mu.Unlock()

	trades, err := s.repo.ListBySymbol(ctx, symbol)
	if err != nil {
		return analytics.GroupStats{}, false, errors.Wrap(err, "symbol stats")
	}
	logger := logging.WithSymbol(s.logger, symbol)
	logger.Debug().Int("trades", len(trades)).Msg("Symbol stats computed without cache")
	if len(trades) == 0 {
		return analytics.GroupStats{}, false, nil
	}
	return analytics.ComputeGroupStats(symbol, trades), true, nil
}

// TopSymbols returns the n most traded symbols. n <= 0 uses the configured default.
func (s *Service) TopSymbols(ctx context.Context, n int) ([]analytics.GroupStats, error) {
	if n <= 0 {
		n = s.opts.TopSymbols
	}
	trades, err := s.AllTrades(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.TopSymbols(trades, n), nil
}

// Report builds the full analytics report for the trades matching q.
func (s *Service) Report(ctx context.Context, q analytics.Query, now time.Time) (analytics.Report, error) {
	trades, err := s.AllTrades(ctx)
	if err != nil {
		return analytics.Report{}, err
	}

	start := time.Now()
	report := analytics.BuildReport(trades, q, now)
	duration := time.Since(start)

	metrics.RecordReport("report", duration)
	logging.LogReport(s.logger, report.Summary.TotalTrades, duration)
	return report, nil
}

// SeedSampleData inserts the demo trades when the journal is empty and
// reports whether it did.
func (s *Service) SeedSampleData(ctx context.Context, now time.Time) (bool, error) {
	if err := s.checkPermission(ctx, security.OpSeed); err != nil {
		return false, err
	}

	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, errors.Wrap(err, "count trades")
	}
	if n > 0 {
		return false, nil
	}

	saved, err := s.addTrades(ctx, SampleTrades(now))
	if err != nil {
		return false, err
	}
	s.audit(s.opts.Audit.LogSampleSeeded(ctx, saved))
	return true, nil
}

// ReadOnly reports whether mutations are blocked.
func (s *Service) ReadOnly() bool {
	return s.opts.Access.IsReadOnly()
}

// RecordRejected audits input that failed validation before reaching the
// journal. Errors without a field or row are ignored.
func (s *Service) RecordRejected(ctx context.Context, err error) {
	var row *errors.RowError
	if errors.As(err, &row) {
		s.audit(s.opts.Audit.LogInputValidation(ctx, fmt.Sprintf("row %d", row.Row), "", row.Err.Error()))
		return
	}
	var ve *errors.ValidationError
	if errors.As(err, &ve) {
		s.audit(s.opts.Audit.LogInputValidation(ctx, ve.Field, ve.Value, ve.Message))
	}
}

func (s *Service) checkPermission(ctx context.Context, op security.OperationType) error {
	err := s.opts.Access.CheckPermission(ctx, op)
	if err != nil {
		logger := logging.WithOperation(s.logger, string(op))
		logger.Warn().Msg("Mutation blocked in read-only mode")
	}
	return err
}

func (s *Service) audit(err error) {
	if err != nil {
		s.logger.Warn().Err(err).Msg("Audit write failed")
	}
}
