package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/internal/analytics"
	"trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/performance"
	"trade-journal/internal/security"
	"trade-journal/internal/store"
)

var now = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	repo, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewService(repo, zerolog.Nop(), opts)
}

func trade(symbol string, pl float64, daysAgo int) models.Trade {
	t := models.NewTrade(symbol, models.SideLong, 1000, 1000+pl, 1, 900, 1200, now.AddDate(0, 0, -daysAgo))
	t.FeeRate = 0
	return t
}

func TestService_SeedSampleData(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()

	seeded, err := svc.SeedSampleData(ctx, now)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = svc.SeedSampleData(ctx, now)
	require.NoError(t, err)
	assert.False(t, seeded, "non-empty journal must not be reseeded")

	report, err := svc.Report(ctx, analytics.Query{}, now)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.TotalTrades)
	assert.InDelta(t, 187.10, report.Summary.TotalProfitLoss, 1e-6)
	assert.Equal(t, 100.0, report.Summary.WinRate)
}

func TestService_SymbolStatsInvalidatedOnDelete(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()

	win, err := svc.AddTrade(ctx, trade("BTC/USDT", 50, 1))
	require.NoError(t, err)
	_, err = svc.AddTrade(ctx, trade("BTC/USDT", -20, 2))
	require.NoError(t, err)

	stats, err := svc.SymbolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats["BTC/USDT"].Trades)
	assert.InDelta(t, 50.0, stats["BTC/USDT"].WinRate, 1e-9)

	require.NoError(t, svc.DeleteTrade(ctx, win.ID))

	stats, err = svc.SymbolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["BTC/USDT"].Trades)
	assert.Equal(t, 0.0, stats["BTC/USDT"].WinRate)

	single, ok, err := svc.SymbolStat(ctx, "BTC/USDT")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, stats["BTC/USDT"], single)
}

func TestService_SymbolStatBypassesStaleCache(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()

	_, err := svc.AddTrade(ctx, trade("ETH/USDT", 10, 1))
	require.NoError(t, err)
	_, err = svc.SymbolStats(ctx)
	require.NoError(t, err)

	_, err = svc.AddTrade(ctx, trade("SOL/USDT", 5, 1))
	require.NoError(t, err)

	g, ok, err := svc.SymbolStat(ctx, "SOL/USDT")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, g.Trades)

	_, ok, err = svc.SymbolStat(ctx, "DOGE/USDT")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_DeleteUnknownTrade(t *testing.T) {
	svc := newTestService(t, Options{})

	err := svc.DeleteTrade(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, errors.ErrTradeNotFound))
}

func TestService_TradesByDateFilter(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()

	_, err := svc.AddTrades(ctx, []models.Trade{
		trade("BTC/USDT", 1, 3),
		trade("BTC/USDT", 1, 20),
		trade("BTC/USDT", 1, 200),
	})
	require.NoError(t, err)

	week, err := svc.Trades(ctx, analytics.Last7Days, now)
	require.NoError(t, err)
	assert.Len(t, week, 1)

	month, err := svc.Trades(ctx, analytics.Last30Days, now)
	require.NoError(t, err)
	assert.Len(t, month, 2)

	all, err := svc.Trades(ctx, analytics.AllTime, now)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestService_AddTradesInBatchesAndPaging(t *testing.T) {
	svc := newTestService(t, Options{BatchSize: 7, PageSize: 10})
	ctx := context.Background()

	var trades []models.Trade
	for i := 0; i < 25; i++ {
		trades = append(trades, trade("BTC/USDT", float64(i), i))
	}
	saved, err := svc.AddTrades(ctx, trades)
	require.NoError(t, err)
	assert.Equal(t, 25, saved)

	page, err := svc.TradesPage(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page.Trades, 10)
	assert.Equal(t, 25, page.Total)
	assert.True(t, page.HasMore)
	assert.True(t, page.Trades[0].Date.Equal(now), "newest trade first")

	last, err := svc.TradesPage(ctx, 20, 10)
	require.NoError(t, err)
	assert.Len(t, last.Trades, 5)
	assert.False(t, last.HasMore)
}

func TestService_GroupsParallelMatchesSequential(t *testing.T) {
	pool := performance.NewWorkerPool(4)
	pool.Start()
	defer pool.Stop()

	svc := newTestService(t, Options{Pool: pool, ParallelThreshold: 1})
	ctx := context.Background()

	symbols := []string{"BTC/USDT", "ETH/USDT", "SOL/USDT"}
	var trades []models.Trade
	for i := 0; i < 30; i++ {
		tr := trade(symbols[i%3], float64(i%5)-2, i)
		tr.Strategy = []string{"Breakout", "Scalp"}[i%2]
		trades = append(trades, tr)
	}
	_, err := svc.AddTrades(ctx, trades)
	require.NoError(t, err)

	got, err := svc.Groups(ctx, analytics.ByStrategy, analytics.Query{}, now)
	require.NoError(t, err)

	all, err := svc.AllTrades(ctx)
	require.NoError(t, err)
	assert.Equal(t, analytics.GroupBy(all, analytics.ByStrategy), got)

	top, err := svc.TopSymbols(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestService_ReadOnlyBlocksMutations(t *testing.T) {
	dir := t.TempDir()
	audit, err := security.NewAuditLogger(security.AuditConfig{LogDir: dir, MaxSize: 1})
	require.NoError(t, err)
	t.Cleanup(func() { audit.Close() })

	svc := newTestService(t, Options{
		Access: security.NewAccessController(true, audit),
		Audit:  audit,
	})
	ctx := context.Background()
	assert.True(t, svc.ReadOnly())

	_, err = svc.AddTrade(ctx, trade("BTC/USDT", 50, 1))
	assert.True(t, errors.Is(err, errors.ErrReadOnly))

	_, err = svc.AddTrades(ctx, []models.Trade{trade("BTC/USDT", 50, 1)})
	assert.True(t, errors.Is(err, errors.ErrReadOnly))

	assert.True(t, errors.Is(svc.DeleteTrade(ctx, uuid.New()), errors.ErrReadOnly))

	seeded, err := svc.SeedSampleData(ctx, now)
	assert.False(t, seeded)
	assert.True(t, errors.Is(err, errors.ErrReadOnly))

	all, err := svc.AllTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	data, err := os.ReadFile(security.AuditPath(dir))
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), string(security.AuditReadOnlyViolation)))
}

func TestService_AuditTrail(t *testing.T) {
	dir := t.TempDir()
	audit, err := security.NewAuditLogger(security.AuditConfig{LogDir: dir, MaxSize: 1})
	require.NoError(t, err)
	t.Cleanup(func() { audit.Close() })

	svc := newTestService(t, Options{Audit: audit})
	ctx := security.WithSource(context.Background(), "test")

	added, err := svc.AddTrade(ctx, trade("BTC/USDT", 50, 1))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTrade(ctx, added.ID))
	_, err = svc.SeedSampleData(ctx, now)
	require.NoError(t, err)
	svc.RecordRejected(ctx, errors.NewValidationError("symbol", "", "Symbol is required"))

	data, err := os.ReadFile(security.AuditPath(dir))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	var types []security.AuditEventType
	for _, line := range lines {
		var ev security.AuditEvent
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		assert.Equal(t, "test", ev.Source)
		types = append(types, ev.EventType)
	}
	assert.Equal(t, []security.AuditEventType{
		security.AuditTradeAdded,
		security.AuditTradeDeleted,
		security.AuditTradesImported,
		security.AuditSampleSeeded,
		security.AuditInputValidation,
	}, types)
}

func TestService_AddTradeRejectsExistingID(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()

	first, err := svc.AddTrade(ctx, trade("BTC/USDT", 50, 1))
	require.NoError(t, err)

	clash := trade("ETH/USDT", -20, 2)
	clash.ID = first.ID
	_, err = svc.AddTrade(ctx, clash)
	assert.True(t, errors.Is(err, errors.ErrDuplicateTrade))

	got, err := svc.Trade(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", got.Symbol)

	all, err := svc.AllTrades(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestService_SameDateTradesKeepRecordedOrder(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()

	// recorded win, win, loss on one timestamp: the loss is the latest trade
	for _, pl := range []float64{50, 30, -20} {
		_, err := svc.AddTrade(ctx, trade("BTC/USDT", pl, 1))
		require.NoError(t, err)
	}

	all, err := svc.AllTrades(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.InDelta(t, 50.0, all[0].ProfitLoss(), 1e-9)
	assert.InDelta(t, -20.0, all[2].ProfitLoss(), 1e-9)

	streaks := analytics.WinStreaks(all)
	assert.Equal(t, 0, streaks.Current)
	assert.Equal(t, 2, streaks.Max)

	curve := analytics.EquityCurve(all)
	assert.InDelta(t, 50.0, curve[0].Total, 1e-9)
}
