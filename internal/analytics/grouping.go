package analytics

import (
	"sort"
	"sync"

	"trade-journal/internal/models"
	"trade-journal/internal/performance"
)

// DefaultTopSymbols is the number of symbols returned by TopSymbols when n <= 0.
const DefaultTopSymbols = 10

// KeyFunc extracts the grouping key of a trade.
type KeyFunc func(models.Trade) string

// Key functions for the supported groupings.
var (
	BySymbol          KeyFunc = func(t models.Trade) string { return t.Symbol }
	ByStrategy        KeyFunc = func(t models.Trade) string { return t.Strategy }
	ByTimeFrame       KeyFunc = func(t models.Trade) string { return string(t.TimeFrame) }
	BySide            KeyFunc = func(t models.Trade) string { return string(t.Side) }
	ByConfidence      KeyFunc = func(t models.Trade) string { return string(t.Confidence) }
	BySetupQuality    KeyFunc = func(t models.Trade) string { return string(t.SetupQuality) }
	ByMarketCondition KeyFunc = func(t models.Trade) string { return string(t.MarketCondition) }
	ByProfitBand      KeyFunc = func(t models.Trade) string { return string(BandOf(t.ProfitLoss())) }
)

var keyFuncs = map[string]KeyFunc{
	"symbol":     BySymbol,
	"strategy":   ByStrategy,
	"timeframe":  ByTimeFrame,
	"side":       BySide,
	"confidence": ByConfidence,
	"setup":      BySetupQuality,
	"market":     ByMarketCondition,
	"band":       ByProfitBand,
}

// KeyFuncByName returns the key function registered under name.
func KeyFuncByName(name string) (KeyFunc, bool) {
	fn, ok := keyFuncs[name]
	return fn, ok
}

// KeyNames lists the names accepted by KeyFuncByName.
func KeyNames() []string {
	names := make([]string, 0, len(keyFuncs))
	for name := range keyFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GroupStats holds statistics for one group of trades.
type GroupStats struct {
	Key              string  `json:"key"`
	Trades           int     `json:"trades"`
	WinRate          float64 `json:"win_rate"`
	AverageProfit    float64 `json:"average_profit"`
	TotalProfitLoss  float64 `json:"total_profit_loss"`
	CurrentWinStreak int     `json:"current_win_streak"`
	MaxWinStreak     int     `json:"max_win_streak"`
}

// Streaks holds win streak lengths.
type Streaks struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// WinStreaks returns the current and longest run of winning trades.
// Current counts back from the most recent trade; Max is measured in date order.
func WinStreaks(trades []models.Trade) Streaks {
	sorted := SortByDate(trades)

	var s Streaks
	run := 0
	for _, t := range sorted {
		if t.IsWin() {
			run++
			if run > s.Max {
				s.Max = run
			}
		} else {
			run = 0
		}
	}

	for i := len(sorted) - 1; i >= 0; i-- {
		if !sorted[i].IsWin() {
			break
		}
		s.Current++
	}
	return s
}

// ComputeGroupStats computes the statistics of a single group.
func ComputeGroupStats(key string, trades []models.Trade) GroupStats {
	streaks := WinStreaks(trades)
	return GroupStats{
		Key:              key,
		Trades:           len(trades),
		WinRate:          WinRate(trades),
		AverageProfit:    AverageTrade(trades),
		TotalProfitLoss:  TotalProfitLoss(trades),
		CurrentWinStreak: streaks.Current,
		MaxWinStreak:     streaks.Max,
	}
}

// Partition splits trades by key, preserving first-appearance order of keys
// and input order within each group.
func Partition(trades []models.Trade, key KeyFunc) ([]string, map[string][]models.Trade) {
	var keys []string
	groups := make(map[string][]models.Trade)
	for _, t := range trades {
		k := key(t)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], t)
	}
	return keys, groups
}

// GroupBy returns per-group statistics in first-appearance order of keys.
// Groups without trades never appear.
func GroupBy(trades []models.Trade, key KeyFunc) []GroupStats {
	keys, groups := Partition(trades, key)
	stats := make([]GroupStats, 0, len(keys))
	for _, k := range keys {
		stats = append(stats, ComputeGroupStats(k, groups[k]))
	}
	return stats
}

// GroupMap returns per-group statistics keyed by group.
func GroupMap(trades []models.Trade, key KeyFunc) map[string]GroupStats {
	stats := GroupBy(trades, key)
	m := make(map[string]GroupStats, len(stats))
	for _, s := range stats {
		m[s.Key] = s
	}
	return m
}

// GroupByParallel computes the same result as GroupBy, fanning each group out
// to pool. Groups the pool rejects are computed on the calling goroutine.
func GroupByParallel(trades []models.Trade, key KeyFunc, pool *performance.WorkerPool) []GroupStats {
	if pool == nil {
		return GroupBy(trades, key)
	}

	keys, groups := Partition(trades, key)
	results := make(map[string]GroupStats, len(keys))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, k := range keys {
		k, group := k, groups[k]
		compute := func() {
			s := ComputeGroupStats(k, group)
			mu.Lock()
			results[k] = s
			mu.Unlock()
		}

		wg.Add(1)
		if !pool.Submit(func() {
			defer wg.Done()
			compute()
		}) {
			compute()
			wg.Done()
		}
	}
	wg.Wait()

	stats := make([]GroupStats, 0, len(keys))
	for _, k := range keys {
		stats = append(stats, results[k])
	}
	return stats
}

// TopSymbols returns symbol groups ordered by trade count, highest first,
// truncated to n. Ties keep first-appearance order.
func TopSymbols(trades []models.Trade, n int) []GroupStats {
	if n <= 0 {
		n = DefaultTopSymbols
	}
	stats := GroupBy(trades, BySymbol)
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Trades > stats[j].Trades
	})
	if len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

// RankByWinRate returns a copy of groups ordered by win rate, highest first.
func RankByWinRate(groups []GroupStats) []GroupStats {
	ranked := make([]GroupStats, len(groups))
	copy(ranked, groups)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].WinRate > ranked[j].WinRate
	})
	return ranked
}
