package analytics

import (
	"time"

	"trade-journal/internal/models"
)

// Report is the complete analytics view of a set of trades.
type Report struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	Query        Query           `json:"query"`
	Summary      Summary         `json:"summary"`
	Equity       []EquityPoint   `json:"equity"`
	YMin         float64         `json:"y_min"`
	YMax         float64         `json:"y_max"`
	Monthly      []MonthlyBucket `json:"monthly"`
	Strategies   []GroupStats    `json:"strategies"`
	TimeFrames   []GroupStats    `json:"timeframes"`
	Symbols      []GroupStats    `json:"symbols"`
	Streaks      Streaks         `json:"streaks"`
	Risk         RiskSummary     `json:"risk"`
	Distribution []BandCount     `json:"distribution"`
}

// BuildReport applies the query and computes every statistic over the result.
func BuildReport(trades []models.Trade, q Query, now time.Time) Report {
	filtered := q.Apply(trades, now)
	equity := EquityCurve(filtered)
	lo, hi := YAxisRange(equity)

	return Report{
		GeneratedAt:  now,
		Query:        q,
		Summary:      Summarize(filtered),
		Equity:       equity,
		YMin:         lo,
		YMax:         hi,
		Monthly:      MonthlyBuckets(filtered),
		Strategies:   RankByWinRate(GroupBy(filtered, ByStrategy)),
		TimeFrames:   GroupBy(filtered, ByTimeFrame),
		Symbols:      TopSymbols(filtered, DefaultTopSymbols),
		Streaks:      WinStreaks(filtered),
		Risk:         AnalyzeRisk(filtered),
		Distribution: ProfitDistribution(filtered),
	}
}
