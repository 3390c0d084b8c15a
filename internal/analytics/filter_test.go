package analytics

import (
	"testing"
	"time"

	"trade-journal/internal/models"
)

func TestApplyDateFilter(t *testing.T) {
	now := time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		tradeWithPL(1, now.AddDate(0, 0, -3)),
		tradeWithPL(1, now.AddDate(0, 0, -7)),
		tradeWithPL(1, now.AddDate(0, 0, -20)),
		tradeWithPL(1, now.AddDate(0, 0, -100)),
		tradeWithPL(1, now.AddDate(-2, 0, 0)),
	}

	tests := []struct {
		filter DateFilter
		want   int
	}{
		{Last7Days, 2},
		{Last30Days, 3},
		{Last3Months, 3},
		{Last6Months, 4},
		{LastYear, 4},
		{AllTime, 5},
	}
	for _, tt := range tests {
		if got := ApplyDateFilter(trades, tt.filter, now); len(got) != tt.want {
			t.Errorf("%s: kept %d trades, want %d", tt.filter, len(got), tt.want)
		}
	}
}

func TestPeriodCutoff(t *testing.T) {
	now := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		period Period
		want   time.Time
	}{
		{PeriodWeek, time.Date(2024, time.March, 24, 0, 0, 0, 0, time.UTC)},
		{PeriodMonth, now.AddDate(0, -1, 0)},
		{PeriodQuarter, now.AddDate(0, -3, 0)},
		{PeriodYear, time.Date(2023, time.March, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, ok := tt.period.Cutoff(now)
		if !ok || !got.Equal(tt.want) {
			t.Errorf("%s cutoff = %v (%v), want %v", tt.period, got, ok, tt.want)
		}
	}
	if _, ok := PeriodAll.Cutoff(now); ok {
		t.Error("PeriodAll should have no cutoff")
	}
}

func TestQuery_ComposesFilters(t *testing.T) {
	now := baseDate.AddDate(0, 0, 10)

	match := tradeWithPL(5, baseDate.AddDate(0, 0, 8))
	match.Strategy = "Breakout"
	match.TimeFrame = models.TimeFrameH4

	wrongStrategy := match
	wrongStrategy.Strategy = "Scalp"
	wrongTimeFrame := match
	wrongTimeFrame.TimeFrame = models.TimeFrameD1
	tooOld := match
	tooOld.Date = baseDate.AddDate(0, -2, 0)

	trades := []models.Trade{match, wrongStrategy, wrongTimeFrame, tooOld}

	q := Query{TimeFrame: models.TimeFrameH4, Strategy: "Breakout", Period: PeriodWeek}
	if got := q.Apply(trades, now); len(got) != 1 || !got[0].Equal(match) {
		t.Errorf("Apply = %d trades, want only the matching one", len(got))
	}

	all := Query{TimeFrame: models.TimeFrameH4, Strategy: AllStrategies, Period: PeriodAll}
	if got := all.Apply(trades, now); len(got) != 3 {
		t.Errorf("strategy sentinel: kept %d, want 3", len(got))
	}

	if got := (Query{}).Apply(trades, now); len(got) != 4 {
		t.Errorf("empty query: kept %d, want 4", len(got))
	}
}

func TestParseDateFilter(t *testing.T) {
	tests := map[string]DateFilter{
		"":             AllTime,
		"7d":           Last7Days,
		"last 30 days": Last30Days,
		"6M":           Last6Months,
		"Last Year":    LastYear,
		"all":          AllTime,
	}
	for in, want := range tests {
		got, err := ParseDateFilter(in)
		if err != nil || got != want {
			t.Errorf("ParseDateFilter(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseDateFilter("fortnight"); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestParsePeriod(t *testing.T) {
	if p, err := ParsePeriod("quarter"); err != nil || p != PeriodQuarter {
		t.Errorf("ParsePeriod(quarter) = %q, %v", p, err)
	}
	if p, err := ParsePeriod(""); err != nil || p != PeriodAll {
		t.Errorf("ParsePeriod(\"\") = %q, %v", p, err)
	}
	if _, err := ParsePeriod("decade"); err == nil {
		t.Error("expected error for unknown period")
	}
}

func TestStrategies(t *testing.T) {
	a := tradeWithPL(1, baseDate)
	a.Strategy = "Breakout"
	b := tradeWithPL(1, baseDate)
	c := tradeWithPL(1, baseDate)
	c.Strategy = "Breakout"
	d := tradeWithPL(1, baseDate)
	d.Strategy = "Scalp"

	got := Strategies([]models.Trade{a, b, c, d})
	if len(got) != 2 || got[0] != "Breakout" || got[1] != "Scalp" {
		t.Errorf("Strategies = %v", got)
	}
}

func TestBuildReport(t *testing.T) {
	trades := sampleTrades()
	trades[0].Strategy = "Trend Following"
	trades[1].Strategy = "Price Action"

	r := BuildReport(trades, Query{Strategy: "Price Action"}, baseDate.AddDate(0, 0, 1))
	if r.Summary.TotalTrades != 1 || !near(r.Summary.TotalProfitLoss, 45.65) {
		t.Errorf("Summary = %+v", r.Summary)
	}
	if len(r.Equity) != 1 || len(r.Strategies) != 1 || r.Strategies[0].Key != "Price Action" {
		t.Errorf("unexpected report contents: %+v", r)
	}
	if r.Streaks.Current != 1 || r.YMax <= r.YMin {
		t.Errorf("unexpected streaks or range: %+v %v %v", r.Streaks, r.YMin, r.YMax)
	}
}
