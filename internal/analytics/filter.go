package analytics

import (
	"fmt"
	"strings"
	"time"

	"trade-journal/internal/models"
)

// DateFilter selects trades within a trailing number of days.
type DateFilter string

const (
	Last7Days   DateFilter = "Last 7 Days"
	Last30Days  DateFilter = "Last 30 Days"
	Last3Months DateFilter = "Last 3 Months"
	Last6Months DateFilter = "Last 6 Months"
	LastYear    DateFilter = "Last Year"
	AllTime     DateFilter = "All Time"
)

// DateFilters lists the date filters in display order.
var DateFilters = []DateFilter{Last7Days, Last30Days, Last3Months, Last6Months, LastYear, AllTime}

// Days returns the trailing window in days, or 0 for AllTime.
func (f DateFilter) Days() int {
	switch f {
	case Last7Days:
		return 7
	case Last30Days:
		return 30
	case Last3Months:
		return 90
	case Last6Months:
		return 180
	case LastYear:
		return 365
	default:
		return 0
	}
}

// Cutoff returns the earliest date kept by the filter and false for AllTime.
func (f DateFilter) Cutoff(now time.Time) (time.Time, bool) {
	days := f.Days()
	if days == 0 {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, -days), true
}

var dateFilterAliases = map[string]DateFilter{
	"7d":   Last7Days,
	"30d":  Last30Days,
	"90d":  Last3Months,
	"3m":   Last3Months,
	"180d": Last6Months,
	"6m":   Last6Months,
	"365d": LastYear,
	"1y":   LastYear,
	"all":  AllTime,
}

// ParseDateFilter accepts either the display name or a short alias such as "30d".
// An empty string means AllTime.
func ParseDateFilter(s string) (DateFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AllTime, nil
	}
	for _, f := range DateFilters {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	if f, ok := dateFilterAliases[strings.ToLower(s)]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown date filter %q", s)
}

// Period is a preset analysis window.
type Period string

const (
	PeriodWeek    Period = "Week"
	PeriodMonth   Period = "Month"
	PeriodQuarter Period = "Quarter"
	PeriodYear    Period = "Year"
	PeriodAll     Period = "All Time"
)

// Periods lists the periods in display order.
var Periods = []Period{PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear, PeriodAll}

// Cutoff returns the earliest date kept by the period and false for PeriodAll.
func (p Period) Cutoff(now time.Time) (time.Time, bool) {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7), true
	case PeriodMonth:
		return now.AddDate(0, -1, 0), true
	case PeriodQuarter:
		return now.AddDate(0, -3, 0), true
	case PeriodYear:
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// ParsePeriod parses a period name case-insensitively. "all" and the empty
// string mean PeriodAll.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return PeriodAll, nil
	}
	for _, p := range Periods {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// AllStrategies is the strategy sentinel that disables strategy filtering.
const AllStrategies = "All"

// Query combines categorical and period filters. Empty fields do not filter.
type Query struct {
	TimeFrame models.TimeFrame `json:"timeframe,omitempty"`
	Strategy  string           `json:"strategy,omitempty"`
	Period    Period           `json:"period,omitempty"`
}

// Match reports whether a trade passes every filter of the query.
func (q Query) Match(t models.Trade, now time.Time) bool {
	if q.TimeFrame != "" && t.TimeFrame != q.TimeFrame {
		return false
	}
	if q.Strategy != "" && q.Strategy != AllStrategies && t.Strategy != q.Strategy {
		return false
	}
	if cutoff, ok := q.Period.Cutoff(now); ok && t.Date.Before(cutoff) {
		return false
	}
	return true
}

// Apply returns the trades matching the query, in input order.
func (q Query) Apply(trades []models.Trade, now time.Time) []models.Trade {
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if q.Match(t, now) {
			out = append(out, t)
		}
	}
	return out
}

// ApplyDateFilter returns the trades dated on or after the filter's cutoff.
func ApplyDateFilter(trades []models.Trade, f DateFilter, now time.Time) []models.Trade {
	cutoff, ok := f.Cutoff(now)
	if !ok {
		out := make([]models.Trade, len(trades))
		copy(out, trades)
		return out
	}
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if !t.Date.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// Strategies returns the distinct non-empty strategies in first-appearance order.
func Strategies(trades []models.Trade) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range trades {
		if t.Strategy == "" || seen[t.Strategy] {
			continue
		}
		seen[t.Strategy] = true
		out = append(out, t.Strategy)
	}
	return out
}
