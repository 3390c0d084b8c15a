package analytics

import (
	"math"
	"sort"
	"time"

	"trade-journal/internal/models"
)

// EquityPoint is a point on the cumulative equity curve.
type EquityPoint struct {
	Date  time.Time `json:"date"`
	Total float64   `json:"total"`
}

// MonthlyBucket holds the summed result of one calendar month.
type MonthlyBucket struct {
	Label      string  `json:"label"`
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	ProfitLoss float64 `json:"profit_loss"`
	Trades     int     `json:"trades"`
}

// MonthLabelLayout is the layout used for monthly bucket labels.
const MonthLabelLayout = "Jan 2006"

// SortByDate returns a copy of trades sorted ascending by date.
// Trades with equal dates keep their input order.
func SortByDate(trades []models.Trade) []models.Trade {
	sorted := make([]models.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// EquityCurve returns the running total of ProfitLoss, one point per trade, in date order.
func EquityCurve(trades []models.Trade) []EquityPoint {
	if len(trades) == 0 {
		return []EquityPoint{}
	}

	points := make([]EquityPoint, 0, len(trades))
	running := 0.0
	for _, t := range SortByDate(trades) {
		running += t.ProfitLoss()
		points = append(points, EquityPoint{Date: t.Date, Total: running})
	}
	return points
}

// YAxisRange returns a chart range that always includes zero, padded by
// 10% of the largest absolute total.
func YAxisRange(points []EquityPoint) (lo, hi float64) {
	if len(points) == 0 {
		return 0, 0
	}

	minTotal, maxTotal := points[0].Total, points[0].Total
	for _, p := range points[1:] {
		minTotal = math.Min(minTotal, p.Total)
		maxTotal = math.Max(maxTotal, p.Total)
	}

	pad := math.Max(math.Abs(minTotal), math.Abs(maxTotal)) * 0.1
	return math.Min(0, minTotal) - pad, math.Max(0, maxTotal) + pad
}

// MonthlyBuckets sums ProfitLoss per calendar month in chronological order.
// The month is taken in each trade's own location.
func MonthlyBuckets(trades []models.Trade) []MonthlyBucket {
	type monthKey struct {
		year  int
		month time.Month
	}

	index := make(map[monthKey]int)
	var buckets []MonthlyBucket
	for _, t := range trades {
		k := monthKey{t.Date.Year(), t.Date.Month()}
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, MonthlyBucket{
				Label: t.Date.Format(MonthLabelLayout),
				Year:  k.year,
				Month: int(k.month),
			})
		}
		buckets[i].ProfitLoss += t.ProfitLoss()
		buckets[i].Trades++
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].Year != buckets[j].Year {
			return buckets[i].Year < buckets[j].Year
		}
		return buckets[i].Month < buckets[j].Month
	})
	if buckets == nil {
		return []MonthlyBucket{}
	}
	return buckets
}
