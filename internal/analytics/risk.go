package analytics

import (
	"math"
	"sort"

	"trade-journal/internal/models"
)

// ProfitBand classifies a trade result.
type ProfitBand string

const (
	BandLargeWin  ProfitBand = "Large Win"
	BandSmallWin  ProfitBand = "Small Win"
	BandSmallLoss ProfitBand = "Small Loss"
	BandLargeLoss ProfitBand = "Large Loss"
	// BandFlat holds results of exactly zero, which fall outside every distribution band.
	BandFlat ProfitBand = "Flat"
)

// ProfitBandThreshold separates small from large results.
const ProfitBandThreshold = 100.0

// RiskBucketSize is the width of a risk distribution bucket.
const RiskBucketSize = 100.0

var bandOrder = []ProfitBand{BandLargeWin, BandSmallWin, BandSmallLoss, BandLargeLoss}

// BandOf returns the band of a ProfitLoss value.
func BandOf(pl float64) ProfitBand {
	switch {
	case pl > ProfitBandThreshold:
		return BandLargeWin
	case pl > 0:
		return BandSmallWin
	case pl < -ProfitBandThreshold:
		return BandLargeLoss
	case pl < 0:
		return BandSmallLoss
	default:
		return BandFlat
	}
}

// RiskBucket counts trades whose risk rounds to Bucket.
type RiskBucket struct {
	Bucket float64 `json:"bucket"`
	Count  int     `json:"count"`
}

// BandCount is one row of the profit distribution.
type BandCount struct {
	Band       ProfitBand `json:"band"`
	Count      int        `json:"count"`
	Percentage float64    `json:"percentage"`
}

// RiskSummary bundles the risk statistics.
type RiskSummary struct {
	MaxDrawdown              float64      `json:"max_drawdown"`
	AverageRisk              float64      `json:"average_risk"`
	AverageRiskReward        float64      `json:"average_risk_reward"`
	ProfitableRiskTradeRatio float64      `json:"profitable_risk_trade_ratio"`
	Distribution             []RiskBucket `json:"distribution"`
}

// MaxDrawdown returns the largest percentage decline from a running peak of
// cumulative ProfitLoss, walking trades in the order given. The peak starts
// at 0 and steps taken while the peak is 0 contribute nothing.
func MaxDrawdown(trades []models.Trade) float64 {
	peak, running, maxDD := 0.0, 0.0, 0.0
	for _, t := range trades {
		running += t.ProfitLoss()
		if running > peak {
			peak = running
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - running) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// AverageRisk returns the mean RiskAmount per trade.
func AverageRisk(trades []models.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range trades {
		sum += t.RiskAmount()
	}
	return sum / float64(len(trades))
}

// ProfitableRiskTradeRatio returns the percentage of trades that closed in profit.
func ProfitableRiskTradeRatio(trades []models.Trade) float64 {
	return WinRate(trades)
}

// RiskDistribution counts trades per rounded risk bucket, ascending.
func RiskDistribution(trades []models.Trade) []RiskBucket {
	counts := make(map[float64]int)
	for _, t := range trades {
		b := math.Round(t.RiskAmount()/RiskBucketSize) * RiskBucketSize
		counts[b]++
	}

	buckets := make([]RiskBucket, 0, len(counts))
	for b, n := range counts {
		buckets = append(buckets, RiskBucket{Bucket: b, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Bucket < buckets[j].Bucket
	})
	return buckets
}

// ProfitDistribution counts trades per profit band. Bands without trades are
// omitted; percentages are relative to all trades given.
func ProfitDistribution(trades []models.Trade) []BandCount {
	counts := make(map[ProfitBand]int)
	for _, t := range trades {
		counts[BandOf(t.ProfitLoss())]++
	}

	dist := make([]BandCount, 0, len(bandOrder))
	for _, band := range bandOrder {
		n := counts[band]
		if n == 0 {
			continue
		}
		dist = append(dist, BandCount{
			Band:       band,
			Count:      n,
			Percentage: float64(n) / float64(len(trades)) * 100,
		})
	}
	return dist
}

// AnalyzeRisk computes every risk statistic.
func AnalyzeRisk(trades []models.Trade) RiskSummary {
	return RiskSummary{
		MaxDrawdown:              MaxDrawdown(trades),
		AverageRisk:              AverageRisk(trades),
		AverageRiskReward:        AverageRiskReward(trades),
		ProfitableRiskTradeRatio: ProfitableRiskTradeRatio(trades),
		Distribution:             RiskDistribution(trades),
	}
}
