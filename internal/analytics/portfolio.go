// Package analytics turns collections of trades into performance metrics.
//
// Every function in this package is total: an empty or degenerate input
// yields a zero-valued result, never an error. Nothing here performs I/O.
package analytics

import (
	"math"

	"trade-journal/internal/models"
)

// Summary bundles the scalar portfolio statistics.
type Summary struct {
	TotalTrades       int     `json:"total_trades"`
	Wins              int     `json:"wins"`
	Losses            int     `json:"losses"`
	TotalProfitLoss   float64 `json:"total_profit_loss"`
	GrossProfit       float64 `json:"gross_profit"`
	GrossLoss         float64 `json:"gross_loss"`
	WinRate           float64 `json:"win_rate"`
	ProfitFactor      float64 `json:"profit_factor"`
	AverageRiskReward float64 `json:"average_risk_reward"`
	AverageTrade      float64 `json:"average_trade"`
	Expectancy        float64 `json:"expectancy"`
	LargestWin        float64 `json:"largest_win"`
	LargestLoss       float64 `json:"largest_loss"`
	TotalFees         float64 `json:"total_fees"`
}

// TotalProfitLoss returns the sum of ProfitLoss over all trades.
func TotalProfitLoss(trades []models.Trade) float64 {
	total := 0.0
	for _, t := range trades {
		total += t.ProfitLoss()
	}
	return total
}

// WinRate returns the percentage of trades with a positive result.
func WinRate(trades []models.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	return float64(countWins(trades)) / float64(len(trades)) * 100
}

// ProfitFactor returns gross profit over absolute gross loss.
// It is 0 when there are no losing trades, including the empty case.
func ProfitFactor(trades []models.Trade) float64 {
	profit, loss := grossProfitLoss(trades)
	if loss == 0 {
		return 0
	}
	return profit / math.Abs(loss)
}

// AverageRiskReward returns the mean risk/reward ratio over trades whose
// ratio is strictly positive.
func AverageRiskReward(trades []models.Trade) float64 {
	sum := 0.0
	n := 0
	for _, t := range trades {
		if r := t.RiskRewardRatio(); r > 0 {
			sum += r
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// AverageTrade returns the mean ProfitLoss per trade.
func AverageTrade(trades []models.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	return TotalProfitLoss(trades) / float64(len(trades))
}

// LargestWin returns the best positive result, or 0.
func LargestWin(trades []models.Trade) float64 {
	best := 0.0
	for _, t := range trades {
		if pl := t.ProfitLoss(); pl > best {
			best = pl
		}
	}
	return best
}

// LargestLoss returns the worst negative result, or 0.
func LargestLoss(trades []models.Trade) float64 {
	worst := 0.0
	for _, t := range trades {
		if pl := t.ProfitLoss(); pl < worst {
			worst = pl
		}
	}
	return worst
}

// Summarize computes every portfolio statistic.
func Summarize(trades []models.Trade) Summary {
	s := Summary{
		TotalTrades:       len(trades),
		TotalProfitLoss:   TotalProfitLoss(trades),
		WinRate:           WinRate(trades),
		ProfitFactor:      ProfitFactor(trades),
		AverageRiskReward: AverageRiskReward(trades),
		AverageTrade:      AverageTrade(trades),
		LargestWin:        LargestWin(trades),
		LargestLoss:       LargestLoss(trades),
	}
	s.GrossProfit, s.GrossLoss = grossProfitLoss(trades)
	for _, t := range trades {
		pl := t.ProfitLoss()
		if pl > 0 {
			s.Wins++
		} else if pl < 0 {
			s.Losses++
		}
		s.TotalFees += t.TotalFees()
	}
	s.Expectancy = s.AverageTrade
	return s
}

func countWins(trades []models.Trade) int {
	n := 0
	for _, t := range trades {
		if t.IsWin() {
			n++
		}
	}
	return n
}

// grossProfitLoss returns the positive sum and the (negative) loss sum.
func grossProfitLoss(trades []models.Trade) (profit, loss float64) {
	for _, t := range trades {
		pl := t.ProfitLoss()
		if pl > 0 {
			profit += pl
		} else if pl < 0 {
			loss += pl
		}
	}
	return profit, loss
}
