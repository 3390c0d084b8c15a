package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Defaults applied by NewTrade.
const (
	DefaultFeeRate  = 0.1
	DefaultLeverage = 1.0
)

// Trade dates must fit in int64 nanoseconds since the Unix epoch
// (roughly 1678 to 2262).
var (
	MinTradeDate = time.Unix(0, math.MinInt64).UTC()
	MaxTradeDate = time.Unix(0, math.MaxInt64).UTC()
)

// ValidDate reports whether d is within [MinTradeDate, MaxTradeDate].
func ValidDate(d time.Time) bool {
	return !d.Before(MinTradeDate) && !d.After(MaxTradeDate)
}

// Trade represents a closed trade recorded in the journal.
// Financial metrics are methods so they always reflect the current field values.
type Trade struct {
	ID              uuid.UUID       `json:"id"`
	Symbol          string          `json:"symbol"`
	EntryPrice      float64         `json:"entry_price"`
	ExitPrice       float64         `json:"exit_price"`
	Quantity        float64         `json:"quantity"`
	Side            Side            `json:"side"`
	Date            time.Time       `json:"date"`
	Notes           string          `json:"notes,omitempty"`
	Strategy        string          `json:"strategy,omitempty"`
	TimeFrame       TimeFrame       `json:"timeframe"`
	StopLoss        float64         `json:"stop_loss"`
	TakeProfit      float64         `json:"take_profit"`
	FeeRate         float64         `json:"fee_rate"` // percent of notional
	Leverage        float64         `json:"leverage"`
	Confidence      Confidence      `json:"confidence"`
	Emotions        string          `json:"emotions,omitempty"`
	SetupQuality    SetupQuality    `json:"setup_quality"`
	MarketCondition MarketCondition `json:"market_condition"`
}

// NewTrade creates a trade with a fresh ID and the journal defaults
// (0.1% fee, 1x leverage, 1h time frame, medium confidence, good setup, neutral market).
func NewTrade(symbol string, side Side, entry, exit, quantity, stopLoss, takeProfit float64, date time.Time) Trade {
	return Trade{
		ID:              uuid.New(),
		Symbol:          symbol,
		EntryPrice:      entry,
		ExitPrice:       exit,
		Quantity:        quantity,
		Side:            side,
		Date:            date,
		TimeFrame:       TimeFrameH1,
		StopLoss:        stopLoss,
		TakeProfit:      takeProfit,
		FeeRate:         DefaultFeeRate,
		Leverage:        DefaultLeverage,
		Confidence:      ConfidenceMedium,
		SetupQuality:    SetupGood,
		MarketCondition: MarketNeutral,
	}
}

// RawProfitLoss returns the unleveraged price move times quantity.
func (t Trade) RawProfitLoss() float64 {
	diff := t.ExitPrice - t.EntryPrice
	if t.Side == SideShort {
		diff = t.EntryPrice - t.ExitPrice
	}
	return diff * t.Quantity
}

// TotalFees returns the fees paid on both legs of the trade.
func (t Trade) TotalFees() float64 {
	return (t.FeeRate / 100) * (t.EntryPrice + t.ExitPrice) * t.Quantity
}

// ProfitLoss returns the leveraged, fee-adjusted result of the trade.
func (t Trade) ProfitLoss() float64 {
	return t.RawProfitLoss()*t.Leverage - t.TotalFees()
}

// RiskAmount returns the amount at risk between entry and stop loss.
func (t Trade) RiskAmount() float64 {
	return math.Abs(t.EntryPrice-t.StopLoss) * t.Quantity * t.Leverage
}

// RewardAmount returns the planned reward between entry and take profit.
func (t Trade) RewardAmount() float64 {
	return math.Abs(t.TakeProfit-t.EntryPrice) * t.Quantity * t.Leverage
}

// RiskRewardRatio returns reward divided by risk, or 0 when nothing was at risk.
func (t Trade) RiskRewardRatio() float64 {
	risk := t.RiskAmount()
	if risk == 0 {
		return 0
	}
	return t.RewardAmount() / risk
}

// IsWin reports whether the trade closed with a positive result.
func (t Trade) IsWin() bool {
	return t.ProfitLoss() > 0
}

// Equal reports whether two trades share the same identity.
func (t Trade) Equal(other Trade) bool {
	return t.ID == other.ID
}

// TradeDetail is a trade together with its derived metrics, for display.
type TradeDetail struct {
	Trade
	ProfitLoss      float64 `json:"profit_loss"`
	TotalFees       float64 `json:"total_fees"`
	RiskAmount      float64 `json:"risk_amount"`
	RewardAmount    float64 `json:"reward_amount"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
	Win             bool    `json:"win"`
}

// Detail computes the trade's derived metrics.
func (t Trade) Detail() TradeDetail {
	return TradeDetail{
		Trade:           t,
		ProfitLoss:      t.ProfitLoss(),
		TotalFees:       t.TotalFees(),
		RiskAmount:      t.RiskAmount(),
		RewardAmount:    t.RewardAmount(),
		RiskRewardRatio: t.RiskRewardRatio(),
		Win:             t.IsWin(),
	}
}

// Details computes derived metrics for each trade.
func Details(trades []Trade) []TradeDetail {
	out := make([]TradeDetail, len(trades))
	for i, t := range trades {
		out[i] = t.Detail()
	}
	return out
}
