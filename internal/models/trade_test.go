package models

import (
	"math"
	"testing"
	"time"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTrade_ProfitLossLong(t *testing.T) {
	trade := NewTrade("BTC/USDT", SideLong, 42000, 43500, 0.1, 41000, 44000, time.Now())

	if got := trade.RawProfitLoss(); !approxEqual(got, 150) {
		t.Errorf("RawProfitLoss = %v, want 150", got)
	}
	if got := trade.TotalFees(); !approxEqual(got, 8.55) {
		t.Errorf("TotalFees = %v, want 8.55", got)
	}
	if got := trade.ProfitLoss(); !approxEqual(got, 141.45) {
		t.Errorf("ProfitLoss = %v, want 141.45", got)
	}
	if !trade.IsWin() {
		t.Error("expected trade to be a win")
	}
}

func TestTrade_ProfitLossShort(t *testing.T) {
	trade := NewTrade("ETH/USDT", SideShort, 2200, 2150, 1, 2250, 2100, time.Now())

	if got := trade.ProfitLoss(); !approxEqual(got, 45.65) {
		t.Errorf("ProfitLoss = %v, want 45.65", got)
	}
}

func TestTrade_LeverageAppliesBeforeFees(t *testing.T) {
	trade := NewTrade("BTC/USDT", SideLong, 100, 110, 2, 95, 120, time.Now())
	trade.Leverage = 5
	trade.FeeRate = 1

	// raw 20 * 5 = 100, fees 1% of (210 * 2) = 4.2
	if got := trade.ProfitLoss(); !approxEqual(got, 95.8) {
		t.Errorf("ProfitLoss = %v, want 95.8", got)
	}
	if got := trade.RiskAmount(); !approxEqual(got, 50) {
		t.Errorf("RiskAmount = %v, want 50", got)
	}
	if got := trade.RewardAmount(); !approxEqual(got, 200) {
		t.Errorf("RewardAmount = %v, want 200", got)
	}
	if got := trade.RiskRewardRatio(); !approxEqual(got, 4) {
		t.Errorf("RiskRewardRatio = %v, want 4", got)
	}
}

func TestTrade_ZeroRiskHasZeroRatio(t *testing.T) {
	trade := NewTrade("SOL/USDT", SideLong, 100, 105, 1, 100, 120, time.Now())

	if got := trade.RiskAmount(); got != 0 {
		t.Errorf("RiskAmount = %v, want 0", got)
	}
	if got := trade.RiskRewardRatio(); got != 0 {
		t.Errorf("RiskRewardRatio = %v, want 0", got)
	}
}

func TestTrade_MetricsFollowFieldEdits(t *testing.T) {
	trade := NewTrade("BTC/USDT", SideLong, 100, 110, 1, 90, 130, time.Now())
	trade.FeeRate = 0
	before := trade.ProfitLoss()

	trade.ExitPrice = 90
	after := trade.ProfitLoss()

	if !approxEqual(before, 10) || !approxEqual(after, -10) {
		t.Errorf("ProfitLoss before/after edit = %v/%v, want 10/-10", before, after)
	}
}

func TestTrade_EqualByID(t *testing.T) {
	a := NewTrade("BTC/USDT", SideLong, 100, 110, 1, 90, 130, time.Now())
	b := a
	b.ExitPrice = 50
	c := NewTrade("BTC/USDT", SideLong, 100, 110, 1, 90, 130, a.Date)

	if !a.Equal(b) {
		t.Error("trades with the same ID should be equal")
	}
	if a.Equal(c) {
		t.Error("trades with different IDs should not be equal")
	}
}

func TestNewTrade_Defaults(t *testing.T) {
	trade := NewTrade("BTC/USDT", SideLong, 1, 2, 3, 0, 0, time.Now())

	if trade.FeeRate != DefaultFeeRate || trade.Leverage != DefaultLeverage {
		t.Errorf("unexpected fee/leverage defaults: %v/%v", trade.FeeRate, trade.Leverage)
	}
	if trade.TimeFrame != TimeFrameH1 || trade.Confidence != ConfidenceMedium ||
		trade.SetupQuality != SetupGood || trade.MarketCondition != MarketNeutral {
		t.Errorf("unexpected enum defaults: %+v", trade)
	}
}

func TestParseEnums(t *testing.T) {
	if tf, err := ParseTimeFrame("4h"); err != nil || tf != TimeFrameH4 {
		t.Errorf("ParseTimeFrame(4h) = %v, %v", tf, err)
	}
	if _, err := ParseTimeFrame("2h"); err == nil {
		t.Error("expected error for unknown time frame")
	}
	if s, err := ParseSide("Short"); err != nil || s != SideShort {
		t.Errorf("ParseSide(Short) = %v, %v", s, err)
	}
	if _, err := ParseConfidence("Extreme"); err == nil {
		t.Error("expected error for unknown confidence")
	}
	if q, err := ParseSetupQuality("Excellent"); err != nil || q != SetupExcellent {
		t.Errorf("ParseSetupQuality(Excellent) = %v, %v", q, err)
	}
	if m, err := ParseMarketCondition("Bearish"); err != nil || m != MarketBearish {
		t.Errorf("ParseMarketCondition(Bearish) = %v, %v", m, err)
	}
}

func TestTradeDetail(t *testing.T) {
	trade := NewTrade("ETH/USDT", SideShort, 2200, 2150, 1, 2250, 2100, time.Now())
	d := trade.Detail()

	if d.ID != trade.ID {
		t.Errorf("Detail ID = %v, want %v", d.ID, trade.ID)
	}
	if math.Abs(d.ProfitLoss-45.65) > 1e-9 {
		t.Errorf("Detail ProfitLoss = %v, want 45.65", d.ProfitLoss)
	}
	if d.RiskRewardRatio != 2 {
		t.Errorf("Detail RiskRewardRatio = %v, want 2", d.RiskRewardRatio)
	}
	if !d.Win {
		t.Error("Detail Win = false, want true")
	}
	if got := Details([]Trade{trade, trade}); len(got) != 2 {
		t.Errorf("Details length = %d, want 2", len(got))
	}
}
