package journal

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// User-facing validation messages.
const (
	MsgMissingSymbol  = "Please enter a crypto pair"
	MsgMissingDetails = "Please fill in all required trade details"
	MsgMissingRisk    = "Stop Loss and Take Profit are required"
	MsgInvalidNumber  = "Please enter valid numeric values"
	MsgNegativeValue  = "Prices and quantity must not be negative"
	MsgLeverage       = "Leverage must be at least 1"
	MsgInvalidDate    = "Please enter a valid date"
)

// Accepted layouts for TradeForm.Date, tried in order.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// TradeForm holds raw text input for a new trade.
// Empty enum fields take the same defaults as models.NewTrade.
type TradeForm struct {
	ID              string `json:"id,omitempty"`
	Symbol          string `json:"symbol"`
	EntryPrice      string `json:"entry_price"`
	ExitPrice       string `json:"exit_price"`
	Quantity        string `json:"quantity"`
	Side            string `json:"side"`
	Date            string `json:"date,omitempty"`
	Notes           string `json:"notes,omitempty"`
	Strategy        string `json:"strategy,omitempty"`
	TimeFrame       string `json:"timeframe,omitempty"`
	StopLoss        string `json:"stop_loss"`
	TakeProfit      string `json:"take_profit"`
	Fees            string `json:"fees,omitempty"`
	Leverage        string `json:"leverage,omitempty"`
	Confidence      string `json:"confidence,omitempty"`
	Emotions        string `json:"emotions,omitempty"`
	SetupQuality    string `json:"setup_quality,omitempty"`
	MarketCondition string `json:"market_condition,omitempty"`
}

// NewTradeForm returns a form with the default fee and leverage text.
func NewTradeForm() TradeForm {
	return TradeForm{
		Side:     string(models.SideLong),
		Fees:     "0",
		Leverage: "1",
	}
}

// Build validates the form and returns the trade it describes. Trades without
// a date are stamped with now. Failures are *errors.ValidationError.
func (f TradeForm) Build(now time.Time) (models.Trade, error) {
	f = f.trimmed()

	if f.Symbol == "" {
		return models.Trade{}, errors.NewValidationError("symbol", f.Symbol, MsgMissingSymbol)
	}
	if f.EntryPrice == "" || f.ExitPrice == "" || f.Quantity == "" {
		return models.Trade{}, errors.NewValidationError("", nil, MsgMissingDetails)
	}
	if f.StopLoss == "" || f.TakeProfit == "" {
		return models.Trade{}, errors.NewValidationError("", nil, MsgMissingRisk)
	}
	if f.Fees == "" {
		f.Fees = "0"
	}
	if f.Leverage == "" {
		f.Leverage = "1"
	}

	var nums [7]float64
	fields := []struct {
		name string
		text string
	}{
		{"entry_price", f.EntryPrice},
		{"exit_price", f.ExitPrice},
		{"quantity", f.Quantity},
		{"stop_loss", f.StopLoss},
		{"take_profit", f.TakeProfit},
		{"fees", f.Fees},
		{"leverage", f.Leverage},
	}
	for i, field := range fields {
		d, err := decimal.NewFromString(field.text)
		if err != nil {
			return models.Trade{}, errors.NewValidationError(field.name, field.text, MsgInvalidNumber)
		}
		if d.IsNegative() {
			return models.Trade{}, errors.NewValidationError(field.name, field.text, MsgNegativeValue)
		}
		nums[i] = d.InexactFloat64()
	}
	entry, exit, qty, stopLoss, takeProfit, fees, leverage := nums[0], nums[1], nums[2], nums[3], nums[4], nums[5], nums[6]
	if leverage < 1 {
		return models.Trade{}, errors.NewValidationError("leverage", f.Leverage, MsgLeverage)
	}

	side := models.SideLong
	if f.Side != "" {
		s, err := models.ParseSide(f.Side)
		if err != nil {
			return models.Trade{}, errors.NewValidationError("side", f.Side, err.Error())
		}
		side = s
	}

	date := now
	if f.Date != "" {
		d, err := parseDate(f.Date, now.Location())
		if err != nil || !models.ValidDate(d) {
			return models.Trade{}, errors.NewValidationError("date", f.Date, MsgInvalidDate)
		}
		date = d
	}

	trade := models.NewTrade(f.Symbol, side, entry, exit, qty, stopLoss, takeProfit, date)
	trade.FeeRate = fees
	trade.Leverage = leverage
	trade.Notes = f.Notes
	trade.Strategy = f.Strategy
	trade.Emotions = f.Emotions

	if f.ID != "" {
		id, err := uuid.Parse(f.ID)
		if err != nil {
			return models.Trade{}, errors.NewValidationError("id", f.ID, "invalid trade id")
		}
		trade.ID = id
	}
	if f.TimeFrame != "" {
		tf, err := models.ParseTimeFrame(f.TimeFrame)
		if err != nil {
			return models.Trade{}, errors.NewValidationError("timeframe", f.TimeFrame, err.Error())
		}
		trade.TimeFrame = tf
	}
	if f.Confidence != "" {
		c, err := models.ParseConfidence(f.Confidence)
		if err != nil {
			return models.Trade{}, errors.NewValidationError("confidence", f.Confidence, err.Error())
		}
		trade.Confidence = c
	}
	if f.SetupQuality != "" {
		q, err := models.ParseSetupQuality(f.SetupQuality)
		if err != nil {
			return models.Trade{}, errors.NewValidationError("setup_quality", f.SetupQuality, err.Error())
		}
		trade.SetupQuality = q
	}
	if f.MarketCondition != "" {
		m, err := models.ParseMarketCondition(f.MarketCondition)
		if err != nil {
			return models.Trade{}, errors.NewValidationError("market_condition", f.MarketCondition, err.Error())
		}
		trade.MarketCondition = m
	}

	return trade, nil
}

func (f TradeForm) trimmed() TradeForm {
	f.ID = strings.TrimSpace(f.ID)
	f.Symbol = strings.TrimSpace(f.Symbol)
	f.EntryPrice = strings.TrimSpace(f.EntryPrice)
	f.ExitPrice = strings.TrimSpace(f.ExitPrice)
	f.Quantity = strings.TrimSpace(f.Quantity)
	f.Side = strings.TrimSpace(f.Side)
	f.Date = strings.TrimSpace(f.Date)
	f.TimeFrame = strings.TrimSpace(f.TimeFrame)
	f.StopLoss = strings.TrimSpace(f.StopLoss)
	f.TakeProfit = strings.TrimSpace(f.TakeProfit)
	f.Fees = strings.TrimSpace(f.Fees)
	f.Leverage = strings.TrimSpace(f.Leverage)
	f.Confidence = strings.TrimSpace(f.Confidence)
	f.SetupQuality = strings.TrimSpace(f.SetupQuality)
	f.MarketCondition = strings.TrimSpace(f.MarketCondition)
	return f
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// FormFromTrade renders a trade back into form text.
func FormFromTrade(t models.Trade) TradeForm {
	return TradeForm{
		ID:              t.ID.String(),
		Symbol:          t.Symbol,
		EntryPrice:      formatNumber(t.EntryPrice),
		ExitPrice:       formatNumber(t.ExitPrice),
		Quantity:        formatNumber(t.Quantity),
		Side:            string(t.Side),
		Date:            t.Date.Format(time.RFC3339Nano),
		Notes:           t.Notes,
		Strategy:        t.Strategy,
		TimeFrame:       string(t.TimeFrame),
		StopLoss:        formatNumber(t.StopLoss),
		TakeProfit:      formatNumber(t.TakeProfit),
		Fees:            formatNumber(t.FeeRate),
		Leverage:        formatNumber(t.Leverage),
		Confidence:      string(t.Confidence),
		Emotions:        t.Emotions,
		SetupQuality:    string(t.SetupQuality),
		MarketCondition: string(t.MarketCondition),
	}
}

func formatNumber(v float64) string {
	return decimal.NewFromFloat(v).String()
}
