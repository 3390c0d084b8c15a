package journal

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// csvTrade is the flat row layout used for import and export.
type csvTrade struct {
	ID              string `csv:"id"`
	Date            string `csv:"date"`
	Symbol          string `csv:"symbol"`
	Side            string `csv:"side"`
	EntryPrice      string `csv:"entry_price"`
	ExitPrice       string `csv:"exit_price"`
	Quantity        string `csv:"quantity"`
	StopLoss        string `csv:"stop_loss"`
	TakeProfit      string `csv:"take_profit"`
	Fees            string `csv:"fees"`
	Leverage        string `csv:"leverage"`
	TimeFrame       string `csv:"timeframe"`
	Strategy        string `csv:"strategy"`
	Confidence      string `csv:"confidence"`
	SetupQuality    string `csv:"setup_quality"`
	MarketCondition string `csv:"market_condition"`
	Emotions        string `csv:"emotions"`
	Notes           string `csv:"notes"`
}

// ExportCSV writes trades as CSV with a header row.
func ExportCSV(w io.Writer, trades []models.Trade) error {
	rows := make([]*csvTrade, 0, len(trades))
	for _, t := range trades {
		f := FormFromTrade(t)
		rows = append(rows, &csvTrade{
			ID:              f.ID,
			Date:            f.Date,
			Symbol:          f.Symbol,
			Side:            f.Side,
			EntryPrice:      f.EntryPrice,
			ExitPrice:       f.ExitPrice,
			Quantity:        f.Quantity,
			StopLoss:        f.StopLoss,
			TakeProfit:      f.TakeProfit,
			Fees:            f.Fees,
			Leverage:        f.Leverage,
			TimeFrame:       f.TimeFrame,
			Strategy:        f.Strategy,
			Confidence:      f.Confidence,
			SetupQuality:    f.SetupQuality,
			MarketCondition: f.MarketCondition,
			Emotions:        f.Emotions,
			Notes:           f.Notes,
		})
	}
	return gocsv.Marshal(rows, w)
}

// ImportCSV parses CSV rows into validated trades. Rows without a date are
// stamped with now. The first invalid row aborts the import with a
// *errors.RowError; row numbers count the header as row 1.
func ImportCSV(r io.Reader, now time.Time) ([]models.Trade, error) {
	var rows []*csvTrade
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(errors.ErrImportFailed, err.Error())
	}

	trades := make([]models.Trade, 0, len(rows))
	for i, row := range rows {
		form := TradeForm{
			ID:              row.ID,
			Symbol:          row.Symbol,
			EntryPrice:      row.EntryPrice,
			ExitPrice:       row.ExitPrice,
			Quantity:        row.Quantity,
			Side:            row.Side,
			Date:            row.Date,
			Notes:           row.Notes,
			Strategy:        row.Strategy,
			TimeFrame:       row.TimeFrame,
			StopLoss:        row.StopLoss,
			TakeProfit:      row.TakeProfit,
			Fees:            row.Fees,
			Leverage:        row.Leverage,
			Confidence:      row.Confidence,
			Emotions:        row.Emotions,
			SetupQuality:    row.SetupQuality,
			MarketCondition: row.MarketCondition,
		}
		trade, err := form.Build(now)
		if err != nil {
			return nil, errors.NewRowError(i+2, err)
		}
		trades = append(trades, trade)
	}
	return trades, nil
}
