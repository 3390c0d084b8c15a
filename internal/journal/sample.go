package journal

import (
	"time"

	"trade-journal/internal/models"
)

// SampleTrades returns the demo trades seeded into an empty journal.
func SampleTrades(now time.Time) []models.Trade {
	btc := models.NewTrade("BTC/USDT", models.SideLong, 42000, 43500, 0.1, 41000, 44000, now)
	btc.Notes = "Strong trend following"
	btc.Strategy = "Trend Following"

	eth := models.NewTrade("ETH/USDT", models.SideShort, 2200, 2150, 1, 2250, 2100, now)
	eth.Notes = "Resistance rejection"
	eth.Strategy = "Price Action"

	return []models.Trade{btc, eth}
}
