package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultCurrency is used when the config does not name one.
const DefaultCurrency = "USD"

var currencySymbols = map[string]string{
	"USD":  "$",
	"USDT": "$",
	"EUR":  "€",
	"GBP":  "£",
	"JPY":  "¥",
	"INR":  "₹",
}

// CurrencySymbol returns the display prefix for a currency code. Unknown
// codes are shown as the code followed by a space.
func CurrencySymbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return code + " "
}

// FormatCurrency formats an amount with thousands separators and two decimals.
func FormatCurrency(amount float64, currency string) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := strconv.FormatFloat(amount, 'f', 2, 64)
	intPart, decPart, _ := strings.Cut(str, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err == nil {
		intPart = humanize.Comma(n)
	}

	result := CurrencySymbol(currency) + intPart + "." + decPart
	// -0.00 reads as a loss
	if negative && str != "0.00" {
		result = "-" + result
	}
	return result
}

// FormatPnL formats P&L with sign.
func FormatPnL(pnl float64, currency string) string {
	formatted := FormatCurrency(pnl, currency)
	if pnl > 0 && strconv.FormatFloat(pnl, 'f', 2, 64) != "0.00" {
		return "+" + formatted
	}
	return formatted
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatRate formats an unsigned percentage such as a win rate.
func FormatRate(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

// FormatRiskReward formats a risk-reward ratio.
func FormatRiskReward(rr float64) string {
	return fmt.Sprintf("1:%.2f", rr)
}

// FormatPrice formats a price with appropriate decimal places.
func FormatPrice(price float64) string {
	if math.Abs(price) >= 10 {
		return humanize.CommafWithDigits(price, 2)
	}
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// FormatQuantity formats a quantity without trailing zeros.
func FormatQuantity(qty float64) string {
	return strconv.FormatFloat(qty, 'f', -1, 64)
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
