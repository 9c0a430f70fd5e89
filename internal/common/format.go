package common

import (
	"fmt"
	"strings"
	"sync"

	"infinity-ledger-go/internal/models"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintSeparatorNewline prints a separator with a newline before it
func PrintSeparatorNewline(char string, width int) {
	fmt.Println("\n" + strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

var registerOnce sync.Once

// tickers are the display symbols registered with go-money, one per currency.
var tickers = map[models.Currency]string{
	models.CurrencyInfinity: "INF",
	models.CurrencyResearch: "RSC",
	models.CurrencyArt:      "ART",
	models.CurrencyMusic:    "MUS",
}

func registerCurrencies() {
	registerOnce.Do(func() {
		for c, ticker := range tickers {
			money.AddCurrency(moneyCode(c), ticker, "1 $", ".", ",", 0)
		}
	})
}

func moneyCode(c models.Currency) string {
	return "IB-" + strings.ToUpper(c.String())
}

// FormatAmount renders whole token amounts with thousands separators, e.g. "1,250 RSC".
func FormatAmount(amount int64, c models.Currency) string {
	registerCurrencies()
	return money.New(amount, moneyCode(c)).Display()
}

// FormatValue renders a value in primary-currency units with two decimals.
func FormatValue(value decimal.Decimal) string {
	return value.StringFixed(2) + " " + tickers[models.PrimaryCurrency]
}
