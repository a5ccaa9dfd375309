package notifier

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
)

const (
	TitleSetup   = "Setup Required"
	TitleMissing = "Missing Ticker"
	TitleInvalid = "Invalid Ticker"
	TitleSuccess = "Success"
)

// SetupRequired explains how to define the input name.
func SetupRequired(name string) Alert {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Named range '%s' not found!\n\n", name))
	b.WriteString("Please create it first:\n")
	b.WriteString("1. Select a cell with ticker symbol\n")
	b.WriteString("2. Formulas → Define Name\n")
	b.WriteString(fmt.Sprintf("3. Name it '%s'", name))
	return Alert{Title: TitleSetup, Body: b.String()}
}

// MissingTicker asks for a value in the input cell.
func MissingTicker(name string) Alert {
	return Alert{
		Title: TitleMissing,
		Body:  fmt.Sprintf("Please enter a ticker symbol in the %s range!", name),
	}
}

// InvalidTicker reports a symbol the provider has no rows for.
func InvalidTicker(ticker string) Alert {
	return Alert{
		Title: TitleInvalid,
		Body:  fmt.Sprintf("No data found for ticker: %s\n\nPlease check the ticker symbol and try again.", ticker),
	}
}

// Success summarises a finished run.
func Success(ticker string, price float64, changeText string) Alert {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ Dashboard created successfully for %s!\n\n", ticker))
	b.WriteString(fmt.Sprintf("Current Price: $%.2f\n", price))
	b.WriteString(fmt.Sprintf("30-Day Change: %s", changeText))
	return Alert{Title: TitleSuccess, Body: b.String()}
}

// FormatChange renders an absolute and percent change as "$1.23 (+4.56%)".
func FormatChange(change, pct float64) string {
	return fmt.Sprintf("$%.2f (%+.2f%%)", change, pct)
}

// FormatUSD renders an amount as dollars with thousands separators, for listings.
func FormatUSD(v float64) string {
	return money.New(int64(math.Round(v*100)), money.USD).Display()
}
