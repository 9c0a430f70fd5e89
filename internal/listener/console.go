package listener

import (
	"fmt"
	"time"

	"infinity-ledger-go/internal/common"
	"infinity-ledger-go/internal/models"
	"infinity-ledger-go/internal/tabsync"
)

// ANSI color helpers for console output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

func (l *WalletListener) printSnapshot() {
	if l.username == "" {
		fmt.Fprintf(l.out, "%sNo user signed in%s\n", colorGray, colorReset)
		return
	}

	total := l.wallet.Rates().Value(l.balances)
	fmt.Fprintf(l.out, "%s┌─ %s (%d transactions, worth %s)%s\n",
		colorCyan, l.username, l.txCount, common.FormatValue(total), colorReset)
	for i, c := range models.Currencies {
		fmt.Fprintf(l.out, "%s %-10s %s\n", common.BoxPrefix(i == len(models.Currencies)-1), c, common.FormatAmount(l.balances[c], c))
	}
}

func (l *WalletListener) printSessionChange(change tabsync.Change, previousUser string) {
	stamp := change.At.Format("15:04:05")
	switch {
	case l.username == "":
		fmt.Fprintf(l.out, "\n%s[%s] %s signed out in %s%s\n", colorYellow, stamp, previousUser, change.Origin, colorReset)
	case previousUser == "":
		fmt.Fprintf(l.out, "\n%s[%s] %s signed in from %s%s\n", colorYellow, stamp, l.username, change.Origin, colorReset)
	default:
		fmt.Fprintf(l.out, "\n%s[%s] session switched from %s to %s in %s%s\n", colorYellow, stamp, previousUser, l.username, change.Origin, colorReset)
	}
}

func (l *WalletListener) printChanges(change tabsync.Change, diff []BalanceChange, newTransactions int) {
	at := change.At
	if at.IsZero() {
		at = time.Now()
	}
	fmt.Fprintf(l.out, "\n%s[%s] Store changed by %s (%d new transactions)%s\n",
		colorCyan, at.Format("15:04:05"), change.Origin, newTransactions, colorReset)

	if len(diff) == 0 {
		fmt.Fprintf(l.out, "  %s~ balances unchanged%s\n", colorGray, colorReset)
		return
	}
	for _, d := range diff {
		color, symbol := colorGreen, "+"
		if d.Delta() < 0 {
			color, symbol = colorRed, "-"
		}
		delta := d.Delta()
		if delta < 0 {
			delta = -delta
		}
		fmt.Fprintf(l.out, "  %s%s %-10s %s -> %s (%s%s)%s\n",
			color, symbol, d.Currency,
			common.FormatAmount(d.Before, d.Currency),
			common.FormatAmount(d.After, d.Currency),
			symbol, common.FormatAmount(delta, d.Currency), colorReset)
	}
}
