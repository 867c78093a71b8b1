package balance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	headerLine      = "📊 FINANCIAL SUMMARY"
	pendingHeading  = "💳 PENDING ACCOUNTS"
	settledHeading  = "✅ SETTLED ACCOUNTS"
	totalDebtPrefix = "📌 CURRENT TOTAL DEBT: "
	noPendingMarker = "• No pending debts"
	noSettledMarker = "• None"
	currencyGlyph   = "$"
)

// FormatAmount renders an amount as it is, prefixed by the currency glyph.
// Fractions are never truncated.
func FormatAmount(d decimal.Decimal) string {
	return currencyGlyph + d.String()
}

// Render formats a Report as the chat reply text.
func Render(r Report) string {
	var b strings.Builder

	b.WriteString(headerLine + "\n\n")

	for _, m := range r.Months {
		fmt.Fprintf(&b, "📅 %s\n", m.Label())
		fmt.Fprintf(&b, "• Expenses: %s\n", FormatAmount(m.Expenses))
		fmt.Fprintf(&b, "• Payments: %s\n", FormatAmount(m.Payments))
		fmt.Fprintf(&b, "• Credits: %s\n", FormatAmount(m.Credits))
		fmt.Fprintf(&b, "• Pending debt: %s\n\n", FormatAmount(m.Pending()))
	}

	b.WriteString(pendingHeading + "\n")
	if len(r.Pending) == 0 {
		b.WriteString(noPendingMarker + "\n")
	}
	for i, a := range r.Pending {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, a.Category, FormatAmount(a.Amount))
	}

	b.WriteString("\n" + settledHeading + "\n")
	if len(r.Settled) == 0 {
		b.WriteString(noSettledMarker + "\n")
	}
	for _, c := range r.Settled {
		fmt.Fprintf(&b, "• %s\n", c)
	}

	b.WriteString("\n" + totalDebtPrefix + FormatAmount(r.TotalDebt))

	return b.String()
}
