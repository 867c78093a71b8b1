// Package balance turns the record history into the financial summary sent
// to the chat.
//
// Compute aggregates a snapshot of records into a Report; Render formats it.
// Both are pure: no I/O, no shared state, no error paths. A null amount
// counts as 0 and a null category is its own bucket.
package balance

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fiado/internal/core"
)

// MonthLabelLayout formats month headings ("March 2024").
const MonthLabelLayout = "January 2006"

type (
	// MonthTotals holds the per-kind sums of one calendar month.
	MonthTotals struct {
		Year     int
		Month    time.Month
		Expenses decimal.Decimal
		Payments decimal.Decimal
		Credits  decimal.Decimal
	}

	// Account is a category with an amount still owed.
	Account struct {
		Category string
		Amount   decimal.Decimal
	}

	// Report is the aggregated view of a record snapshot.
	Report struct {
		Months    []MonthTotals // First-seen order, not chronological
		Pending   []Account     // Largest debt first
		Settled   []string      // First-seen payment order
		TotalDebt decimal.Decimal
	}
)

// Label returns the human-readable month heading.
func (m MonthTotals) Label() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format(MonthLabelLayout)
}

// Pending is the month's unpaid credit, floored at zero. Payments only
// offset credits of the same month.
func (m MonthTotals) Pending() decimal.Decimal {
	d := m.Credits.Sub(m.Payments)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

type monthKey struct {
	year  int
	month time.Month
}

// categoryKey keeps a null category apart from a literal category named
// like the uncategorized label.
type categoryKey struct {
	name string
	null bool
}

func keyOf(r core.Record) categoryKey {
	if r.Category == nil {
		return categoryKey{null: true}
	}
	return categoryKey{name: *r.Category}
}

func (k categoryKey) label() string {
	if k.null {
		return core.UncategorizedLabel
	}
	return k.name
}

// ledger is a running total per category that remembers first-seen order.
type ledger struct {
	order  []categoryKey
	totals map[categoryKey]decimal.Decimal
}

func newLedger() *ledger {
	return &ledger{totals: make(map[categoryKey]decimal.Decimal)}
}

func (l *ledger) add(k categoryKey, amt decimal.Decimal) {
	cur, ok := l.totals[k]
	if !ok {
		l.order = append(l.order, k)
	}
	l.totals[k] = cur.Add(amt)
}

func (l *ledger) get(k categoryKey) decimal.Decimal {
	return l.totals[k]
}

// Compute aggregates records into a Report.
func Compute(records []core.Record) Report {
	var (
		months   []MonthTotals
		index    = make(map[monthKey]int)
		credited = newLedger()
		paid     = newLedger()
	)

	for _, r := range records {
		if !r.Kind.IsStored() {
			continue
		}
		amt := r.AmountOrZero()

		mk := monthKey{year: r.Date.Year(), month: r.Date.Month()}
		i, ok := index[mk]
		if !ok {
			i = len(months)
			index[mk] = i
			months = append(months, MonthTotals{Year: mk.year, Month: mk.month})
		}
		m := &months[i]

		switch r.Kind {
		case core.KindExpense:
			m.Expenses = m.Expenses.Add(amt)
		case core.KindPayment:
			m.Payments = m.Payments.Add(amt)
			paid.add(keyOf(r), amt)
		case core.KindCredit:
			m.Credits = m.Credits.Add(amt)
			credited.add(keyOf(r), amt)
		}
	}

	report := Report{Months: months, TotalDebt: decimal.Zero}
	for _, m := range months {
		report.TotalDebt = report.TotalDebt.Add(m.Pending())
	}

	for _, k := range credited.order {
		outstanding := credited.get(k).Sub(paid.get(k))
		if outstanding.IsPositive() {
			report.Pending = append(report.Pending, Account{Category: k.label(), Amount: outstanding})
		}
	}
	slices.SortStableFunc(report.Pending, func(a, b Account) int {
		return b.Amount.Cmp(a.Amount)
	})

	// A category that only ever received payments counts as settled.
	for _, k := range paid.order {
		if paid.get(k).GreaterThanOrEqual(credited.get(k)) {
			report.Settled = append(report.Settled, k.label())
		}
	}

	return report
}

// GenerateSummary renders the financial summary of records.
func GenerateSummary(records []core.Record) string {
	return Render(Compute(records))
}
