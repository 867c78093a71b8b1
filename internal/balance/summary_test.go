package balance

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fiado/internal/core"
)

func rec(date string, kind core.Kind, amt string, category string) core.Record {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	r := core.Record{ID: date + string(kind), Date: d, Kind: kind, Sender: "tester"}
	if amt != "" {
		r.Amount = decimal.NewNullDecimal(decimal.RequireFromString(amt))
	}
	if category != "" {
		c := category
		r.Category = &c
	}
	return r
}

func TestGenerateSummaryStoreExample(t *testing.T) {
	records := []core.Record{
		rec("2024-03-01", core.KindCredit, "12000", "store"),
		rec("2024-03-15", core.KindPayment, "5000", "store"),
	}

	want := "📊 FINANCIAL SUMMARY\n\n" +
		"📅 March 2024\n" +
		"• Expenses: $0\n" +
		"• Payments: $5000\n" +
		"• Credits: $12000\n" +
		"• Pending debt: $7000\n\n" +
		"💳 PENDING ACCOUNTS\n" +
		"1. store — $7000\n" +
		"\n✅ SETTLED ACCOUNTS\n" +
		"• None\n" +
		"\n📌 CURRENT TOTAL DEBT: $7000"

	if got := GenerateSummary(records); got != want {
		t.Fatalf("unexpected summary:\n%s\nwant:\n%s", got, want)
	}
}

func TestGenerateSummaryEmpty(t *testing.T) {
	got := GenerateSummary(nil)
	want := "📊 FINANCIAL SUMMARY\n\n" +
		"💳 PENDING ACCOUNTS\n" +
		"• No pending debts\n" +
		"\n✅ SETTLED ACCOUNTS\n" +
		"• None\n" +
		"\n📌 CURRENT TOTAL DEBT: $0"
	if got != want {
		t.Fatalf("unexpected empty summary:\n%s", got)
	}
}

func TestPaymentOnlyCategoryIsSettled(t *testing.T) {
	report := Compute([]core.Record{
		rec("2024-05-02", core.KindPayment, "300", "ghost"),
	})
	if len(report.Settled) != 1 || report.Settled[0] != "ghost" {
		t.Fatalf("expected ghost to be settled, got %v", report.Settled)
	}
	if len(report.Pending) != 0 {
		t.Fatalf("expected no pending accounts, got %v", report.Pending)
	}
}

func TestNullAmountContributesZero(t *testing.T) {
	with := []core.Record{
		rec("2024-01-10", core.KindCredit, "100", "a"),
		rec("2024-01-11", core.KindCredit, "", "a"),
		rec("2024-01-12", core.KindPayment, "", "a"),
		rec("2024-01-13", core.KindExpense, "", "b"),
	}
	report := Compute(with)
	m := report.Months[0]
	if !m.Credits.Equal(decimal.NewFromInt(100)) || !m.Payments.IsZero() || !m.Expenses.IsZero() {
		t.Fatalf("unexpected month totals: %+v", m)
	}
	if len(report.Pending) != 1 || !report.Pending[0].Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected pending: %+v", report.Pending)
	}
	// A null payment still registers the category in the payment ledger.
	if len(report.Settled) != 0 {
		t.Fatalf("a is not settled: %v", report.Settled)
	}
}

func TestExpenseAndCreditSameMonth(t *testing.T) {
	report := Compute([]core.Record{
		rec("2024-07-01", core.KindExpense, "250", "fuel"),
		rec("2024-07-09", core.KindCredit, "900", "butcher"),
	})
	if len(report.Months) != 1 {
		t.Fatalf("expected one month, got %d", len(report.Months))
	}
	m := report.Months[0]
	if !m.Expenses.Equal(decimal.NewFromInt(250)) || !m.Credits.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("unexpected totals: %+v", m)
	}
	if !m.Payments.IsZero() || !m.Pending().Equal(decimal.NewFromInt(900)) {
		t.Fatalf("pending should equal credits with no payments: %+v", m)
	}
}

func TestPendingRankingIsStableOnTies(t *testing.T) {
	report := Compute([]core.Record{
		rec("2024-02-01", core.KindCredit, "100", "small"),
		rec("2024-02-02", core.KindCredit, "300", "first"),
		rec("2024-02-03", core.KindCredit, "300", "second"),
	})
	var got []string
	for _, a := range report.Pending {
		got = append(got, a.Category)
	}
	if strings.Join(got, ",") != "first,second,small" {
		t.Fatalf("unexpected ranking: %v", got)
	}

	out := Render(report)
	if !strings.Contains(out, "1. first — $300\n2. second — $300\n3. small — $100\n") {
		t.Fatalf("unexpected ranked list:\n%s", out)
	}
}

func TestMonthsKeepFirstSeenOrder(t *testing.T) {
	report := Compute([]core.Record{
		rec("2024-05-01", core.KindExpense, "1", "x"),
		rec("2024-03-01", core.KindExpense, "1", "x"),
		rec("2024-05-20", core.KindExpense, "1", "x"),
	})
	if len(report.Months) != 2 {
		t.Fatalf("expected two months, got %d", len(report.Months))
	}
	if report.Months[0].Label() != "May 2024" || report.Months[1].Label() != "March 2024" {
		t.Fatalf("unexpected month order: %s, %s", report.Months[0].Label(), report.Months[1].Label())
	}
}

func TestMonthlyPendingDoesNotCarryOver(t *testing.T) {
	report := Compute([]core.Record{
		rec("2024-01-05", core.KindCredit, "1000", "shop"),
		rec("2024-02-05", core.KindPayment, "1000", "shop"),
	})
	// January keeps its 1000 pending even though February paid it off.
	if !report.TotalDebt.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected total debt 1000, got %s", report.TotalDebt)
	}
	if len(report.Pending) != 0 {
		t.Fatalf("shop is fully paid across months: %v", report.Pending)
	}
	if len(report.Settled) != 1 || report.Settled[0] != "shop" {
		t.Fatalf("expected shop settled, got %v", report.Settled)
	}
}

func TestNullCategoryIsOwnBucket(t *testing.T) {
	report := Compute([]core.Record{
		rec("2024-04-01", core.KindCredit, "50", ""),
		rec("2024-04-01", core.KindCredit, "20", core.UncategorizedLabel),
		rec("2024-04-02", core.KindPayment, "20", core.UncategorizedLabel),
	})
	if len(report.Pending) != 1 || !report.Pending[0].Amount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("null category should not be offset by the literal one: %+v", report.Pending)
	}
	if report.Pending[0].Category != core.UncategorizedLabel {
		t.Fatalf("unexpected label %q", report.Pending[0].Category)
	}
}

func TestFractionalAmountsAreNotTruncated(t *testing.T) {
	out := GenerateSummary([]core.Record{
		rec("2024-06-01", core.KindCredit, "10.25", "kiosk"),
		rec("2024-06-02", core.KindCredit, "0.50", "kiosk"),
	})
	if !strings.Contains(out, "1. kiosk — $10.75\n") || !strings.HasSuffix(out, "$10.75") {
		t.Fatalf("expected fractional total, got:\n%s", out)
	}
}

func TestUnstoredKindsAreIgnored(t *testing.T) {
	r := rec("2024-08-01", core.KindCredit, "10", "x")
	r.Kind = core.KindBalance
	report := Compute([]core.Record{r})
	if len(report.Months) != 0 || !report.TotalDebt.IsZero() {
		t.Fatalf("balance records must not aggregate: %+v", report)
	}
}

func TestTotalDebtIsSumOfFlooredMonths(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	kinds := []core.Kind{core.KindExpense, core.KindPayment, core.KindCredit}
	cats := []string{"", "a", "b", "c"}

	for round := 0; round < 50; round++ {
		var records []core.Record
		for i := 0; i < rng.Intn(40); i++ {
			date := time.Date(2023+rng.Intn(2), time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
			amt := ""
			if rng.Intn(5) > 0 {
				amt = fmt.Sprintf("%d.%02d", rng.Intn(5000), rng.Intn(100))
			}
			records = append(records, rec(date.Format(core.DateLayout), kinds[rng.Intn(3)], amt, cats[rng.Intn(len(cats))]))
		}

		report := Compute(records)
		want := decimal.Zero
		for _, m := range report.Months {
			d := m.Credits.Sub(m.Payments)
			if d.IsPositive() {
				want = want.Add(d)
			}
		}
		if !report.TotalDebt.Equal(want) {
			t.Fatalf("round %d: total debt %s, want %s", round, report.TotalDebt, want)
		}

		first := GenerateSummary(records)
		if second := GenerateSummary(records); first != second {
			t.Fatalf("round %d: summary is not idempotent", round)
		}
		if !strings.HasSuffix(first, totalDebtPrefix+FormatAmount(want)) {
			t.Fatalf("round %d: total line mismatch:\n%s", round, first)
		}
	}
}
