package core

import (
	"testing"
	"time"
)

func tx(kind Kind, cents int64, category, occurredOn string, recordedAt time.Time) Transaction {
	d, _ := ParseDate(occurredOn)
	return Transaction{
		ID:          "id-" + occurredOn,
		OwnerID:     "u1",
		Description: "test",
		Amount:      Money{Cents: cents},
		Category:    category,
		Kind:        kind,
		OccurredOn:  d,
		RecordedAt:  recordedAt,
	}
}

func sampleSet() []Transaction {
	base := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	return []Transaction{
		tx(Income, 100000, "Salary", "2024-01-15", base),
		tx(Expense, 20000, "Food & Dining", "2024-01-20", base.Add(time.Hour)),
		tx(Expense, 5000, "Food & Dining", "2024-02-01", base.Add(2*time.Hour)),
	}
}

func TestTotalsAndBalance(t *testing.T) {
	ts := sampleSet()

	if got := TotalIncome(ts); got.Cents != 100000 {
		t.Fatalf("TotalIncome = %d, want 100000", got.Cents)
	}
	if got := TotalExpenses(ts); got.Cents != 25000 {
		t.Fatalf("TotalExpenses = %d, want 25000", got.Cents)
	}
	if got := Balance(ts); got.Cents != 75000 {
		t.Fatalf("Balance = %d, want 75000", got.Cents)
	}
}

func TestBalanceIdentity(t *testing.T) {
	sets := [][]Transaction{
		nil,
		sampleSet(),
		{tx(Expense, 123, "", "", time.Now())},
		{tx(Income, 99, "Gift", "2023-12-31", time.Now()), tx(Income, 1, "", "", time.Now())},
	}
	for i, ts := range sets {
		want := TotalIncome(ts).Cents - TotalExpenses(ts).Cents
		if got := Balance(ts).Cents; got != want {
			t.Errorf("set %d: Balance = %d, want %d", i, got, want)
		}
	}
}

func TestExpensesByCategory(t *testing.T) {
	ts := sampleSet()
	byCat := ExpensesByCategory(ts)

	if len(byCat) != 1 {
		t.Fatalf("expected 1 category, got %d: %v", len(byCat), byCat)
	}
	if got := byCat["Food & Dining"]; got.Cents != 25000 {
		t.Fatalf("Food & Dining = %d, want 25000", got.Cents)
	}

	// Category sums must add up to total expenses.
	var sum int64
	for _, m := range byCat {
		sum += m.Cents
	}
	if sum != TotalExpenses(ts).Cents {
		t.Fatalf("category sum %d != total expenses %d", sum, TotalExpenses(ts).Cents)
	}
}

func TestExpensesByCategoryMissingLabel(t *testing.T) {
	ts := []Transaction{
		tx(Expense, 100, "", "", time.Now()),
		tx(Expense, 200, "  ", "", time.Now()),
		tx(Income, 999, "", "", time.Now()), // income never contributes
	}
	byCat := ExpensesByCategory(ts)
	if got := byCat[OtherCategory]; got.Cents != 300 {
		t.Fatalf("Other = %d, want 300", got.Cents)
	}
}

func TestMonthlyTotals(t *testing.T) {
	ts := sampleSet()
	monthly := MonthlyTotals(ts)

	jan, ok := monthly["2024-01"]
	if !ok {
		t.Fatal("missing 2024-01 bucket")
	}
	if jan.Income.Cents != 100000 || jan.Expense.Cents != 20000 {
		t.Fatalf("2024-01 = %+v, want income 100000 expense 20000", jan)
	}

	feb, ok := monthly["2024-02"]
	if !ok {
		t.Fatal("missing 2024-02 bucket")
	}
	if feb.Income.Cents != 0 || feb.Expense.Cents != 5000 {
		t.Fatalf("2024-02 = %+v, want income 0 expense 5000", feb)
	}

	if len(monthly) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(monthly))
	}
}

func TestMonthlyTotalsSumToTotals(t *testing.T) {
	ts := append(sampleSet(),
		tx(Income, 333, "", "", time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)),
		tx(Expense, 777, "Travel", "", time.Date(2023, 7, 2, 0, 0, 0, 0, time.UTC)),
	)
	monthly := MonthlyTotals(ts)

	var income, expense int64
	for _, flow := range monthly {
		income += flow.Income.Cents
		expense += flow.Expense.Cents
	}
	if income != TotalIncome(ts).Cents {
		t.Fatalf("monthly income sum %d != total income %d", income, TotalIncome(ts).Cents)
	}
	if expense != TotalExpenses(ts).Cents {
		t.Fatalf("monthly expense sum %d != total expenses %d", expense, TotalExpenses(ts).Cents)
	}
}

func TestMonthlyTotalsFallbackToRecordedAt(t *testing.T) {
	recorded := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	ts := []Transaction{tx(Expense, 100, "Shopping", "", recorded)}
	monthly := MonthlyTotals(ts)
	if _, ok := monthly["2025-03"]; !ok {
		t.Fatalf("expected bucket 2025-03, got %v", monthly)
	}
}

func TestRecent(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ts := []Transaction{
		tx(Income, 1, "", "", base),
		tx(Expense, 2, "", "", base.Add(3*time.Hour)),
		tx(Expense, 3, "", "", base.Add(time.Hour)),
		tx(Income, 4, "", "", base.Add(2*time.Hour)),
	}

	got := Recent(ts, 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].RecordedAt.After(got[i-1].RecordedAt) {
			t.Fatalf("not sorted descending at %d", i)
		}
	}
	if got[0].Amount.Cents != 2 {
		t.Fatalf("most recent amount = %d, want 2", got[0].Amount.Cents)
	}

	// Input must not be reordered.
	if ts[0].Amount.Cents != 1 || ts[3].Amount.Cents != 4 {
		t.Fatal("Recent mutated its input")
	}

	if got := Recent(ts, 10); len(got) != 4 {
		t.Fatalf("limit beyond len: got %d, want 4", len(got))
	}
	if got := Recent(ts, 0); got != nil {
		t.Fatalf("n=0 should return nil, got %v", got)
	}
}

func TestRecentDeterministicOnTies(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ts := []Transaction{
		tx(Income, 1, "", "", at),
		tx(Income, 2, "", "", at),
		tx(Income, 3, "", "", at),
	}
	first := Recent(ts, 2)
	second := Recent(ts, 2)
	for i := range first {
		if first[i].Amount.Cents != second[i].Amount.Cents {
			t.Fatal("tie break not deterministic")
		}
	}
	// Stable sort keeps input order for equal keys.
	if first[0].Amount.Cents != 1 || first[1].Amount.Cents != 2 {
		t.Fatalf("unexpected tie order: %d, %d", first[0].Amount.Cents, first[1].Amount.Cents)
	}
}

func TestDerivedQueriesIdempotent(t *testing.T) {
	ts := sampleSet()
	if TotalIncome(ts) != TotalIncome(ts) {
		t.Fatal("TotalIncome not idempotent")
	}
	a, b := MonthlyTotals(ts), MonthlyTotals(ts)
	if len(a) != len(b) {
		t.Fatal("MonthlyTotals not idempotent")
	}
	for k, v := range a {
		if b[k] != v {
			t.Fatalf("MonthlyTotals bucket %s differs", k)
		}
	}
}
