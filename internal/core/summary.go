package core

import "sort"

// MonthFlow is the income/expense pair for one calendar month.
type MonthFlow struct {
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
}

// The derived queries below are pure functions over a transaction slice.
// They never mutate their input and are recomputed on every call; the
// collections involved are small enough that caching would not pay for
// its invalidation logic.

// IncomeOf returns the income transactions, in input order.
func IncomeOf(ts []Transaction) []Transaction {
	return filterKind(ts, Income)
}

// ExpensesOf returns the expense transactions, in input order.
func ExpensesOf(ts []Transaction) []Transaction {
	return filterKind(ts, Expense)
}

func filterKind(ts []Transaction, k Kind) []Transaction {
	var out []Transaction
	for _, t := range ts {
		if t.Kind == k {
			out = append(out, t)
		}
	}
	return out
}

// TotalIncome sums the amounts of all income transactions.
func TotalIncome(ts []Transaction) Money {
	return sumAmounts(IncomeOf(ts))
}

// TotalExpenses sums the amounts of all expense transactions.
func TotalExpenses(ts []Transaction) Money {
	return sumAmounts(ExpensesOf(ts))
}

func sumAmounts(ts []Transaction) Money {
	var total Money
	for _, t := range ts {
		total = total.Add(t.Amount)
	}
	return total
}

// Balance is total income minus total expenses. It may be negative.
func Balance(ts []Transaction) Money {
	return Money{Cents: TotalIncome(ts).Cents - TotalExpenses(ts).Cents}
}

// Recent returns the n most recently recorded transactions, ordered by
// RecordedAt descending. Ties keep their input order (stable sort), so the
// result is deterministic for a given input.
func Recent(ts []Transaction, n int) []Transaction {
	if n <= 0 {
		return nil
	}
	sorted := append([]Transaction(nil), ts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RecordedAt.After(sorted[j].RecordedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// ExpensesByCategory sums expense amounts per normalized category label.
func ExpensesByCategory(ts []Transaction) map[string]Money {
	totals := make(map[string]Money)
	for _, t := range ExpensesOf(ts) {
		cat := NormalizeCategory(t.Category)
		totals[cat] = totals[cat].Add(t.Amount)
	}
	return totals
}

// MonthlyTotals buckets every transaction into exactly one "YYYY-MM" month,
// chosen from OccurredOn with RecordedAt as fallback, and sums income and
// expense amounts per bucket.
func MonthlyTotals(ts []Transaction) map[string]MonthFlow {
	monthly := make(map[string]MonthFlow)
	for _, t := range ts {
		key := monthKey(t)
		flow := monthly[key]
		switch t.Kind {
		case Income:
			flow.Income = flow.Income.Add(t.Amount)
		default:
			flow.Expense = flow.Expense.Add(t.Amount)
		}
		monthly[key] = flow
	}
	return monthly
}

func monthKey(t Transaction) string {
	when := t.OccurredOn.Time
	if t.OccurredOn.IsEmpty() {
		when = t.RecordedAt
	}
	return when.Format("2006-01")
}
