package engine

import "fintrack/internal/core"

// The query methods answer synchronously from the cache. Each takes a
// snapshot under the lock and delegates to the pure functions in core, so
// the same computations stay callable from any context without an engine.

// Transactions returns a copy of the cached set, in cache order. Callers
// must not rely on store ordering being stable.
func (e *Engine) Transactions() []core.Transaction {
	return e.snapshot()
}

func (e *Engine) IncomeOf() []core.Transaction {
	return core.IncomeOf(e.snapshot())
}

func (e *Engine) ExpensesOf() []core.Transaction {
	return core.ExpensesOf(e.snapshot())
}

func (e *Engine) TotalIncome() core.Money {
	return core.TotalIncome(e.snapshot())
}

func (e *Engine) TotalExpenses() core.Money {
	return core.TotalExpenses(e.snapshot())
}

func (e *Engine) Balance() core.Money {
	return core.Balance(e.snapshot())
}

func (e *Engine) Recent(n int) []core.Transaction {
	return core.Recent(e.snapshot(), n)
}

func (e *Engine) ExpensesByCategory() map[string]core.Money {
	return core.ExpensesByCategory(e.snapshot())
}

func (e *Engine) MonthlyTotals() map[string]core.MonthFlow {
	return core.MonthlyTotals(e.snapshot())
}

func (e *Engine) snapshot() []core.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.Transaction(nil), e.txs...)
}

func (e *Engine) setLoading(v bool) {
	e.mu.Lock()
	e.loading = v
	e.mu.Unlock()
}
