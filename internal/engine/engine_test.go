package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fintrack/internal/core"
)

// fakeStore is an in-memory Store with injectable failures.
type fakeStore struct {
	txs     map[string]core.Transaction
	nextID  int
	listErr error
	failAll bool

	listGate    chan struct{} // when set, List blocks until the gate closes
	listEntered chan struct{} // when set, List signals here before blocking

	lists   int
	creates int
	updates int
	deletes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{txs: make(map[string]core.Transaction)}
}

func (s *fakeStore) List(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	s.lists++
	if s.listEntered != nil {
		s.listEntered <- struct{}{}
	}
	if s.listGate != nil {
		<-s.listGate
	}
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []core.Transaction
	for _, t := range s.txs {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	s.creates++
	if s.failAll {
		return core.Transaction{}, errors.New("store unavailable")
	}
	s.nextID++
	t.ID = fmt.Sprintf("tx-%d", s.nextID)
	t.RecordedAt = time.Now()
	s.txs[t.ID] = t
	return t, nil
}

func (s *fakeStore) Update(ctx context.Context, id, ownerID string, patch core.TransactionPatch) (core.Transaction, error) {
	s.updates++
	if s.failAll {
		return core.Transaction{}, errors.New("store unavailable")
	}
	t, ok := s.txs[id]
	if !ok || t.OwnerID != ownerID {
		return core.Transaction{}, core.ErrNotFound
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.OccurredOn != nil {
		t.OccurredOn = *patch.OccurredOn
	}
	s.txs[id] = t
	return t, nil
}

func (s *fakeStore) Delete(ctx context.Context, id, ownerID string) error {
	s.deletes++
	if s.failAll {
		return errors.New("store unavailable")
	}
	t, ok := s.txs[id]
	if !ok || t.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

var testSession = core.Session{UserID: "u1", Name: "Test", Email: "t@example.com"}

func newTestEngine(store Store) *Engine {
	return New(store, testSession, nil)
}

func TestLoadPopulatesCache(t *testing.T) {
	store := newFakeStore()
	store.txs["a"] = core.Transaction{ID: "a", OwnerID: "u1", Description: "x", Amount: core.Money{Cents: 1}, Kind: core.Income}
	store.txs["b"] = core.Transaction{ID: "b", OwnerID: "someone-else", Description: "y", Amount: core.Money{Cents: 2}, Kind: core.Income}

	eng := newTestEngine(store)
	if err := eng.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := eng.Transactions()
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("cache = %v, want only the owner's transaction", got)
	}
}

func TestLoadFailureLeavesCacheEmpty(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("connection refused")

	eng := newTestEngine(store)
	if err := eng.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if len(eng.Transactions()) != 0 {
		t.Fatal("cache should stay empty after failed load")
	}
	if eng.Loading() {
		t.Fatal("loading flag should be cleared")
	}
}

func TestLoadRequiresSession(t *testing.T) {
	eng := New(newFakeStore(), core.Session{}, nil)
	if err := eng.Load(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
}

func TestCreateAppendsStoreRecord(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(store)

	res := eng.Create(context.Background(), CreateInput{
		Description: "salary",
		Amount:      core.Money{Cents: 100000},
		Category:    "Salary",
		Kind:        core.Income,
	})
	if !res.Success {
		t.Fatalf("create failed: %s", res.Err)
	}
	if res.Transaction == nil || res.Transaction.ID == "" {
		t.Fatal("result should carry the store-assigned record")
	}
	if res.Transaction.OwnerID != "u1" {
		t.Fatalf("owner = %q, want u1", res.Transaction.OwnerID)
	}

	cached := eng.Transactions()
	if len(cached) != 1 || cached[0].ID != res.Transaction.ID {
		t.Fatalf("cache = %v, want the created record", cached)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(store)

	cases := []CreateInput{
		{Description: "zero", Amount: core.Money{Cents: 0}, Kind: core.Income},
		{Description: "negative", Amount: core.Money{Cents: -5}, Kind: core.Expense},
		{Description: "", Amount: core.Money{Cents: 100}, Kind: core.Expense},
		{Description: "bad kind", Amount: core.Money{Cents: 100}, Kind: "transfer"},
	}
	for i, in := range cases {
		res := eng.Create(context.Background(), in)
		if res.Success {
			t.Fatalf("case %d: expected rejection", i)
		}
		if res.Failure != FailureValidation {
			t.Fatalf("case %d: failure = %q, want validation", i, res.Failure)
		}
	}
	if store.creates != 0 {
		t.Fatalf("store reached %d times despite validation failures", store.creates)
	}
	if len(eng.Transactions()) != 0 {
		t.Fatal("cache must stay untouched")
	}
}

func TestCreateWithoutSession(t *testing.T) {
	eng := New(newFakeStore(), core.Session{}, nil)
	res := eng.Create(context.Background(), CreateInput{
		Description: "x", Amount: core.Money{Cents: 1}, Kind: core.Income,
	})
	if res.Success || res.Failure != FailureNotAuthenticated {
		t.Fatalf("result = %+v, want not_authenticated failure", res)
	}
}

func TestCreateStoreFailureLeavesCache(t *testing.T) {
	store := newFakeStore()
	store.failAll = true
	eng := newTestEngine(store)

	res := eng.Create(context.Background(), CreateInput{
		Description: "x", Amount: core.Money{Cents: 100}, Kind: core.Expense,
	})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Failure != FailureStore {
		t.Fatalf("failure = %q, want store", res.Failure)
	}
	if res.Err == "" {
		t.Fatal("failure must carry a human-readable reason")
	}
	if len(eng.Transactions()) != 0 {
		t.Fatal("cache must stay untouched after store failure")
	}
}

func TestCreateNormalizesCategory(t *testing.T) {
	eng := newTestEngine(newFakeStore())
	res := eng.Create(context.Background(), CreateInput{
		Description: "misc", Amount: core.Money{Cents: 50}, Kind: core.Expense,
	})
	if !res.Success {
		t.Fatalf("create failed: %s", res.Err)
	}
	if res.Transaction.Category != core.OtherCategory {
		t.Fatalf("category = %q, want %q", res.Transaction.Category, core.OtherCategory)
	}
}

func TestUpdateMergesPatchInPlace(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(store)

	created := eng.Create(context.Background(), CreateInput{
		Description: "lunch",
		Amount:      core.Money{Cents: 1200},
		Category:    "Food & Dining",
		Kind:        core.Expense,
	})
	if !created.Success {
		t.Fatalf("create failed: %s", created.Err)
	}
	id := created.Transaction.ID

	newAmount := core.Money{Cents: 1500}
	res := eng.Update(context.Background(), id, core.TransactionPatch{Amount: &newAmount})
	if !res.Success {
		t.Fatalf("update failed: %s", res.Err)
	}

	cached := eng.Transactions()
	if cached[0].Amount.Cents != 1500 {
		t.Fatalf("amount = %d, want 1500", cached[0].Amount.Cents)
	}
	// Unspecified fields retained.
	if cached[0].Description != "lunch" || cached[0].Category != "Food & Dining" {
		t.Fatalf("untouched fields changed: %+v", cached[0])
	}
	if cached[0].Kind != core.Expense || cached[0].OwnerID != "u1" {
		t.Fatal("kind/owner must never change via update")
	}
}

func TestUpdateValidation(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(store)

	zero := core.Money{}
	res := eng.Update(context.Background(), "whatever", core.TransactionPatch{Amount: &zero})
	if res.Success || res.Failure != FailureValidation {
		t.Fatalf("result = %+v, want validation failure", res)
	}

	res = eng.Update(context.Background(), "whatever", core.TransactionPatch{})
	if res.Success || res.Failure != FailureValidation {
		t.Fatalf("empty patch result = %+v, want validation failure", res)
	}
	if store.updates != 0 {
		t.Fatal("store must not be reached for invalid patches")
	}
}

func TestUpdateNotFound(t *testing.T) {
	eng := newTestEngine(newFakeStore())
	desc := "nope"
	res := eng.Update(context.Background(), "missing", core.TransactionPatch{Description: &desc})
	if res.Success || res.Failure != FailureNotFound {
		t.Fatalf("result = %+v, want not_found failure", res)
	}
}

func TestDeleteRemovesFromCache(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(store)

	a := eng.Create(context.Background(), CreateInput{Description: "a", Amount: core.Money{Cents: 1}, Kind: core.Income})
	b := eng.Create(context.Background(), CreateInput{Description: "b", Amount: core.Money{Cents: 2}, Kind: core.Expense})

	res := eng.Delete(context.Background(), a.Transaction.ID)
	if !res.Success {
		t.Fatalf("delete failed: %s", res.Err)
	}

	cached := eng.Transactions()
	if len(cached) != 1 || cached[0].ID != b.Transaction.ID {
		t.Fatalf("cache = %v, want only b", cached)
	}
}

func TestDeleteNotFoundLeavesCache(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(store)
	created := eng.Create(context.Background(), CreateInput{Description: "keep", Amount: core.Money{Cents: 1}, Kind: core.Income})

	res := eng.Delete(context.Background(), "missing-id")
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Failure != FailureNotFound {
		t.Fatalf("failure = %q, want not_found", res.Failure)
	}
	cached := eng.Transactions()
	if len(cached) != 1 || cached[0].ID != created.Transaction.ID {
		t.Fatal("cache must stay unchanged")
	}
}

func TestResetClearsCache(t *testing.T) {
	eng := newTestEngine(newFakeStore())
	eng.Create(context.Background(), CreateInput{Description: "x", Amount: core.Money{Cents: 1}, Kind: core.Income})
	eng.Reset()
	if len(eng.Transactions()) != 0 {
		t.Fatal("cache should be empty after reset")
	}
}

func TestStaleLoadIsDropped(t *testing.T) {
	store := newFakeStore()
	store.txs["a"] = core.Transaction{ID: "a", OwnerID: "u1", Description: "x", Amount: core.Money{Cents: 1}, Kind: core.Income}
	store.listGate = make(chan struct{})
	store.listEntered = make(chan struct{}, 1)

	eng := newTestEngine(store)

	done := make(chan error, 1)
	go func() { done <- eng.Load(context.Background()) }()

	// Wait until the fetch is in flight, so it holds the old generation,
	// then clear the session before letting it return.
	<-store.listEntered
	eng.Reset()
	close(store.listGate)

	if err := <-done; err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(eng.Transactions()) != 0 {
		t.Fatal("stale load must not repopulate a reset cache")
	}
}

func TestDerivedQueriesOverCache(t *testing.T) {
	eng := newTestEngine(newFakeStore())
	eng.Create(context.Background(), CreateInput{Description: "pay", Amount: core.Money{Cents: 100000}, Category: "Salary", Kind: core.Income, OccurredOn: core.NewDate(2024, 1, 15)})
	eng.Create(context.Background(), CreateInput{Description: "food", Amount: core.Money{Cents: 20000}, Category: "Food & Dining", Kind: core.Expense, OccurredOn: core.NewDate(2024, 1, 20)})
	eng.Create(context.Background(), CreateInput{Description: "food", Amount: core.Money{Cents: 5000}, Category: "Food & Dining", Kind: core.Expense, OccurredOn: core.NewDate(2024, 2, 1)})

	if got := eng.TotalIncome(); got.Cents != 100000 {
		t.Fatalf("TotalIncome = %d", got.Cents)
	}
	if got := eng.TotalExpenses(); got.Cents != 25000 {
		t.Fatalf("TotalExpenses = %d", got.Cents)
	}
	if got := eng.Balance(); got.Cents != 75000 {
		t.Fatalf("Balance = %d", got.Cents)
	}
	if got := eng.ExpensesByCategory()["Food & Dining"]; got.Cents != 25000 {
		t.Fatalf("ExpensesByCategory = %d", got.Cents)
	}
	monthly := eng.MonthlyTotals()
	if monthly["2024-01"].Income.Cents != 100000 || monthly["2024-01"].Expense.Cents != 20000 {
		t.Fatalf("2024-01 = %+v", monthly["2024-01"])
	}
	if monthly["2024-02"].Expense.Cents != 5000 {
		t.Fatalf("2024-02 = %+v", monthly["2024-02"])
	}
	if got := eng.Recent(2); len(got) != 2 {
		t.Fatalf("Recent(2) len = %d", len(got))
	}
	if got := eng.IncomeOf(); len(got) != 1 {
		t.Fatalf("IncomeOf len = %d", len(got))
	}
	if got := eng.ExpensesOf(); len(got) != 2 {
		t.Fatalf("ExpensesOf len = %d", len(got))
	}
}
