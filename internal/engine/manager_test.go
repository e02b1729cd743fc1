package engine

import (
	"context"
	"sync"
	"testing"

	"fintrack/internal/core"
)

func TestManagerActivateLoadsOnce(t *testing.T) {
	store := newFakeStore()
	store.txs["a"] = core.Transaction{ID: "a", OwnerID: "u1", Description: "x", Amount: core.Money{Cents: 1}, Kind: core.Income}

	m := NewManager(store, nil)
	eng := m.Activate(context.Background(), testSession)
	if len(eng.Transactions()) != 1 {
		t.Fatal("activation should load the transaction set")
	}

	again := m.Activate(context.Background(), testSession)
	if again != eng {
		t.Fatal("same session must get the same engine")
	}
	if m.Active() != 1 {
		t.Fatalf("active = %d, want 1", m.Active())
	}
}

// Two requests hitting a brand-new session at the same time must both
// wait for the single initial load instead of one of them reading an
// empty cache.
func TestManagerConcurrentFirstSight(t *testing.T) {
	store := newFakeStore()
	store.txs["a"] = core.Transaction{ID: "a", OwnerID: "u1", Description: "x", Amount: core.Money{Cents: 1}, Kind: core.Income}
	store.listGate = make(chan struct{})
	store.listEntered = make(chan struct{}, 1)

	m := NewManager(store, nil)

	var wg sync.WaitGroup
	engines := make([]*Engine, 2)
	for i := range engines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			engines[i] = m.Activate(context.Background(), testSession)
		}(i)
	}

	// One load is in flight; release it and let both callers return.
	<-store.listEntered
	close(store.listGate)
	wg.Wait()

	if engines[0] != engines[1] {
		t.Fatal("both requests must share one engine")
	}
	for i, eng := range engines {
		if len(eng.Transactions()) != 1 {
			t.Fatalf("engine %d saw %d transactions, want 1", i, len(eng.Transactions()))
		}
	}
	if store.lists != 1 {
		t.Fatalf("store List called %d times, want 1", store.lists)
	}
}

func TestManagerSessionsAreIsolated(t *testing.T) {
	store := newFakeStore()
	store.txs["a"] = core.Transaction{ID: "a", OwnerID: "u1", Description: "x", Amount: core.Money{Cents: 1}, Kind: core.Income}
	store.txs["b"] = core.Transaction{ID: "b", OwnerID: "u2", Description: "y", Amount: core.Money{Cents: 2}, Kind: core.Income}

	m := NewManager(store, nil)
	one := m.Activate(context.Background(), core.Session{UserID: "u1"})
	two := m.Activate(context.Background(), core.Session{UserID: "u2"})

	if one == two {
		t.Fatal("different sessions must not share an engine")
	}
	if got := one.Transactions(); len(got) != 1 || got[0].OwnerID != "u1" {
		t.Fatalf("u1 cache = %v", got)
	}
	if got := two.Transactions(); len(got) != 1 || got[0].OwnerID != "u2" {
		t.Fatalf("u2 cache = %v", got)
	}
}

func TestManagerDeactivate(t *testing.T) {
	store := newFakeStore()
	store.txs["a"] = core.Transaction{ID: "a", OwnerID: "u1", Description: "x", Amount: core.Money{Cents: 1}, Kind: core.Income}

	m := NewManager(store, nil)
	eng := m.Activate(context.Background(), testSession)
	m.Deactivate("u1")

	if m.Active() != 0 {
		t.Fatalf("active = %d, want 0", m.Active())
	}
	if len(eng.Transactions()) != 0 {
		t.Fatal("deactivation must discard the cache")
	}

	fresh := m.Activate(context.Background(), testSession)
	if fresh == eng {
		t.Fatal("re-activation must build a fresh engine")
	}
	if len(fresh.Transactions()) != 1 {
		t.Fatal("fresh engine should reload from the store")
	}
}
