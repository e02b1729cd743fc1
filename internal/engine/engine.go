// Package engine holds the per-session transaction cache and derives every
// summary view from it. All mutations flow through the engine so the cache
// stays consistent with the store without full reloads.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Store is the persistence contract the engine drives. Implementations must
// reject operations lacking an owner with an error distinct from not-found.
type Store interface {
	List(ctx context.Context, ownerID string) ([]core.Transaction, error)
	Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Update(ctx context.Context, id, ownerID string, patch core.TransactionPatch) (core.Transaction, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// ErrNotAuthenticated is returned when a mutation is attempted without an
// active session.
var ErrNotAuthenticated = errors.New("not authenticated")

// ValidationError rejects bad input before any store call is made.
type ValidationError struct {
	Reason error
}

func (e *ValidationError) Error() string { return e.Reason.Error() }
func (e *ValidationError) Unwrap() error { return e.Reason }

// FailureKind classifies why a mutation failed.
type FailureKind string

const (
	FailureNone             FailureKind = ""
	FailureValidation       FailureKind = "validation"
	FailureNotAuthenticated FailureKind = "not_authenticated"
	FailureNotFound         FailureKind = "not_found"
	FailureStore            FailureKind = "store"
)

// Result is the uniform outcome of a mutation. Mutations never panic or
// leak errors past the engine boundary; failures are reported here with a
// human-readable reason.
type Result struct {
	Success     bool              `json:"success"`
	Transaction *core.Transaction `json:"data,omitempty"`
	Err         string            `json:"error,omitempty"`
	Failure     FailureKind       `json:"-"`
}

func success(t core.Transaction) Result {
	return Result{Success: true, Transaction: &t}
}

func failure(kind FailureKind, err error) Result {
	return Result{Success: false, Err: err.Error(), Failure: kind}
}

// CreateInput is the payload for a new transaction. The owner is supplied by
// the engine's session, never by the caller.
type CreateInput struct {
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Kind        core.Kind  `json:"kind"`
	OccurredOn  core.Date  `json:"occurredOn"`
}

// Engine caches one owner's transactions and answers derived queries from
// the cache. It is scoped to exactly one session; switching users means a
// new engine.
//
// The cache is guarded by a mutex because HTTP handlers reach it from
// concurrent goroutines. Overlapping mutations still race at the store
// level, last writer wins, which is acceptable for a single interactive
// user.
type Engine struct {
	store   Store
	session core.Session
	logger  *log.Logger

	mu      sync.Mutex
	txs     []core.Transaction
	loading bool
	gen     uint64 // bumped by Reset so a stale Load cannot resurrect old data

	// loadOnce serializes the initial load: a second request arriving
	// during first sight of the session waits for the load instead of
	// reading an empty cache.
	loadOnce sync.Once
}

// New creates an engine bound to one session. Call Load before serving
// queries.
func New(store Store, session core.Session, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Engine{
		store:   store,
		session: session,
		logger:  logger.WithComponent(log.ComponentEngine),
	}
}

// Session returns the session this engine is scoped to.
func (e *Engine) Session() core.Session {
	return e.session
}

// Loading reports whether a load or mutation is in flight.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Load fetches the owner's full transaction set and replaces the cache
// wholesale. A failed fetch is logged and leaves the cache at its prior
// state; there is no retry. A Reset issued while the fetch was in flight
// wins: the late response is dropped.
func (e *Engine) Load(ctx context.Context) error {
	if !e.session.Active() {
		return ErrNotAuthenticated
	}

	e.mu.Lock()
	gen := e.gen
	e.loading = true
	e.mu.Unlock()
	defer e.setLoading(false)

	txs, err := e.store.List(ctx, e.session.UserID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Transaction load failed",
			log.FieldOwnerID, e.session.UserID,
			log.FieldError, err)
		return fmt.Errorf("load transactions: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		e.logger.WarnContext(ctx, "Dropping stale transaction load",
			log.FieldOwnerID, e.session.UserID,
			log.FieldCount, len(txs))
		return nil
	}
	e.txs = txs
	e.logger.InfoContext(ctx, "Transactions loaded",
		log.FieldOwnerID, e.session.UserID,
		log.FieldCount, len(txs))
	return nil
}

// Reset empties the cache. Used on session clear; any in-flight load for
// the old generation is discarded when it lands.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.txs = nil
	e.gen++
}

// Create validates the input, persists it, and appends the store-returned
// record (with its assigned id and timestamp) to the cache.
func (e *Engine) Create(ctx context.Context, in CreateInput) Result {
	if !e.session.Active() {
		return failure(FailureNotAuthenticated, ErrNotAuthenticated)
	}

	t := core.Transaction{
		OwnerID:     e.session.UserID,
		Description: in.Description,
		Amount:      in.Amount,
		Category:    core.NormalizeCategory(in.Category),
		Kind:        in.Kind,
		OccurredOn:  in.OccurredOn,
	}
	if err := t.Validate(); err != nil {
		return failure(FailureValidation, &ValidationError{Reason: err})
	}

	e.setLoading(true)
	defer e.setLoading(false)

	created, err := e.store.Create(ctx, t)
	if err != nil {
		e.logger.ErrorContext(ctx, "Transaction create failed",
			log.FieldOwnerID, e.session.UserID,
			log.FieldError, err)
		return storeFailure(err)
	}

	e.mu.Lock()
	e.txs = append(e.txs, created)
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "Transaction created",
		log.FieldTxID, created.ID,
		log.FieldKind, string(created.Kind),
		log.FieldAmountCents, created.Amount.Cents)
	return success(created)
}

// Update sends the patch to the store and, on success, merges the patched
// fields into the matching cached record in place. Unspecified fields are
// retained. Owner and kind cannot change through this path.
func (e *Engine) Update(ctx context.Context, id string, patch core.TransactionPatch) Result {
	if !e.session.Active() {
		return failure(FailureNotAuthenticated, ErrNotAuthenticated)
	}
	if err := patch.Validate(); err != nil {
		return failure(FailureValidation, &ValidationError{Reason: err})
	}
	if patch.Empty() {
		return failure(FailureValidation, &ValidationError{Reason: errors.New("empty patch")})
	}

	e.setLoading(true)
	defer e.setLoading(false)

	updated, err := e.store.Update(ctx, id, e.session.UserID, patch)
	if err != nil {
		e.logger.ErrorContext(ctx, "Transaction update failed",
			log.FieldTxID, id,
			log.FieldError, err)
		return storeFailure(err)
	}

	e.mu.Lock()
	for i := range e.txs {
		if e.txs[i].ID == id {
			applyPatch(&e.txs[i], patch)
			break
		}
	}
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "Transaction updated", log.FieldTxID, id)
	return success(updated)
}

// Delete removes the record from the store and then from the cache, keyed
// by the store-assigned identifier in both places.
func (e *Engine) Delete(ctx context.Context, id string) Result {
	if !e.session.Active() {
		return failure(FailureNotAuthenticated, ErrNotAuthenticated)
	}

	e.setLoading(true)
	defer e.setLoading(false)

	if err := e.store.Delete(ctx, id, e.session.UserID); err != nil {
		e.logger.ErrorContext(ctx, "Transaction delete failed",
			log.FieldTxID, id,
			log.FieldError, err)
		return storeFailure(err)
	}

	e.mu.Lock()
	for i := range e.txs {
		if e.txs[i].ID == id {
			e.txs = append(e.txs[:i], e.txs[i+1:]...)
			break
		}
	}
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "Transaction deleted", log.FieldTxID, id)
	return Result{Success: true}
}

func applyPatch(t *core.Transaction, p core.TransactionPatch) {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = core.NormalizeCategory(*p.Category)
	}
	if p.OccurredOn != nil {
		t.OccurredOn = *p.OccurredOn
	}
}

func storeFailure(err error) Result {
	if errors.Is(err, core.ErrNotFound) {
		return failure(FailureNotFound, err)
	}
	return failure(FailureStore, err)
}
