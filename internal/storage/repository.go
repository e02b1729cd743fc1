// Package storage persists users and transactions in SQLite. Transaction
// ids are assigned here, on insert, and are the only identifier the rest
// of the system uses.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
)

var (
	// ErrOwnerRequired rejects store operations with no owner. Kept
	// distinct from core.ErrNotFound so callers can tell a bad request
	// from a missing record.
	ErrOwnerRequired = errors.New("owner id required")

	ErrEmailTaken = errors.New("email already registered")
)

// User is an account row. PasswordHash never leaves this package except to
// the auth package for verification.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// PendingExport is the minimal row the export worker needs to pick up a
// transaction that has not reached the spreadsheet mirror yet.
type PendingExport struct {
	ID         string
	Attempts   int64
	RecordedAt time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks database liveness for readiness probes.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// List returns every transaction belonging to the owner. Order is not part
// of the contract; callers sort what they need sorted.
func (r *Repository) List(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrOwnerRequired
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, description, amount_cents, category, kind, occurred_on, recorded_at
		 FROM transactions WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// Create inserts the transaction, assigning its id and recorded-at
// timestamp, and returns the stored record.
func (r *Repository) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if strings.TrimSpace(t.OwnerID) == "" {
		return core.Transaction{}, ErrOwnerRequired
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	t.ID = uuid.NewString()
	t.RecordedAt = time.Now().UTC()
	t.Category = core.NormalizeCategory(t.Category)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, owner_id, description, amount_cents, category, kind, occurred_on, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Description, t.Amount.Cents, t.Category, string(t.Kind),
		t.OccurredOn.String(), t.RecordedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"owner_id", t.OwnerID,
		"kind", string(t.Kind),
		"amount_cents", t.Amount.Cents)
	return t, nil
}

// Get returns a single transaction by id regardless of owner. Used by the
// export worker, which acts across owners.
func (r *Repository) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, description, amount_cents, category, kind, occurred_on, recorded_at
		 FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, err
}

// Update applies the non-nil patch fields to the owner's transaction and
// returns the updated record. Owner and kind columns are never touched.
func (r *Repository) Update(ctx context.Context, id, ownerID string, patch core.TransactionPatch) (core.Transaction, error) {
	if strings.TrimSpace(ownerID) == "" {
		return core.Transaction{}, ErrOwnerRequired
	}
	if err := patch.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate patch: %w", err)
	}

	var (
		sets []string
		args []any
	)
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, patch.Amount.Cents)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, core.NormalizeCategory(*patch.Category))
	}
	if patch.OccurredOn != nil {
		sets = append(sets, "occurred_on = ?")
		args = append(args, patch.OccurredOn.String())
	}
	if len(sets) == 0 {
		return r.ownedTransaction(ctx, id, ownerID)
	}

	args = append(args, id, ownerID)
	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ? AND owner_id = ?",
		args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if affected == 0 {
		return core.Transaction{}, core.ErrNotFound
	}

	return r.ownedTransaction(ctx, id, ownerID)
}

// Delete removes the owner's transaction permanently. No soft delete.
func (r *Repository) Delete(ctx context.Context, id, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrOwnerRequired
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "owner_id", ownerID)
	return nil
}

func (r *Repository) ownedTransaction(ctx context.Context, id, ownerID string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, description, amount_cents, category, kind, occurred_on, recorded_at
		 FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		cents      int64
		kind       string
		occurredOn string
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &cents, &t.Category, &kind, &occurredOn, &t.RecordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Amount = core.Money{Cents: cents}
	t.Kind = core.Kind(kind)
	t.OccurredOn, err = core.ParseDate(occurredOn)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse occurred_on %q: %w", occurredOn, err)
	}
	return t, nil
}
