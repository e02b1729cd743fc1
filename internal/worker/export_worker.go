package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// ExportWorker mirrors transactions from SQLite to a spreadsheet. It reacts
// to AMQP export messages and periodically scans for records the messages
// missed.
type ExportWorker struct {
	storage   *storage.Repository
	mirror    sheets.Mirror
	batchSize int
}

func NewExportWorker(storage *storage.Repository, mirror sheets.Mirror, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes a single export message from AMQP.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.TransactionExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"id", msg.ID,
		"action", msg.Action)

	switch msg.Action {
	case amqp.ActionAppend:
		return w.exportTransaction(ctx, msg.ID)
	case amqp.ActionRemove:
		if err := w.mirror.Remove(ctx, msg.ID); err != nil {
			return fmt.Errorf("remove from mirror: %w", err)
		}
		return nil
	default:
		// The decoder rejects unknown actions, but a mixed-version queue
		// can still deliver one. Drop it rather than requeue forever.
		slog.WarnContext(ctx, "Dropping message with unknown action",
			"id", msg.ID,
			"action", msg.Action)
		return nil
	}
}

// exportTransaction upserts one transaction into the mirror. The row is
// removed first so a re-export after an update does not duplicate it.
func (w *ExportWorker) exportTransaction(ctx context.Context, id string) error {
	t, err := w.storage.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted between publish and consume. Nothing to mirror.
		slog.InfoContext(ctx, "Transaction gone before export", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.mirror.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove stale row: %w", err)
	}

	ref, err := w.mirror.Append(ctx, t)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to mirror: %w", err)
	}

	if err := w.storage.MarkExported(ctx, id); err != nil {
		// The export itself worked, only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", id,
		"mirror_ref", ref,
		"amount_cents", t.Amount.Cents)
	return nil
}

// ProcessPendingExports exports transactions that have no exported-at mark.
// This is the backup path for lost AMQP messages.
func (w *ExportWorker) ProcessPendingExports(ctx context.Context) error {
	pending, err := w.storage.PendingExports(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending exports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, p := range pending {
		if err := w.exportTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending transaction",
				"id", p.ID,
				"attempts", p.Attempts,
				"error", err)
		}
	}
	return nil
}

// StartupCheck drains a larger pending backlog once at worker startup to
// recover from downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.PendingExports(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending exports for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup", "count", len(pending))

	exported := 0
	failed := 0
	for _, p := range pending {
		if err := w.exportTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export during startup",
				"id", p.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export check completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return nil
}
