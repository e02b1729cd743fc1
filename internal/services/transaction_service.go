package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Publisher emits export messages for the spreadsheet worker.
type Publisher interface {
	PublishTransactionExport(ctx context.Context, id, action string) error
}

// TransactionService orchestrates transaction writes across SQLite and AMQP.
// The local write is authoritative, publish failures are logged and the
// pending-export scan picks the record up later.
type TransactionService struct {
	storage   *storage.Repository
	publisher Publisher
}

func NewTransactionService(storage *storage.Repository, publisher Publisher) *TransactionService {
	return &TransactionService{
		storage:   storage,
		publisher: publisher,
	}
}

// List returns the owner's transactions from local storage.
func (s *TransactionService) List(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	return s.storage.List(ctx, ownerID)
}

// Create saves a transaction locally and publishes an export message.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	created, err := s.storage.Create(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, created.ID, amqp.ActionAppend)
	return created, nil
}

// Update applies a partial update locally and republishes the record.
func (s *TransactionService) Update(ctx context.Context, id, ownerID string, patch core.TransactionPatch) (core.Transaction, error) {
	updated, err := s.storage.Update(ctx, id, ownerID, patch)
	if err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, updated.ID, amqp.ActionAppend)
	return updated, nil
}

// Delete removes a transaction locally and publishes a removal message.
func (s *TransactionService) Delete(ctx context.Context, id, ownerID string) error {
	if err := s.storage.Delete(ctx, id, ownerID); err != nil {
		return err
	}

	s.publish(ctx, id, amqp.ActionRemove)
	return nil
}

func (s *TransactionService) publish(ctx context.Context, id, action string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Publisher not available, skipping export message", "id", id)
		return
	}

	if err := s.publisher.PublishTransactionExport(ctx, id, action); err != nil {
		// The transaction is already committed locally. The worker's
		// pending-export scan will catch it.
		slog.ErrorContext(ctx, "Failed to publish export message",
			"id", id,
			"action", action,
			"error", err)
	}
}

// Close closes the underlying storage.
func (s *TransactionService) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}
	return nil
}
