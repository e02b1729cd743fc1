package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionAppender interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	TransactionRemover interface {
		Remove(ctx context.Context, id string) error
	}

	// Mirror maintains a spreadsheet copy of the transaction log.
	Mirror interface {
		TransactionAppender
		TransactionRemover
	}
)
