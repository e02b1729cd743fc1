package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// The export worker mirrors transactions to a spreadsheet. These queries
// track which rows still need to go out and which gave up.

// PendingExports returns up to limit transactions that have not been
// mirrored yet, oldest first.
func (r *Repository) PendingExports(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, export_attempts, recorded_at FROM transactions
		 WHERE exported_at IS NULL
		 ORDER BY recorded_at ASC
		 LIMIT ?`, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending exports: %w", err)
	}
	defer rows.Close()

	var out []PendingExport
	for rows.Next() {
		var p PendingExport
		if err := rows.Scan(&p.ID, &p.Attempts, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending exports: %w", err)
	}
	return out, nil
}

// MarkExported records that the transaction reached the mirror.
func (r *Repository) MarkExported(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET exported_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked exported", "id", id)
	return nil
}

// MarkExportError bumps the attempt counter so repeated failures are
// visible and the periodic scan keeps retrying them last.
func (r *Repository) MarkExportError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_attempts = export_attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction export failed", "id", id)
	return nil
}
