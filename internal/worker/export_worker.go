// Package worker drives the asynchronous statement export: it consumes sync
// messages, loads the current transaction state, and appends rows to the
// configured statement sheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"monny/internal/amqp"
	"monny/internal/core"
	"monny/internal/sheets"
	"monny/internal/storage"
)

// Store is the slice of the persistence gateway the worker needs.
type Store interface {
	ExportRow(ctx context.Context, id int64) (sheets.StatementRow, error)
	PendingSyncTransactions(ctx context.Context, limit int) ([]storage.PendingTransaction, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

type ExportWorker struct {
	store     Store
	statement sheets.StatementWriter
	batchSize int
}

func NewExportWorker(store Store, statement sheets.StatementWriter, batchSize int) *ExportWorker {
	return &ExportWorker{
		store:     store,
		statement: statement,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one message from the queue. Returning an error
// requeues the message.
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	if msg.Action == amqp.ActionDelete {
		// The statement is append-only; deletions are recorded nowhere, only
		// acknowledged so the queue drains.
		slog.InfoContext(ctx, "Transaction deleted upstream, nothing to export", "id", msg.ID)
		return nil
	}

	row, err := w.store.ExportRow(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted between publish and consume. Not an error.
		slog.WarnContext(ctx, "Transaction gone before export", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction %d: %w", msg.ID, err)
	}

	if msg.Version != 0 && msg.Version < row.Version {
		// A later update queued a newer message; let that one export.
		slog.InfoContext(ctx, "Skipping stale sync message",
			"id", msg.ID,
			"message_version", msg.Version,
			"current_version", row.Version)
		return nil
	}

	if err := w.statement.AppendStatement(ctx, row); err != nil {
		if markErr := w.store.MarkSyncError(ctx, msg.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record sync error", "id", msg.ID, "error", markErr)
		}
		return fmt.Errorf("export transaction %d: %w", msg.ID, err)
	}

	if err := w.store.MarkSynced(ctx, msg.ID); err != nil {
		return fmt.Errorf("mark transaction %d synced: %w", msg.ID, err)
	}

	return nil
}

// ProcessPending re-drives rows still flagged pending, catching anything
// whose message was lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.PendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Re-driving pending exports", "count", len(pending))

	var failed int
	for _, p := range pending {
		msg := amqp.NewSyncMessage(p.ID, p.Version, amqp.ActionUpsert)
		if err := w.HandleSyncMessage(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Pending export failed", "id", p.ID, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pending exports failed", failed, len(pending))
	}
	return nil
}
