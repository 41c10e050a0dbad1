package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"monny/internal/amqp"
	"monny/internal/core"
	"monny/internal/sheets"
	"monny/internal/storage"
)

type fakeStore struct {
	rows       map[int64]sheets.StatementRow
	pending    []storage.PendingTransaction
	pendingErr error
	synced     []int64
	syncErrors []int64
}

func (f *fakeStore) ExportRow(_ context.Context, id int64) (sheets.StatementRow, error) {
	row, ok := f.rows[id]
	if !ok {
		return sheets.StatementRow{}, core.ErrNotFound
	}
	return row, nil
}

func (f *fakeStore) PendingSyncTransactions(_ context.Context, _ int) ([]storage.PendingTransaction, error) {
	return f.pending, f.pendingErr
}

func (f *fakeStore) MarkSynced(_ context.Context, id int64) error {
	f.synced = append(f.synced, id)
	return nil
}

func (f *fakeStore) MarkSyncError(_ context.Context, id int64) error {
	f.syncErrors = append(f.syncErrors, id)
	return nil
}

type fakeWriter struct {
	appended []sheets.StatementRow
	err      error
}

func (f *fakeWriter) AppendStatement(_ context.Context, row sheets.StatementRow) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, row)
	return nil
}

func statementRow(id, version int64) sheets.StatementRow {
	return sheets.StatementRow{
		TransactionID: id,
		Version:       version,
		Owner:         "alice",
		AccountName:   "Main",
		OccurredAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Name:          "Groceries",
		Type:          "expense",
		AmountCents:   -12000,
	}
}

func TestHandleSyncMessageExports(t *testing.T) {
	store := &fakeStore{rows: map[int64]sheets.StatementRow{7: statementRow(7, 1)}}
	writer := &fakeWriter{}
	w := NewExportWorker(store, writer, 10)

	msg := amqp.NewSyncMessage(7, 1, amqp.ActionUpsert)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	if len(writer.appended) != 1 || writer.appended[0].TransactionID != 7 {
		t.Fatalf("expected transaction 7 appended, got %+v", writer.appended)
	}
	if len(store.synced) != 1 || store.synced[0] != 7 {
		t.Fatalf("expected transaction 7 marked synced, got %v", store.synced)
	}
}

func TestHandleSyncMessageDeleteIsNoop(t *testing.T) {
	store := &fakeStore{rows: map[int64]sheets.StatementRow{7: statementRow(7, 1)}}
	writer := &fakeWriter{}
	w := NewExportWorker(store, writer, 10)

	msg := amqp.NewSyncMessage(7, 0, amqp.ActionDelete)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if len(writer.appended) != 0 {
		t.Fatalf("delete must not append, got %+v", writer.appended)
	}
}

func TestHandleSyncMessageMissingRowAcked(t *testing.T) {
	store := &fakeStore{rows: map[int64]sheets.StatementRow{}}
	writer := &fakeWriter{}
	w := NewExportWorker(store, writer, 10)

	msg := amqp.NewSyncMessage(99, 1, amqp.ActionUpsert)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("missing row should not requeue, got %v", err)
	}
	if len(writer.appended) != 0 {
		t.Fatalf("missing row must not append, got %+v", writer.appended)
	}
}

func TestHandleSyncMessageSkipsStaleVersion(t *testing.T) {
	store := &fakeStore{rows: map[int64]sheets.StatementRow{7: statementRow(7, 3)}}
	writer := &fakeWriter{}
	w := NewExportWorker(store, writer, 10)

	msg := amqp.NewSyncMessage(7, 2, amqp.ActionUpsert)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if len(writer.appended) != 0 {
		t.Fatalf("stale message must not append, got %+v", writer.appended)
	}
	if len(store.synced) != 0 {
		t.Fatalf("stale message must not mark synced, got %v", store.synced)
	}
}

func TestHandleSyncMessageWriterFailureRequeues(t *testing.T) {
	store := &fakeStore{rows: map[int64]sheets.StatementRow{7: statementRow(7, 1)}}
	writer := &fakeWriter{err: errors.New("quota exceeded")}
	w := NewExportWorker(store, writer, 10)

	msg := amqp.NewSyncMessage(7, 1, amqp.ActionUpsert)
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error so the message requeues")
	}
	if len(store.syncErrors) != 1 || store.syncErrors[0] != 7 {
		t.Fatalf("expected sync error recorded for 7, got %v", store.syncErrors)
	}
	if len(store.synced) != 0 {
		t.Fatalf("failed export must not mark synced, got %v", store.synced)
	}
}

func TestProcessPendingDrivesBatch(t *testing.T) {
	store := &fakeStore{
		rows: map[int64]sheets.StatementRow{
			1: statementRow(1, 1),
			2: statementRow(2, 2),
		},
		pending: []storage.PendingTransaction{
			{ID: 1, Version: 1},
			{ID: 2, Version: 2},
		},
	}
	writer := &fakeWriter{}
	w := NewExportWorker(store, writer, 10)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if len(writer.appended) != 2 {
		t.Fatalf("expected 2 rows appended, got %d", len(writer.appended))
	}
	if len(store.synced) != 2 {
		t.Fatalf("expected 2 rows marked synced, got %v", store.synced)
	}
}

func TestProcessPendingReportsFailures(t *testing.T) {
	store := &fakeStore{
		rows:    map[int64]sheets.StatementRow{1: statementRow(1, 1)},
		pending: []storage.PendingTransaction{{ID: 1, Version: 1}},
	}
	writer := &fakeWriter{err: errors.New("network down")}
	w := NewExportWorker(store, writer, 10)

	if err := w.ProcessPending(context.Background()); err == nil {
		t.Fatal("expected aggregated failure")
	}
}
