package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/faloosh2002/financial-control-platform/internal/amqp"
	"github.com/faloosh2002/financial-control-platform/internal/backup"
	"github.com/faloosh2002/financial-control-platform/internal/core"
	"github.com/faloosh2002/financial-control-platform/internal/storage"
)

// EntryStore is the storage surface the backup worker reads from.
// *storage.SQLiteRepository satisfies it.
type EntryStore interface {
	GetIncome(ctx context.Context, id int64) (core.IncomeEntry, int64, error)
	GetExpense(ctx context.Context, id int64) (core.ExpenseEntry, int64, error)
	GetDebt(ctx context.Context, id int64) (core.DebtObligation, int64, error)
	ListPendingBackup(ctx context.Context, limit int) ([]storage.PendingEntry, error)
	MarkBackedUp(ctx context.Context, kind string, id int64) error
}

// EntryAppender writes one entry row to the backup target.
// *backup.SheetsClient satisfies it.
type EntryAppender interface {
	AppendEntry(ctx context.Context, row backup.EntryRow) error
}

// BackupWorker copies recorded ledger entries to the backup spreadsheet.
type BackupWorker struct {
	store     EntryStore
	sheets    EntryAppender
	batchSize int
}

func NewBackupWorker(store EntryStore, sheets EntryAppender, batchSize int) *BackupWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &BackupWorker{
		store:     store,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleEntryEvent processes a single entry event from AMQP.
func (w *BackupWorker) HandleEntryEvent(ctx context.Context, msg *amqp.EntryEventMessage) error {
	return w.backupEntry(ctx, msg.Kind, msg.ID)
}

// ProcessPendingEntries backs up entries whose events were lost. Runs at
// startup and on a timer as a recovery path.
func (w *BackupWorker) ProcessPendingEntries(ctx context.Context) error {
	pending, err := w.store.ListPendingBackup(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending entries: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending backup entries", "count", len(pending))

	for _, p := range pending {
		if err := w.backupEntry(ctx, p.Kind, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to back up entry",
				"kind", p.Kind, "id", p.ID, "error", err)
		}
	}

	return nil
}

func (w *BackupWorker) backupEntry(ctx context.Context, kind string, id int64) error {
	row, err := w.loadEntry(ctx, kind, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Entry was deleted before the backup ran; nothing left to copy.
		slog.WarnContext(ctx, "Entry no longer exists, skipping backup", "kind", kind, "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load entry: %w", err)
	}

	if err := w.sheets.AppendEntry(ctx, row); err != nil {
		return fmt.Errorf("append to backup sheet: %w", err)
	}

	if err := w.store.MarkBackedUp(ctx, kind, id); err != nil {
		// The append succeeded; the sweep may duplicate this row later.
		slog.ErrorContext(ctx, "Failed to mark entry as backed up",
			"kind", kind, "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Entry backed up", "kind", kind, "id", id)
	return nil
}

func (w *BackupWorker) loadEntry(ctx context.Context, kind string, id int64) (backup.EntryRow, error) {
	switch kind {
	case amqp.KindIncome:
		e, userID, err := w.store.GetIncome(ctx, id)
		if err != nil {
			return backup.EntryRow{}, err
		}
		return backup.EntryRow{
			Kind:        kind,
			EntryID:     e.ID,
			UserID:      userID,
			Date:        e.Date.String(),
			AmountCents: e.Amount.Cents,
			Detail:      e.Source,
		}, nil
	case amqp.KindExpense:
		e, userID, err := w.store.GetExpense(ctx, id)
		if err != nil {
			return backup.EntryRow{}, err
		}
		return backup.EntryRow{
			Kind:        kind,
			EntryID:     e.ID,
			UserID:      userID,
			Date:        e.Date.String(),
			AmountCents: e.Amount.Cents,
			Detail:      fmt.Sprintf("%s / %s (%s)", e.Category, e.Description, e.Kind),
		}, nil
	case amqp.KindDebt:
		d, userID, err := w.store.GetDebt(ctx, id)
		if err != nil {
			return backup.EntryRow{}, err
		}
		return backup.EntryRow{
			Kind:        kind,
			EntryID:     d.ID,
			UserID:      userID,
			AmountCents: d.Balance.Cents,
			Detail:      fmt.Sprintf("%s, min payment %d cents", d.Name, d.MinPayment.Cents),
		}, nil
	}
	return backup.EntryRow{}, fmt.Errorf("unknown entry kind %q", kind)
}
